// Copyright 2025 Crosstown Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/crosstown/tabindex/answer"
)

const defaultTopK = 5

// Server exposes the retrieval service over HTTP.
type Server struct {
	echo        *echo.Echo
	service     *answer.Service
	defaultTopK int
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithDefaultTopK sets the top-K used when a query omits top_k.
// Default is 5.
func WithDefaultTopK(topK int) Option {
	return func(s *Server) error {
		if topK < 1 {
			return fmt.Errorf("default top-k must be positive")
		}
		s.defaultTopK = topK
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates the HTTP server for the given retrieval service.
func NewServer(service *answer.Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	s := &Server{
		service:     service,
		defaultTopK: defaultTopK,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	e.GET("/health", s.handleHealth)
	e.POST("/query", s.handleQuery)

	s.echo = e
	return s, nil
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		s.logger.Info("http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"duration", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return err
	}
}

// QueryRequest is the request body for POST /query.
type QueryRequest struct {
	Question  string    `json:"question"`
	Embedding []float64 `json:"embedding"`
	TopK      int       `json:"top_k"`
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", "err", err)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	topK := req.TopK
	if topK < 1 {
		topK = s.defaultTopK
	}

	vector := make([]float32, len(req.Embedding))
	for i, v := range req.Embedding {
		vector[i] = float32(v)
	}

	result, err := s.service.Answer(c.Request().Context(), req.Question, vector, topK)
	if err != nil {
		s.logger.Error("query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

// Start listens on the given address and serves until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
