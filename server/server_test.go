package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/crosstown/tabindex/ai/mock"
	"github.com/crosstown/tabindex/answer"
	"github.com/crosstown/tabindex/index"
	idxmock "github.com/crosstown/tabindex/index/mock"
)

func setupTestServer(t *testing.T, idx *idxmock.MockIndex, completer *aimock.MockCompleter, opts ...Option) *Server {
	t.Helper()

	service, err := answer.NewService(idx, completer)
	require.NoError(t, err)

	srv, err := NewServer(service, opts...)
	require.NoError(t, err)
	return srv
}

func postQuery(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrServiceRequired)

	srv := setupTestServer(t, idxmock.NewMockIndex(), aimock.NewMockCompleter())
	assert.NotNil(t, srv.echo)

	service, err := answer.NewService(idxmock.NewMockIndex(), aimock.NewMockCompleter())
	require.NoError(t, err)
	_, err = NewServer(service, WithDefaultTopK(0))
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	srv := setupTestServer(t, idxmock.NewMockIndex(), aimock.NewMockCompleter())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestHandleQueryFallback(t *testing.T) {
	idx := idxmock.NewMockIndex()
	require.NoError(t, idx.Upsert(context.Background(), []*index.Record{{
		ID:     "00000000-0000-0000-0000-000000000001",
		Vector: []float32{1, 0},
		Metadata: map[string]any{
			"source_file":       "incidents.csv",
			"row_index":         0,
			"col_Incident Type": "Theft",
		},
	}}))

	completer := aimock.NewMockCompleter()
	completer.Answer = "A theft was reported."
	srv := setupTestServer(t, idx, completer)

	rec := postQuery(t, srv, `{"question":"What happened?","embedding":[1,0],"top_k":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp answer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A theft was reported.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "incidents.csv", resp.Sources[0]["source_file"])
	assert.Equal(t, 1, completer.CallCount())
}

func TestHandleQueryAggregationRule(t *testing.T) {
	idx := idxmock.NewMockIndex()
	require.NoError(t, idx.Upsert(context.Background(), []*index.Record{{
		ID:     "00000000-0000-0000-0000-000000000001",
		Vector: []float32{1, 0},
		Metadata: map[string]any{
			"source_file": "july_2024_crime_summary.csv",
			"col_date":    "2024-07-13",
			"col_count":   "6",
		},
	}}))

	completer := aimock.NewMockCompleter()
	srv := setupTestServer(t, idx, completer)

	rec := postQuery(t, srv, `{"question":"total number of crimes today"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp answer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The total number of crimes today is 6.", resp.Answer)
	assert.Zero(t, completer.CallCount())
}

func TestHandleQueryMalformedBody(t *testing.T) {
	srv := setupTestServer(t, idxmock.NewMockIndex(), aimock.NewMockCompleter())

	rec := postQuery(t, srv, `{"question": not-json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestHandleQueryServiceErrorBecomes500(t *testing.T) {
	idx := idxmock.NewMockIndex()
	idx.QueryFunc = func(ctx context.Context, vector []float32, topK uint64) ([]*index.Match, error) {
		return nil, errors.New("index unavailable")
	}

	srv := setupTestServer(t, idx, aimock.NewMockCompleter())

	rec := postQuery(t, srv, `{"question":"anything","embedding":[1,0]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "index unavailable")
}

func TestHandleQueryDefaultTopK(t *testing.T) {
	idx := idxmock.NewMockIndex()
	var gotTopK uint64
	idx.QueryFunc = func(ctx context.Context, vector []float32, topK uint64) ([]*index.Match, error) {
		gotTopK = topK
		return nil, nil
	}

	srv := setupTestServer(t, idx, aimock.NewMockCompleter(), WithDefaultTopK(7))

	rec := postQuery(t, srv, `{"question":"anything","embedding":[1,0]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), gotTopK)
}

func TestHandleQueryNullQuestion(t *testing.T) {
	idx := idxmock.NewMockIndex()
	completer := aimock.NewMockCompleter()
	srv := setupTestServer(t, idx, completer)

	rec := postQuery(t, srv, `{"question":null,"embedding":[1,0]}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, 1, completer.CallCount())
	assert.True(t, strings.Contains(completer.Prompts()[0], "Context from database:"))
}
