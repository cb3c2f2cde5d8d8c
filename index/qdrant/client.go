package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/crosstown/tabindex/index"
)

// Catalog implements index.Catalog using Qdrant's official Go client.
type Catalog struct {
	client *qdrant.Client
	config *Config
	logger *slog.Logger
}

// Config configures the Qdrant gRPC client.
type Config struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334
	Port int

	// UseTLS enables TLS encryption for the gRPC connection.
	// Default: false (for local development)
	UseTLS bool

	// APIKey is the optional API key for authentication.
	// Leave empty for local development.
	APIKey string

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB
	MaxMessageSize int

	// DialTimeout is the timeout for establishing the connection.
	// Default: 5 seconds
	DialTimeout time.Duration

	// RequestTimeout is the default timeout for individual requests.
	// Default: 30 seconds
	RequestTimeout time.Duration

	// ReadyTimeout bounds how long EnsureIndex waits for a newly created
	// index to report ready.
	// Default: 60 seconds
	ReadyTimeout time.Duration

	// RetryAttempts is the number of retry attempts for transient failures.
	// Default: 3
	RetryAttempts int
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           6334,
		UseTLS:         false,
		MaxMessageSize: 50 * 1024 * 1024,
		DialTimeout:    5 * time.Second,
		RequestTimeout: 30 * time.Second,
		ReadyTimeout:   60 * time.Second,
		RetryAttempts:  3,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.Port == 0 {
		c.Port = defaults.Port
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = defaults.MaxMessageSize
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaults.DialTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = defaults.ReadyTimeout
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = defaults.RetryAttempts
	}
}

// Validate validates the client configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("invalid max message size: %d (must be > 0)", c.MaxMessageSize)
	}
	return nil
}

// NewCatalog connects to Qdrant and verifies the connection with a health
// check before returning.
//
// Returns index.Catalog interface to enforce abstraction.
func NewCatalog(config *Config, opts ...Option) (index.Catalog, error) {
	return newCatalog(config, opts...)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newCatalog(config *Config, opts ...Option) (*Catalog, error) {
	if config == nil {
		config = DefaultConfig()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	qdrantConfig := &qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		APIKey: config.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	}

	// Non-TLS connections need explicit insecure credentials.
	if !config.UseTLS {
		qdrantConfig.GrpcOptions = append(qdrantConfig.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	catalog := &Catalog{
		client: client,
		config: config,
		logger: slog.Default().With("component", "qdrant-catalog"),
	}
	for _, opt := range opts {
		opt(catalog)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()

	catalog.logger.Info("connecting to qdrant", "host", config.Host, "port", config.Port)

	if err := catalog.Health(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("health check failed: %w", err)
	}

	return catalog, nil
}

// Health performs a health check on the Qdrant connection.
func (c *Catalog) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	if _, err := c.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// ListIndexes returns the names of all collections on the service.
func (c *Catalog) ListIndexes(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var names []string
	err := c.retryOperation(ctx, func() error {
		result, err := c.client.ListCollections(ctx)
		if err != nil {
			return err
		}
		names = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// EnsureIndex creates the collection if absent (cosine metric) and waits
// until Qdrant reports it ready. Ensuring an existing collection is a no-op.
func (c *Catalog) EnsureIndex(ctx context.Context, name string, dimension uint64) error {
	exists, err := c.indexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking index %q: %w", name, err)
	}

	if exists {
		c.logger.Info("using existing index", "index", name)
		return nil
	}

	c.logger.Info("creating index", "index", name, "dimension", dimension)

	createCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	err = c.retryOperation(createCtx, func() error {
		return c.client.CreateCollection(createCtx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dimension,
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
	if err != nil {
		return fmt.Errorf("creating index %q: %w", name, err)
	}

	return c.waitReady(ctx, name)
}

// waitReady polls collection status with backoff until it reports green or
// the ready deadline passes.
func (c *Catalog) waitReady(ctx context.Context, name string) error {
	deadline := time.Now().Add(c.config.ReadyTimeout)
	backoff := 250 * time.Millisecond

	for {
		ready, err := c.indexReady(ctx, name)
		if err != nil {
			return fmt.Errorf("checking readiness of index %q: %w", name, err)
		}
		if ready {
			c.logger.Info("index ready", "index", name)
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %q did not become ready within %s",
				index.ErrNotReady, name, c.config.ReadyTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for index %q: %w", name, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func (c *Catalog) indexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var exists bool
	err := c.retryOperation(ctx, func() error {
		info, err := c.client.GetCollectionInfo(ctx, name)
		if err != nil {
			st, ok := status.FromError(err)
			if ok && st.Code() == codes.NotFound {
				exists = false
				return nil // not an error, just doesn't exist
			}
			return err
		}
		exists = info != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (c *Catalog) indexReady(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	info, err := c.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return false, err
	}
	return info.GetStatus() == qdrant.CollectionStatus_Green, nil
}

// Index returns a handle for the named collection.
func (c *Catalog) Index(name string) index.Index {
	return &indexHandle{catalog: c, name: name}
}

// Close closes the client connection.
func (c *Catalog) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// retryOperation retries an operation with exponential backoff on transient
// gRPC failures.
func (c *Catalog) retryOperation(ctx context.Context, operation func() error) error {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				c.logger.Info("operation recovered after retries", "attempts", attempt)
			}
			return nil
		}

		lastErr = err

		if !isTransientError(err) {
			return err
		}

		if attempt == c.config.RetryAttempts {
			break
		}

		c.logger.Debug("retrying operation after transient error",
			"attempt", attempt+1,
			"max_attempts", c.config.RetryAttempts,
			"backoff", backoff,
			"err", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled: %w", ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	c.logger.Warn("operation failed after all retries exhausted",
		"total_attempts", c.config.RetryAttempts+1, "err", lastErr)

	return fmt.Errorf("operation failed after %d retries: %w", c.config.RetryAttempts, lastErr)
}

// wrapNotFound maps the service's NotFound status onto index.ErrNotFound so
// callers can detect operations against a missing collection without knowing
// about gRPC.
func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return fmt.Errorf("%w: %s", index.ErrNotFound, st.Message())
	}
	return err
}

// isTransientError checks if an error is transient and should be retried.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}
