package index

import "context"

// Record is a stored vector with its document metadata.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Match is a similarity query result. Ordering by descending score is the
// index service's responsibility.
type Match struct {
	Record
	Score float32
}

// Catalog manages named vector indexes on a remote index service.
// Implementations must be thread-safe and support concurrent access.
type Catalog interface {
	// EnsureIndex creates the named index with the given vector dimension
	// and a cosine distance metric if it does not already exist, then blocks
	// until the service reports it ready or the readiness deadline passes.
	// Ensuring an existing index is a no-op.
	EnsureIndex(ctx context.Context, name string, dimension uint64) error

	// ListIndexes returns the names of all indexes on the service.
	ListIndexes(ctx context.Context) ([]string, error)

	// Index returns a handle for operating on the named index.
	// The handle is valid even if the index does not exist yet; operations
	// on a missing index fail at call time.
	Index(name string) Index

	// Health checks connectivity to the index service.
	Health(ctx context.Context) error

	// Close closes the connection to the index service.
	Close() error
}

// Index operates on a single named vector index.
// Implementations must be thread-safe and support concurrent access.
type Index interface {
	// Upsert inserts or overwrites records keyed by their IDs.
	Upsert(ctx context.Context, records []*Record) error

	// Query returns the topK records most similar to the vector,
	// ordered by descending score, with metadata included.
	Query(ctx context.Context, vector []float32, topK uint64) ([]*Match, error)

	// List returns one page of record IDs starting at the given offset.
	// An empty offset starts from the beginning. The returned next offset is
	// empty when the listing is exhausted. A page may be empty even when the
	// listing is not exhausted; callers must continue until next is empty.
	List(ctx context.Context, limit uint32, offset string) (ids []string, next string, err error)

	// Fetch retrieves records by ID, with metadata included.
	// Missing IDs are absent from the result, not an error.
	Fetch(ctx context.Context, ids []string) (map[string]*Record, error)
}
