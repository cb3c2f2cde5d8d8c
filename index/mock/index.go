package mock

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/crosstown/tabindex/index"
)

// MockCatalog is an in-memory test double for index.Catalog.
type MockCatalog struct {
	mu      sync.Mutex
	indexes map[string]*MockIndex

	// EnsureIndexFunc is called by EnsureIndex if set.
	// If nil, uses default in-memory behavior.
	EnsureIndexFunc func(ctx context.Context, name string, dimension uint64) error

	ensureCalls []string
}

// NewMockCatalog creates an empty in-memory catalog.
// Note: Returns concrete type to allow test assertions.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{indexes: make(map[string]*MockIndex)}
}

// EnsureIndex records the call and creates the index if absent.
func (c *MockCatalog) EnsureIndex(ctx context.Context, name string, dimension uint64) error {
	c.mu.Lock()
	c.ensureCalls = append(c.ensureCalls, name)
	c.mu.Unlock()

	if c.EnsureIndexFunc != nil {
		return c.EnsureIndexFunc(ctx, name, dimension)
	}

	idx := c.Index(name).(*MockIndex)
	idx.mu.Lock()
	idx.dimension = dimension
	idx.mu.Unlock()
	return nil
}

// ListIndexes returns the names of all created indexes.
func (c *MockCatalog) ListIndexes(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.indexes))
	for name := range c.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Index returns the named index, creating it on first use.
func (c *MockCatalog) Index(name string) index.Index {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.indexes[name]
	if !ok {
		idx = NewMockIndex()
		c.indexes[name] = idx
	}
	return idx
}

// GetMockIndex returns the named index as its concrete type for assertions.
func (c *MockCatalog) GetMockIndex(name string) *MockIndex {
	return c.Index(name).(*MockIndex)
}

// EnsureCalls returns the index names passed to EnsureIndex, in call order.
func (c *MockCatalog) EnsureCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ensureCalls...)
}

// Health always succeeds.
func (c *MockCatalog) Health(ctx context.Context) error { return nil }

// Close is a no-op for mock catalog.
func (c *MockCatalog) Close() error { return nil }

// MockIndex is an in-memory test double for index.Index.
// It allows custom behavior injection via function fields.
type MockIndex struct {
	mu        sync.Mutex
	dimension uint64
	ids       []string // insertion order
	records   map[string]*index.Record

	// UpsertFunc is called by Upsert if set. When it returns nil the
	// records are stored as usual, so it can be used to fail some batches.
	UpsertFunc func(ctx context.Context, records []*index.Record) error

	// QueryFunc is called by Query if set.
	// If nil, scores stored records by cosine similarity.
	QueryFunc func(ctx context.Context, vector []float32, topK uint64) ([]*index.Match, error)

	upsertCalls int
}

// NewMockIndex creates an empty in-memory index.
func NewMockIndex() *MockIndex {
	return &MockIndex{records: make(map[string]*index.Record)}
}

// Upsert stores records keyed by ID, preserving first-insertion order.
func (m *MockIndex) Upsert(ctx context.Context, records []*index.Record) error {
	m.mu.Lock()
	m.upsertCalls++
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		if err := m.UpsertFunc(ctx, records); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		if _, ok := m.records[record.ID]; !ok {
			m.ids = append(m.ids, record.ID)
		}
		m.records[record.ID] = record
	}
	return nil
}

// Query scores every stored record by cosine similarity to the vector and
// returns the topK, highest score first.
func (m *MockIndex) Query(ctx context.Context, vector []float32, topK uint64) ([]*index.Match, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, vector, topK)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	matches := make([]*index.Match, 0, len(m.ids))
	for _, id := range m.ids {
		record := m.records[id]
		matches = append(matches, &index.Match{
			Record: *record,
			Score:  cosineSimilarity(vector, record.Vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if uint64(len(matches)) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// List pages through record IDs in insertion order. The offset is the ID the
// page starts at; an empty offset starts from the beginning.
func (m *MockIndex) List(ctx context.Context, limit uint32, offset string) ([]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if offset != "" {
		for i, id := range m.ids {
			if id == offset {
				start = i
				break
			}
		}
	}

	end := start + int(limit)
	if end > len(m.ids) {
		end = len(m.ids)
	}

	ids := append([]string(nil), m.ids[start:end]...)
	next := ""
	if end < len(m.ids) {
		next = m.ids[end]
	}
	return ids, next, nil
}

// Fetch returns the stored records for the given IDs; missing IDs are skipped.
func (m *MockIndex) Fetch(ctx context.Context, ids []string) (map[string]*index.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make(map[string]*index.Record, len(ids))
	for _, id := range ids {
		if record, ok := m.records[id]; ok {
			records[id] = record
		}
	}
	return records, nil
}

// Len returns the number of stored records.
func (m *MockIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

// UpsertCalls returns how many times Upsert was invoked.
func (m *MockIndex) UpsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCalls
}

// Records returns the stored records in insertion order.
func (m *MockIndex) Records() []*index.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]*index.Record, len(m.ids))
	for i, id := range m.ids {
		records[i] = m.records[id]
	}
	return records
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
