package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/crosstown/tabindex/index"
)

// indexHandle implements index.Index for one Qdrant collection.
type indexHandle struct {
	catalog *Catalog
	name    string
}

var _ index.Index = (*indexHandle)(nil)

// Upsert inserts or overwrites records keyed by their IDs.
func (h *indexHandle) Upsert(ctx context.Context, records []*index.Record) error {
	ctx, cancel := context.WithTimeout(ctx, h.catalog.config.RequestTimeout)
	defer cancel()

	points := make([]*qdrant.PointStruct, len(records))
	for i, record := range records {
		points[i] = toPointStruct(record)
	}

	err := h.catalog.retryOperation(ctx, func() error {
		_, err := h.catalog.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: h.name,
			Points:         points,
		})
		return err
	})
	return wrapNotFound(err)
}

// Query performs similarity search, returning matches with metadata ordered
// by descending score.
func (h *indexHandle) Query(ctx context.Context, vector []float32, topK uint64) ([]*index.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, h.catalog.config.RequestTimeout)
	defer cancel()

	var results []*qdrant.ScoredPoint
	err := h.catalog.retryOperation(ctx, func() error {
		res, err := h.catalog.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: h.name,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(topK),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}

	matches := make([]*index.Match, len(results))
	for i, result := range results {
		matches[i] = fromScoredPoint(result)
	}
	return matches, nil
}

// List returns one page of record IDs starting at offset ("" = beginning).
// The returned next offset is empty when the listing is exhausted.
func (h *indexHandle) List(ctx context.Context, limit uint32, offset string) ([]string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.catalog.config.RequestTimeout)
	defer cancel()

	scroll := &qdrant.ScrollPoints{
		CollectionName: h.name,
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(false),
	}
	if offset != "" {
		scroll.Offset = qdrant.NewIDUUID(offset)
	}

	var (
		points     []*qdrant.RetrievedPoint
		nextOffset *qdrant.PointId
	)
	err := h.catalog.retryOperation(ctx, func() error {
		result, next, err := h.catalog.client.ScrollAndOffset(ctx, scroll)
		if err != nil {
			return err
		}
		points = result
		nextOffset = next
		return nil
	})
	if err != nil {
		return nil, "", wrapNotFound(err)
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		if id := pointIDString(p.GetId()); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, pointIDString(nextOffset), nil
}

// Fetch retrieves records by ID with metadata included.
func (h *indexHandle) Fetch(ctx context.Context, ids []string) (map[string]*index.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, h.catalog.config.RequestTimeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	var points []*qdrant.RetrievedPoint
	err := h.catalog.retryOperation(ctx, func() error {
		result, err := h.catalog.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: h.name,
			Ids:            pointIDs,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		points = result
		return nil
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}

	records := make(map[string]*index.Record, len(points))
	for _, p := range points {
		record := fromRetrievedPoint(p)
		records[record.ID] = record
	}
	return records, nil
}
