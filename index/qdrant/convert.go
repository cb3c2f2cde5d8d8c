package qdrant

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/crosstown/tabindex/index"
)

// toPointStruct converts a record to a Qdrant point. Document metadata only
// holds strings and ints, but the conversion covers the other scalar kinds
// so future payloads don't silently degrade.
func toPointStruct(r *index.Record) *qdrant.PointStruct {
	payload := make(map[string]*qdrant.Value, len(r.Metadata))
	for k, v := range r.Metadata {
		payload[k] = toValue(v)
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(r.ID),
		Vectors: qdrant.NewVectors(r.Vector...),
		Payload: payload,
	}
}

func toValue(v any) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
	}
}

func fromScoredPoint(p *qdrant.ScoredPoint) *index.Match {
	return &index.Match{
		Record: index.Record{
			ID:       pointIDString(p.GetId()),
			Vector:   vectorData(p.GetVectors()),
			Metadata: fromPayload(p.GetPayload()),
		},
		Score: p.GetScore(),
	}
}

func fromRetrievedPoint(p *qdrant.RetrievedPoint) *index.Record {
	return &index.Record{
		ID:       pointIDString(p.GetId()),
		Vector:   vectorData(p.GetVectors()),
		Metadata: fromPayload(p.GetPayload()),
	}
}

func fromPayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	metadata := make(map[string]any, len(payload))
	for k, v := range payload {
		metadata[k] = fromValue(v)
	}
	return metadata
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return int(kind.IntegerValue)
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return fmt.Sprintf("%v", v)
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	if num := id.GetNum(); num != 0 {
		return fmt.Sprintf("%d", num)
	}
	return ""
}

func vectorData(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	if vec := vectors.GetVector(); vec != nil {
		if dense := vec.GetDense(); dense != nil {
			return dense.GetData()
		}
	}
	return nil
}
