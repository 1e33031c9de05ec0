package index

import (
	"encoding/json"
	"fmt"
)

// Result is the engine-neutral shape of a search response consumed by the
// usecase layer.
type Result struct {
	Total        int64
	TookMs       int64
	TimedOut     bool
	Hits         []Hit
	Aggregations map[string]Aggregation
}

// Hit is one matching document.
type Hit struct {
	ID     string
	Source json.RawMessage
}

// Aggregation is one named aggregation result: either a metric value or a
// list of term buckets.
type Aggregation struct {
	Value   float64
	Buckets []Bucket
}

// Bucket is one aggregation group: a distinct field value and its document
// count.
type Bucket struct {
	Key   string
	Count int64
}

// parseAggregations decodes raw aggregation payloads into the neutral
// shape. Unknown shapes are skipped rather than failing the response.
func parseAggregations(raw map[string]json.RawMessage) map[string]Aggregation {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]Aggregation, len(raw))
	for name, payload := range raw {
		var probe struct {
			Value   *float64 `json:"value"`
			Buckets []struct {
				Key      any   `json:"key"`
				DocCount int64 `json:"doc_count"`
			} `json:"buckets"`
		}
		if err := json.Unmarshal(payload, &probe); err != nil {
			continue
		}
		agg := Aggregation{}
		if probe.Value != nil {
			agg.Value = *probe.Value
		}
		for _, b := range probe.Buckets {
			agg.Buckets = append(agg.Buckets, Bucket{Key: bucketKey(b.Key), Count: b.DocCount})
		}
		out[name] = agg
	}
	return out
}

func bucketKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case float64:
		if k == float64(int64(k)) {
			return fmt.Sprintf("%d", int64(k))
		}
		return fmt.Sprintf("%g", k)
	default:
		return fmt.Sprintf("%v", k)
	}
}
