package index

import (
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/jobdex/adsearch/internal/domain/query"
)

// translate converts the engine-agnostic clause tree into the elastic query
// DSL. This is the only place in the repository that knows the wire format.
func translate(c query.Clause) (elastic.Query, error) {
	switch clause := c.(type) {
	case query.MatchAll:
		return elastic.NewMatchAllQuery(), nil
	case query.FreeText:
		q := elastic.NewMultiMatchQuery(clause.Query, clause.Fields...).Operator("and")
		return q, nil
	case query.Term:
		return elastic.NewTermQuery(clause.Field, clause.Value), nil
	case query.Terms:
		values := make([]interface{}, len(clause.Values))
		for i, v := range clause.Values {
			values[i] = v
		}
		return elastic.NewTermsQuery(clause.Field, values...), nil
	case query.Range:
		q := elastic.NewRangeQuery(clause.Field)
		if clause.GTE != "" {
			q = q.Gte(clause.GTE)
		}
		if clause.LTE != "" {
			q = q.Lte(clause.LTE)
		}
		return q, nil
	case query.Bool:
		q := elastic.NewBoolQuery()
		for _, sub := range clause.Must {
			t, err := translate(sub)
			if err != nil {
				return nil, err
			}
			q = q.Must(t)
		}
		for _, sub := range clause.Filter {
			t, err := translate(sub)
			if err != nil {
				return nil, err
			}
			q = q.Filter(t)
		}
		for _, sub := range clause.Should {
			t, err := translate(sub)
			if err != nil {
				return nil, err
			}
			q = q.Should(t)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unsupported clause type %T", c)
	}
}

func translateAggregation(a query.Aggregation) elastic.Aggregation {
	if a.SumField != "" {
		return elastic.NewSumAggregation().Field(a.SumField)
	}
	agg := elastic.NewTermsAggregation().Field(a.Field)
	if a.Size > 0 {
		agg = agg.Size(a.Size)
	}
	return agg
}

func translateSort(s query.Sort) elastic.Sorter {
	fs := elastic.NewFieldSort(s.Field)
	if s.Ascending {
		return fs.Asc()
	}
	return fs.Desc()
}
