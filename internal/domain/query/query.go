// Package query models structured index queries as an engine-agnostic tagged
// clause tree plus aggregation specs. The tree is serialized to the index
// wire format only at the index-client boundary; nothing in this package
// depends on a particular search engine.
package query

// Clause is one node of the query tree.
type Clause interface {
	isClause()
}

// MatchAll matches every document.
type MatchAll struct{}

// FreeText is a relevance-scored free-text match over the given fields.
type FreeText struct {
	Query  string
	Fields []string
}

// Term is an exact single-value field match.
type Term struct {
	Field string
	Value string
}

// Terms matches a field against any of the given values (OR within one
// clause; separate clauses combine with AND).
type Terms struct {
	Field  string
	Values []string
}

// Range bounds a field between inclusive endpoints. Empty bounds are open.
// Values are opaque strings so dates and date-math expressions pass through.
type Range struct {
	Field string
	GTE   string
	LTE   string
}

// Bool combines clauses: Must affects relevance scoring, Filter is a
// non-scoring (cacheable) eligibility condition, Should is an optional
// relevance boost.
type Bool struct {
	Must   []Clause
	Filter []Clause
	Should []Clause
}

func (MatchAll) isClause() {}
func (FreeText) isClause() {}
func (Term) isClause()     {}
func (Terms) isClause()    {}
func (Range) isClause()    {}
func (Bool) isClause()     {}

// Aggregation is a named aggregation request. Exactly one of Field (terms
// aggregation) or SumField (sum metric) is set.
type Aggregation struct {
	Name     string
	Field    string
	Size     int
	SumField string
}

// Sort is one sort key.
type Sort struct {
	Field     string
	Ascending bool
}

// Query is the full structured query sent to the document index. One Query
// is built per incoming request and discarded with it.
type Query struct {
	Root         Clause
	Aggregations []Aggregation
	From         int
	Size         int
	Sort         []Sort
}
