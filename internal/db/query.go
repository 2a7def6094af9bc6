package db

// Expr is a backend-neutral boolean query tree. Drivers render it into their
// own query language.
type Expr interface {
	isExpr()
}

// All matches every document.
type All struct{}

// Tag matches documents whose exact-match field holds any of Values.
type Tag struct {
	Field  string
	Values []string
}

// Numeric matches documents with a value in [Min, Max], or [Min, Max) when
// MaxExclusive is set. A nil bound is open.
type Numeric struct {
	Field        string
	Min          *float64
	Max          *float64
	MaxExclusive bool
}

// Prefix matches documents whose text field contains every word of any of
// Values, the last word matched as a prefix.
type Prefix struct {
	Field  string
	Values []string
}

// And matches documents matching every clause.
type And []Expr

// Or matches documents matching at least one clause.
type Or []Expr

// Not matches documents that do not match the clause, including documents
// that lack the field entirely.
type Not struct{ Expr Expr }

func (All) isExpr()     {}
func (Tag) isExpr()     {}
func (Numeric) isExpr() {}
func (Prefix) isExpr()  {}
func (And) isExpr()     {}
func (Or) isExpr()      {}
func (Not) isExpr()     {}

// Equal matches a single numeric value.
func Equal(field string, v float64) Numeric {
	return Numeric{Field: field, Min: &v, Max: &v}
}

// WeightedField is a text field searched by a free-text query with a relevance boost.
type WeightedField struct {
	Name   string
	Weight float64
}

// FullText is a free-text query across several text fields.
type FullText struct {
	Query  string
	Fields []WeightedField
}

// SortKey orders results by one field. ScoreField orders by relevance.
type SortKey struct {
	Field string
	Desc  bool
	// Text marks a full-text field; some backends sort on a keyword sub-field.
	Text bool
}

// ScoreField is the pseudo-field for relevance ordering.
const ScoreField = "__score"

// FacetRequest asks for value counts on one field. Without Boundaries the
// Size most frequent values are counted; with Boundaries one bucket per
// consecutive pair [b_i, b_i+1) is counted.
type FacetRequest struct {
	Field      string
	Size       int
	Boundaries []float64
	// Tag marks a multi-valued exact-match field.
	Tag bool
}

// SearchQuery is the input for a filtered, faceted, paged search.
type SearchQuery struct {
	Index  string
	Filter Expr
	Text   *FullText
	Offset int
	// Limit of zero skips fetching hits.
	Limit      int
	SortBy     []SortKey
	Return     []string
	CountTotal bool
	Facets     []FacetRequest
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
	// Facets is aligned with SearchQuery.Facets.
	Facets [][]FacetBucket
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// FacetBucket is one counted facet value or one boundary bucket.
// Value is set for value facets; From and To for boundary buckets.
type FacetBucket struct {
	Value string
	From  *float64
	To    *float64
	Count int64
}
