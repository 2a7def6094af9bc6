package result

import (
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
)

// Document is one hit: the content id and its coarse type. Callers re-hydrate
// display data by id.
type Document struct {
	ID         uuid.UUID
	ObjectType content.ObjectType
}

// FacetValue is one counted facet entry. Implemented by the value types below.
type FacetValue interface {
	ValueCount() int64
	isFacetValue()
}

// KeywordValue counts one keyword.
type KeywordValue struct {
	Key   string
	Count int64
}

// IntegerExactValue counts one integer.
type IntegerExactValue struct {
	Key   int64
	Count int64
}

// DecimalExactValue counts one decimal.
type DecimalExactValue struct {
	Key   float64
	Count int64
}

// DateTimeExactValue counts one date-time.
type DateTimeExactValue struct {
	Key   time.Time
	Count int64
}

// IntegerRangeValue counts one named integer range.
type IntegerRangeValue struct {
	Key   string
	Min   *int64
	Max   *int64
	Count int64
}

// DecimalRangeValue counts one named decimal range.
type DecimalRangeValue struct {
	Key   string
	Min   *float64
	Max   *float64
	Count int64
}

// DateTimeRangeValue counts one named date-time range.
type DateTimeRangeValue struct {
	Key   string
	Min   *time.Time
	Max   *time.Time
	Count int64
}

func (v KeywordValue) ValueCount() int64       { return v.Count }
func (v IntegerExactValue) ValueCount() int64  { return v.Count }
func (v DecimalExactValue) ValueCount() int64  { return v.Count }
func (v DateTimeExactValue) ValueCount() int64 { return v.Count }
func (v IntegerRangeValue) ValueCount() int64  { return v.Count }
func (v DecimalRangeValue) ValueCount() int64  { return v.Count }
func (v DateTimeRangeValue) ValueCount() int64 { return v.Count }

func (KeywordValue) isFacetValue()       {}
func (IntegerExactValue) isFacetValue()  {}
func (DecimalExactValue) isFacetValue()  {}
func (DateTimeExactValue) isFacetValue() {}
func (IntegerRangeValue) isFacetValue()  {}
func (DecimalRangeValue) isFacetValue()  {}
func (DateTimeRangeValue) isFacetValue() {}

// Facet is the counted values of one requested facet.
type Facet struct {
	Field  string
	Values []FacetValue
}

// Result is a page of hits plus facets.
type Result struct {
	Total     int64
	Documents []Document
	Facets    []Facet
}

// Empty returns a result with no hits and non-nil slices.
func Empty() Result {
	return Result{Documents: []Document{}, Facets: []Facet{}}
}
