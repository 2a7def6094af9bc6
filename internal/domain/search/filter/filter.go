// Package filter defines the closed set of search filter variants.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/search/interval"
)

// MaxValuesPerFilter bounds the values or ranges a single filter may carry.
const MaxValuesPerFilter = 64

// Filter constrains results on one logical field. Implemented by the variants below.
type Filter interface {
	FieldName() string
	Negated() bool
	Validate() error
	isFilter()
}

// Text matches documents whose base-tier text starts with any of Values.
type Text struct {
	Field  string
	Values []string
	Negate bool
}

// Keyword matches documents carrying any of Values as a keyword.
type Keyword struct {
	Field  string
	Values []string
	Negate bool
}

// IntegerExact matches documents carrying any of Values.
type IntegerExact struct {
	Field  string
	Values []int64
	Negate bool
}

// IntegerRange matches documents with a value inside any of Ranges.
type IntegerRange struct {
	Field  string
	Ranges []interval.Range[int64]
	Negate bool
}

// DecimalExact matches documents carrying any of Values.
type DecimalExact struct {
	Field  string
	Values []float64
	Negate bool
}

// DecimalRange matches documents with a value inside any of Ranges.
type DecimalRange struct {
	Field  string
	Ranges []interval.Range[float64]
	Negate bool
}

// DateTimeExact matches documents carrying any of Values.
type DateTimeExact struct {
	Field  string
	Values []time.Time
	Negate bool
}

// DateTimeRange matches documents with a value inside any of Ranges.
type DateTimeRange struct {
	Field  string
	Ranges []interval.Range[time.Time]
	Negate bool
}

func (f Text) FieldName() string          { return f.Field }
func (f Keyword) FieldName() string       { return f.Field }
func (f IntegerExact) FieldName() string  { return f.Field }
func (f IntegerRange) FieldName() string  { return f.Field }
func (f DecimalExact) FieldName() string  { return f.Field }
func (f DecimalRange) FieldName() string  { return f.Field }
func (f DateTimeExact) FieldName() string { return f.Field }
func (f DateTimeRange) FieldName() string { return f.Field }

func (f Text) Negated() bool          { return f.Negate }
func (f Keyword) Negated() bool       { return f.Negate }
func (f IntegerExact) Negated() bool  { return f.Negate }
func (f IntegerRange) Negated() bool  { return f.Negate }
func (f DecimalExact) Negated() bool  { return f.Negate }
func (f DecimalRange) Negated() bool  { return f.Negate }
func (f DateTimeExact) Negated() bool { return f.Negate }
func (f DateTimeRange) Negated() bool { return f.Negate }

func (Text) isFilter()          {}
func (Keyword) isFilter()       {}
func (IntegerExact) isFilter()  {}
func (IntegerRange) isFilter()  {}
func (DecimalExact) isFilter()  {}
func (DecimalRange) isFilter()  {}
func (DateTimeExact) isFilter() {}
func (DateTimeRange) isFilter() {}

// Validate checks the field name, value count, and that no value is blank.
func (f Text) Validate() error {
	if err := validate(f.Field, len(f.Values)); err != nil {
		return err
	}
	for _, v := range f.Values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("filter on %q has a blank text value", f.Field)
		}
	}
	return nil
}

// Validate checks the field name and value count.
func (f Keyword) Validate() error { return validate(f.Field, len(f.Values)) }

// Validate checks the field name and value count.
func (f IntegerExact) Validate() error { return validate(f.Field, len(f.Values)) }

// Validate checks the field name and value count.
func (f DecimalExact) Validate() error { return validate(f.Field, len(f.Values)) }

// Validate checks the field name and value count.
func (f DateTimeExact) Validate() error { return validate(f.Field, len(f.Values)) }

// Validate checks the field name and every range.
func (f IntegerRange) Validate() error { return validateRanges(f.Field, f.Ranges) }

// Validate checks the field name and every range.
func (f DecimalRange) Validate() error { return validateRanges(f.Field, f.Ranges) }

// Validate checks the field name and every range.
func (f DateTimeRange) Validate() error { return validateRanges(f.Field, f.Ranges) }

func validate(field string, n int) error {
	if field == "" {
		return fmt.Errorf("filter field is required")
	}
	if n == 0 {
		return fmt.Errorf("filter on %q needs at least one value", field)
	}
	if n > MaxValuesPerFilter {
		return fmt.Errorf("filter on %q has too many values (max %d)", field, MaxValuesPerFilter)
	}
	return nil
}

func validateRanges[T interval.Bound](field string, ranges []interval.Range[T]) error {
	if err := validate(field, len(ranges)); err != nil {
		return err
	}
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("filter on %q: %w", field, err)
		}
	}
	return nil
}
