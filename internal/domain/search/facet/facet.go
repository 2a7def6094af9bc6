// Package facet defines the facet variants that can be requested with a search.
package facet

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/search/interval"
)

// Facet asks for value counts on one logical field.
type Facet interface {
	FieldName() string
	Validate() error
	isFacet()
}

// Keyword counts distinct keyword values.
type Keyword struct{ Field string }

// IntegerExact counts distinct integer values.
type IntegerExact struct{ Field string }

// DecimalExact counts distinct decimal values.
type DecimalExact struct{ Field string }

// DateTimeExact counts distinct date-time values.
type DateTimeExact struct{ Field string }

// IntegerRange counts values per named range.
type IntegerRange struct {
	Field  string
	Ranges []interval.Range[int64]
}

// DecimalRange counts values per named range.
type DecimalRange struct {
	Field  string
	Ranges []interval.Range[float64]
}

// DateTimeRange counts values per named range.
type DateTimeRange struct {
	Field  string
	Ranges []interval.Range[time.Time]
}

func (f Keyword) FieldName() string       { return f.Field }
func (f IntegerExact) FieldName() string  { return f.Field }
func (f DecimalExact) FieldName() string  { return f.Field }
func (f DateTimeExact) FieldName() string { return f.Field }
func (f IntegerRange) FieldName() string  { return f.Field }
func (f DecimalRange) FieldName() string  { return f.Field }
func (f DateTimeRange) FieldName() string { return f.Field }

func (Keyword) isFacet()       {}
func (IntegerExact) isFacet()  {}
func (DecimalExact) isFacet()  {}
func (DateTimeExact) isFacet() {}
func (IntegerRange) isFacet()  {}
func (DecimalRange) isFacet()  {}
func (DateTimeRange) isFacet() {}

// Validate checks the field name.
func (f Keyword) Validate() error { return validateField(f.Field) }

// Validate checks the field name.
func (f IntegerExact) Validate() error { return validateField(f.Field) }

// Validate checks the field name.
func (f DecimalExact) Validate() error { return validateField(f.Field) }

// Validate checks the field name.
func (f DateTimeExact) Validate() error { return validateField(f.Field) }

// Validate checks the field name and ranges.
func (f IntegerRange) Validate() error { return validateRanges(f.Field, f.Ranges) }

// Validate checks the field name and ranges.
func (f DecimalRange) Validate() error { return validateRanges(f.Field, f.Ranges) }

// Validate checks the field name and ranges.
func (f DateTimeRange) Validate() error { return validateRanges(f.Field, f.Ranges) }

func validateField(field string) error {
	if field == "" {
		return fmt.Errorf("facet field is required")
	}
	return nil
}

func validateRanges[T interval.Bound](field string, ranges []interval.Range[T]) error {
	if err := validateField(field); err != nil {
		return err
	}
	if len(ranges) == 0 {
		return fmt.Errorf("range facet on %q needs at least one range", field)
	}
	keys := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if r.Key == "" {
			return fmt.Errorf("range facet on %q: range key is required", field)
		}
		if keys[r.Key] {
			return fmt.Errorf("range facet on %q: duplicate range key %q", field, r.Key)
		}
		keys[r.Key] = true
		if err := r.Validate(); err != nil {
			return fmt.Errorf("range facet on %q: %w", field, err)
		}
	}
	return nil
}
