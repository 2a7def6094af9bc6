// Package sorter defines result ordering clauses.
package sorter

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; anything else is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Descending)) {
		return Descending
	}
	return Ascending
}

// Sorter is one ordering clause. The first sorter in a request is the primary key.
type Sorter interface {
	Dir() Direction
	Validate() error
	isSorter()
}

// Score orders by backend relevance.
type Score struct{ Direction Direction }

// Text orders by the base-tier text projection.
type Text struct {
	Field     string
	Direction Direction
}

// Keyword orders by the keyword projection.
type Keyword struct {
	Field     string
	Direction Direction
}

// Integer orders by the sortable integer projection.
type Integer struct {
	Field     string
	Direction Direction
}

// Decimal orders by the sortable decimal projection.
type Decimal struct {
	Field     string
	Direction Direction
}

// DateTime orders by the sortable date-time projection.
type DateTime struct {
	Field     string
	Direction Direction
}

func (s Score) Dir() Direction    { return s.Direction }
func (s Text) Dir() Direction     { return s.Direction }
func (s Keyword) Dir() Direction  { return s.Direction }
func (s Integer) Dir() Direction  { return s.Direction }
func (s Decimal) Dir() Direction  { return s.Direction }
func (s DateTime) Dir() Direction { return s.Direction }

func (Score) isSorter()    {}
func (Text) isSorter()     {}
func (Keyword) isSorter()  {}
func (Integer) isSorter()  {}
func (Decimal) isSorter()  {}
func (DateTime) isSorter() {}

// Validate always succeeds for relevance ordering.
func (s Score) Validate() error { return validateDirection(s.Direction) }

// Validate checks the field name and direction.
func (s Text) Validate() error { return validate(s.Field, s.Direction) }

// Validate checks the field name and direction.
func (s Keyword) Validate() error { return validate(s.Field, s.Direction) }

// Validate checks the field name and direction.
func (s Integer) Validate() error { return validate(s.Field, s.Direction) }

// Validate checks the field name and direction.
func (s Decimal) Validate() error { return validate(s.Field, s.Direction) }

// Validate checks the field name and direction.
func (s DateTime) Validate() error { return validate(s.Field, s.Direction) }

func validate(field string, d Direction) error {
	if field == "" {
		return fmt.Errorf("sorter field is required")
	}
	return validateDirection(d)
}

func validateDirection(d Direction) error {
	switch d {
	case "", Ascending, Descending:
		return nil
	default:
		return fmt.Errorf("invalid sort direction: %q", d)
	}
}
