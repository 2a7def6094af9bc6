// Package interval holds the half-open ranges shared by range filters and range facets.
package interval

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Bound is a value type that can delimit a range.
type Bound interface {
	int64 | float64 | time.Time
}

// Range is the half-open interval [Min, Max). A nil bound is open and stands
// for the extreme value of its type. Key names the range in facet results.
type Range[T Bound] struct {
	Key string
	Min *T
	Max *T
}

// New creates a range; use nil for an open bound.
func New[T Bound](key string, lo, hi *T) Range[T] {
	return Range[T]{Key: key, Min: lo, Max: hi}
}

// Validate rejects ranges whose lower bound is not below the upper bound.
func (r Range[T]) Validate() error {
	if r.Min == nil || r.Max == nil {
		return nil
	}
	if ToFloat(*r.Min) >= ToFloat(*r.Max) {
		return fmt.Errorf("range %q: min must be below max", r.Key)
	}
	return nil
}

// Lower returns the lower bound as a float, or -Inf when open.
func (r Range[T]) Lower() float64 {
	if r.Min == nil {
		return math.Inf(-1)
	}
	return ToFloat(*r.Min)
}

// Upper returns the upper bound as a float, or +Inf when open.
func (r Range[T]) Upper() float64 {
	if r.Max == nil {
		return math.Inf(1)
	}
	return ToFloat(*r.Max)
}

// Contains reports whether the bucket [from, to) lies fully inside the range.
func (r Range[T]) Contains(from, to float64) bool {
	return from >= r.Lower() && to <= r.Upper()
}

// ToFloat projects a bound onto the float line used by the index.
// Date-times become Unix milliseconds.
func ToFloat[T Bound](v T) float64 {
	switch x := any(v).(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case time.Time:
		return float64(x.UnixMilli())
	}
	return 0
}

// FromFloat is the inverse of ToFloat.
func FromFloat[T Bound](f float64) T {
	var zero T
	switch any(zero).(type) {
	case int64:
		return any(int64(f)).(T)
	case float64:
		return any(f).(T)
	case time.Time:
		return any(time.UnixMilli(int64(f)).UTC()).(T)
	}
	return zero
}

// Boundaries returns the distinct, ascending finite bounds of all ranges.
func Boundaries[T Bound](ranges []Range[T]) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, r := range ranges {
		for _, b := range []*T{r.Min, r.Max} {
			if b == nil {
				continue
			}
			f := ToFloat(*b)
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	slices.Sort(out)
	return out
}
