// Package fieldname maps logical field names and value kinds to physical
// index field names.
package fieldname

import "strings"

// Prefix namespaces every logical-field projection away from system fields.
const Prefix = "fields_"

// System fields present on every document.
const (
	ID         = "id"
	ObjectType = "objectType"
	Key        = "key"
	Culture    = "culture"
	Segment    = "segment"
	AccessKeys = "accessKeys"
	AllTexts   = "allTexts"
	AllTextsR1 = "allTextsR1"
	AllTextsR2 = "allTextsR2"
	AllTextsR3 = "allTextsR3"
)

// TextTier pairs an aggregate text field with its relevance weight.
type TextTier struct {
	Field  string
	Weight float64
}

// TextTiers returns the aggregate text fields, highest tier first.
func TextTiers() []TextTier {
	return []TextTier{
		{Field: AllTextsR1, Weight: 4},
		{Field: AllTextsR2, Weight: 3},
		{Field: AllTextsR3, Weight: 2},
		{Field: AllTexts, Weight: 1},
	}
}

// Kind is a value kind; its string form is the physical suffix.
type Kind string

// Value kinds.
const (
	Texts         Kind = "_texts"
	TextsR1       Kind = "_texts_r1"
	TextsR2       Kind = "_texts_r2"
	TextsR3       Kind = "_texts_r3"
	Keywords      Kind = "_keywords"
	Integers      Kind = "_integers"
	Decimals      Kind = "_decimals"
	DateTimes     Kind = "_datetimeoffsets"
	IntegersSort  Kind = "_integers_sort"
	DecimalsSort  Kind = "_decimals_sort"
	DateTimesSort Kind = "_datetimeoffsets_sort"
)

var allKinds = []Kind{
	Texts, TextsR1, TextsR2, TextsR3,
	Keywords,
	Integers, IntegersSort,
	Decimals, DecimalsSort,
	DateTimes, DateTimesSort,
}

// AllKinds returns every kind in schema declaration order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Sortable returns the single-valued projection of a multi-valued numeric or
// date kind. Other kinds are returned unchanged.
func (k Kind) Sortable() Kind {
	switch k {
	case Integers:
		return IntegersSort
	case Decimals:
		return DecimalsSort
	case DateTimes:
		return DateTimesSort
	default:
		return k
	}
}

// IsText reports whether the kind is one of the four text tiers.
func (k Kind) IsText() bool {
	return k == Texts || k == TextsR1 || k == TextsR2 || k == TextsR3
}

// IsSortProjection reports whether the kind is a single-valued sort projection.
func (k Kind) IsSortProjection() bool {
	return k == IntegersSort || k == DecimalsSort || k == DateTimesSort
}

// Physical returns the physical field name for a logical field and kind.
func Physical(logical string, k Kind) string {
	return Prefix + logical + string(k)
}

// Logical splits a physical name back into its logical name and kind.
func Logical(physical string) (string, Kind, bool) {
	if !strings.HasPrefix(physical, Prefix) {
		return "", "", false
	}
	rest := physical[len(Prefix):]

	var best Kind
	for _, k := range allKinds {
		if strings.HasSuffix(rest, string(k)) && len(k) > len(best) {
			best = k
		}
	}
	if best == "" || len(rest) == len(best) {
		return "", "", false
	}
	return rest[:len(rest)-len(best)], best, true
}
