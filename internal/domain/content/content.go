// Package content holds the raw, variation-tagged field values supplied by the
// content host for indexing.
package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Normalized sentinels for unset variation axes.
const (
	InvariantCulture = "inv"
	DefaultSegment   = "def"
)

// Logical fields with special handling in the indexer and schema.
const (
	NameField          = "name"
	ContentTypeIDField = "contentTypeId"
	PathIDsField       = "pathIds"
)

// PublicAccessKey is attached to every document and every access filter.
var PublicAccessKey = uuid.Nil

// ObjectType is the coarse kind of a content item.
type ObjectType string

// Known object types.
const (
	ObjectTypeDocument ObjectType = "Document"
	ObjectTypeMedia    ObjectType = "Media"
	ObjectTypeMember   ObjectType = "Member"
	ObjectTypeUnknown  ObjectType = "Unknown"
)

// ParseObjectType maps free text to an ObjectType, case-insensitively.
// Anything unrecognized becomes ObjectTypeUnknown.
func ParseObjectType(s string) ObjectType {
	for _, t := range []ObjectType{ObjectTypeDocument, ObjectTypeMedia, ObjectTypeMember} {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return ObjectTypeUnknown
}

// Value is a multi-typed container of values for one logical field.
// An empty slice means no values of that kind.
type Value struct {
	Texts     []string
	TextsR1   []string
	TextsR2   []string
	TextsR3   []string
	Keywords  []string
	Integers  []int64
	Decimals  []float64
	DateTimes []time.Time
}

// IsEmpty reports whether the value carries nothing of any kind.
func (v Value) IsEmpty() bool {
	return len(v.Texts) == 0 && len(v.TextsR1) == 0 && len(v.TextsR2) == 0 && len(v.TextsR3) == 0 &&
		len(v.Keywords) == 0 && len(v.Integers) == 0 && len(v.Decimals) == 0 && len(v.DateTimes) == 0
}

// Merge returns v with other's values appended kind by kind.
func (v Value) Merge(other Value) Value {
	return Value{
		Texts:     appendCopy(v.Texts, other.Texts),
		TextsR1:   appendCopy(v.TextsR1, other.TextsR1),
		TextsR2:   appendCopy(v.TextsR2, other.TextsR2),
		TextsR3:   appendCopy(v.TextsR3, other.TextsR3),
		Keywords:  appendCopy(v.Keywords, other.Keywords),
		Integers:  appendCopy(v.Integers, other.Integers),
		Decimals:  appendCopy(v.Decimals, other.Decimals),
		DateTimes: appendCopy(v.DateTimes, other.DateTimes),
	}
}

func appendCopy[T any](a, b []T) []T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Field is one logical field value, optionally tagged with a culture and segment.
// A nil culture or segment applies to every variation on that axis.
type Field struct {
	Name    string
	Value   Value
	Culture *string
	Segment *string
}

// Variation is one (culture, segment) combination that gets its own index document.
type Variation struct {
	Culture *string
	Segment *string
}

// NewVariation builds a Variation; empty strings mean unset.
func NewVariation(culture, segment string) Variation {
	return Variation{Culture: optional(culture), Segment: optional(segment)}
}

// IndexCulture returns the normalized culture token for the variation.
func (v Variation) IndexCulture() string { return NormalizeCulture(v.Culture) }

// IndexSegment returns the normalized segment token for the variation.
func (v Variation) IndexSegment() string { return NormalizeSegment(v.Segment) }

// Protection lists the principals and groups allowed to see a content item.
// Empty means public.
type Protection struct {
	AccessIDs []uuid.UUID
}

// AccessKeys returns the keys stored on a document: the protection ids,
// or the public key alone when there are none.
func (p *Protection) AccessKeys() []uuid.UUID {
	if p == nil || len(p.AccessIDs) == 0 {
		return []uuid.UUID{PublicAccessKey}
	}
	out := make([]uuid.UUID, len(p.AccessIDs))
	copy(out, p.AccessIDs)
	return out
}

// NormalizeCulture lowercases the culture, or returns the invariant sentinel when unset.
func NormalizeCulture(c *string) string {
	if c == nil || *c == "" {
		return InvariantCulture
	}
	return strings.ToLower(*c)
}

// NormalizeSegment lowercases the segment, or returns the default sentinel when unset.
func NormalizeSegment(s *string) string {
	if s == nil || *s == "" {
		return DefaultSegment
	}
	return strings.ToLower(*s)
}

// DocumentID is the identity of one physical document: {contentId}_{culture}_{segment}.
func DocumentID(contentID uuid.UUID, v Variation) string {
	return contentID.String() + "_" + v.IndexCulture() + "_" + v.IndexSegment()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
