// Package variation decides which field values apply to one (culture, segment)
// rendition of a content item.
package variation

import (
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
)

// Grouped holds fields bucketed by logical name, in first-seen order.
type Grouped struct {
	names  []string
	fields map[string][]content.Field
}

// GroupByName buckets fields by name, keeping input order inside each bucket.
func GroupByName(fields []content.Field) Grouped {
	g := Grouped{fields: make(map[string][]content.Field)}
	for _, f := range fields {
		if _, ok := g.fields[f.Name]; !ok {
			g.names = append(g.names, f.Name)
		}
		g.fields[f.Name] = append(g.fields[f.Name], f)
	}
	return g
}

// Names returns the logical names in first-seen order.
func (g Grouped) Names() []string { return g.names }

// Resolve returns, per logical name, the union of fields matching the variation
// at the most specific satisfied tier:
//
//  1. culture and segment both set and equal
//  2. culture equal, segment unset
//  3. segment equal, culture unset
//  4. culture and segment both unset
//
// Tiers are never mixed. Names with no match are omitted.
func Resolve(g Grouped, v content.Variation) []content.Field {
	out := make([]content.Field, 0, len(g.names))
	for _, name := range g.names {
		matched := matchTier(g.fields[name], v)
		if len(matched) == 0 {
			continue
		}
		var merged content.Value
		for _, f := range matched {
			merged = merged.Merge(f.Value)
		}
		out = append(out, content.Field{
			Name:    name,
			Value:   merged,
			Culture: v.Culture,
			Segment: v.Segment,
		})
	}
	return out
}

func matchTier(fields []content.Field, v content.Variation) []content.Field {
	tiers := []func(content.Field) bool{
		func(f content.Field) bool { return set(f.Culture) && set(f.Segment) && eq(f.Culture, v.Culture) && eq(f.Segment, v.Segment) },
		func(f content.Field) bool { return set(f.Culture) && !set(f.Segment) && eq(f.Culture, v.Culture) },
		func(f content.Field) bool { return !set(f.Culture) && set(f.Segment) && eq(f.Segment, v.Segment) },
		func(f content.Field) bool { return !set(f.Culture) && !set(f.Segment) },
	}
	for _, match := range tiers {
		var hits []content.Field
		for _, f := range fields {
			if match(f) {
				hits = append(hits, f)
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}
	return nil
}

func set(s *string) bool { return s != nil && *s != "" }

// eq compares a field tag against the variation axis. An unset variation axis
// never equals a set tag.
func eq(tag, axis *string) bool {
	if !set(axis) {
		return false
	}
	return strings.EqualFold(*tag, *axis)
}
