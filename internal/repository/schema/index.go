package schema

import (
	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/content"
	"github.com/kailas-cloud/facetdex/internal/domain/fieldname"
)

// buildIndex declares the fixed schema: system fields, weighted text
// aggregates, the always-materialized keyword projections, the name text
// projections and one projection per kind for every known field.
func buildIndex(name string, knownFields []string) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).OnJSON()
	seen := make(map[string]bool)

	tag := func(field string, multi, caseSensitive bool) {
		if seen[field] {
			return
		}
		seen[field] = true
		b.Tag(jsonPath(field, multi)).As(field)
		if caseSensitive {
			b.CaseSensitive()
		}
	}
	text := func(field string, weight float64, sortable bool) {
		if seen[field] {
			return
		}
		seen[field] = true
		b.Text(jsonPath(field, false)).As(field)
		if weight > 0 {
			b.Weight(weight)
		}
		if sortable {
			b.Sortable()
		}
	}
	numeric := func(field string, multi, sortable bool) {
		if seen[field] {
			return
		}
		seen[field] = true
		b.Numeric(jsonPath(field, multi)).As(field)
		if sortable {
			b.Sortable()
		}
	}

	// System fields
	tag(fieldname.ID, false, false)
	tag(fieldname.ObjectType, false, false)
	tag(fieldname.Key, false, false)
	tag(fieldname.Culture, false, false)
	tag(fieldname.Segment, false, false)
	tag(fieldname.AccessKeys, true, false)
	for _, tier := range fieldname.TextTiers() {
		text(tier.Field, tier.Weight, false)
	}

	tag(fieldname.Physical(content.ContentTypeIDField, fieldname.Keywords), true, false)
	tag(fieldname.Physical(content.PathIDsField, fieldname.Keywords), true, false)

	for _, k := range fieldname.AllKinds() {
		if k.IsText() {
			text(fieldname.Physical(content.NameField, k), 0, k == fieldname.Texts)
		}
	}

	for _, f := range knownFields {
		for _, k := range fieldname.AllKinds() {
			physical := fieldname.Physical(f, k)
			switch {
			case k.IsText():
				text(physical, 0, k == fieldname.Texts)
			case k == fieldname.Keywords:
				tag(physical, true, true)
			case k.IsSortProjection():
				numeric(physical, false, true)
			default:
				numeric(physical, true, false)
			}
		}
	}

	return b.Build()
}

// jsonPath addresses a top-level document property; multi-valued fields
// index every array element.
func jsonPath(field string, multi bool) string {
	if multi {
		return "$." + field + "[*]"
	}
	return "$." + field
}
