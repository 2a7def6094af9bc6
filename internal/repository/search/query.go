package search

import (
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/content"
	"github.com/kailas-cloud/facetdex/internal/domain/fieldname"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/interval"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/sorter"
)

// returnFields are the only stored fields a hit carries back.
var returnFields = []string{fieldname.Key, fieldname.ObjectType}

func buildSearchQuery(index string, req request.Request, maxFacetValues int) *db.SearchQuery {
	q := &db.SearchQuery{
		Index:      index,
		Filter:     buildFilter(req),
		Offset:     req.Skip(),
		Limit:      req.Take(),
		SortBy:     buildSort(req),
		Return:     returnFields,
		CountTotal: req.CountTotal(),
		Facets:     make([]db.FacetRequest, len(req.Facets())),
	}
	if req.Query() != "" {
		q.Text = fullText(req.Query())
	}
	for i, f := range req.Facets() {
		q.Facets[i] = toFacetRequest(f, maxFacetValues)
	}
	return q
}

func fullText(query string) *db.FullText {
	tiers := fieldname.TextTiers()
	fields := make([]db.WeightedField, len(tiers))
	for i, t := range tiers {
		fields[i] = db.WeightedField{Name: t.Field, Weight: t.Weight}
	}
	return &db.FullText{Query: query, Fields: fields}
}

// buildFilter ANDs the variation and access clauses with one clause per filter.
func buildFilter(req request.Request) db.And {
	segment := req.Segment()
	clauses := db.And{
		cultureClause(req.Culture()),
		db.Tag{Field: fieldname.Segment, Values: []string{content.NormalizeSegment(&segment)}},
		accessClause(req.Access()),
	}
	for _, f := range req.Filters() {
		clause := toExpr(f)
		if f.Negated() {
			clause = db.Not{Expr: clause}
		}
		clauses = append(clauses, clause)
	}
	return clauses
}

// cultureClause matches the requested culture and invariant documents.
func cultureClause(culture string) db.Tag {
	c := content.NormalizeCulture(&culture)
	values := []string{content.InvariantCulture}
	if c != content.InvariantCulture {
		values = []string{c, content.InvariantCulture}
	}
	return db.Tag{Field: fieldname.Culture, Values: values}
}

// accessClause matches public documents and those granted to the caller.
func accessClause(a *request.Access) db.Tag {
	keys := append([]uuid.UUID{content.PublicAccessKey}, a.Keys()...)
	seen := make(map[uuid.UUID]bool, len(keys))
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		values = append(values, k.String())
	}
	return db.Tag{Field: fieldname.AccessKeys, Values: values}
}

func toExpr(f filter.Filter) db.Expr {
	switch v := f.(type) {
	case filter.Text:
		return db.Prefix{Field: fieldname.Physical(v.Field, fieldname.Texts), Values: v.Values}
	case filter.Keyword:
		return db.Tag{Field: fieldname.Physical(v.Field, fieldname.Keywords), Values: v.Values}
	case filter.IntegerExact:
		return equalities(fieldname.Physical(v.Field, fieldname.Integers), v.Values)
	case filter.DecimalExact:
		return equalities(fieldname.Physical(v.Field, fieldname.Decimals), v.Values)
	case filter.DateTimeExact:
		return equalities(fieldname.Physical(v.Field, fieldname.DateTimes), v.Values)
	case filter.IntegerRange:
		return ranges(fieldname.Physical(v.Field, fieldname.Integers), v.Ranges)
	case filter.DecimalRange:
		return ranges(fieldname.Physical(v.Field, fieldname.Decimals), v.Ranges)
	case filter.DateTimeRange:
		return ranges(fieldname.Physical(v.Field, fieldname.DateTimes), v.Ranges)
	default:
		return db.All{}
	}
}

func equalities[T interval.Bound](field string, values []T) db.Or {
	out := make(db.Or, len(values))
	for i, v := range values {
		out[i] = db.Equal(field, interval.ToFloat(v))
	}
	return out
}

// ranges ORs half-open [min, max) intervals; open bounds stay nil.
func ranges[T interval.Bound](field string, rs []interval.Range[T]) db.Or {
	out := make(db.Or, len(rs))
	for i, r := range rs {
		n := db.Numeric{Field: field, MaxExclusive: true}
		if r.Min != nil {
			lo := interval.ToFloat(*r.Min)
			n.Min = &lo
		}
		if r.Max != nil {
			hi := interval.ToFloat(*r.Max)
			n.Max = &hi
		}
		out[i] = n
	}
	return out
}

func buildSort(req request.Request) []db.SortKey {
	if len(req.Sorters()) == 0 {
		if req.Query() != "" {
			return []db.SortKey{{Field: db.ScoreField, Desc: true}}
		}
		return nil
	}

	keys := make([]db.SortKey, 0, len(req.Sorters()))
	for _, s := range req.Sorters() {
		key := db.SortKey{Desc: s.Dir() == sorter.Descending}
		switch v := s.(type) {
		case sorter.Score:
			key.Field = db.ScoreField
		case sorter.Text:
			key.Field = fieldname.Physical(v.Field, fieldname.Texts)
			key.Text = true
		case sorter.Keyword:
			key.Field = fieldname.Physical(v.Field, fieldname.Keywords)
		case sorter.Integer:
			key.Field = fieldname.Physical(v.Field, fieldname.IntegersSort)
		case sorter.Decimal:
			key.Field = fieldname.Physical(v.Field, fieldname.DecimalsSort)
		case sorter.DateTime:
			key.Field = fieldname.Physical(v.Field, fieldname.DateTimesSort)
		default:
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func toFacetRequest(f facet.Facet, maxFacetValues int) db.FacetRequest {
	switch v := f.(type) {
	case facet.Keyword:
		return db.FacetRequest{Field: fieldname.Physical(v.Field, fieldname.Keywords), Size: maxFacetValues, Tag: true}
	case facet.IntegerExact:
		return db.FacetRequest{Field: fieldname.Physical(v.Field, fieldname.IntegersSort), Size: maxFacetValues}
	case facet.DecimalExact:
		return db.FacetRequest{Field: fieldname.Physical(v.Field, fieldname.DecimalsSort), Size: maxFacetValues}
	case facet.DateTimeExact:
		return db.FacetRequest{Field: fieldname.Physical(v.Field, fieldname.DateTimesSort), Size: maxFacetValues}
	case facet.IntegerRange:
		return db.FacetRequest{
			Field:      fieldname.Physical(v.Field, fieldname.IntegersSort),
			Boundaries: interval.Boundaries(v.Ranges),
		}
	case facet.DecimalRange:
		return db.FacetRequest{
			Field:      fieldname.Physical(v.Field, fieldname.DecimalsSort),
			Boundaries: interval.Boundaries(v.Ranges),
		}
	case facet.DateTimeRange:
		return db.FacetRequest{
			Field:      fieldname.Physical(v.Field, fieldname.DateTimesSort),
			Boundaries: interval.Boundaries(v.Ranges),
		}
	default:
		return db.FacetRequest{Field: f.FieldName(), Size: maxFacetValues}
	}
}

// dateFromMillis is the inverse of the epoch-millis storage of date-times.
func dateFromMillis(f float64) time.Time {
	return interval.FromFloat[time.Time](f)
}
