package search

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/content"
	"github.com/kailas-cloud/facetdex/internal/domain/fieldname"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/interval"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

func toResult(sr *db.SearchResult, facets []facet.Facet) result.Result {
	out := result.Empty()
	if sr == nil {
		return out
	}
	out.Total = int64(sr.Total)

	for _, e := range sr.Entries {
		id, err := uuid.Parse(e.Fields[fieldname.Key])
		if err != nil {
			continue
		}
		out.Documents = append(out.Documents, result.Document{
			ID:         id,
			ObjectType: content.ParseObjectType(e.Fields[fieldname.ObjectType]),
		})
	}

	for i, f := range facets {
		var buckets []db.FacetBucket
		if i < len(sr.Facets) {
			buckets = sr.Facets[i]
		}
		out.Facets = append(out.Facets, result.Facet{Field: f.FieldName(), Values: toFacetValues(f, buckets)})
	}
	return out
}

func toFacetValues(f facet.Facet, buckets []db.FacetBucket) []result.FacetValue {
	values := make([]result.FacetValue, 0, len(buckets))
	switch v := f.(type) {
	case facet.Keyword:
		for _, b := range buckets {
			values = append(values, result.KeywordValue{Key: b.Value, Count: b.Count})
		}
	case facet.IntegerExact:
		for _, b := range buckets {
			if n, ok := parseNumber(b.Value); ok {
				values = append(values, result.IntegerExactValue{Key: int64(n), Count: b.Count})
			}
		}
	case facet.DecimalExact:
		for _, b := range buckets {
			if n, ok := parseNumber(b.Value); ok {
				values = append(values, result.DecimalExactValue{Key: n, Count: b.Count})
			}
		}
	case facet.DateTimeExact:
		for _, b := range buckets {
			if n, ok := parseNumber(b.Value); ok {
				values = append(values, result.DateTimeExactValue{Key: dateFromMillis(n), Count: b.Count})
			}
		}
	case facet.IntegerRange:
		for i, n := range sumRanges(v.Ranges, buckets) {
			r := v.Ranges[i]
			values = append(values, result.IntegerRangeValue{Key: r.Key, Min: r.Min, Max: r.Max, Count: n})
		}
	case facet.DecimalRange:
		for i, n := range sumRanges(v.Ranges, buckets) {
			r := v.Ranges[i]
			values = append(values, result.DecimalRangeValue{Key: r.Key, Min: r.Min, Max: r.Max, Count: n})
		}
	case facet.DateTimeRange:
		for i, n := range sumRanges(v.Ranges, buckets) {
			r := v.Ranges[i]
			values = append(values, result.DateTimeRangeValue{Key: r.Key, Min: r.Min, Max: r.Max, Count: n})
		}
	}
	return values
}

// sumRanges adds every boundary bucket into each range that contains it.
// Buckets missing an edge do not participate.
func sumRanges[T interval.Bound](ranges []interval.Range[T], buckets []db.FacetBucket) []int64 {
	counts := make([]int64, len(ranges))
	for _, b := range buckets {
		if b.From == nil || b.To == nil || math.IsInf(*b.From, 0) || math.IsInf(*b.To, 0) {
			continue
		}
		for i, r := range ranges {
			if r.Contains(*b.From, *b.To) {
				counts[i] += b.Count
			}
		}
	}
	return counts
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
