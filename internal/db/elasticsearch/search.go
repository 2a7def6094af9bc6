package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/facetdex/internal/db"
)

const (
	defaultFacetSize     = 10
	defaultScrollTimeout = 30 * time.Second
)

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total elastic.TotalHits `json:"total"`
		Hits  []searchHit       `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]aggregationResult `json:"aggregations"`
}

type searchHit struct {
	ID     string         `json:"_id"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
}

type aggregationResult struct {
	Buckets []aggregationBucket `json:"buckets"`
}

type aggregationBucket struct {
	Key      any      `json:"key"`
	DocCount int64    `json:"doc_count"`
	From     *float64 `json:"from"`
	To       *float64 `json:"to"`
}

// Search runs the query, the total count and every facet in one request.
// Value facets are terms aggregations and boundary facets range aggregations.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	src, err := buildSearchSource(q)
	if err != nil {
		return nil, err
	}
	body, err := encodeJSON(src)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	search := s.client.Search
	res, err := search(
		search.WithIndex(q.Index),
		search.WithBody(body),
		search.WithContext(ctx),
	)
	if err != nil {
		return nil, &db.Error{Op: opSearch, Err: err}
	}
	defer drainBody(res)
	if res.IsError() {
		errType, err := responseError(res)
		if isIndexNotFound(res, errType) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: opSearch, Err: err}
	}

	var response searchResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &db.Error{Op: opSearch, Err: fmt.Errorf("decode search response: %w", err)}
	}

	out := &db.SearchResult{
		Entries: toEntries(response.Hits.Hits, q.Return),
		Facets:  make([][]db.FacetBucket, len(q.Facets)),
	}
	if q.CountTotal {
		out.Total = int(response.Hits.Total.Value)
	}
	for i, f := range q.Facets {
		out.Facets[i] = toBuckets(f, response.Aggregations[facetName(i)])
	}
	return out, nil
}

// SearchIDs scrolls through every document matching filter.
func (s *Store) SearchIDs(ctx context.Context, index string, filter db.Expr, batch int) ([]string, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("batch must be positive")
	}

	src, err := elastic.NewSearchSource().Query(toQuery(filter)).FetchSource(false).Source()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	body, err := encodeJSON(src)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	search := s.client.Search
	res, err := search(
		search.WithIndex(index),
		search.WithBody(body),
		search.WithScroll(defaultScrollTimeout),
		search.WithSize(batch),
		search.WithContext(ctx),
	)
	if err != nil {
		return nil, &db.Error{Op: opSearch, Err: err}
	}
	response, err := decodePage(res, opSearch)
	if err != nil {
		return nil, err
	}

	var ids []string
	scrollID := response.ScrollID
	defer func() { s.clearScroll(scrollID) }()

	for len(response.Hits.Hits) > 0 {
		for _, hit := range response.Hits.Hits {
			ids = append(ids, hit.ID)
		}
		if len(response.Hits.Hits) < batch {
			break
		}

		scroll := s.client.Scroll
		res, err := scroll(
			scroll.WithScrollID(scrollID),
			scroll.WithScroll(defaultScrollTimeout),
			scroll.WithContext(ctx),
		)
		if err != nil {
			return nil, &db.Error{Op: opScroll, Err: err}
		}
		if response, err = decodePage(res, opScroll); err != nil {
			return nil, err
		}
		if response.ScrollID != "" {
			scrollID = response.ScrollID
		}
	}
	return ids, nil
}

func (s *Store) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	res, err := s.client.ClearScroll(s.client.ClearScroll.WithScrollID(scrollID))
	if err == nil {
		drainBody(res)
	}
}

func decodePage(res *esapi.Response, op string) (*searchResponse, error) {
	defer drainBody(res)
	if res.IsError() {
		errType, err := responseError(res)
		if isIndexNotFound(res, errType) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: op, Err: err}
	}

	var response searchResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &response, nil
}

// --- Request building ---

func facetName(i int) string {
	return "facet_" + strconv.Itoa(i)
}

func buildSearchSource(q *db.SearchQuery) (any, error) {
	query := toQuery(q.Filter)
	if q.Text != nil && strings.TrimSpace(q.Text.Query) != "" && len(q.Text.Fields) > 0 {
		match := elastic.NewMultiMatchQuery(q.Text.Query).
			Type("cross_fields").
			Operator("and")
		for _, f := range q.Text.Fields {
			if f.Weight > 0 {
				match.FieldWithBoost(f.Name, f.Weight)
			} else {
				match.Field(f.Name)
			}
		}
		query = elastic.NewBoolQuery().Must(match).Filter(query)
	}

	ss := elastic.NewSearchSource().
		Query(query).
		From(q.Offset).
		Size(q.Limit).
		TrackTotalHits(q.CountTotal)

	if q.Limit > 0 {
		ss.FetchSourceContext(elastic.NewFetchSourceContext(true).Include(q.Return...))
		for _, k := range q.SortBy {
			ss.SortBy(toSorter(k))
		}
	}

	for i, f := range q.Facets {
		switch {
		case len(f.Boundaries) > 1:
			agg := elastic.NewRangeAggregation().Field(f.Field)
			for j := 0; j+1 < len(f.Boundaries); j++ {
				agg.AddRange(boundValue(f.Boundaries[j]), boundValue(f.Boundaries[j+1]))
			}
			ss.Aggregation(facetName(i), agg)
		case len(f.Boundaries) == 1:
			// A single boundary defines no bucket.
		default:
			size := f.Size
			if size <= 0 {
				size = defaultFacetSize
			}
			ss.Aggregation(facetName(i), elastic.NewTermsAggregation().Field(f.Field).Size(size))
		}
	}

	src, err := ss.Source()
	if err != nil {
		return nil, fmt.Errorf("build search source: %w", err)
	}
	return src, nil
}

// boundValue maps an infinite boundary to an open range end.
func boundValue(f float64) any {
	if math.IsInf(f, 0) {
		return nil
	}
	return f
}

func toSorter(k db.SortKey) elastic.Sorter {
	if k.Field == db.ScoreField {
		s := elastic.NewScoreSort()
		if k.Desc {
			return s.Desc()
		}
		return s.Asc()
	}

	field := k.Field
	if k.Text {
		field += "." + rawSubfield
	}
	s := elastic.NewFieldSort(field).Missing("_last").UnmappedType("keyword")
	if k.Desc {
		return s.Desc()
	}
	return s.Asc()
}

// toQuery translates an expression into a query. Empty And/Or groups
// impose no constraint.
func toQuery(e db.Expr) elastic.Query {
	switch x := e.(type) {
	case nil, db.All:
		return elastic.NewMatchAllQuery()
	case db.Tag:
		values := make([]any, len(x.Values))
		for i, v := range x.Values {
			values[i] = v
		}
		return elastic.NewTermsQuery(x.Field, values...)
	case db.Numeric:
		r := elastic.NewRangeQuery(x.Field)
		if x.Min != nil {
			r.Gte(*x.Min)
		}
		if x.Max != nil {
			if x.MaxExclusive {
				r.Lt(*x.Max)
			} else {
				r.Lte(*x.Max)
			}
		}
		return r
	case db.Prefix:
		clauses := make([]elastic.Query, 0, len(x.Values))
		for _, v := range x.Values {
			// Every word must match; the last one as a prefix.
			clauses = append(clauses, elastic.NewMatchBoolPrefixQuery(x.Field, strings.TrimSpace(v)).Operator("and"))
		}
		return anyOf(clauses)
	case db.And:
		clauses := constraining(x)
		switch len(clauses) {
		case 0:
			return elastic.NewMatchAllQuery()
		case 1:
			return clauses[0]
		default:
			return elastic.NewBoolQuery().Filter(clauses...)
		}
	case db.Or:
		return anyOf(constraining(x))
	case db.Not:
		if isAll(x.Expr) {
			return elastic.NewMatchAllQuery()
		}
		return elastic.NewBoolQuery().MustNot(toQuery(x.Expr))
	default:
		return elastic.NewMatchAllQuery()
	}
}

func constraining(exprs []db.Expr) []elastic.Query {
	clauses := make([]elastic.Query, 0, len(exprs))
	for _, e := range exprs {
		if !isAll(e) {
			clauses = append(clauses, toQuery(e))
		}
	}
	return clauses
}

func anyOf(clauses []elastic.Query) elastic.Query {
	switch len(clauses) {
	case 0:
		return elastic.NewMatchAllQuery()
	case 1:
		return clauses[0]
	default:
		return elastic.NewBoolQuery().Should(clauses...).MinimumNumberShouldMatch(1)
	}
}

func isAll(e db.Expr) bool {
	switch x := e.(type) {
	case nil, db.All:
		return true
	case db.And:
		return len(constraining(x)) == 0
	case db.Or:
		return len(constraining(x)) == 0
	default:
		return false
	}
}

// --- Response mapping ---

func toEntries(hits []searchHit, fields []string) []db.SearchEntry {
	entries := make([]db.SearchEntry, 0, len(hits))
	for _, hit := range hits {
		entry := db.SearchEntry{Key: hit.ID, Fields: make(map[string]string, len(fields))}
		if hit.Score != nil {
			entry.Score = *hit.Score
		}
		for _, f := range fields {
			if v, ok := hit.Source[f]; ok && v != nil {
				entry.Fields[f] = stringify(v)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func toBuckets(f db.FacetRequest, agg aggregationResult) []db.FacetBucket {
	buckets := make([]db.FacetBucket, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		if len(f.Boundaries) > 1 {
			from, to := b.From, b.To
			if from == nil {
				v := math.Inf(-1)
				from = &v
			}
			if to == nil {
				v := math.Inf(1)
				to = &v
			}
			buckets = append(buckets, db.FacetBucket{From: from, To: to, Count: b.DocCount})
			continue
		}
		if b.DocCount == 0 {
			continue
		}
		buckets = append(buckets, db.FacetBucket{Value: stringify(b.Key), Count: b.DocCount})
	}
	return buckets
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
