package redis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facetdex/internal/db"
)

const (
	keyField   = "__key"
	scoreField = "__score"
	countAlias = "count"
)

// Search runs one filtered query and all of its facets in a single DoMulti
// round-trip. Tag facets need a second round-trip to count each dictionary value.
//
// Hits come from FT.AGGREGATE (multi-key SORTBY, relevance via ADDSCORES),
// the total from FT.SEARCH LIMIT 0 0, value facets from GROUPBY/COUNT and
// boundary facets from one count per bucket.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	query := buildQuery(q.Filter, q.Text)

	var cmds []rueidis.Completed
	pageAt, countAt := -1, -1
	if q.Limit > 0 {
		pageAt = len(cmds)
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(buildPageArgs(q, query)...).Build())
	}
	if q.CountTotal {
		countAt = len(cmds)
		cmds = append(cmds, s.countCmd(q.Index, query))
	}

	plans := make([]facetPlan, len(q.Facets))
	for i, f := range q.Facets {
		plans[i] = facetPlan{request: f, first: len(cmds)}
		switch {
		case len(f.Boundaries) > 1:
			for j := 0; j+1 < len(f.Boundaries); j++ {
				bucket := db.Numeric{Field: f.Field, Min: &f.Boundaries[j], Max: &f.Boundaries[j+1], MaxExclusive: true}
				cmds = append(cmds, s.countCmd(q.Index, joinQuery(query, render(bucket))))
			}
			plans[i].kind = facetBuckets
		case len(f.Boundaries) == 1:
			plans[i].kind = facetNone
		case f.Tag:
			cmds = append(cmds, s.b().Arbitrary("FT.TAGVALS").Args(q.Index, f.Field).Build())
			plans[i].kind = facetTagValues
		default:
			cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(buildGroupArgs(q.Index, query, f)...).Build())
			plans[i].kind = facetGroups
		}
		plans[i].last = len(cmds)
	}

	out := &db.SearchResult{Facets: make([][]db.FacetBucket, len(q.Facets))}
	if len(cmds) == 0 {
		return out, nil
	}

	results := s.client.DoMulti(ctx, cmds...)
	for _, res := range results {
		if err := res.Error(); err != nil {
			return nil, searchError(err)
		}
	}

	if pageAt >= 0 {
		raw, err := results[pageAt].ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpAggregate, Err: err}
		}
		out.Entries = parseRows(raw, docPrefix(q.Index))
	}
	if countAt >= 0 {
		total, err := parseCount(results[countAt])
		if err != nil {
			return nil, err
		}
		out.Total = total
	}

	for i, p := range plans {
		buckets, err := s.collectFacet(ctx, q.Index, query, p, results)
		if err != nil {
			return nil, err
		}
		out.Facets[i] = buckets
	}

	return out, nil
}

// SearchIDs pages through every document matching filter with FT.SEARCH NOCONTENT.
func (s *Store) SearchIDs(ctx context.Context, index string, filter db.Expr, batch int) ([]string, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("batch must be positive")
	}
	query := render(filter)
	prefix := docPrefix(index)

	var ids []string
	for offset := 0; ; offset += batch {
		cmd := s.b().Arbitrary("FT.SEARCH").
			Args(index, query, "NOCONTENT", "LIMIT", strconv.Itoa(offset), strconv.Itoa(batch), "DIALECT", "2").
			Build()
		raw, err := s.do(ctx, cmd).ToArray()
		if err != nil {
			return nil, searchError(err)
		}
		if len(raw) == 0 {
			return ids, nil
		}
		total, err := raw[0].AsInt64()
		if err != nil {
			return nil, fmt.Errorf("parse total: %w", err)
		}
		for _, m := range raw[1:] {
			key, err := m.ToString()
			if err != nil {
				continue
			}
			ids = append(ids, strings.TrimPrefix(key, prefix))
		}
		if len(raw) == 1 || int64(offset+batch) >= total {
			return ids, nil
		}
	}
}

func (s *Store) countCmd(index, query string) rueidis.Completed {
	return s.b().Arbitrary("FT.SEARCH").
		Args(index, query, "NOCONTENT", "LIMIT", "0", "0", "DIALECT", "2").
		Build()
}

func searchError(err error) error {
	if isMissingIndex(err) {
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}

// --- Facets ---

type facetKind int

const (
	facetNone facetKind = iota
	facetBuckets
	facetTagValues
	facetGroups
)

type facetPlan struct {
	request db.FacetRequest
	kind    facetKind
	// first and last delimit this facet's commands in the DoMulti batch.
	first, last int
}

func (s *Store) collectFacet(
	ctx context.Context, index, query string, p facetPlan, results []rueidis.RedisResult,
) ([]db.FacetBucket, error) {
	switch p.kind {
	case facetBuckets:
		buckets := make([]db.FacetBucket, 0, p.last-p.first)
		for j, res := range results[p.first:p.last] {
			n, err := parseCount(res)
			if err != nil {
				return nil, err
			}
			from, to := p.request.Boundaries[j], p.request.Boundaries[j+1]
			buckets = append(buckets, db.FacetBucket{From: &from, To: &to, Count: int64(n)})
		}
		return buckets, nil

	case facetGroups:
		raw, err := results[p.first].ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpAggregate, Err: err}
		}
		return parseGroups(raw, p.request.Field), nil

	case facetTagValues:
		values, err := results[p.first].AsStrSlice()
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		return s.countTagValues(ctx, index, query, p.request, values)

	default:
		return []db.FacetBucket{}, nil
	}
}

// countTagValues counts each tag dictionary value under the query and keeps
// the Size most frequent non-zero ones. Counting per value keeps multi-valued
// fields exact: a document holding two tags counts once for each.
func (s *Store) countTagValues(
	ctx context.Context, index, query string, f db.FacetRequest, values []string,
) ([]db.FacetBucket, error) {
	if len(values) == 0 {
		return []db.FacetBucket{}, nil
	}

	cmds := make([]rueidis.Completed, len(values))
	for i, v := range values {
		cmds[i] = s.countCmd(index, joinQuery(query, render(db.Tag{Field: f.Field, Values: []string{v}})))
	}

	buckets := make([]db.FacetBucket, 0, len(values))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		n, err := parseCount(res)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			buckets = append(buckets, db.FacetBucket{Value: values[i], Count: int64(n)})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
	if f.Size > 0 && len(buckets) > f.Size {
		buckets = buckets[:f.Size]
	}
	return buckets, nil
}

// --- Command arguments ---

func buildPageArgs(q *db.SearchQuery, query string) []string {
	load := []string{"@" + keyField}
	seen := map[string]bool{keyField: true}
	for _, f := range q.Return {
		if !seen[f] {
			seen[f] = true
			load = append(load, "@"+f)
		}
	}

	sortKeys := q.SortBy
	if len(sortKeys) == 0 && q.Text != nil {
		sortKeys = []db.SortKey{{Field: db.ScoreField, Desc: true}}
	}
	for _, k := range sortKeys {
		if k.Field != db.ScoreField && !seen[k.Field] {
			seen[k.Field] = true
			load = append(load, "@"+k.Field)
		}
	}

	args := []string{q.Index, query, "LOAD", strconv.Itoa(len(load))}
	args = append(args, load...)
	args = append(args, "ADDSCORES")

	if len(sortKeys) > 0 {
		args = append(args, "SORTBY", strconv.Itoa(len(sortKeys)*2))
		for _, k := range sortKeys {
			name := k.Field
			if name == db.ScoreField {
				name = scoreField
			}
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			args = append(args, "@"+name, dir)
		}
	}

	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", "2")
	return args
}

// buildGroupArgs counts the values of a numeric field. Documents without
// the field are excluded so no null group takes one of the MAX slots.
func buildGroupArgs(index, query string, f db.FacetRequest) []string {
	args := []string{
		index, joinQuery(query, render(db.Numeric{Field: f.Field})),
		"GROUPBY", "1", "@" + f.Field,
		"REDUCE", "COUNT", "0", "AS", countAlias,
		"SORTBY", "2", "@" + countAlias, "DESC",
	}
	if f.Size > 0 {
		args = append(args, "MAX", strconv.Itoa(f.Size))
	}
	return append(args, "DIALECT", "2")
}

// --- Result parsing ---

func parseCount(res rueidis.RedisResult) (int, error) {
	raw, err := res.ToArray()
	if err != nil {
		return 0, searchError(err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseRows reads FT.AGGREGATE rows: [total, [k, v, ...], [k, v, ...], ...].
func parseRows(raw []rueidis.RedisMessage, prefix string) []db.SearchEntry {
	if len(raw) < 2 {
		return []db.SearchEntry{}
	}

	entries := make([]db.SearchEntry, 0, len(raw)-1)
	for _, row := range raw[1:] {
		pairs, err := row.ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(pairs)

		entry := db.SearchEntry{Key: strings.TrimPrefix(fields[keyField], prefix)}
		delete(fields, keyField)
		if v, ok := fields[scoreField]; ok {
			if score, err := strconv.ParseFloat(v, 64); err == nil {
				entry.Score = score
			}
			delete(fields, scoreField)
		}
		entry.Fields = fields
		entries = append(entries, entry)
	}
	return entries
}

func parseGroups(raw []rueidis.RedisMessage, field string) []db.FacetBucket {
	if len(raw) < 2 {
		return []db.FacetBucket{}
	}

	buckets := make([]db.FacetBucket, 0, len(raw)-1)
	for _, row := range raw[1:] {
		pairs, err := row.ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(pairs)
		value, ok := fields[field]
		if !ok || value == "" {
			continue
		}
		n, err := strconv.ParseInt(fields[countAlias], 10, 64)
		if err != nil {
			continue
		}
		buckets = append(buckets, db.FacetBucket{Value: value, Count: n})
	}
	return buckets
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query rendering ---

const textFieldsSep = "|"

// buildQuery renders the filter and the optional free-text clause into one
// query string.
func buildQuery(filter db.Expr, text *db.FullText) string {
	f := render(filter)
	if text == nil || strings.TrimSpace(text.Query) == "" || len(text.Fields) == 0 {
		return f
	}

	names := make([]string, len(text.Fields))
	for i, wf := range text.Fields {
		names[i] = wf.Name
	}
	textPart := fmt.Sprintf("@%s:(%s)", strings.Join(names, textFieldsSep), escapeQuery(text.Query))
	return joinQuery(textPart, f)
}

func joinQuery(a, b string) string {
	switch {
	case a == "*":
		return b
	case b == "*":
		return a
	default:
		return a + " " + b
	}
}

// render translates an expression into query syntax. Empty And/Or groups
// impose no constraint.
func render(e db.Expr) string {
	switch x := e.(type) {
	case nil, db.All:
		return "*"
	case db.Tag:
		return buildTagFilter(x.Field, x.Values)
	case db.Numeric:
		return buildNumericFilter(x)
	case db.Prefix:
		parts := make([]string, 0, len(x.Values))
		for _, v := range x.Values {
			parts = append(parts, fmt.Sprintf("@%s:(%s*)", x.Field, escapeQuery(strings.TrimSpace(v))))
		}
		return group(parts, " | ")
	case db.And:
		return group(renderAll(x), " ")
	case db.Or:
		return group(renderAll(x), " | ")
	case db.Not:
		inner := render(x.Expr)
		if inner == "*" {
			return "*"
		}
		return "-" + wrap(inner)
	default:
		return "*"
	}
}

func renderAll(exprs []db.Expr) []string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if r := render(e); r != "*" {
			parts = append(parts, r)
		}
	}
	return parts
}

func group(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return "*"
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, sep) + ")"
	}
}

func wrap(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return s
	}
	return "(" + s + ")"
}

func buildTagFilter(key string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | "))
}

func buildNumericFilter(n db.Numeric) string {
	minBound := "-inf"
	maxBound := "+inf"

	if n.Min != nil && !math.IsInf(*n.Min, -1) {
		minBound = formatNumber(*n.Min)
	}
	if n.Max != nil && !math.IsInf(*n.Max, 1) {
		maxBound = formatNumber(*n.Max)
		if n.MaxExclusive {
			maxBound = "(" + maxBound
		}
	}

	return fmt.Sprintf("@%s:[%s %s]", n.Field, minBound, maxBound)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
)
