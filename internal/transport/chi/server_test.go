package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/content"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/domain/search/sorter"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/facetdex/internal/usecase/indexing"
	presetuc "github.com/kailas-cloud/facetdex/internal/usecase/preset"
)

// --- Search ---

func TestSearch_DecodesTaggedObjects(t *testing.T) {
	ts := newTestServer(t)

	var got request.Request
	var gotAlias string
	ts.searcher.searchFn = func(_ context.Context, alias string, req request.Request) (result.Result, error) {
		gotAlias, got = alias, req
		return result.Empty(), nil
	}

	principal := uuid.New()
	body := fmt.Sprintf(`{
		"query": "jazz",
		"filters": [
			{"type": "keyword", "field": "authorName", "values": ["Ann"]},
			{"type": "integer_range", "field": "articleYear", "ranges": [{"key": "recent", "min": 2020}]},
			{"type": "datetime_exact", "field": "articleDate", "values": ["2024-01-02T03:04:05Z"], "negate": true}
		],
		"facets": [
			{"type": "keyword", "field": "categoryName"},
			{"type": "decimal_range", "field": "price", "ranges": [{"key": "cheap", "max": 10.5}]}
		],
		"sorters": [{"type": "text", "field": "name", "direction": "asc"}, {"type": "score"}],
		"culture": "en-US",
		"access": {"principal_id": %q},
		"skip": 5
	}`, principal)

	rr := ts.do(t, http.MethodPost, "/indexes/articles/search", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotAlias != "articles" {
		t.Errorf("alias = %q", gotAlias)
	}
	if got.Query() != "jazz" || got.Culture() != "en-US" || got.Skip() != 5 {
		t.Errorf("request = %+v", got)
	}
	if got.Take() != request.DefaultTake {
		t.Errorf("take = %d, want default %d", got.Take(), request.DefaultTake)
	}
	if got.Access() == nil || got.Access().PrincipalID != principal {
		t.Errorf("access = %+v", got.Access())
	}

	filters := got.Filters()
	if len(filters) != 3 {
		t.Fatalf("filters = %d, want 3", len(filters))
	}
	if kw, ok := filters[0].(filter.Keyword); !ok || kw.Values[0] != "Ann" {
		t.Errorf("filters[0] = %#v", filters[0])
	}
	ir, ok := filters[1].(filter.IntegerRange)
	if !ok || *ir.Ranges[0].Min != 2020 || ir.Ranges[0].Max != nil {
		t.Errorf("filters[1] = %#v", filters[1])
	}
	dt, ok := filters[2].(filter.DateTimeExact)
	if !ok || !dt.Negate || !dt.Values[0].Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("filters[2] = %#v", filters[2])
	}

	if _, ok := got.Facets()[0].(facet.Keyword); !ok {
		t.Errorf("facets[0] = %#v", got.Facets()[0])
	}
	dr, ok := got.Facets()[1].(facet.DecimalRange)
	if !ok || dr.Ranges[0].Min != nil || *dr.Ranges[0].Max != 10.5 {
		t.Errorf("facets[1] = %#v", got.Facets()[1])
	}

	wantSorters := []sorter.Sorter{
		sorter.Text{Field: "name", Direction: sorter.Ascending},
		sorter.Score{Direction: sorter.Descending},
	}
	if diff := cmp.Diff(wantSorters, got.Sorters()); diff != "" {
		t.Errorf("sorters mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_ResponseShape(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.MustParse("6f1c5f1e-5b7a-4c2e-9a53-0f4b7e1d2c3a")
	lo, hi := int64(2000), int64(2010)
	ts.searcher.searchFn = func(context.Context, string, request.Request) (result.Result, error) {
		return result.Result{
			Total:     1,
			Documents: []result.Document{{ID: id, ObjectType: content.ObjectTypeDocument}},
			Facets: []result.Facet{
				{Field: "authorName", Values: []result.FacetValue{result.KeywordValue{Key: "Ann", Count: 3}}},
				{Field: "articleYear", Values: []result.FacetValue{
					result.IntegerRangeValue{Key: "2000s", Min: &lo, Max: &hi, Count: 7},
					result.IntegerRangeValue{Key: "later", Min: &hi, Count: 1},
				}},
			},
		}, nil
	}

	rr := ts.do(t, http.MethodPost, "/indexes/articles/search", `{"query": "a"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decodeBody[map[string]any](t, rr)
	want := map[string]any{
		"total":     float64(1),
		"documents": []any{map[string]any{"id": id.String(), "objectType": "Document"}},
		"facets": []any{
			map[string]any{"field": "authorName", "values": []any{
				map[string]any{"key": "Ann", "count": float64(3)},
			}},
			map[string]any{"field": "articleYear", "values": []any{
				map[string]any{"key": "2000s", "min": float64(2000), "max": float64(2010), "count": float64(7)},
				map[string]any{"key": "later", "min": float64(2010), "count": float64(1)},
			}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"query":`, CodeBadRequest},
		{"unknown filter type", `{"filters": [{"type": "geo", "field": "x"}]}`, CodeValidationFailed},
		{"filter without field", `{"filters": [{"type": "keyword", "values": ["a"]}]}`, CodeValidationFailed},
		{"filter without values", `{"filters": [{"type": "keyword", "field": "a"}]}`, CodeValidationFailed},
		{"wrong value type", `{"filters": [{"type": "integer_exact", "field": "a", "values": ["x"]}]}`, CodeValidationFailed},
		{"inverted range", `{"filters": [{"type": "integer_range", "field": "a", "ranges": [{"min": 5, "max": 1}]}]}`, CodeValidationFailed},
		{"sorter without field", `{"sorters": [{"type": "keyword"}]}`, CodeValidationFailed},
		{"bad direction", `{"sorters": [{"type": "score", "direction": "up"}]}`, CodeValidationFailed},
		{"negative skip", `{"skip": -1}`, CodeValidationFailed},
		{"take too large", `{"take": 501}`, CodeValidationFailed},
		{"range facet without key", `{"facets": [{"type": "integer_range", "field": "a", "ranges": [{"min": 1}]}]}`, CodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			called := false
			ts.searcher.searchFn = func(context.Context, string, request.Request) (result.Result, error) {
				called = true
				return result.Empty(), nil
			}

			rr := ts.do(t, http.MethodPost, "/indexes/articles/search", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %s", rr.Code, rr.Body.String())
			}
			if resp := decodeBody[ErrorResponse](t, rr); resp.Code != tc.code {
				t.Errorf("code = %q, want %q (%s)", resp.Code, tc.code, resp.Message)
			}
			if called {
				t.Error("search must not run on invalid input")
			}
		})
	}
}

func TestSearch_UnknownAlias(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/indexes/books/search", `{}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Code != CodeIndexNotFound {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestSearch_AliasCaseInsensitive(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/indexes/Articles/search", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"invalid", fmt.Errorf("x: %w", domain.ErrInvalidRequest), http.StatusBadRequest, CodeValidationFailed, "invalid request"},
		{"unknown index", domain.ErrUnknownIndex, http.StatusNotFound, CodeIndexNotFound, "unknown index"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, CodeNotFound, "not found"},
		{"unavailable", fmt.Errorf("wrap: %w", domain.ErrIndexUnavailable),
			http.StatusServiceUnavailable, CodeIndexUnavailable, "index unavailable"},
		{"internal", errors.New("redis: secret detail"), http.StatusInternalServerError, CodeInternalError, "internal error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.schema.ensureFn = func(context.Context, string) error { return tc.err }

			rr := ts.do(t, http.MethodPost, "/indexes/articles/ensure", nil)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			resp := decodeBody[ErrorResponse](t, rr)
			if resp.Code != tc.code || resp.Message != tc.msg {
				t.Errorf("response = %+v, want %s / %s", resp, tc.code, tc.msg)
			}
		})
	}
}

// --- Documents ---

func TestUpsertDocument(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	access := uuid.New()

	var got indexinguc.Item
	ts.indexer.addFn = func(_ context.Context, alias string, item indexinguc.Item) (indexinguc.Report, error) {
		if alias != "articles" {
			t.Errorf("alias = %q", alias)
		}
		got = item
		return indexinguc.Report{Indexed: 2, Failed: 1}, nil
	}

	body := map[string]any{
		"objectType": "document",
		"variations": []map[string]string{{"culture": "en-US"}, {"culture": "da-DK", "segment": "b2b"}},
		"fields": []map[string]any{
			{"name": "name", "culture": "en-US", "texts": []string{"Hello"}},
			{"name": "articleYear", "integers": []int64{2024}},
		},
		"protection": map[string]any{"accessIds": []string{access.String()}},
	}
	rr := ts.do(t, http.MethodPut, "/indexes/articles/documents/"+id.String(), body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if resp := decodeBody[upsertResponse](t, rr); resp.Indexed != 2 || resp.Failed != 1 {
		t.Errorf("response = %+v", resp)
	}

	if got.ContentID != id || got.ObjectType != content.ObjectTypeDocument {
		t.Errorf("item = %+v", got)
	}
	if len(got.Variations) != 2 || *got.Variations[1].Segment != "b2b" || got.Variations[0].Segment != nil {
		t.Errorf("variations = %+v", got.Variations)
	}
	if len(got.Fields) != 2 || *got.Fields[0].Culture != "en-US" || got.Fields[1].Value.Integers[0] != 2024 {
		t.Errorf("fields = %+v", got.Fields)
	}
	if got.Protection == nil || got.Protection.AccessIDs[0] != access {
		t.Errorf("protection = %+v", got.Protection)
	}
}

func TestUpsertDocument_BadID(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPut, "/indexes/articles/documents/not-a-uuid", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpsertDocument_FieldWithoutName(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPut, "/indexes/articles/documents/"+uuid.NewString(),
		`{"fields": [{"texts": ["a"]}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Message != "fields[0].name is required" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestDeleteDocument(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	ts.indexer.deleteFn = func(_ context.Context, _ string, ids []uuid.UUID) (int, error) {
		if len(ids) != 1 || ids[0] != id {
			t.Errorf("ids = %v", ids)
		}
		return 3, nil
	}

	rr := ts.do(t, http.MethodDelete, "/indexes/articles/documents/"+id.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decodeBody[deleteResponse](t, rr); resp.Deleted != 3 {
		t.Errorf("deleted = %d, want 3", resp.Deleted)
	}
}

func TestDeleteDocuments(t *testing.T) {
	ts := newTestServer(t)
	a, b := uuid.New(), uuid.New()
	ts.indexer.deleteFn = func(_ context.Context, _ string, ids []uuid.UUID) (int, error) {
		return len(ids), nil
	}

	rr := ts.do(t, http.MethodPost, "/indexes/articles/documents/delete", map[string]any{"ids": []uuid.UUID{a, b}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decodeBody[deleteResponse](t, rr); resp.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", resp.Deleted)
	}

	rr = ts.do(t, http.MethodPost, "/indexes/articles/documents/delete", `{"ids": []}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty ids: status = %d, want 400", rr.Code)
	}
}

func TestDeleteDocuments_Unavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.indexer.deleteFn = func(context.Context, string, []uuid.UUID) (int, error) {
		return 0, fmt.Errorf("search ids: %w", domain.ErrIndexUnavailable)
	}
	rr := ts.do(t, http.MethodDelete, "/indexes/articles/documents/"+uuid.NewString(), nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

// --- Schema ---

func TestEnsureAndReset(t *testing.T) {
	ts := newTestServer(t)
	var calls []string
	ts.schema.ensureFn = func(_ context.Context, alias string) error {
		calls = append(calls, "ensure:"+alias)
		return nil
	}
	ts.schema.resetFn = func(_ context.Context, alias string) error {
		calls = append(calls, "reset:"+alias)
		return nil
	}

	for _, path := range []string{"/indexes/articles/ensure", "/indexes/articles/reset"} {
		if rr := ts.do(t, http.MethodPost, path, nil); rr.Code != http.StatusNoContent {
			t.Fatalf("%s: status = %d, want 204", path, rr.Code)
		}
	}
	if diff := cmp.Diff([]string{"ensure:articles", "reset:articles"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

// --- Presets ---

func TestArticles_QueryParams(t *testing.T) {
	ts := newTestServer(t)
	var got presetuc.ArticlesQuery
	ts.presets.articlesFn = func(_ context.Context, q presetuc.ArticlesQuery) (result.Result, error) {
		got = q
		return result.Empty(), nil
	}

	path := "/api/articles?query=jazz&author=Ann&author[]=Bob&categories=News" +
		"&articleYear=2021&articleYear=2023&sortBy=date&sortDirection=asc&skip=6&take=12"
	rr := ts.do(t, http.MethodGet, path, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	want := presetuc.ArticlesQuery{
		Query:         "jazz",
		Authors:       []string{"Ann", "Bob"},
		Categories:    []string{"News"},
		ArticleYears:  []string{"2021", "2023"},
		SortBy:        "date",
		SortDirection: "asc",
		Skip:          6,
		Take:          12,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestArticles_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"sort field", "/api/articles?sortBy=author"},
		{"direction", "/api/articles?sortDirection=sideways"},
		{"skip not a number", "/api/articles?skip=abc"},
		{"negative take", "/api/articles?take=-1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			rr := ts.do(t, http.MethodGet, tc.path, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestBooks(t *testing.T) {
	ts := newTestServer(t)
	var got presetuc.BooksQuery
	ts.presets.booksFn = func(_ context.Context, q presetuc.BooksQuery) (result.Result, error) {
		got = q
		return result.Empty(), nil
	}

	rr := ts.do(t, http.MethodGet, "/api/books?author=Ann&sortBy=title", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got.SortBy != "title" || len(got.Authors) != 1 {
		t.Errorf("query = %+v", got)
	}

	if rr := ts.do(t, http.MethodGet, "/api/books?sortBy=date", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("books do not sort by date: status = %d", rr.Code)
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			ts := newTestServer(t)
			ts.health.report = healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
			}
			rr := ts.do(t, http.MethodGet, "/health", nil)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			resp := decodeBody[healthResponse](t, rr)
			if resp.Status != string(tc.status) || resp.Checks["database"] != "ok" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Code != CodeNotFound {
		t.Errorf("code = %q", resp.Code)
	}
}
