// Package preset holds the canned article and book searches of the site API.
package preset

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/content"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/interval"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/domain/search/sorter"
)

// Default page sizes.
const (
	DefaultArticlesTake = 6
	DefaultBooksTake    = 10
)

// Logical fields the presets rely on.
const (
	contentTypeAliasField = "contentTypeAlias"
	authorNameField       = "authorName"
	categoryNameField     = "categoryName"
	articleYearField      = "articleYear"
)

// ArticlesQuery is the input of the articles search.
type ArticlesQuery struct {
	Query         string
	Authors       []string
	Categories    []string
	ArticleYears  []string
	SortBy        string
	SortDirection string
	Skip          int
	Take          int
}

// BooksQuery is the input of the books search.
type BooksQuery struct {
	Query         string
	Authors       []string
	SortBy        string
	SortDirection string
	Skip          int
	Take          int
}

// Service runs the preset searches against one index.
type Service struct {
	searcher Searcher
	alias    string
}

// New creates a preset service searching the index behind alias.
func New(searcher Searcher, alias string) *Service {
	return &Service{searcher: searcher, alias: alias}
}

// Articles searches articles, faceted by author, category, and year.
func (s *Service) Articles(ctx context.Context, q ArticlesQuery) (result.Result, error) {
	req, err := articlesRequest(q)
	if err != nil {
		return result.Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	res, err := s.searcher.Search(ctx, s.alias, req)
	if err != nil {
		return result.Result{}, fmt.Errorf("search articles: %w", err)
	}
	return res, nil
}

// Books searches books, faceted by author.
func (s *Service) Books(ctx context.Context, q BooksQuery) (result.Result, error) {
	req, err := booksRequest(q)
	if err != nil {
		return result.Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	res, err := s.searcher.Search(ctx, s.alias, req)
	if err != nil {
		return result.Result{}, fmt.Errorf("search books: %w", err)
	}
	return res, nil
}

func articlesRequest(q ArticlesQuery) (request.Request, error) {
	filters := []filter.Filter{filter.Keyword{Field: contentTypeAliasField, Values: []string{"article"}}}
	if len(q.Authors) > 0 {
		filters = append(filters, filter.Keyword{Field: authorNameField, Values: q.Authors})
	}
	if len(q.Categories) > 0 {
		filters = append(filters, filter.Keyword{Field: categoryNameField, Values: q.Categories})
	}
	if r, ok := yearSpan(q.ArticleYears); ok {
		filters = append(filters, filter.IntegerRange{Field: articleYearField, Ranges: []interval.Range[int64]{r}})
	}

	var sort sorter.Sorter
	dir := direction(q.SortDirection)
	switch q.SortBy {
	case "title":
		sort = sorter.Text{Field: content.NameField, Direction: dir}
	case "date":
		sort = sorter.Integer{Field: articleYearField, Direction: dir}
	default:
		sort = sorter.Score{Direction: dir}
	}

	return request.New(request.Params{
		Query:   q.Query,
		Filters: filters,
		Facets: []facet.Facet{
			facet.Keyword{Field: authorNameField},
			facet.Keyword{Field: categoryNameField},
			facet.IntegerExact{Field: articleYearField},
		},
		Sorters: []sorter.Sorter{sort},
		Skip:    q.Skip,
		Take:    takeOr(q.Take, DefaultArticlesTake),
	})
}

func booksRequest(q BooksQuery) (request.Request, error) {
	filters := []filter.Filter{filter.Keyword{Field: contentTypeAliasField, Values: []string{"book"}}}
	if len(q.Authors) > 0 {
		filters = append(filters, filter.Keyword{Field: authorNameField, Values: q.Authors})
	}

	sort := sorter.Sorter(sorter.Score{Direction: direction(q.SortDirection)})
	if q.SortBy == "title" {
		sort = sorter.Text{Field: content.NameField, Direction: direction(q.SortDirection)}
	}

	return request.New(request.Params{
		Query:   q.Query,
		Filters: filters,
		Facets:  []facet.Facet{facet.Keyword{Field: authorNameField}},
		Sorters: []sorter.Sorter{sort},
		Skip:    q.Skip,
		Take:    takeOr(q.Take, DefaultBooksTake),
	})
}

// yearSpan covers every year from the smallest to the largest parseable one.
// Unparseable entries are ignored.
func yearSpan(years []string) (interval.Range[int64], bool) {
	var parsed []int64
	for _, y := range years {
		if n, err := strconv.ParseInt(y, 10, 64); err == nil {
			parsed = append(parsed, n)
		}
	}
	if len(parsed) == 0 {
		return interval.Range[int64]{}, false
	}
	lo, hi := slices.Min(parsed), slices.Max(parsed)+1
	return interval.New("articleYear", &lo, &hi), true
}

// direction sorts ascending only when asked to.
func direction(s string) sorter.Direction {
	if s == "asc" {
		return sorter.Ascending
	}
	return sorter.Descending
}

func takeOr(take, def int) int {
	if take <= 0 {
		return def
	}
	return take
}
