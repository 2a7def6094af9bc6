// Package search answers faceted search requests against configured indexes.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/index"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// Options configures the searcher.
type Options struct {
	// ExpandFacetValues recomputes facets on filtered fields without their
	// own filter, so every value of the field stays selectable.
	ExpandFacetValues bool
}

// Service handles search requests.
type Service struct {
	repo     Repository
	resolver index.AliasResolver
	aliases  map[string]bool
	opts     Options
	logger   *zap.Logger
}

// New creates a search service over the configured index aliases.
func New(
	repo Repository, resolver index.AliasResolver, aliases []string,
	opts Options, logger *zap.Logger,
) *Service {
	known := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		known[strings.ToLower(a)] = true
	}
	return &Service{repo: repo, resolver: resolver, aliases: known, opts: opts, logger: logger}
}

// Search runs the request against the index behind alias. Backend failures
// are logged and produce an empty result; only an unknown alias is an error.
func (s *Service) Search(ctx context.Context, alias string, req request.Request) (result.Result, error) {
	if !s.aliases[strings.ToLower(alias)] {
		return result.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownIndex, alias)
	}
	if req.IsEmpty() {
		return result.Empty(), nil
	}

	name := s.resolver.Resolve(alias)
	start := time.Now()

	res, err := s.search(ctx, name, req)

	metrics.SearchOperationsTotal.WithLabelValues("search", metrics.Status(err)).Inc()
	metrics.SearchOperationDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("Search failed",
			zap.String("index", name),
			zap.String("query", req.Query()),
			zap.Error(err),
		)
		return result.Empty(), nil
	}
	return res, nil
}

func (s *Service) search(ctx context.Context, name string, req request.Request) (result.Result, error) {
	expanded := s.expandedFacets(req)
	if len(expanded) == 0 {
		return s.repo.Search(ctx, name, req)
	}

	facets := req.Facets()
	var mainFacets []facet.Facet
	for i, f := range facets {
		if !expanded[i] {
			mainFacets = append(mainFacets, f)
		}
	}

	var main result.Result
	subResults := make([]result.Facet, len(facets))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.repo.Search(gctx, name, req.WithFacets(mainFacets))
		if err != nil {
			return fmt.Errorf("main query: %w", err)
		}
		main = res
		return nil
	})
	for i, f := range facets {
		if !expanded[i] {
			continue
		}
		sub := req.FacetOnly(f, filtersExcept(req.Filters(), f.FieldName()))
		g.Go(func() error {
			res, err := s.repo.Search(gctx, name, sub)
			if err != nil {
				return fmt.Errorf("expand facet %s: %w", f.FieldName(), err)
			}
			if len(res.Facets) > 0 {
				subResults[i] = res.Facets[0]
			} else {
				subResults[i] = result.Facet{Field: f.FieldName(), Values: []result.FacetValue{}}
			}
			return nil
		})
	}
	metrics.FacetExpansionQueriesTotal.Add(float64(len(expanded)))

	if err := g.Wait(); err != nil {
		return result.Result{}, err
	}

	subs := make(map[int]result.Facet, len(expanded))
	for i := range expanded {
		subs[i] = subResults[i]
	}
	main.Facets = mergeFacets(facets, main.Facets, subs)
	return main, nil
}

// expandedFacets marks the facets whose field is also filtered on.
func (s *Service) expandedFacets(req request.Request) map[int]bool {
	if !s.opts.ExpandFacetValues || len(req.Filters()) == 0 {
		return nil
	}
	out := make(map[int]bool)
	for i, f := range req.Facets() {
		for _, flt := range req.Filters() {
			if strings.EqualFold(flt.FieldName(), f.FieldName()) {
				out[i] = true
				break
			}
		}
	}
	return out
}

func filtersExcept(filters []filter.Filter, field string) []filter.Filter {
	out := make([]filter.Filter, 0, len(filters))
	for _, f := range filters {
		if !strings.EqualFold(f.FieldName(), field) {
			out = append(out, f)
		}
	}
	return out
}

// mergeFacets lays out one facet per requested facet, in request order:
// expanded facets from their sub-queries, the rest in order from the main response.
func mergeFacets(requested []facet.Facet, main []result.Facet, subs map[int]result.Facet) []result.Facet {
	out := make([]result.Facet, 0, len(requested))
	next := 0
	for i, f := range requested {
		if sub, ok := subs[i]; ok {
			out = append(out, sub)
			continue
		}
		if next < len(main) {
			out = append(out, main[next])
			next++
			continue
		}
		out = append(out, result.Facet{Field: f.FieldName(), Values: []result.FacetValue{}})
	}
	return out
}
