// Package search translates abstract search requests into backend queries and
// maps backend responses back into the result model.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// DefaultMaxFacetValues caps terms facets when no limit is configured.
const DefaultMaxFacetValues = 10

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store          store
	maxFacetValues int
}

// New creates a search repository. A non-positive maxFacetValues falls back
// to DefaultMaxFacetValues.
func New(s store, maxFacetValues int) *Repo {
	if maxFacetValues <= 0 {
		maxFacetValues = DefaultMaxFacetValues
	}
	return &Repo{store: s, maxFacetValues: maxFacetValues}
}

// Search runs one backend query for the request against a physical index.
func (r *Repo) Search(ctx context.Context, index string, req request.Request) (result.Result, error) {
	q := buildSearchQuery(index, req, r.maxFacetValues)

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return result.Result{}, fmt.Errorf("search %s: %w: %w", index, domain.ErrIndexUnavailable, err)
		}
		return result.Result{}, fmt.Errorf("search %s: %w", index, err)
	}

	return toResult(sr, req.Facets()), nil
}
