package search

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Repository runs one search against a physical index.
type Repository interface {
	Search(ctx context.Context, index string, req request.Request) (result.Result, error)
}
