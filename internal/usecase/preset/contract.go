package preset

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Searcher runs abstract search requests.
type Searcher interface {
	Search(ctx context.Context, alias string, req request.Request) (result.Result, error)
}
