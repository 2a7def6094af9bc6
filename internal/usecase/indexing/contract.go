package indexing

import (
	"context"

	"github.com/google/uuid"

	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
)

// Repository defines the storage contract for index documents.
type Repository interface {
	PutAll(ctx context.Context, index string, known map[string]bool, docs []domdoc.Document) ([]error, error)
	DeleteByAncestors(ctx context.Context, index string, contentIDs []uuid.UUID) (int, error)
}

// SchemaManager recreates physical indexes.
type SchemaManager interface {
	Reset(ctx context.Context, alias string) error
}
