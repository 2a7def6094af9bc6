package schema

import "context"

// Repository defines the storage contract for physical indexes.
type Repository interface {
	Exists(ctx context.Context, index string) (bool, error)
	Create(ctx context.Context, index string, knownFields []string) error
	Drop(ctx context.Context, index string) error
}
