// Package schema manages the lifecycle of physical search indexes.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
)

// store is the consumer interface for index lifecycle (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/schema.Repository.
type Repo struct {
	store store
}

// New creates a schema repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Exists reports whether the physical index is present.
func (r *Repo) Exists(ctx context.Context, index string) (bool, error) {
	ok, err := r.store.IndexExists(ctx, index)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", index, err)
	}
	return ok, nil
}

// Create declares the physical index with projections for the known fields.
// Losing a creation race to another process is not an error.
func (r *Repo) Create(ctx context.Context, index string, knownFields []string) error {
	def, err := buildIndex(index, knownFields)
	if err != nil {
		return fmt.Errorf("build index %s: %w: %w", index, domain.ErrInvalidRequest, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", index, err)
	}
	return nil
}

// Drop removes the physical index with its documents.
// Returns domain.ErrNotFound when it does not exist.
func (r *Repo) Drop(ctx context.Context, index string) error {
	if err := r.store.DropIndex(ctx, index); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("drop index %s: %w", index, err)
	}
	return nil
}
