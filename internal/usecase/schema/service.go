// Package schema ensures that physical search indexes exist with the declared
// field schema.
package schema

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/index"
)

// Service creates and resets physical indexes. Only the primary node writes.
type Service struct {
	repo     Repository
	resolver index.AliasResolver
	known    index.KnownFields
	primary  bool
	logger   *zap.Logger
}

// New creates a schema service.
func New(
	repo Repository, resolver index.AliasResolver, known index.KnownFields,
	primary bool, logger *zap.Logger,
) *Service {
	return &Service{repo: repo, resolver: resolver, known: known, primary: primary, logger: logger}
}

// Ensure creates the physical index behind alias unless it already exists.
func (s *Service) Ensure(ctx context.Context, alias string) error {
	if !s.primary {
		s.logger.Debug("Skipping index ensure on non-primary node", zap.String("index", alias))
		return nil
	}

	name := s.resolver.Resolve(alias)
	exists, err := s.repo.Exists(ctx, name)
	if err != nil {
		s.logger.Error("Index existence check failed", zap.String("index", name), zap.Error(err))
		return fmt.Errorf("ensure index %s: %w", alias, err)
	}
	if exists {
		return nil
	}

	fields := s.known.For(alias)
	if err := s.repo.Create(ctx, name, fields); err != nil {
		s.logger.Error("Index creation failed", zap.String("index", name), zap.Error(err))
		return fmt.Errorf("ensure index %s: %w", alias, err)
	}

	s.logger.Info("Index created",
		zap.String("index", name),
		zap.Strings("known_fields", fields),
	)
	return nil
}

// Reset drops the physical index behind alias and creates it again empty.
// A missing index is not an error.
func (s *Service) Reset(ctx context.Context, alias string) error {
	if !s.primary {
		s.logger.Debug("Skipping index reset on non-primary node", zap.String("index", alias))
		return nil
	}

	name := s.resolver.Resolve(alias)
	if err := s.repo.Drop(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("Index drop failed", zap.String("index", name), zap.Error(err))
		return fmt.Errorf("reset index %s: %w", alias, err)
	}

	// Ensure resolves the alias again so known fields are looked up by alias.
	return s.Ensure(ctx, alias)
}

// EnsureAll ensures every alias and reports every failure.
func (s *Service) EnsureAll(ctx context.Context, aliases []string) error {
	var errs []error
	for _, alias := range aliases {
		if err := s.Ensure(ctx, alias); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
