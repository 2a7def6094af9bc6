// Package indexing turns content items into index documents, one per variation.
package indexing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/index"
	"github.com/kailas-cloud/facetdex/internal/domain/variation"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// Item is one content item with every variation it is published in.
// No variations means a single invariant rendition.
type Item struct {
	ContentID  uuid.UUID
	ObjectType content.ObjectType
	Variations []content.Variation
	Fields     []content.Field
	Protection *content.Protection
}

// Report summarizes one AddOrUpdate call.
type Report struct {
	Indexed int
	Failed  int
}

// Options configures the indexer.
type Options struct {
	Primary bool
	// DerivedYears maps a date-time source field to the integer field that
	// receives its years.
	DerivedYears map[string]string
}

// Service writes and removes index documents. Only the primary node writes.
type Service struct {
	repo     Repository
	schema   SchemaManager
	resolver index.AliasResolver
	known    index.KnownFields
	opts     Options
	logger   *zap.Logger
}

// New creates an indexing service.
func New(
	repo Repository, schema SchemaManager, resolver index.AliasResolver,
	known index.KnownFields, opts Options, logger *zap.Logger,
) *Service {
	return &Service{repo: repo, schema: schema, resolver: resolver, known: known, opts: opts, logger: logger}
}

// AddOrUpdate writes one document per variation of the item, replacing
// earlier renditions of the same variation. Documents the index rejects are
// logged and counted without failing the call.
func (s *Service) AddOrUpdate(ctx context.Context, alias string, item Item) (Report, error) {
	if !s.opts.Primary {
		return Report{}, nil
	}

	name := s.resolver.Resolve(alias)
	derived := deriveYears(item.Fields, s.opts.DerivedYears)
	fields := make([]content.Field, 0, len(item.Fields)+len(derived))
	fields = append(fields, item.Fields...)
	grouped := variation.GroupByName(append(fields, derived...))

	variations := item.Variations
	if len(variations) == 0 {
		variations = []content.Variation{{}}
	}

	docs := make([]domdoc.Document, 0, len(variations))
	for _, v := range variations {
		resolved := variation.Resolve(grouped, v)
		docs = append(docs, domdoc.New(item.ContentID, item.ObjectType, v, resolved, item.Protection))
	}

	itemErrs, err := s.repo.PutAll(ctx, name, s.known.Set(alias), docs)
	if err != nil {
		s.logger.Error("Indexing batch failed",
			zap.String("index", name),
			zap.Stringer("content_id", item.ContentID),
			zap.Error(err),
		)
		return Report{}, fmt.Errorf("index content %s: %w", item.ContentID, err)
	}

	var failed int
	var first error
	for _, e := range itemErrs {
		if e == nil {
			continue
		}
		if first == nil {
			first = e
		}
		failed++
	}

	report := Report{Indexed: len(docs) - failed, Failed: failed}
	metrics.IndexedDocumentsTotal.WithLabelValues(name).Add(float64(report.Indexed))
	if failed > 0 {
		metrics.IndexingFailuresTotal.WithLabelValues(name).Add(float64(failed))
		s.logger.Warn("Documents rejected by index",
			zap.String("index", name),
			zap.Stringer("content_id", item.ContentID),
			zap.Int("failed", failed),
			zap.Int("total", len(docs)),
			zap.NamedError("first_error", first),
		)
	}
	return report, nil
}

// Delete removes the items and every document below them in the content tree.
// Returns the number of documents removed.
func (s *Service) Delete(ctx context.Context, alias string, contentIDs []uuid.UUID) (int, error) {
	if !s.opts.Primary || len(contentIDs) == 0 {
		return 0, nil
	}

	name := s.resolver.Resolve(alias)
	n, err := s.repo.DeleteByAncestors(ctx, name, contentIDs)
	if err != nil {
		s.logger.Error("Delete failed",
			zap.String("index", name),
			zap.Int("content_ids", len(contentIDs)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("delete from %s: %w", alias, err)
	}

	metrics.DeletedDocumentsTotal.WithLabelValues(name).Add(float64(n))
	s.logger.Debug("Documents deleted", zap.String("index", name), zap.Int("count", n))
	return n, nil
}

// Reset drops and recreates the index behind alias.
func (s *Service) Reset(ctx context.Context, alias string) error {
	if err := s.schema.Reset(ctx, alias); err != nil {
		return fmt.Errorf("reset %s: %w", alias, err)
	}
	return nil
}

// deriveYears adds, for every configured source field with date-times, a
// field carrying their years under the same variation tags.
func deriveYears(fields []content.Field, years map[string]string) []content.Field {
	if len(years) == 0 {
		return nil
	}
	var out []content.Field
	for _, f := range fields {
		target, ok := years[f.Name]
		if !ok || len(f.Value.DateTimes) == 0 {
			continue
		}
		ys := make([]int64, len(f.Value.DateTimes))
		for i, t := range f.Value.DateTimes {
			ys[i] = int64(t.Year())
		}
		out = append(out, content.Field{
			Name:    target,
			Value:   content.Value{Integers: ys},
			Culture: f.Culture,
			Segment: f.Segment,
		})
	}
	return out
}
