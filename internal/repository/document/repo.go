package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/content"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/fieldname"
)

const defaultDeleteBatch = 500

// store is the consumer interface for documents (ISP).
type store interface {
	PutDocuments(ctx context.Context, index string, docs []db.Document) ([]error, error)
	DeleteDocuments(ctx context.Context, index string, ids []string) error
	SearchIDs(ctx context.Context, index string, filter db.Expr, batch int) ([]string, error)
}

// Repo implements usecase/indexing.Repository.
type Repo struct {
	store       store
	deleteBatch int
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s, deleteBatch: defaultDeleteBatch}
}

// WithDeleteBatch sets the page size used to collect documents for deletion.
func (r *Repo) WithDeleteBatch(n int) *Repo {
	if n > 0 {
		r.deleteBatch = n
	}
	return r
}

// PutAll writes every document in one batch. The returned slice is aligned
// with docs and holds per-document rejections; the error reports a batch
// that could not be delivered.
func (r *Repo) PutAll(
	ctx context.Context, index string, known map[string]bool, docs []domdoc.Document,
) ([]error, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	batch := make([]db.Document, len(docs))
	for i := range docs {
		body, err := json.Marshal(buildJSONDoc(&docs[i], known))
		if err != nil {
			return nil, fmt.Errorf("marshal document %s: %w", docs[i].ID(), err)
		}
		batch[i] = db.Document{ID: docs[i].ID(), Body: body}
	}

	itemErrs, err := r.store.PutDocuments(ctx, index, batch)
	if err != nil {
		return nil, fmt.Errorf("put documents %s: %w", index, mapStoreErr(err))
	}
	return itemErrs, nil
}

// DeleteByAncestors removes every document whose path contains any of the
// given content ids, i.e. the items themselves and their descendants.
// Returns the number of documents removed.
func (r *Repo) DeleteByAncestors(ctx context.Context, index string, contentIDs []uuid.UUID) (int, error) {
	if len(contentIDs) == 0 {
		return 0, nil
	}

	values := make([]string, len(contentIDs))
	for i, id := range contentIDs {
		values[i] = id.String()
	}
	filter := db.Tag{Field: fieldname.Physical(content.PathIDsField, fieldname.Keywords), Values: values}

	ids, err := r.store.SearchIDs(ctx, index, filter, r.deleteBatch)
	if err != nil {
		return 0, fmt.Errorf("search ids %s: %w", index, mapStoreErr(err))
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := r.store.DeleteDocuments(ctx, index, ids); err != nil {
		return 0, fmt.Errorf("delete documents %s: %w", index, mapStoreErr(err))
	}
	return len(ids), nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return err
}
