package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// PutDocuments stores whole JSON documents in a single DoMulti round-trip.
// Server rejections are reported per document; anything else fails the batch.
func (s *Store) PutDocuments(ctx context.Context, index string, docs []db.Document) ([]error, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(docs))
	for i, doc := range docs {
		cmds[i] = s.b().Arbitrary("JSON.SET").Keys(docKey(index, doc.ID)).Args("$", string(doc.Body)).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	itemErrs := make([]error, len(docs))
	for i, res := range results {
		err := res.Error()
		if err == nil {
			continue
		}
		if _, ok := rueidis.IsRedisErr(err); !ok {
			return nil, &db.Error{Op: db.OpJSONSet, Err: err}
		}
		itemErrs[i] = &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("document %s: %w", docs[i].ID, err)}
	}
	return itemErrs, nil
}

// DeleteDocuments removes documents by id in a single DoMulti round-trip.
// Missing documents are not an error.
func (s *Store) DeleteDocuments(ctx context.Context, index string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = s.b().Del().Key(docKey(index, id)).Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpDel, Err: fmt.Errorf("document %s: %w", ids[i], err)}
		}
	}
	return nil
}
