package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/olivere/elastic/v7"

	"github.com/kailas-cloud/facetdex/internal/db"
)

type bulkResponse struct {
	Errors bool                                `json:"errors"`
	Items  []map[string]bulkResponseItemResult `json:"items"`
}

type bulkResponseItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// PutDocuments indexes whole documents with one bulk request.
// Item rejections are reported per document; anything else fails the batch.
func (s *Store) PutDocuments(ctx context.Context, index string, docs []db.Document) ([]error, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	payload := new(bytes.Buffer)
	enc := json.NewEncoder(payload)
	for _, doc := range docs {
		if err := enc.Encode(obj{"index": obj{"_index": index, "_id": doc.ID}}); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		payload.Write(bytes.TrimSpace(doc.Body))
		payload.WriteByte('\n')
	}

	res, err := s.client.Bulk(
		payload,
		s.client.Bulk.WithRefresh("true"),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, &db.Error{Op: opBulk, Err: err}
	}
	defer drainBody(res)
	if res.IsError() {
		_, err := responseError(res)
		return nil, &db.Error{Op: opBulk, Err: err}
	}

	var response bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &db.Error{Op: opBulk, Err: fmt.Errorf("decode bulk response: %w", err)}
	}

	itemErrs := make([]error, len(docs))
	if !response.Errors {
		return itemErrs, nil
	}
	for i, item := range response.Items {
		if i >= len(docs) {
			break
		}
		for _, result := range item {
			if result.Status < http.StatusMultipleChoices {
				continue
			}
			reason := http.StatusText(result.Status)
			if result.Error != nil {
				reason = result.Error.Type + ": " + result.Error.Reason
			}
			itemErrs[i] = &db.Error{Op: opBulk, Err: fmt.Errorf("document %s: %s", docs[i].ID, reason)}
		}
	}
	return itemErrs, nil
}

// DeleteDocuments removes documents by id. Missing documents are not an error.
func (s *Store) DeleteDocuments(ctx context.Context, index string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	src, err := elastic.NewSearchSource().Query(elastic.NewIdsQuery().Ids(ids...)).Source()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	body, err := encodeJSON(src)
	if err != nil {
		return fmt.Errorf("encode delete query: %w", err)
	}

	res, err := s.client.DeleteByQuery(
		[]string{index},
		body,
		s.client.DeleteByQuery.WithRefresh(true),
		s.client.DeleteByQuery.WithConflicts("proceed"),
		s.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: opDeleteByQuery, Err: err}
	}
	defer drainBody(res)
	if res.IsError() {
		errType, err := responseError(res)
		if isIndexNotFound(res, errType) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: opDeleteByQuery, Err: err}
	}
	return nil
}
