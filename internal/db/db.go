package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	DocumentStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is one whole JSON document addressed by its id inside an index.
type Document struct {
	ID   string
	Body []byte
}

// DocumentStore writes and removes whole documents.
type DocumentStore interface {
	// PutDocuments upserts all documents in one round-trip. The returned slice
	// is aligned with docs and holds per-document rejections; the error is set
	// only when the batch itself could not be delivered.
	PutDocuments(ctx context.Context, index string, docs []Document) ([]error, error)
	DeleteDocuments(ctx context.Context, index string, ids []string) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs queries against an index.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	// SearchIDs returns the id of every document matching filter, fetched in
	// pages of batch.
	SearchIDs(ctx context.Context, index string, filter Expr, batch int) ([]string, error)
}
