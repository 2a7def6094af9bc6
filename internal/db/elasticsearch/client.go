package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Operation names used in db.Error.
const (
	opPing          = "ping"
	opCreateIndex   = "indices.create"
	opDeleteIndex   = "indices.delete"
	opIndexExists   = "indices.exists"
	opBulk          = "bulk"
	opDeleteByQuery = "delete_by_query"
	opSearch        = "search"
	opScroll        = "scroll"
)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addrs    []string
	Username string
	Password string
}

// Store implements db.Store over Elasticsearch. Documents are stored as-is
// under their id; fields are addressed by their index alias.
type Store struct {
	client *elasticsearch.Client
}

// Option customizes a Store.
type Option func(*Store)

// WithClient injects a preconfigured client.
func WithClient(cli *elasticsearch.Client) Option {
	return func(s *Store) {
		s.client = cli
	}
}

// NewStore creates an Elasticsearch store.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.client = client
	return s, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: opPing, Err: err}
	}
	defer drainBody(res)
	if res.IsError() {
		return &db.Error{Op: opPing, Err: fmt.Errorf("status %s", res.Status())}
	}
	return nil
}

// Close is a no-op: the HTTP transport has no session to release.
func (s *Store) Close() {}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// errorResponse is the error envelope of the REST API.
type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// responseError extracts type and reason from a failed response.
// Falls back to the raw body when it is not an error envelope.
func responseError(res *esapi.Response) (string, error) {
	var (
		response errorResponse
		raw      bytes.Buffer
	)
	reader := io.TeeReader(res.Body, &raw)
	if err := json.NewDecoder(reader).Decode(&response); err != nil || response.Error.Type == "" {
		return "", fmt.Errorf("status %d: %s", res.StatusCode, raw.String())
	}
	return response.Error.Type, fmt.Errorf("%s: %s", response.Error.Type, response.Error.Reason)
}

func isIndexNotFound(res *esapi.Response, errType string) bool {
	return res.StatusCode == http.StatusNotFound && errType == "index_not_found_exception"
}

func drainBody(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

func encodeJSON(v any) (io.Reader, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf, nil
}
