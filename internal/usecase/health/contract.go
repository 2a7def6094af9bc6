package health

import "context"

// DBPinger checks backend availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether a physical index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}
