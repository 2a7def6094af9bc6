package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed search or indexing request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownIndex signals an index alias that is not configured.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrIndexUnavailable signals that the backing search index cannot be reached.
	ErrIndexUnavailable = errors.New("index unavailable")
)
