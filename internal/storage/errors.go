package storage

import "errors"

var (
	// ErrIndexUnavailable means the vector index backend is unreachable.
	// Query-time callers must treat this as an infrastructure outage, never
	// as "no relevant documents".
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch means a vector's length does not match the
	// collection's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
