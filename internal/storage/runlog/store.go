// internal/storage/runlog/store.go
package runlog

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("runlog: not found")

// Store persists run documents (one JSON document per recorded call) under
// slash-separated keys such as "runs/<run-id>/<call>.json".
type Store interface {
	// Put stores data under key, replacing any previous document
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the document under key
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys with the prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks whether a document is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}
