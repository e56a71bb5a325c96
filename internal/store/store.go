// Package store provides the append-only persistence sinks for crawl output:
// named datasets for normalized rows and a key/value blob store for raw audit
// artifacts (screenshots, OCR text, AI responses).
package store

import "context"

// Dataset is an append-only collection of JSON rows. Pushes are safe for
// concurrent use; rows are never updated after being pushed.
type Dataset interface {
	Name() string
	Push(ctx context.Context, item map[string]any) error
	Count(ctx context.Context) (int, error)
}

// KeyValueStore persists raw blobs per key for audit and debugging. Blobs are
// not consumed downstream.
type KeyValueStore interface {
	Set(ctx context.Context, key string, value []byte, contentType string) error
}
