// Package storage keeps rendered QR artifacts. Every object here is a cache
// of a reproducible render; losing one is recoverable.
package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns ErrObjectNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error
}
