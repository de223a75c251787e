package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// BlobStore keeps tool images. References are opaque to callers.
type BlobStore interface {
	// Store saves data under a new reference derived from name.
	Store(ctx context.Context, data io.Reader, name string) (string, error)

	// Delete removes ref; deleting a missing reference is not an error.
	Delete(ctx context.Context, ref string) error

	// Open streams the blob for ref.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
