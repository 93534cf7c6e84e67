// Package storage provides object storage for serialized snapshots,
// with local filesystem and S3 backends.
package storage

import (
	"context"
)

// ObjectStorage abstracts the blob store snapshots are written to.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Put writes data at objectPath, overwriting any existing object.
	Put(ctx context.Context, objectPath string, data []byte) error

	// Get reads the object at objectPath.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Delete removes the object at objectPath.
	Delete(ctx context.Context, objectPath string) error

	// Exists reports whether an object is present at objectPath.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// List returns all object paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
