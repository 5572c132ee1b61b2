package ports

import (
	"context"
	"io"
)

// BlobStore is content-addressed binary storage. Keys are opaque slash-separated
// paths built by the registry; implementations must treat a Put of an existing
// key as a no-op (content addressing makes overwrites byte-identical) and must
// publish atomically: a key is either fully readable or absent, never partial.
type BlobStore interface {
	// Put streams r into the store under key and returns the byte count written.
	// Putting an already-present key succeeds without rewriting.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns the content for streaming. domain.ErrBlobNotFound when absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Has reports existence without reading content.
	Has(ctx context.Context, key string) (bool, error)

	// Delete removes the content. domain.ErrBlobNotFound when absent.
	Delete(ctx context.Context, key string) error
}
