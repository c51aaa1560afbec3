package storage

import (
	"context"
	"io"
)

// BlobStore holds uploaded study documents.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
