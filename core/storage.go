package core

import (
	"context"
	"io"
)

// FileStorage is any service that can persist uploaded files (course resources)
// in an object store. Keys are opaque and scoped by the caller.
type FileStorage interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
