package storage

import (
	"context"
	"io"
)

type StorageService interface {
	// Upload stores size bytes read from src under key.
	Upload(ctx context.Context, key string, src io.Reader, size int64, contentType string) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}
