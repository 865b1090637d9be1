// Package storage provides the photo object store backends.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/config"
)

// Backend stores photo objects and resolves their public URLs.
type Backend interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	Health(ctx context.Context) error
}

// New selects the configured backend.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Backend, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Storage(ctx, cfg, log)
	case "local":
		return NewLocalStorage(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
