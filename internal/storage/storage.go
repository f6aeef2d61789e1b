package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/oggyb/campus-connect/internal/config"
)

// ObjectStorage stores profile images and hands out their public URIs.
type ObjectStorage interface {
	// Upload stores r under key and returns the public URI of the object.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// PublicURL returns the URI an object is reachable at.
	PublicURL(key string) string
	// Delete removes an object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the storage backend selected by storage.driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath, cfg.PublicBaseURL)
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// CleanKey normalises an object key and rejects keys escaping the root.
func CleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return k, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
