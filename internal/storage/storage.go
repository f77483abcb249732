package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/basit/forumfiles-backend/internal/config"
)

// Storage is the physical-object port. Objects are written once and never
// mutated in place; the file index owns visibility, the backend only holds
// bytes.
type Storage interface {
	// Save writes the object under key and returns when it is durable.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open returns a reader over the object bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// New chooses a backend from config.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Type {
	case "local", "":
		return NewLocal(cfg.Storage.BasePath)
	case "s3":
		return NewS3(context.Background(), cfg.Storage.Bucket, cfg.Storage.Region)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// NewKey builds a date-partitioned object key: 2026/08/31/<short-uuid>.
func NewKey(now time.Time) string {
	return fmt.Sprintf("%04d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), shortuuid.New())
}
