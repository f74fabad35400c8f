package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage saves uploaded images and returns the public URL to serve them
// from. key is a slash-separated path unique within the store.
type Storage interface {
	Save(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Driver    string
	UploadDir string
	URLPrefix string
	S3        S3Config
}

// New picks the backend named by cfg.Driver.
func New(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir, cfg.URLPrefix), nil
	case "s3":
		return NewS3Storage(cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
