package storage

import (
	"context"
)

// Provider is an object store the telemetry archive is written to.
type Provider interface {
	// CheckBucket ensures the bucket exists.
	CheckBucket(ctx context.Context) error

	// Put stores data under key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
