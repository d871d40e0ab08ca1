package decorators

import (
	"context"

	"zeus-backend/internal/storage"

	"go.uber.org/zap"
)

type objectStore struct {
	inner storage.ObjectStore
	guard *guard
}

// NewObjectStore decorates inner with timeouts, a circuit breaker, logging and metrics.
func NewObjectStore(inner storage.ObjectStore, logger *zap.Logger, opts Options) storage.ObjectStore {
	return &objectStore{inner: inner, guard: newGuard("object", logger, opts)}
}

func (o *objectStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	return runErr(ctx, o.guard, "upload", bucket+"/"+path, func(ctx context.Context) error {
		return o.inner.Upload(ctx, bucket, path, data, contentType)
	})
}

func (o *objectStore) Remove(ctx context.Context, bucket string, paths []string) error {
	return runErr(ctx, o.guard, "remove", bucket, func(ctx context.Context) error {
		return o.inner.Remove(ctx, bucket, paths)
	})
}
