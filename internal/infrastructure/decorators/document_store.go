package decorators

import (
	"context"

	"zeus-backend/internal/repository"

	"go.uber.org/zap"
)

type documentStore struct {
	inner repository.DocumentStore
	guard *guard
}

// NewDocumentStore decorates inner with timeouts, a circuit breaker, logging and metrics.
func NewDocumentStore(inner repository.DocumentStore, logger *zap.Logger, opts Options) repository.DocumentStore {
	return &documentStore{inner: inner, guard: newGuard("document", logger, opts)}
}

func (d *documentStore) Insert(ctx context.Context, collection string, doc repository.Document) (string, error) {
	return run(ctx, d.guard, "insert", collection, func(ctx context.Context) (string, error) {
		return d.inner.Insert(ctx, collection, doc)
	})
}

func (d *documentStore) Update(ctx context.Context, collection string, filter repository.Predicate, doc repository.Document) error {
	return runErr(ctx, d.guard, "update", collection, func(ctx context.Context) error {
		return d.inner.Update(ctx, collection, filter, doc)
	})
}

func (d *documentStore) Delete(ctx context.Context, collection string, filter repository.Predicate) error {
	return runErr(ctx, d.guard, "delete", collection, func(ctx context.Context) error {
		return d.inner.Delete(ctx, collection, filter)
	})
}

func (d *documentStore) SelectAll(ctx context.Context, collection string) ([]repository.Document, error) {
	return run(ctx, d.guard, "select_all", collection, func(ctx context.Context) ([]repository.Document, error) {
		return d.inner.SelectAll(ctx, collection)
	})
}

func (d *documentStore) SelectFiltered(ctx context.Context, collection string, filter repository.Predicate) ([]repository.Document, error) {
	return run(ctx, d.guard, "select_filtered", collection, func(ctx context.Context) ([]repository.Document, error) {
		return d.inner.SelectFiltered(ctx, collection, filter)
	})
}
