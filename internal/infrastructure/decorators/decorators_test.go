package decorators

import (
	"context"
	"errors"
	"testing"
	"time"

	"zeus-backend/internal/infrastructure/observability"
	"zeus-backend/internal/repository"
	"zeus-backend/internal/repository/mocks"
	"zeus-backend/internal/storage/memory"
	apperrors "zeus-backend/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Breaker.MinRequests = 2
	opts.Breaker.FailureThreshold = 0.5
	opts.Breaker.Timeout = time.Hour
	opts.Metrics = observability.NewCollector("test")
	return opts
}

func TestDocumentStorePassesThrough(t *testing.T) {
	inner := mocks.NewMockDocumentStore()
	opts := testOptions()
	store := NewDocumentStore(inner, zap.NewNop(), opts)
	ctx := context.Background()

	id, err := store.Insert(ctx, repository.CollectionCategories, repository.Document{"name": "공지"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	docs, err := store.SelectFiltered(ctx, repository.CollectionCategories, repository.Eq{Field: "id", Value: id})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.StoreOperations.WithLabelValues("document", "insert", "success")))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := mocks.NewMockDocumentStore()
	inner.SetError("SelectAll", errors.New("connection refused"))
	store := NewDocumentStore(inner, zap.NewNop(), testOptions())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.SelectAll(ctx, repository.CollectionPosts)
		require.Error(t, err)
		assert.False(t, apperrors.IsUnavailable(err))
	}

	_, err := store.SelectAll(ctx, repository.CollectionPosts)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	// the open breaker short-circuits before the inner store
	assert.Equal(t, 2, inner.Calls("SelectAll"))
}

func TestCancellationDoesNotTripBreaker(t *testing.T) {
	inner := mocks.NewMockDocumentStore()
	inner.SetError("Delete", context.Canceled)
	store := NewDocumentStore(inner, zap.NewNop(), testOptions())

	for i := 0; i < 5; i++ {
		err := store.Delete(context.Background(), repository.CollectionPosts, repository.Eq{Field: "id", Value: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 5, inner.Calls("Delete"))
}

func TestObjectStoreDecorator(t *testing.T) {
	inner := memory.NewStore()
	store := NewObjectStore(inner, zap.NewNop(), testOptions())
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "Zeus", "public/a.jpg", []byte{1}, "image/jpeg"))
	assert.True(t, inner.Has("Zeus", "public/a.jpg"))

	require.NoError(t, store.Remove(ctx, "Zeus", []string{"public/a.jpg"}))
	assert.False(t, inner.Has("Zeus", "public/a.jpg"))
}
