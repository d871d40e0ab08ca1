package categories

import (
	"context"
	"errors"
	"testing"
	"time"

	"zeus-backend/internal/repository"
	"zeus-backend/internal/repository/mocks"
	appErrors "zeus-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startFeed(t *testing.T, docs repository.DocumentStore) *Feed {
	t.Helper()
	f := NewFeed(docs, zap.NewNop(), nil)
	go f.Run()
	t.Cleanup(f.Stop)
	return f
}

func seed(docs *mocks.MockDocumentStore, names ...string) {
	for _, n := range names {
		docs.Seed(repository.CollectionCategories, repository.Document{"name": n})
	}
}

// next waits for a snapshot satisfying ok.
func next(t *testing.T, sub *Subscription, ok func([]string) bool) []string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case names, open := <-sub.C:
			require.True(t, open, "subscription closed")
			if ok(names) {
				return names
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
}

func anySnapshot([]string) bool { return true }

func TestFirstSubscriberTriggersRefresh(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	seed(docs, "자유", "공지", "Chemistry")
	f := startFeed(t, docs)

	sub, err := f.Subscribe(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	names := next(t, sub, anySnapshot)
	assert.Equal(t, []string{"Chemistry", "공지", "자유"}, names)
}

func TestLoadedSnapshotIsDeliveredOnSubscribe(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	seed(docs, "b", "a")
	f := startFeed(t, docs)
	ctx := context.Background()

	require.NoError(t, f.Refresh(ctx))

	sub, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, []string{"a", "b"}, next(t, sub, anySnapshot))
	assert.Equal(t, 1, docs.Calls("SelectAll"))
}

func TestAddAndDeletePublish(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	f := startFeed(t, docs)
	ctx := context.Background()

	sub, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, f.Add(ctx, "Chemistry"))
	next(t, sub, func(n []string) bool { return contains(n, "Chemistry") })

	names, loaded := f.Snapshot(ctx)
	assert.True(t, loaded)
	assert.Contains(t, names, "Chemistry")

	require.NoError(t, f.Delete(ctx, "Chemistry"))
	next(t, sub, func(n []string) bool { return !contains(n, "Chemistry") })

	names, _ = f.Snapshot(ctx)
	assert.NotContains(t, names, "Chemistry")
}

func TestDeleteRemovesAllDuplicates(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	seed(docs, "dup", "dup", "keep")
	f := startFeed(t, docs)
	ctx := context.Background()

	assert.Equal(t, []string{"dup", "keep"}, f.List(ctx))
	require.NoError(t, f.Delete(ctx, "dup"))
	assert.Equal(t, 1, docs.Count(repository.CollectionCategories))
	assert.Equal(t, []string{"keep"}, f.List(ctx))
}

func TestAddAndDeleteTrimNames(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	f := startFeed(t, docs)
	ctx := context.Background()

	require.NoError(t, f.Add(ctx, " Chem "))
	assert.Equal(t, []string{"Chem"}, f.List(ctx))

	require.NoError(t, f.Delete(ctx, " Chem "))
	assert.Equal(t, 0, docs.Count(repository.CollectionCategories))
	assert.Empty(t, f.List(ctx))
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	seed(docs, "a")
	f := startFeed(t, docs)
	ctx := context.Background()

	require.NoError(t, f.Refresh(ctx))

	docs.SetError("SelectAll", errors.New("network"))
	err := f.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, appErrors.IsRead(err))

	names, loaded := f.Snapshot(ctx)
	assert.True(t, loaded)
	assert.Equal(t, []string{"a"}, names)
}

func TestListFailsOpen(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	docs.SetError("SelectAll", errors.New("network"))
	f := startFeed(t, docs)

	names := f.List(context.Background())
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestAddValidationAndWriteFailure(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	f := startFeed(t, docs)
	ctx := context.Background()

	assert.True(t, appErrors.IsValidation(f.Add(ctx, "  ")))
	assert.True(t, appErrors.IsValidation(f.Delete(ctx, "")))

	docs.SetError("Insert", errors.New("rejected"))
	assert.True(t, appErrors.IsWrite(f.Add(ctx, "x")))

	docs.SetError("Delete", errors.New("rejected"))
	assert.True(t, appErrors.IsWrite(f.Delete(ctx, "x")))
}

func TestAddSucceedsWhenRefreshFails(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	f := startFeed(t, docs)
	docs.SetError("SelectAll", errors.New("network"))

	assert.NoError(t, f.Add(context.Background(), "x"))
	assert.Equal(t, 1, docs.Count(repository.CollectionCategories))
}

func TestStaleRefreshIsDropped(t *testing.T) {
	f := startFeed(t, mocks.NewMockDocumentStore())
	ctx := context.Background()

	older := f.tickets.Add(1)
	newer := f.tickets.Add(1)

	f.publish <- publication{ticket: newer, names: []string{"new"}}
	f.publish <- publication{ticket: older, names: []string{"old"}}

	names, _ := f.Snapshot(ctx)
	assert.Equal(t, []string{"new"}, names)
}

func TestSlowSubscriberGetsLatestOnly(t *testing.T) {
	f := startFeed(t, mocks.NewMockDocumentStore())
	ctx := context.Background()

	sub, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	for i, n := range []string{"one", "two", "three"} {
		f.publish <- publication{ticket: uint64(100 + i), names: []string{n}}
	}
	// the auto refresh started by Subscribe carries a lower ticket and is dropped
	_, _ = f.Snapshot(ctx)

	assert.Equal(t, []string{"three"}, next(t, sub, anySnapshot))
}

func TestSnapshotsSequence(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	seed(docs, "a")
	f := startFeed(t, docs)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for round := 0; round < 2; round++ {
		var got []string
		for names := range f.Snapshots(ctx) {
			got = names
			break
		}
		assert.Equal(t, []string{"a"}, got, "round %d", round)
	}
}

func TestStopClosesSubscriptions(t *testing.T) {
	f := NewFeed(mocks.NewMockDocumentStore(), zap.NewNop(), nil)
	go f.Run()

	sub, err := f.Subscribe(context.Background())
	require.NoError(t, err)

	f.Stop()
	for range sub.C {
	}
	sub.Close()

	_, err = f.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrFeedClosed)
}

func TestReconcile(t *testing.T) {
	snapshot := []string{"공지", "자유"}

	assert.Equal(t, "공지", Reconcile("", snapshot))
	assert.Equal(t, "자유", Reconcile("자유", snapshot))
	assert.Equal(t, "공지", Reconcile("deleted", snapshot))
	assert.Equal(t, "", Reconcile("x", nil))
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
