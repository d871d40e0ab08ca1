package di

import (
	"context"
	"testing"
	"time"

	"zeus-backend/internal/config"
	"zeus-backend/internal/repository"
	"zeus-backend/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.Production,
		Supabase:    config.Supabase{URL: "https://proj.supabase.co", AnonKey: "anon"},
		Storage:     config.Storage{Driver: config.StorageMemory, Bucket: "Zeus"},
		Database:    config.Database{Driver: config.DatabasePostgrest},
		Posts: config.Posts{
			FallbackCategory:  "기타",
			MaxImages:         3,
			MaxImageBytes:     1024,
			UploadConcurrency: 2,
		},
		Resilience: config.Resilience{
			CallTimeout:      2 * time.Second,
			FailureThreshold: 0.5,
			MinRequests:      3,
			HalfOpenRequests: 1,
			OpenDuration:     10 * time.Second,
		},
		Logging: config.Logging{Level: "info", Format: "json"},
		Metrics: config.Metrics{Enabled: true, Namespace: "zeus_di"},
	}
}

func TestProvideMetrics(t *testing.T) {
	cfg := testConfig()
	assert.NotNil(t, ProvideMetrics(cfg))

	cfg.Metrics.Enabled = false
	assert.Nil(t, ProvideMetrics(cfg))
}

func TestProvideDecoratorOptions(t *testing.T) {
	cfg := testConfig()
	metrics := ProvideMetrics(cfg)

	opts := ProvideDecoratorOptions(cfg, metrics)
	assert.Equal(t, 2*time.Second, opts.CallTimeout)
	assert.Equal(t, 0.5, opts.Breaker.FailureThreshold)
	assert.Equal(t, uint32(3), opts.Breaker.MinRequests)
	assert.Equal(t, uint32(1), opts.Breaker.MaxRequests)
	assert.Equal(t, 10*time.Second, opts.Breaker.Timeout)
	assert.Equal(t, 30*time.Second, opts.Breaker.Interval)
	assert.Same(t, metrics, opts.Metrics)
}

func TestProvidePostConfig(t *testing.T) {
	pc := ProvidePostConfig(testConfig())
	assert.Equal(t, "Zeus", pc.Bucket)
	assert.Equal(t, "https://proj.supabase.co/storage/v1", pc.PublicBaseURL)
	assert.Equal(t, "기타", pc.FallbackCategory)
	assert.Equal(t, 3, pc.MaxImages)
	assert.Equal(t, 2, pc.UploadConcurrency)
}

func TestProvideObjectStoreMemory(t *testing.T) {
	cfg := testConfig()
	store, err := ProvideObjectStore(context.Background(), cfg, nil, zap.NewNop(), ProvideDecoratorOptions(cfg, nil))
	require.NoError(t, err)

	require.NoError(t, store.Upload(context.Background(), "Zeus", "public/post_1.jpg", []byte("x"), "image/jpeg"))
	require.NoError(t, store.Remove(context.Background(), "Zeus", []string{"public/post_1.jpg"}))
}

func TestProvideStoresRejectUnknownDrivers(t *testing.T) {
	cfg := testConfig()
	opts := ProvideDecoratorOptions(cfg, nil)

	cfg.Storage.Driver = "ftp"
	_, err := ProvideObjectStore(context.Background(), cfg, nil, zap.NewNop(), opts)
	assert.ErrorContains(t, err, "ftp")

	cfg.Database.Driver = "sqlite"
	_, _, err = ProvideDocumentStore(context.Background(), cfg, nil, zap.NewNop(), opts)
	assert.ErrorContains(t, err, "sqlite")
}

func TestProvideCategoryFeedStops(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	docs.Seed(repository.CollectionCategories, repository.Document{"name": "공지"})

	feed, cleanup := ProvideCategoryFeed(docs, zap.NewNop(), nil)
	require.NotNil(t, feed)

	assert.Eventually(t, func() bool {
		_, ok := feed.Snapshot(context.Background())
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	cleanup()
}

func TestProvideLoggingAndWatcher(t *testing.T) {
	cfg := testConfig()
	t.Setenv("ZEUS_CONFIG_DIR", t.TempDir())

	l, cleanup, err := ProvideLogging(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Same(t, l.Logger, ProvideLogger(l))

	watcher, stop, err := ProvideConfigWatcher(cfg, l)
	require.NoError(t, err)
	assert.Same(t, cfg, watcher.GetConfig())
	stop()
}
