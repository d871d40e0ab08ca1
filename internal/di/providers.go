package di

import (
	"context"
	"fmt"
	"net/http"

	"zeus-backend/internal/auth"
	"zeus-backend/internal/config"
	"zeus-backend/internal/handlers"
	"zeus-backend/internal/infrastructure/decorators"
	"zeus-backend/internal/infrastructure/logging"
	"zeus-backend/internal/infrastructure/observability"
	"zeus-backend/internal/repository"
	"zeus-backend/internal/repository/postgres"
	"zeus-backend/internal/repository/postgrest"
	"zeus-backend/internal/service/categories"
	"zeus-backend/internal/service/posts"
	"zeus-backend/internal/storage"
	"zeus-backend/internal/storage/memory"
	"zeus-backend/internal/storage/s3"
	supabasestorage "zeus-backend/internal/storage/supabase"

	"github.com/google/wire"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// InfrastructureSet provides logging, metrics, tracing and the Supabase client.
var InfrastructureSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideLevel,
	ProvideMetrics,
	ProvideTracing,
	ProvideSupabaseClient,
	ProvideDecoratorOptions,
	ProvideConfigWatcher,
)

// StorageSet provides the document and object stores.
var StorageSet = wire.NewSet(
	ProvideDocumentStore,
	ProvideObjectStore,
)

// ServiceSet provides the auth manager, the post service and the category feed.
var ServiceSet = wire.NewSet(
	ProvideIdentityProvider,
	auth.NewManager,
	ProvidePostConfig,
	posts.NewService,
	ProvideCategoryFeed,
)

// HTTPSet provides the router and server.
var HTTPSet = wire.NewSet(
	wire.Bind(new(handlers.CategoryFeed), new(*categories.Feed)),
	handlers.NewRouter,
	ProvideHandler,
	handlers.NewServer,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	StorageSet,
	ServiceSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// ProvideLogging builds the root logger from the logging section.
func ProvideLogging(cfg *config.Config) (Logging, func(), error) {
	logger, level, err := logging.NewLogger(cfg)
	if err != nil {
		return Logging{}, nil, err
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return Logging{Logger: logger, Level: level}, cleanup, nil
}

func ProvideLogger(l Logging) *zap.Logger {
	return l.Logger
}

func ProvideLevel(l Logging) zap.AtomicLevel {
	return l.Level
}

// ProvideMetrics returns nil when metrics are disabled; every consumer
// treats a nil collector as a no-op.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracing installs the global tracer provider. The cleanup flushes
// pending spans.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Tracing, func(), error) {
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return Tracing{}, nil, fmt.Errorf("init tracing: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	if cfg.Tracing.Enabled {
		logger.Info("tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	}
	return Tracing{Enabled: cfg.Tracing.Enabled}, cleanup, nil
}

func ProvideSupabaseClient(cfg *config.Config) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}

// ProvideDecoratorOptions maps the resilience section onto the store decorators.
func ProvideDecoratorOptions(cfg *config.Config, metrics *observability.Collector) decorators.Options {
	opts := decorators.DefaultOptions()
	r := cfg.Resilience
	if r.HalfOpenRequests > 0 {
		opts.Breaker.MaxRequests = r.HalfOpenRequests
	}
	if r.MinRequests > 0 {
		opts.Breaker.MinRequests = r.MinRequests
	}
	if r.Interval > 0 {
		opts.Breaker.Interval = r.Interval
	}
	if r.OpenDuration > 0 {
		opts.Breaker.Timeout = r.OpenDuration
	}
	if r.FailureThreshold > 0 {
		opts.Breaker.FailureThreshold = r.FailureThreshold
	}
	if r.CallTimeout > 0 {
		opts.CallTimeout = r.CallTimeout
	}
	if r.SlowThreshold > 0 {
		opts.Logging.SlowThreshold = r.SlowThreshold
	}
	opts.Metrics = metrics
	return opts
}

// ProvideDocumentStore selects the document backend. The postgres backend owns
// a connection pool that the cleanup closes.
func ProvideDocumentStore(
	ctx context.Context,
	cfg *config.Config,
	client *supabase.Client,
	logger *zap.Logger,
	opts decorators.Options,
) (repository.DocumentStore, func(), error) {
	cleanup := func() {}

	var inner repository.DocumentStore
	switch cfg.Database.Driver {
	case config.DatabasePostgres:
		db, err := postgres.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.RunMigrations {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
			logger.Info("database migrations applied")
		}
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing database failed", zap.Error(err))
			}
		}
		inner = postgres.NewStore(db, repository.CollectionPosts, repository.CollectionCategories)
	case config.DatabasePostgrest:
		inner = postgrest.NewStore(client)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	logger.Info("document store ready", zap.String("driver", cfg.Database.Driver))
	return decorators.NewDocumentStore(inner, logger, opts), cleanup, nil
}

// ProvideObjectStore selects the image backend.
func ProvideObjectStore(
	ctx context.Context,
	cfg *config.Config,
	client *supabase.Client,
	logger *zap.Logger,
	opts decorators.Options,
) (storage.ObjectStore, error) {
	var inner storage.ObjectStore
	switch cfg.Storage.Driver {
	case config.StorageSupabase:
		inner = supabasestorage.NewStore(client.Storage)
	case config.StorageS3:
		s := cfg.Storage.S3
		store, err := s3.New(s3.Config{
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			UseSSL:    s.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if s.EnsureBucket {
			if err := store.EnsureBucket(ctx, cfg.Storage.Bucket); err != nil {
				return nil, err
			}
		}
		inner = store
	case config.StorageMemory:
		logger.Warn("images are kept in memory and lost on restart")
		inner = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	logger.Info("object store ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("bucket", cfg.Storage.Bucket))
	return decorators.NewObjectStore(inner, logger, opts), nil
}

// ProvideIdentityProvider uses Supabase Auth. Sign-in does not touch the
// client the stores share, so both stores always run with the anon key.
func ProvideIdentityProvider(client *supabase.Client) auth.IdentityProvider {
	return auth.NewGoTrueProvider(client.Auth)
}

func ProvidePostConfig(cfg *config.Config) posts.Config {
	return posts.Config{
		Bucket:            cfg.Storage.Bucket,
		PublicBaseURL:     cfg.StorageBaseURL(),
		FallbackCategory:  cfg.Posts.FallbackCategory,
		MaxImages:         cfg.Posts.MaxImages,
		MaxImageBytes:     cfg.Posts.MaxImageBytes,
		UploadConcurrency: cfg.Posts.UploadConcurrency,
	}
}

// ProvideCategoryFeed starts the category feed. The cleanup stops it and
// closes every open subscription.
func ProvideCategoryFeed(
	docs repository.DocumentStore,
	logger *zap.Logger,
	metrics *observability.Collector,
) (*categories.Feed, func()) {
	feed := categories.NewFeed(docs, logger, metrics)
	go feed.Run()
	return feed, feed.Stop
}

// ProvideConfigWatcher reloads configuration files in development and keeps
// the log level in step with them.
func ProvideConfigWatcher(cfg *config.Config, l Logging) (*config.ConfigWatcher, func(), error) {
	loader := config.NewLoader(config.ConfigDir(), cfg.Environment)
	watcher, err := config.NewConfigWatcher(cfg, loader, l.Logger)
	if err != nil {
		return nil, nil, err
	}
	logging.WatchLevel(watcher, l.Level, l.Logger)
	return watcher, watcher.Stop, nil
}

func ProvideHandler(router *handlers.Router) http.Handler {
	return router.Setup()
}
