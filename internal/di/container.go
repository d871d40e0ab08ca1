// Package di assembles the server from configuration. The provider graph is
// declared in wire.go and compiled into wire_gen.go.
package di

import (
	"net/http"

	"zeus-backend/internal/auth"
	"zeus-backend/internal/config"
	"zeus-backend/internal/infrastructure/observability"
	"zeus-backend/internal/service/categories"
	"zeus-backend/internal/service/posts"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Level   zap.AtomicLevel
	Metrics *observability.Collector
	Tracing Tracing
	Auth    *auth.Manager
	Posts   posts.Service
	Feed    *categories.Feed
	Watcher *config.ConfigWatcher
	Server  *http.Server
}

// Logging bundles the root logger with the level it was built at so the
// level can be changed at runtime.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// Tracing marks that the global tracer provider has been installed.
type Tracing struct {
	Enabled bool
}
