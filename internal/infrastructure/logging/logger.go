// Package logging builds the process-wide zap logger.
package logging

import (
	"context"
	"fmt"
	"strings"

	"zeus-backend/internal/config"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a logger for cfg. The returned level can be changed at
// runtime and affects every logger derived from the result.
func NewLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	var zapConfig zap.Config
	if cfg.Environment == config.Production {
		zapConfig = zap.NewProductionConfig()
		// Add sampling to prevent log flooding in production
		zapConfig.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Format {
	case "json":
		zapConfig.Encoding = "json"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console", "":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	atomic := zap.NewAtomicLevelAt(level)
	zapConfig.Level = atomic
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	return logger.With(zap.String("service", cfg.Tracing.ServiceName)), atomic, nil
}

// ParseLevel maps a configured level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zap.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zap.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// WatchLevel keeps level in step with reloaded configuration.
func WatchLevel(w *config.ConfigWatcher, level zap.AtomicLevel, logger *zap.Logger) {
	w.OnChange(func(c *config.Config) {
		next, err := ParseLevel(c.Logging.Level)
		if err != nil {
			logger.Warn("ignoring reloaded log level", zap.Error(err))
			return
		}
		if next != level.Level() {
			level.SetLevel(next)
			logger.Info("log level changed", zap.Stringer("level", next))
		}
	})
}

// WithContext returns logger annotated with the request id carried by ctx.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
