package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources.
type Loader struct {
	// basePath is the root directory for configuration files
	basePath string

	environment Environment

	// sources tracks where configuration was loaded from
	sources []string

	// fileLoaders in lookup order
	fileLoaders []FileLoader
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target any) error
	Extension() string
}

// NewLoader creates a new configuration loader.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	return &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: []FileLoader{&YAMLLoader{}, &JSONLoader{}},
	}
}

// Load loads configuration using a hierarchy of sources.
// The loading order (from lowest to highest priority):
//  1. Default values (in code)
//  2. Base configuration file (base.yaml or base.json)
//  3. Environment-specific file (e.g. production.yaml)
//  4. Environment variables
func (l *Loader) Load() (*Config, error) {
	l.sources = l.sources[:0]

	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")

	cfg.Environment = l.environment
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads name.<ext> with the first extension that exists.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	env := os.Getenv

	setString := func(target *string, keys ...string) {
		for _, k := range keys {
			if v := env(k); v != "" {
				*target = v
				return
			}
		}
	}

	setString(&cfg.Server.Host, "ZEUS_SERVER_HOST")
	setString(&cfg.Supabase.URL, "ZEUS_SUPABASE_URL", "SUPABASE_URL")
	setString(&cfg.Supabase.AnonKey, "ZEUS_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY")
	setString(&cfg.Storage.Driver, "ZEUS_STORAGE_DRIVER")
	setString(&cfg.Storage.Bucket, "ZEUS_STORAGE_BUCKET")
	setString(&cfg.Storage.PublicBaseURL, "ZEUS_STORAGE_PUBLIC_BASE_URL")
	setString(&cfg.Storage.S3.Endpoint, "ZEUS_S3_ENDPOINT")
	setString(&cfg.Storage.S3.AccessKey, "ZEUS_S3_ACCESS_KEY")
	setString(&cfg.Storage.S3.SecretKey, "ZEUS_S3_SECRET_KEY")
	setString(&cfg.Storage.S3.Region, "ZEUS_S3_REGION")
	setString(&cfg.Database.Driver, "ZEUS_DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "ZEUS_DATABASE_DSN", "DATABASE_URL")
	setString(&cfg.Posts.FallbackCategory, "ZEUS_FALLBACK_CATEGORY")
	setString(&cfg.Logging.Level, "ZEUS_LOG_LEVEL")
	setString(&cfg.Logging.Format, "ZEUS_LOG_FORMAT")
	setString(&cfg.Tracing.Endpoint, "ZEUS_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v := env("ZEUS_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ZEUS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := env("ZEUS_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ZEUS_REQUEST_TIMEOUT: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}

	bools := map[string]*bool{
		"ZEUS_S3_USE_SSL":           &cfg.Storage.S3.UseSSL,
		"ZEUS_RUN_MIGRATIONS":       &cfg.Database.RunMigrations,
		"ZEUS_AUTH_REQUIRE_SESSION": &cfg.Auth.RequireSession,
		"ZEUS_METRICS_ENABLED":      &cfg.Metrics.Enabled,
		"ZEUS_TRACING_ENABLED":      &cfg.Tracing.Enabled,
	}
	for key, target := range bools {
		if v := env(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*target = b
		}
	}
	return nil
}

// defaultConfig returns a configuration that runs against Supabase once the
// project URL and anon key are provided.
func (l *Loader) defaultConfig() *Config {
	logFormat := "json"
	if l.environment == Development {
		logFormat = "console"
	}

	return &Config{
		Environment: l.environment,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxUploadSize:   50 << 20,
		},
		Storage: Storage{
			Driver: StorageSupabase,
			Bucket: "Zeus",
		},
		Database: Database{
			Driver:       DatabasePostgrest,
			MaxOpenConns: 10,
		},
		Auth: Auth{
			RequireSession: true,
		},
		Posts: Posts{
			FallbackCategory:  "기타",
			MaxImages:         10,
			MaxImageBytes:     10 << 20,
			UploadConcurrency: 4,
		},
		Resilience: Resilience{
			CallTimeout:      15 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
			HalfOpenRequests: 5,
			Interval:         30 * time.Second,
			OpenDuration:     60 * time.Second,
			SlowThreshold:    time.Second,
		},
		Logging: Logging{
			Level:  "info",
			Format: logFormat,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "zeus",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			ServiceName: "zeus-backend",
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRate:  1.0,
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			MaxAge:         300,
		},
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target any) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target any) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

// ConfigDir returns the configuration directory (ZEUS_CONFIG_DIR, default "config").
func ConfigDir() string {
	if dir := os.Getenv("ZEUS_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

// Load loads configuration for the environment named by ZEUS_ENV.
func Load() (*Config, error) {
	return NewLoader(ConfigDir(), getEnvironment()).Load()
}

// MustLoad loads configuration and panics on error.
// Use this only in main() or init() functions.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
