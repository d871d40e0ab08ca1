package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Storage and database drivers.
const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
	StorageMemory   = "memory"

	DatabasePostgrest = "postgrest"
	DatabasePostgres  = "postgres"
)

type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`
	Server      Server      `yaml:"server" json:"server"`
	Supabase    Supabase    `yaml:"supabase" json:"supabase"`
	Storage     Storage     `yaml:"storage" json:"storage"`
	Database    Database    `yaml:"database" json:"database"`
	Auth        Auth        `yaml:"auth" json:"auth"`
	Posts       Posts       `yaml:"posts" json:"posts"`
	Resilience  Resilience  `yaml:"resilience" json:"resilience"`
	Logging     Logging     `yaml:"logging" json:"logging"`
	Metrics     Metrics     `yaml:"metrics" json:"metrics"`
	Tracing     Tracing     `yaml:"tracing" json:"tracing"`
	CORS        CORS        `yaml:"cors" json:"cors"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

type Server struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxUploadSize   int64         `yaml:"max_upload_size" json:"max_upload_size"`
}

// Address returns host:port.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Supabase struct {
	URL     string `yaml:"url" json:"url"`
	AnonKey string `yaml:"anon_key" json:"anon_key"`
}

type Storage struct {
	Driver string `yaml:"driver" json:"driver"`
	Bucket string `yaml:"bucket" json:"bucket"`
	// PublicBaseURL defaults to {supabase.url}/storage/v1.
	PublicBaseURL string   `yaml:"public_base_url" json:"public_base_url"`
	S3            S3Config `yaml:"s3" json:"s3"`
}

type S3Config struct {
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	AccessKey    string `yaml:"access_key" json:"access_key"`
	SecretKey    string `yaml:"secret_key" json:"secret_key"`
	Region       string `yaml:"region" json:"region"`
	UseSSL       bool   `yaml:"use_ssl" json:"use_ssl"`
	EnsureBucket bool   `yaml:"ensure_bucket" json:"ensure_bucket"`
}

type Database struct {
	Driver        string `yaml:"driver" json:"driver"`
	DSN           string `yaml:"dsn" json:"dsn"`
	RunMigrations bool   `yaml:"run_migrations" json:"run_migrations"`
	MaxOpenConns  int    `yaml:"max_open_conns" json:"max_open_conns"`
}

type Auth struct {
	// RequireSession rejects mutations while signed out.
	RequireSession bool `yaml:"require_session" json:"require_session"`
}

type Posts struct {
	FallbackCategory  string `yaml:"fallback_category" json:"fallback_category"`
	MaxImages         int    `yaml:"max_images" json:"max_images"`
	MaxImageBytes     int64  `yaml:"max_image_bytes" json:"max_image_bytes"`
	UploadConcurrency int    `yaml:"upload_concurrency" json:"upload_concurrency"`
}

type Resilience struct {
	CallTimeout      time.Duration `yaml:"call_timeout" json:"call_timeout"`
	FailureThreshold float64       `yaml:"failure_threshold" json:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests" json:"min_requests"`
	HalfOpenRequests uint32        `yaml:"half_open_requests" json:"half_open_requests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	OpenDuration     time.Duration `yaml:"open_duration" json:"open_duration"`
	SlowThreshold    time.Duration `yaml:"slow_threshold" json:"slow_threshold"`
}

type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Path      string `yaml:"path" json:"path"`
}

type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// StorageBaseURL returns the base public object URLs are built on.
func (c *Config) StorageBaseURL() string {
	if c.Storage.PublicBaseURL != "" {
		return strings.TrimRight(c.Storage.PublicBaseURL, "/")
	}
	return strings.TrimRight(c.Supabase.URL, "/") + "/storage/v1"
}

// Validate rejects incomplete driver configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	// Supabase Auth is always the identity provider.
	if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
		errs = append(errs, errors.New("supabase.url and supabase.anon_key are required"))
	}

	switch c.Storage.Driver {
	case StorageSupabase, StorageMemory:
	case StorageS3:
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			errs = append(errs, errors.New("storage.s3 endpoint, access_key and secret_key are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required"))
	}
	if c.Storage.Driver != StorageMemory && c.StorageBaseURL() == "/storage/v1" {
		errs = append(errs, errors.New("storage.public_base_url or supabase.url is required"))
	}

	switch c.Database.Driver {
	case DatabasePostgrest:
	case DatabasePostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	if c.Posts.MaxImages < 0 || c.Posts.MaxImageBytes < 0 {
		errs = append(errs, errors.New("posts limits must not be negative"))
	}
	if c.Resilience.FailureThreshold <= 0 || c.Resilience.FailureThreshold > 1 {
		errs = append(errs, errors.New("resilience.failure_threshold must be in (0, 1]"))
	}

	return errors.Join(errs...)
}

func getEnvironment() Environment {
	env := os.Getenv("ZEUS_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	switch strings.ToLower(env) {
	case string(Production), "prod":
		return Production
	case string(Staging):
		return Staging
	default:
		return Development
	}
}
