package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrMissingStoreURL is returned when COSMETICA_STORE_URL is not set
	ErrMissingStoreURL = errors.New("store url is not configured")

	// ErrMissingServiceKey is returned when COSMETICA_STORE_SERVICE_KEY is not set
	ErrMissingServiceKey = errors.New("store service key is not configured")
)

// EnvFiles are read from the config directory in this order. Values already
// present in the process environment are never overridden.
var EnvFiles = []string{".env.local", ".env"}

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Import    ImportConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// StoreConfig holds the catalog database settings. The service key is the
// password injected into URL.
type StoreConfig struct {
	URL             string
	ServiceKey      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// ImportConfig tunes the catalog importer
type ImportConfig struct {
	LookupPageSize   int
	UpsertPageSize   int
	MaxErrors        int
	LockTTL          time.Duration
	DefaultBrand     string
	PlaceholderImage string
	SearchDirs       []string // where a bare sheet name is looked up
}

// RedisConfig holds Redis connection settings. When disabled the import lock
// is kept in process.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig holds S3 settings for s3:// sheet locations
type StorageConfig struct {
	Region          string
	Endpoint        string // custom endpoint for S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxUploadSize  int64
	TrustedProxies []string
	CORSOrigins    []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// Load reads configuration from the current directory
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads configuration with the following priority (highest first):
// 1. Process environment variables with the COSMETICA_ prefix
// 2. .env.local, then .env in dir
// 3. config.toml in dir
// 4. Built-in defaults
func LoadFrom(dir string) (*Config, error) {
	if err := loadEnvFiles(dir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("COSMETICA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Store: StoreConfig{
			URL:             v.GetString("store.url"),
			ServiceKey:      v.GetString("store.service_key"),
			MaxOpenConns:    v.GetInt("store.max_open_conns"),
			MaxIdleConns:    v.GetInt("store.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("store.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("store.conn_max_idle_time"),
		},
		Import: ImportConfig{
			LookupPageSize:   v.GetInt("import.lookup_page_size"),
			UpsertPageSize:   v.GetInt("import.upsert_page_size"),
			MaxErrors:        v.GetInt("import.max_errors"),
			LockTTL:          v.GetDuration("import.lock_ttl"),
			DefaultBrand:     v.GetString("import.default_brand"),
			PlaceholderImage: v.GetString("import.placeholder_image"),
			SearchDirs:       v.GetStringSlice("import.search_dirs"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			Port:           v.GetString("http.port"),
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxUploadSize:  v.GetInt64("http.max_upload_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFiles(dir string) error {
	for _, name := range EnvFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
	}
	return nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cosmetica-importer"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Store.MaxOpenConns == 0 {
		cfg.Store.MaxOpenConns = 10
	}
	if cfg.Store.MaxIdleConns == 0 {
		cfg.Store.MaxIdleConns = 2
	}
	if cfg.Store.ConnMaxLifetime == 0 {
		cfg.Store.ConnMaxLifetime = 60
	}
	if cfg.Store.ConnMaxIdleTime == 0 {
		cfg.Store.ConnMaxIdleTime = 30
	}
	if cfg.Import.LookupPageSize == 0 {
		cfg.Import.LookupPageSize = 100
	}
	if cfg.Import.UpsertPageSize == 0 {
		cfg.Import.UpsertPageSize = 100
	}
	if cfg.Import.MaxErrors == 0 {
		cfg.Import.MaxErrors = 100
	}
	if cfg.Import.LockTTL == 0 {
		cfg.Import.LockTTL = 30 * time.Minute
	}
	if len(cfg.Import.SearchDirs) == 0 {
		cfg.Import.SearchDirs = []string{"./data", "./scripts", "~/Downloads"}
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-central-1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 20 << 20 // 20MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Store.URL) == "" {
		return fmt.Errorf("%w: set COSMETICA_STORE_URL in the environment or .env.local", ErrMissingStoreURL)
	}
	if strings.TrimSpace(c.Store.ServiceKey) == "" {
		return fmt.Errorf("%w: set COSMETICA_STORE_SERVICE_KEY in the environment or .env.local", ErrMissingServiceKey)
	}
	if _, err := c.Store.DSN(); err != nil {
		return err
	}

	if c.Store.MaxOpenConns <= 0 {
		return fmt.Errorf("store.max_open_conns must be positive")
	}
	if c.Store.MaxIdleConns < 0 {
		return fmt.Errorf("store.max_idle_conns cannot be negative")
	}
	if c.Store.MaxIdleConns > c.Store.MaxOpenConns {
		return fmt.Errorf("store.max_idle_conns (%d) cannot exceed store.max_open_conns (%d)",
			c.Store.MaxIdleConns, c.Store.MaxOpenConns)
	}

	if c.Import.LookupPageSize < 0 || c.Import.UpsertPageSize < 0 {
		return fmt.Errorf("import page sizes must be positive")
	}
	if c.Import.MaxErrors < 0 {
		return fmt.Errorf("import.max_errors cannot be negative")
	}

	if c.App.Env == "production" {
		if strings.Contains(c.Store.URL, "sslmode=disable") {
			return fmt.Errorf("store.url cannot use sslmode=disable in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the store URL with the service key set as the password.
// A URL without a user connects as postgres.
func (s *StoreConfig) DSN() (string, error) {
	u, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil {
		return "", fmt.Errorf("invalid store url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid store url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid store url: missing host")
	}

	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, s.ServiceKey)
	return u.String(), nil
}

// Redacted returns the store URL without credentials, for logs
func (s *StoreConfig) Redacted() string {
	u, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil {
		return "<invalid>"
	}
	u.User = nil
	return u.String()
}
