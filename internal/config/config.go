package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// KV backends
const (
	KVBackendCloudflare = "cloudflare"
	KVBackendPostgres   = "postgres"
)

// Sync worker run modes
const (
	ModeLoop     = "loop"
	ModeTemporal = "temporal"
	ModeOnce     = "once"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration for the postgres KV backend
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// CloudflareConfig holds Workers KV configuration
type CloudflareConfig struct {
	AccountID         string `mapstructure:"account_id"`
	APIToken          string `mapstructure:"api_token"`
	ClaimsNamespaceID string `mapstructure:"claims_namespace_id"`
	TokensNamespaceID string `mapstructure:"tokens_namespace_id"`
}

// KVConfig holds configuration of the claim key-value store
type KVConfig struct {
	Backend          string           `mapstructure:"backend"`
	Cloudflare       CloudflareConfig `mapstructure:"cloudflare"`
	Database         DatabaseConfig   `mapstructure:"database"`
	ClaimsNamespace  string           `mapstructure:"claims_namespace"` // postgres backend namespace names
	TokensNamespace  string           `mapstructure:"tokens_namespace"`
	Concurrency      int              `mapstructure:"concurrency"`
	ReservedPrefixes []string         `mapstructure:"reserved_prefixes"`
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID         string        `mapstructure:"spreadsheet_id"`
	ServiceAccountKey     string        `mapstructure:"service_account_key"`      // raw JSON
	ServiceAccountKeyFile string        `mapstructure:"service_account_key_file"` // path to JSON
	ClaimsRange           string        `mapstructure:"claims_range"`
	CatalogRange          string        `mapstructure:"catalog_range"`
	LogRange              string        `mapstructure:"log_range"`
	APIBaseURL            string        `mapstructure:"api_base_url"`
	TokenURL              string        `mapstructure:"token_url"`
	HTTPTimeout           time.Duration `mapstructure:"http_timeout"`
}

// LeaseConfig holds configuration of the cross-process run lease
type LeaseConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Key     string        `mapstructure:"key"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// SyncConfig holds configuration of the reconciliation pass
type SyncConfig struct {
	Mode         string        `mapstructure:"mode"`
	Interval     time.Duration `mapstructure:"interval"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	ApplyTimeout time.Duration `mapstructure:"apply_timeout"`
	LogTimeout   time.Duration `mapstructure:"log_timeout"`
	Lease        LeaseConfig   `mapstructure:"lease"`
}

// TemporalConfig holds Temporal configuration
type TemporalConfig struct {
	HostPort        string        `mapstructure:"host_port"`
	Namespace       string        `mapstructure:"namespace"`
	TaskQueue       string        `mapstructure:"task_queue"`
	WorkflowID      string        `mapstructure:"workflow_id"`
	CronSchedule    string        `mapstructure:"cron_schedule"`
	ActivityTimeout time.Duration `mapstructure:"activity_timeout"`
}

// NATSConfig holds NATS JetStream configuration for sync outcome events
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// EmailConfig holds SendGrid configuration
type EmailConfig struct {
	SendGridAPIKey string        `mapstructure:"sendgrid_api_key"`
	SendGridURL    string        `mapstructure:"sendgrid_url"`
	FromAddress    string        `mapstructure:"from_address"`
	BaseURL        string        `mapstructure:"base_url"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

// SyncWorkerConfig holds configuration for the sync-worker program
type SyncWorkerConfig struct {
	BaseConfig `mapstructure:",squash"`
	KV         KVConfig       `mapstructure:"kv"`
	Sheets     SheetsConfig   `mapstructure:"sheets"`
	Sync       SyncConfig     `mapstructure:"sync"`
	Temporal   TemporalConfig `mapstructure:"temporal"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Email      EmailConfig    `mapstructure:"email"`
}

// LoadSyncWorkerConfig loads configuration for the sync-worker program
func LoadSyncWorkerConfig(configFile string, envPath string) (*SyncWorkerConfig, error) {
	v := configureViper("sync-worker", configFile, envPath)

	// Set defaults
	v.SetDefault("kv.backend", KVBackendCloudflare)
	v.SetDefault("kv.claims_namespace", "CLAIMS")
	v.SetDefault("kv.tokens_namespace", "VERIFICATION_TOKENS")
	v.SetDefault("kv.concurrency", 16)
	v.SetDefault("kv.reserved_prefixes", []string{"ratelimit:", "sync:"})
	v.SetDefault("kv.database.port", 5432)
	v.SetDefault("kv.database.sslmode", "disable")
	v.SetDefault("kv.database.max_open_conns", 5)
	v.SetDefault("kv.database.max_idle_conns", 2)
	v.SetDefault("kv.database.conn_max_lifetime", "1h")
	v.SetDefault("kv.database.conn_max_idle_time", "10m")
	v.SetDefault("sheets.claims_range", "API!A2:L")
	v.SetDefault("sheets.catalog_range", "API!A:L")
	v.SetDefault("sheets.log_range", "Logs!A:H")
	v.SetDefault("sheets.api_base_url", "https://sheets.googleapis.com/v4")
	v.SetDefault("sheets.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("sheets.http_timeout", "30s")
	v.SetDefault("sync.mode", ModeLoop)
	v.SetDefault("sync.interval", "15m")
	v.SetDefault("sync.fetch_timeout", "2m")
	v.SetDefault("sync.apply_timeout", "5m")
	v.SetDefault("sync.log_timeout", "30s")
	v.SetDefault("sync.lease.enabled", false)
	v.SetDefault("sync.lease.key", "sync:lease")
	v.SetDefault("sync.lease.ttl", "10m")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "registry-sync")
	v.SetDefault("temporal.workflow_id", "registry-claims-sync")
	v.SetDefault("temporal.cron_schedule", "*/15 * * * *")
	v.SetDefault("temporal.activity_timeout", "10m")
	v.SetDefault("nats.stream_name", "REGISTRY_EVENTS")
	v.SetDefault("nats.subject_prefix", "registry.sync")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "registry-sync-worker")
	v.SetDefault("email.sendgrid_url", "https://api.sendgrid.com/v3/mail/send")
	v.SetDefault("email.from_address", "service@daphne-hsin-baby-registry.me")
	v.SetDefault("email.base_url", "http://localhost:8788")
	v.SetDefault("email.http_timeout", "15s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var cfg SyncWorkerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields for the configured backends and mode
func (c *SyncWorkerConfig) Validate() error {
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id is required")
	}
	if c.Sheets.ServiceAccountKey == "" && c.Sheets.ServiceAccountKeyFile == "" {
		return errors.New("sheets.service_account_key or sheets.service_account_key_file is required")
	}

	switch c.KV.Backend {
	case KVBackendCloudflare:
		if c.KV.Cloudflare.AccountID == "" {
			return errors.New("kv.cloudflare.account_id is required")
		}
		if c.KV.Cloudflare.APIToken == "" {
			return errors.New("kv.cloudflare.api_token is required")
		}
		if c.KV.Cloudflare.ClaimsNamespaceID == "" {
			return errors.New("kv.cloudflare.claims_namespace_id is required")
		}
	case KVBackendPostgres:
		if c.KV.Database.Host == "" {
			return errors.New("kv.database.host is required")
		}
		if c.KV.Database.DBName == "" {
			return errors.New("kv.database.dbname is required")
		}
	default:
		return fmt.Errorf("unsupported kv.backend %q", c.KV.Backend)
	}

	switch c.Sync.Mode {
	case ModeLoop, ModeOnce, ModeTemporal:
	default:
		return fmt.Errorf("unsupported sync.mode %q", c.Sync.Mode)
	}

	if c.Sync.Lease.Enabled && c.Sync.Lease.TTL < time.Minute {
		// Workers KV rejects expirations shorter than 60 seconds
		return errors.New("sync.lease.ttl must be at least 1m")
	}

	return nil
}

// ServiceAccountJSON returns the service account credentials, reading the key file if configured
func (c *SheetsConfig) ServiceAccountJSON() ([]byte, error) {
	if c.ServiceAccountKey != "" {
		return []byte(c.ServiceAccountKey), nil
	}
	data, err := os.ReadFile(c.ServiceAccountKeyFile) //nolint:gosec,G304
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file: %w", err)
	}
	return data, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// KV
		"kv.backend",
		"kv.claims_namespace",
		"kv.tokens_namespace",
		"kv.concurrency",
		"kv.reserved_prefixes",
		"kv.cloudflare.account_id",
		"kv.cloudflare.api_token",
		"kv.cloudflare.claims_namespace_id",
		"kv.cloudflare.tokens_namespace_id",
		"kv.database.host",
		"kv.database.port",
		"kv.database.user",
		"kv.database.password",
		"kv.database.dbname",
		"kv.database.sslmode",
		"kv.database.max_open_conns",
		"kv.database.max_idle_conns",
		"kv.database.conn_max_lifetime",
		"kv.database.conn_max_idle_time",
		// Sheets
		"sheets.spreadsheet_id",
		"sheets.service_account_key",
		"sheets.service_account_key_file",
		"sheets.claims_range",
		"sheets.catalog_range",
		"sheets.log_range",
		"sheets.api_base_url",
		"sheets.token_url",
		"sheets.http_timeout",
		// Sync
		"sync.mode",
		"sync.interval",
		"sync.fetch_timeout",
		"sync.apply_timeout",
		"sync.log_timeout",
		"sync.lease.enabled",
		"sync.lease.key",
		"sync.lease.ttl",
		// Temporal
		"temporal.host_port",
		"temporal.namespace",
		"temporal.task_queue",
		"temporal.workflow_id",
		"temporal.cron_schedule",
		"temporal.activity_timeout",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Email
		"email.sendgrid_api_key",
		"email.sendgrid_url",
		"email.from_address",
		"email.base_url",
		"email.http_timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
