package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the MYCloud API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Provider ProviderConfig
	Auth     AuthConfig
	Quota    QuotaConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	StaticDir    string
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// ProviderConfig carries connection details for the external object store
// backing user folders, plus the well-known root folder name.
type ProviderConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	RootFolder      string
	CallTimeout     time.Duration
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
	MaxUsers    int
}

// QuotaConfig holds the per-user storage limit applied at registration.
type QuotaConfig struct {
	DefaultLimit int64
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

const (
	// DefaultQuotaLimit is 5 GiB, the fixed per-user allowance.
	DefaultQuotaLimit = 5 * 1024 * 1024 * 1024
	// DefaultMaxUsers caps registration.
	DefaultMaxUsers = 3
)

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("MYCLOUD_API_HOST", "0.0.0.0"),
			Port:         getInt("MYCLOUD_API_PORT", 3000),
			ReadTimeout:  getDuration("MYCLOUD_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("MYCLOUD_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("MYCLOUD_API_IDLE_TIMEOUT", 60*time.Second),
			StaticDir:    getString("MYCLOUD_STATIC_DIR", ""),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "mycloud_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "mycloud"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		Provider: ProviderConfig{
			Endpoint:        getString("PROVIDER_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("PROVIDER_ACCESS_KEY", "mycloud"),
			SecretAccessKey: getString("PROVIDER_SECRET_KEY", "change-me-strong-password"),
			Bucket:          getString("PROVIDER_BUCKET", "mycloud"),
			UseSSL:          getBool("PROVIDER_USE_SSL", false),
			Region:          getString("PROVIDER_REGION", ""),
			RootFolder:      getString("MYCLOUD_ROOT_FOLDER", "MYCloud_Storage"),
			CallTimeout:     getDuration("PROVIDER_CALL_TIMEOUT", 30*time.Second),
		},
		Auth:  loadAuthConfig(),
		Quota: QuotaConfig{DefaultLimit: getInt64("MYCLOUD_QUOTA_LIMIT", DefaultQuotaLimit)},
		Metrics: MetricsConfig{
			PrometheusPath: getString("MYCLOUD_METRICS_PATH", "/metrics"),
		},
	}

	if cfg.Quota.DefaultLimit <= 0 {
		return Config{}, fmt.Errorf("quota limit must be positive, got %d", cfg.Quota.DefaultLimit)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("MYCLOUD_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	maxUsers := getInt("MYCLOUD_MAX_USERS", DefaultMaxUsers)
	if maxUsers < 1 {
		maxUsers = DefaultMaxUsers
	}

	return AuthConfig{
		TokenSecret: getString("MYCLOUD_TOKEN_SECRET", "change-me-to-a-32-byte-secret"),
		TokenTTL:    getDuration("MYCLOUD_TOKEN_TTL", 12*time.Hour),
		BcryptCost:  cost,
		MaxUsers:    maxUsers,
	}
}
