package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Audit    AuditConfig
	Redis    RedisConfig
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host        string
	Port        int
	MetricsPort int // Port for Prometheus metrics HTTP server
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string // logrus level: debug, info, warn, error
	Format string // "text" or "json"
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CacheConfig configures the role chain cache
type CacheConfig struct {
	Enabled    bool
	Size       int // Maximum cached role chains
	TTLMinutes int // Time-to-live for cached chains in minutes
}

// AuditConfig configures the audit log and its durable sink
type AuditConfig struct {
	// Backend selects the durable sink: "none", "postgres" or "redis".
	// The bounded in-memory buffer is always present.
	Backend           string
	MaxEntries        int    // In-memory buffer bound
	RetentionDays     int    // Durable entries older than this are purged
	RetentionSchedule string // Cron spec for the purge job
}

// RedisConfig represents redis configuration (used by the redis audit sink)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	AuditKey string
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root directory
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	// Find project root
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot) // Project root

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 15432)
	viper.SetDefault("DB_USER", "polisgate")
	viper.SetDefault("DB_NAME", "polisgate_dev")
	viper.SetDefault("DB_SSLMODE", "disable")

	// Cache defaults
	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("CACHE_SIZE", 1024)
	viper.SetDefault("CACHE_TTL_MINUTES", 5)

	// Audit defaults
	viper.SetDefault("AUDIT_BACKEND", "postgres")
	viper.SetDefault("AUDIT_MAX_ENTRIES", 10000)
	viper.SetDefault("AUDIT_RETENTION_DAYS", 365)
	viper.SetDefault("AUDIT_RETENTION_SCHEDULE", "0 3 * * *")

	// Redis defaults
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_AUDIT_KEY", "polisgate:audit")

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	// DB_PASSWORD is required for security
	dbPassword := viper.GetString("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
	}

	config := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("SERVER_HOST"),
			Port:        viper.GetInt("SERVER_PORT"),
			MetricsPort: viper.GetInt("METRICS_PORT"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: dbPassword,
			Database: viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:    viper.GetBool("CACHE_ENABLED"),
			Size:       viper.GetInt("CACHE_SIZE"),
			TTLMinutes: viper.GetInt("CACHE_TTL_MINUTES"),
		},
		Audit: AuditConfig{
			Backend:           viper.GetString("AUDIT_BACKEND"),
			MaxEntries:        viper.GetInt("AUDIT_MAX_ENTRIES"),
			RetentionDays:     viper.GetInt("AUDIT_RETENTION_DAYS"),
			RetentionSchedule: viper.GetString("AUDIT_RETENTION_SCHEDULE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			AuditKey: viper.GetString("REDIS_AUDIT_KEY"),
		},
	}

	return config, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
