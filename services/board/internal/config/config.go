package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location, overridable with BOARD_CONFIG.
const ConfigPath = "config.yaml"

const (
	defaultHost               = "127.0.0.1"
	defaultPort               = "8080"
	defaultStore              = "postgres"
	defaultDatabaseURL        = "postgres://mydb@localhost/diesel_demo"
	defaultMaxBodyBytes       = 64 * 1024
	defaultRequestTimeout     = "10s"
	defaultRateLimitPerMinute = 30
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Host               string   `yaml:"host"`
	Port               string   `yaml:"port"`
	LogLevel           string   `yaml:"logLevel"`
	Store              string   `yaml:"store"`
	DatabaseURL        string   `yaml:"databaseURL"`
	DBMaxOpenConns     int      `yaml:"dbMaxOpenConns"`
	DBMaxIdleConns     int      `yaml:"dbMaxIdleConns"`
	DBConnMaxLifetime  string   `yaml:"dbConnMaxLifetime"`
	DBSkipMigrate      bool     `yaml:"dbSkipMigrate"`
	MaxBodyBytes       int64    `yaml:"maxBodyBytes"`
	RequestTimeout     string   `yaml:"requestTimeout"`
	RedisAddr          string   `yaml:"redisAddr"`
	RedisPassword      string   `yaml:"redisPassword"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`
	TrustedProxyCIDRs  []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error: defaults and environment overrides still apply.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	if v := os.Getenv("BOARD_CONFIG"); v != "" {
		path = v
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c FileConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// RequestTimeoutDuration parses requestTimeout; "0" disables the bound.
func (c FileConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// ConnMaxLifetime parses dbConnMaxLifetime; empty keeps the store default.
func (c FileConfig) ConnMaxLifetime() time.Duration {
	if c.DBConnMaxLifetime == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.DBConnMaxLifetime)
	return d
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("BOARD_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("BOARD_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOARD_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("BOARD_DB_SKIP_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DBSkipMigrate = b
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("BOARD_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("BOARD_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("BOARD_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = v
	}
	if v := os.Getenv("BOARD_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.Store == "" {
		cfg.Store = defaultStore
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.Store == "postgres" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = defaultRateLimitPerMinute
	}
}

func validateConfig(cfg FileConfig) error {
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return fmt.Errorf("config: invalid port %q", cfg.Port)
	}
	switch cfg.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: store must be postgres or memory, got %q", cfg.Store)
	}
	if _, err := time.ParseDuration(cfg.RequestTimeout); err != nil {
		return fmt.Errorf("config: invalid requestTimeout %q", cfg.RequestTimeout)
	}
	if cfg.DBConnMaxLifetime != "" {
		if _, err := time.ParseDuration(cfg.DBConnMaxLifetime); err != nil {
			return fmt.Errorf("config: invalid dbConnMaxLifetime %q", cfg.DBConnMaxLifetime)
		}
	}
	if cfg.DBMaxOpenConns < 0 || cfg.DBMaxIdleConns < 0 {
		return errors.New("config: connection pool sizes must not be negative")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
