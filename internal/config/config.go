package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the configuration file or environment leaves a value unset.
const (
	// DefaultConfigPath is used when no --config flag or CONFIG_PATH is given.
	DefaultConfigPath = "config.yaml"
	// DefaultListenAddr is the HTTP listen address.
	DefaultListenAddr = ":8080"
	// DefaultDatabaseDSN points at a local SQLite file.
	DefaultDatabaseDSN = "data/console.db"
	// DevJWTSecret is the development-only signing secret. Refused in production.
	DevJWTSecret = "dev-secret-change-in-production"
	// DefaultSessionExpiry is the lifetime of an admin session token.
	DefaultSessionExpiry = 7 * 24 * time.Hour
	// DefaultRPName is the relying party display name.
	DefaultRPName = "Location Capture Admin"
	// DefaultRPID is the relying party identifier.
	DefaultRPID = "localhost"
	// DefaultOrigin is the expected WebAuthn origin.
	DefaultOrigin = "http://localhost:3000"
	// DefaultChallengeTTL bounds how long an issued challenge stays valid.
	DefaultChallengeTTL = 5 * time.Minute
	// DefaultRedisKeyPrefix namespaces challenge keys in Redis.
	DefaultRedisKeyPrefix = "console:challenge:"

	// EnvironmentProduction marks a production deployment.
	EnvironmentProduction = "production"
)

// ErrInsecureSecret is returned when production runs with a missing or development JWT secret.
var ErrInsecureSecret = errors.New("config: jwt secret must be set to a non-default value in production")

// AppConfig holds command line level settings.
type AppConfig struct {
	ConfigPath string
}

// Config is the full process configuration.
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	JWT         JWTConfig       `yaml:"jwt"`
	WebAuthn    WebAuthnConfig  `yaml:"webauthn"`
	Redis       RedisConfig     `yaml:"redis"`
	Logging     LoggingConfig   `yaml:"logging"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DatabaseConfig configures the credential store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig configures session token signing.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// WebAuthnConfig configures the relying party.
type WebAuthnConfig struct {
	RPID         string        `yaml:"rp_id"`
	RPName       string        `yaml:"rp_name"`
	Origins      []string      `yaml:"origins"`
	ChallengeTTL time.Duration `yaml:"challenge_ttl"`
}

// RedisConfig selects the Redis challenge ledger when Addr is set.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LoggingConfig configures logrus output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// RateLimitConfig bounds PIN login attempts per client address.
type RateLimitConfig struct {
	LoginPerMinute int `yaml:"login_per_minute"`
	Burst          int `yaml:"burst"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ResolveConfigPath returns the config path from the flag, CONFIG_PATH, or the default.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("CONFIG_PATH")); env != "" {
		return env
	}
	return DefaultConfigPath
}

// ConfigExists reports whether a config file is present at path.
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the YAML file at path (if present), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	cfg.applyEnv()
	cfg.SetDefaults()
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

// LoadDatabaseDSN loads only what is needed to reach the database.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	return cfg.Database.DSN, nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvironmentProduction)
}

func (c *Config) applyEnv() {
	overrideString(&c.Environment, "APP_ENV")
	overrideString(&c.Server.Addr, "LISTEN_ADDR")
	overrideString(&c.Database.DSN, "DATABASE_URL")
	overrideString(&c.JWT.Secret, "JWT_SECRET")
	overrideString(&c.WebAuthn.RPID, "WEBAUTHN_RP_ID")
	overrideString(&c.Redis.Addr, "REDIS_ADDR")
	overrideString(&c.Logging.Level, "LOG_LEVEL")
	if origin := strings.TrimSpace(os.Getenv("WEBAUTHN_ORIGIN")); origin != "" {
		c.WebAuthn.Origins = splitList(origin)
	}
	if raw := strings.TrimSpace(os.Getenv("METRICS_ENABLED")); raw != "" {
		if enabled, errParse := strconv.ParseBool(raw); errParse == nil {
			c.Metrics.Enabled = enabled
		}
	}
}

// SetDefaults fills unset fields. The development JWT secret is only
// substituted outside production; Validate rejects it in production.
func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultListenAddr
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		c.Database.DSN = DefaultDatabaseDSN
	}
	if c.JWT.Secret == "" && !c.IsProduction() {
		c.JWT.Secret = DevJWTSecret
	}
	if c.JWT.Expiry <= 0 {
		c.JWT.Expiry = DefaultSessionExpiry
	}
	if strings.TrimSpace(c.WebAuthn.RPName) == "" {
		c.WebAuthn.RPName = DefaultRPName
	}
	c.WebAuthn.Origins = normalizeStrings(c.WebAuthn.Origins)
	if len(c.WebAuthn.Origins) == 0 {
		c.WebAuthn.Origins = []string{DefaultOrigin}
	}
	if strings.TrimSpace(c.WebAuthn.RPID) == "" {
		c.WebAuthn.RPID = DefaultRPID
		if derived := deriveRPID(c.WebAuthn.Origins); derived != "" {
			c.WebAuthn.RPID = derived
		}
	}
	if c.WebAuthn.ChallengeTTL <= 0 {
		c.WebAuthn.ChallengeTTL = DefaultChallengeTTL
	}
	if strings.TrimSpace(c.Redis.KeyPrefix) == "" {
		c.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.RateLimit.LoginPerMinute <= 0 {
		c.RateLimit.LoginPerMinute = 10
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.IsProduction() && (strings.TrimSpace(c.JWT.Secret) == "" || c.JWT.Secret == DevJWTSecret) {
		return ErrInsecureSecret
	}
	for _, origin := range c.WebAuthn.Origins {
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: invalid webauthn origin %q", origin)
		}
	}
	if strings.TrimSpace(c.WebAuthn.RPID) == "" {
		return fmt.Errorf("config: webauthn rp_id is required")
	}
	return nil
}

// deriveRPID extracts a hostname from the first parseable origin.
func deriveRPID(origins []string) string {
	for _, origin := range origins {
		parsed, err := url.Parse(strings.TrimSpace(origin))
		if err != nil || parsed.Host == "" {
			continue
		}
		if host := strings.TrimSpace(parsed.Hostname()); host != "" {
			return host
		}
	}
	return ""
}

func overrideString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func splitList(raw string) []string {
	return normalizeStrings(strings.Split(raw, ","))
}

// normalizeStrings trims and filters empty strings.
func normalizeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}
