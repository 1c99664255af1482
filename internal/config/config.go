package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cantian-ai/bazigate/internal/ratelimit"
	"github.com/cantian-ai/bazigate/internal/security"
	internalsettings "github.com/cantian-ai/bazigate/internal/settings"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvDBConnection     = "DB_CONNECTION"
	EnvJWTSecret        = "JWT_SECRET"
	EnvJWTExpiry        = "JWT_EXPIRY"
	EnvJWTRefreshExpiry = "JWT_REFRESH_EXPIRY"
	EnvListenAddr       = "LISTEN_ADDR"
	EnvLogLevel         = "LOG_LEVEL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./" + internalsettings.DefaultConfigPath
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingJWTSecret indicates neither the config file nor the environment
// provides a signing secret.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret        string        `yaml:"secret"`
	Expiry        time.Duration `yaml:"expiry"`
	RefreshExpiry time.Duration `yaml:"refresh-expiry"`
	// AllowRefreshAfterExpiry defaults to false when unset.
	AllowRefreshAfterExpiry *bool `yaml:"allow-refresh-after-expiry"`
	// RefreshGrace bounds refresh after expiry; zero uses the service default.
	RefreshGrace time.Duration `yaml:"refresh-grace"`
}

// RefreshAfterExpiry reports whether expired tokens may still be refreshed.
func (c JWTConfig) RefreshAfterExpiry() bool {
	return c.AllowRefreshAfterExpiry != nil && *c.AllowRefreshAfterExpiry
}

// TokenOptions converts the section into TokenService options.
func (c JWTConfig) TokenOptions() security.TokenOptions {
	return security.TokenOptions{
		Secret:                  c.Secret,
		AccessTTL:               c.Expiry,
		RefreshTTL:              c.RefreshExpiry,
		AllowRefreshAfterExpiry: c.RefreshAfterExpiry(),
		RefreshGrace:            c.RefreshGrace,
	}
}

// RateLimitConfig tunes the in-memory limiter store.
type RateLimitConfig struct {
	Shards          int           `yaml:"shards"`
	MaxKeys         int           `yaml:"max-keys"`
	IdleTTL         time.Duration `yaml:"idle-ttl"`
	CleanupInterval time.Duration `yaml:"cleanup-interval"`
}

// MemoryOptions converts the section into limiter options.
func (c RateLimitConfig) MemoryOptions() ratelimit.MemoryOptions {
	return ratelimit.MemoryOptions{
		Shards:          c.Shards,
		MaxKeys:         c.MaxKeys,
		IdleTTL:         c.IdleTTL,
		CleanupInterval: c.CleanupInterval,
	}
}

// Config is the full server configuration.
type Config struct {
	Listen      string          `yaml:"listen"`
	LogLevel    string          `yaml:"log-level"`
	LogJSON     bool            `yaml:"log-json"`
	DatabaseDSN string          `yaml:"database-dsn"`
	JWT         JWTConfig       `yaml:"jwt"`
	RateLimit   RateLimitConfig `yaml:"rate-limit"`
	// RateLimits overrides the default route table by route name.
	RateLimits []ratelimit.Rule `yaml:"rate-limits"`
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = security.DefaultAccessTTL

// Load reads configPath, applies environment overrides and defaults, and
// validates the result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", errRead)
	}

	if errEnv := cfg.applyEnv(); errEnv != nil {
		return nil, errEnv
	}
	cfg.applyDefaults()
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		c.DatabaseDSN = dsn
	}
	if addr := strings.TrimSpace(os.Getenv(EnvListenAddr)); addr != "" {
		c.Listen = addr
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.LogLevel = level
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		c.JWT.Secret = secret
	}
	for env, dst := range map[string]*time.Duration{
		EnvJWTExpiry:        &c.JWT.Expiry,
		EnvJWTRefreshExpiry: &c.JWT.RefreshExpiry,
	} {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		d, errParse := parseDuration(raw)
		if errParse != nil {
			return fmt.Errorf("%s: %w", env, errParse)
		}
		*dst = d
	}
	return nil
}

// parseDuration accepts Go durations ("24h") or a bare number of milliseconds.
func parseDuration(raw string) (time.Duration, error) {
	if ms, errInt := strconv.ParseInt(raw, 10, 64); errInt == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

func (c *Config) applyDefaults() {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = internalsettings.DefaultListenAddr
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	c.DatabaseDSN = strings.TrimSpace(c.DatabaseDSN)
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = internalsettings.DefaultDatabaseDSN
	}
	if c.JWT.Expiry <= 0 {
		c.JWT.Expiry = defaultJWTExpiry
	}
	if c.JWT.RefreshExpiry <= 0 {
		c.JWT.RefreshExpiry = security.DefaultRefreshTTL
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWT.Secret) < security.MinSecretLength {
		return fmt.Errorf("jwt secret too short (min %d bytes)", security.MinSecretLength)
	}
	if c.JWT.RefreshExpiry < c.JWT.Expiry {
		return fmt.Errorf("jwt refresh-expiry (%s) must not be shorter than expiry (%s)", c.JWT.RefreshExpiry, c.JWT.Expiry)
	}
	if c.JWT.RefreshGrace < 0 {
		return fmt.Errorf("jwt refresh-grace must not be negative")
	}
	rules, errRules := mergeRules(internalsettings.DefaultRules(), c.RateLimits)
	if errRules != nil {
		return errRules
	}
	c.RateLimits = rules
	return nil
}

// mergeRules replaces defaults with overrides of the same route and appends
// routes the defaults do not declare. Fields an override leaves unset keep
// the default's value.
func mergeRules(defaults, overrides []ratelimit.Rule) ([]ratelimit.Rule, error) {
	byRoute := make(map[string]int, len(defaults)+len(overrides))
	out := make([]ratelimit.Rule, 0, len(defaults)+len(overrides))
	for _, rule := range defaults {
		byRoute[rule.Route] = len(out)
		out = append(out, rule)
	}
	seen := make(map[string]struct{}, len(overrides))
	for _, raw := range overrides {
		if idx, ok := byRoute[strings.TrimSpace(raw.Route)]; ok {
			base := out[idx]
			if raw.WindowSeconds == 0 {
				raw.WindowSeconds = base.WindowSeconds
			}
			if raw.MaxCount == 0 {
				raw.MaxCount = base.MaxCount
			}
			if raw.Dimension == "" {
				raw.Dimension = base.Dimension
			}
		}
		rule, errRule := raw.Normalize()
		if errRule != nil {
			return nil, errRule
		}
		if _, dup := seen[rule.Route]; dup {
			return nil, fmt.Errorf("rate limit: duplicate route %s", rule.Route)
		}
		seen[rule.Route] = struct{}{}
		if idx, ok := byRoute[rule.Route]; ok {
			out[idx] = rule
			continue
		}
		byRoute[rule.Route] = len(out)
		out = append(out, rule)
	}
	return out, nil
}
