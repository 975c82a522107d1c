package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Configuration ──────────────────────────────────────────────────────────
// Precedence: defaults < config.toml < .env < VOTECAST_* environment.

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VOTECAST_"

// Config is the back-office configuration.
type Config struct {
	API     APIConfig     `toml:"api" envPrefix:"API_"`
	Storage StorageConfig `toml:"storage" envPrefix:"STORAGE_"`
	Fees    FeesConfig    `toml:"fees" envPrefix:"FEES_"`
	Schemes SchemesConfig `toml:"schemes" envPrefix:"SCHEMES_"`
	Lock    LockConfig    `toml:"lock" envPrefix:"LOCK_"`
	Metrics MetricsConfig `toml:"metrics" envPrefix:"METRICS_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// APIConfig configures the admin HTTP server.
type APIConfig struct {
	Host           string `toml:"host" env:"HOST"`
	Port           int    `toml:"port" env:"PORT"`
	RequestTimeout string `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// StorageConfig locates the database.
type StorageConfig struct {
	DataDir string `toml:"data_dir" env:"DATA_DIR"`
}

// FeesConfig holds platform-wide money settings.
type FeesConfig struct {
	// CommissionRate is the withdrawal fee in percent.
	CommissionRate decimal.Decimal `toml:"commission_rate" env:"COMMISSION_RATE"`
	Currency       string          `toml:"currency" env:"CURRENCY"`
}

// SchemesConfig controls scheme resolution.
type SchemesConfig struct {
	// FallbackAdminPercentage is used when no scheme is active. Empty
	// disables the fallback and resolution fails instead.
	FallbackAdminPercentage string `toml:"fallback_admin_percentage" env:"FALLBACK_ADMIN_PERCENTAGE"`
}

// LockConfig selects the per-organizer lock backend.
type LockConfig struct {
	Backend  string `toml:"backend" env:"BACKEND"` // "local" or "redis"
	RedisURL string `toml:"redis_url" env:"REDIS_URL"`
	Prefix   string `toml:"prefix" env:"PREFIX"`
	TTL      string `toml:"ttl" env:"TTL"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Path    string `toml:"path" env:"PATH"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"` // "text" or "json"
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8420,
			RequestTimeout: "30s",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Fees: FeesConfig{
			CommissionRate: decimal.NewFromInt(5),
			Currency:       "GHS",
		},
		Lock: LockConfig{
			Backend: "local",
			Prefix:  "votecast:lock:",
			TTL:     "30s",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".votecast"
	}
	return filepath.Join(home, ".votecast")
}

// DefaultConfigPath is config.toml inside the default data directory.
func DefaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Load builds the configuration. A missing file at path is not an error
// unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || required {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := parseDuration(c.API.RequestTimeout, 0); err != nil {
		return fmt.Errorf("api.request_timeout: %w", err)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return errors.New("storage.data_dir is required")
	}
	if !domain.ValidPercentage(c.Fees.CommissionRate) {
		return fmt.Errorf("fees.commission_rate %s: %w", c.Fees.CommissionRate, domain.ErrInvalidPercentage)
	}
	if _, err := c.Schemes.Fallback(); err != nil {
		return fmt.Errorf("schemes.fallback_admin_percentage: %w", err)
	}
	switch c.Lock.Backend {
	case "local":
	case "redis":
		if c.Lock.RedisURL == "" {
			return errors.New("lock.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("lock.backend %q: must be local or redis", c.Lock.Backend)
	}
	if _, err := parseDuration(c.Lock.TTL, 0); err != nil {
		return fmt.Errorf("lock.ttl: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q: must be text or json", c.Log.Format)
	}
	return nil
}

// Addr is the API listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout is the parsed request timeout.
func (c APIConfig) Timeout() time.Duration {
	d, _ := parseDuration(c.RequestTimeout, 30*time.Second)
	return d
}

// Duration is the parsed lock TTL.
func (c LockConfig) Duration() time.Duration {
	d, _ := parseDuration(c.TTL, 30*time.Second)
	return d
}

// Fallback parses the fallback admin percentage. It returns nil when no
// fallback is configured.
func (c SchemesConfig) Fallback() (*decimal.Decimal, error) {
	s := strings.TrimSpace(c.FallbackAdminPercentage)
	if s == "" {
		return nil, nil
	}
	pct, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if !domain.ValidPercentage(pct) {
		return nil, domain.ErrInvalidPercentage
	}
	return &pct, nil
}

// parseDuration parses s, returning def for an empty string.
func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def, err
	}
	if d <= 0 {
		return def, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
