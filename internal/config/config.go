package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/newthinker/straddle/internal/core"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type StorageConfig struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// CacheConfig locates the shared file-backed store.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// SnapshotConfig selects the series snapshot backend.
type SnapshotConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ProvidersConfig struct {
	Alpaca     AlpacaConfig     `mapstructure:"alpaca"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
}

type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type MarketDataConfig struct {
	Token string `mapstructure:"token"`
}

// AnalysisConfig carries the default analysis window.
type AnalysisConfig struct {
	Lookback  int `mapstructure:"lookback"`
	Lookahead int `mapstructure:"lookahead"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Storage: StorageConfig{
			Cache: CacheConfig{
				Path: "straddle.db",
			},
			Snapshot: SnapshotConfig{
				Enabled: true,
				Type:    "localfs",
				Path:    "snapshots",
			},
		},
		Analysis: AnalysisConfig{
			Lookback:  3,
			Lookahead: 3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Storage.Cache.Path == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("storage cache path is required"))
	}

	switch c.Storage.Snapshot.Type {
	case "", "localfs":
		if c.Storage.Snapshot.Enabled && c.Storage.Snapshot.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("snapshot path required for localfs backend"))
		}
	case "s3":
		if c.Storage.Snapshot.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required for s3 snapshot backend"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown snapshot backend %q", c.Storage.Snapshot.Type))
	}

	if err := validateWindow("lookback", c.Analysis.Lookback); err != nil {
		return err
	}
	if err := validateWindow("lookahead", c.Analysis.Lookahead); err != nil {
		return err
	}

	return nil
}

// validateWindow bounds the session window the same way the analysis form
// does: 1 to 10 sessions on each side.
func validateWindow(name string, sessions int) error {
	if sessions < 1 || sessions > 10 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s must be between 1 and 10 sessions, got %d", name, sessions))
	}
	return nil
}
