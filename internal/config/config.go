package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CURATOR_API_KEY.
const EnvPrefix = "CURATOR"

// DefaultFile is read when no explicit config path is given.
const DefaultFile = "config/settings.json"

// Config holds every setting the curator needs for one run.
type Config struct {
	APIKey          string              `mapstructure:"api_key"`
	OutputDir       string              `mapstructure:"output_dir"`
	TopicCategories map[string][]string `mapstructure:"topic_categories"`
	MaxResults      int                 `mapstructure:"max_results"`
	BaseURL         string              `mapstructure:"base_url"`
	RequestDelay    time.Duration       `mapstructure:"request_delay"`
	RequestJitter   float64             `mapstructure:"request_jitter"`
	HTTPTimeout     time.Duration       `mapstructure:"http_timeout"`
	TLSProfile      string              `mapstructure:"tls_profile"`
	ProxyURL        string              `mapstructure:"proxy_url"`
	LogLevel        string              `mapstructure:"log_level"`
	LogFormat       string              `mapstructure:"log_format"`
	MetricsPort     int                 `mapstructure:"metrics_port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "reports")
	v.SetDefault("max_results", 10)
	v.SetDefault("base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("request_delay", "500ms")
	v.SetDefault("request_jitter", 0.0)
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("tls_profile", "go")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_port", 0)
}

// Load reads path (JSON, YAML or TOML, chosen by extension) and applies
// CURATOR_* environment overrides. An empty path tries DefaultFile and
// silently falls back to defaults and environment when it does not exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	_ = v.BindEnv("api_key")
	_ = v.BindEnv("proxy_url")

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		// SetConfigFile bypasses the search path, so a missing file is a
		// plain fs error rather than viper.ConfigFileNotFoundError.
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("config: api_key is required (or set %s_API_KEY)", EnvPrefix)
	}
	if c.OutputDir == "" {
		return errors.New("config: output_dir must not be empty")
	}
	if c.MaxResults <= 0 || c.MaxResults > 50 {
		return fmt.Errorf("config: max_results must be within 1..50, got %d", c.MaxResults)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("config: request_delay cannot be negative")
	}
	if c.RequestJitter < 0 || c.RequestJitter > 1 {
		return fmt.Errorf("config: request_jitter must be within 0..1, got %v", c.RequestJitter)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config: http_timeout cannot be negative")
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("config: metrics_port out of range: %d", c.MetricsPort)
	}
	return nil
}
