// Package config provides configuration loading for zapx itself (where ZAP
// lives, how to log, how to report). The scan configuration directory is
// handled by package zapconfig.
//
// It supports a layered configuration approach with priority:
// CLI flags > environment variables (ZAPX_*) > config file (~/.zapx.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ZAPConfig locates the ZAP API.
type ZAPConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries int           `mapstructure:"retries" yaml:"retries"`
	// RateLimit caps API calls per second; 0 disables throttling.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // text, json
	Output     string `mapstructure:"output" yaml:"output"` // stdout, stderr, file
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Caller     bool   `mapstructure:"caller" yaml:"caller"`
}

// ScanProfile defines a named set of steps to run together.
type ScanProfile struct {
	Name  string   `mapstructure:"name" yaml:"name"`
	Steps []string `mapstructure:"steps" yaml:"steps"`
}

// Config holds all zapx configuration options.
type Config struct {
	DefaultTarget string        `mapstructure:"default_target" yaml:"default_target"`
	OutputFormat  string        `mapstructure:"output_format" yaml:"output_format"`
	ConfigDir     string        `mapstructure:"config_dir" yaml:"config_dir"`
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	StartDelay    time.Duration `mapstructure:"start_delay" yaml:"start_delay"`
	// MaxDuration bounds a whole run; 0 means no bound.
	MaxDuration  time.Duration `mapstructure:"max_duration" yaml:"max_duration"`
	ZAP          ZAPConfig     `mapstructure:"zap" yaml:"zap"`
	Log          LogConfig     `mapstructure:"log" yaml:"log"`
	ScanProfiles []ScanProfile `mapstructure:"scan_profiles" yaml:"scan_profiles"`
	// ServeAddr is where "zapx serve" listens.
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		OutputFormat: "table",
		ServeAddr:    ":8090",
		PollInterval: time.Second,
		StartDelay:   5 * time.Second,
		ZAP: ZAPConfig{
			URL:       "http://localhost:8080",
			Timeout:   30 * time.Second,
			Retries:   3,
			RateLimit: 20,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load reads configuration from ~/.zapx.yaml and environment variables.
// It does NOT apply CLI flag overrides; call ApplyFlags for that.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName(".zapx")
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ZAPX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ApplyFlags overrides config values with any CLI flags that were explicitly set.
func ApplyFlags(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("target") {
		val, _ := flags.GetString("target")
		cfg.DefaultTarget = val
	}
	if flags.Changed("output") {
		val, _ := flags.GetString("output")
		cfg.OutputFormat = val
	}
	if flags.Changed("config-dir") {
		val, _ := flags.GetString("config-dir")
		cfg.ConfigDir = val
	}
	if flags.Changed("zap-url") {
		val, _ := flags.GetString("zap-url")
		cfg.ZAP.URL = val
	}
	if flags.Changed("api-key") {
		val, _ := flags.GetString("api-key")
		cfg.ZAP.APIKey = val
	}
	if flags.Changed("timeout") {
		val, _ := flags.GetDuration("timeout")
		cfg.ZAP.Timeout = val
	}
	if flags.Changed("max-duration") {
		val, _ := flags.GetDuration("max-duration")
		cfg.MaxDuration = val
	}
	if flags.Changed("addr") {
		val, _ := flags.GetString("addr")
		cfg.ServeAddr = val
	}
	if flags.Changed("verbose") {
		if val, _ := flags.GetBool("verbose"); val {
			cfg.Log.Level = "debug"
		}
	}
}

// Validate rejects settings no run can work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ZAP.URL) == "" {
		return fmt.Errorf("zap.url must be set")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.StartDelay < 0 {
		return fmt.Errorf("start_delay must not be negative, got %s", c.StartDelay)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max_duration must not be negative, got %s", c.MaxDuration)
	}
	return nil
}

// GetProfile returns the scan profile with the given name, or nil if not found.
func (c *Config) GetProfile(name string) *ScanProfile {
	for i := range c.ScanProfiles {
		if c.ScanProfiles[i].Name == name {
			return &c.ScanProfiles[i]
		}
	}
	return nil
}

// ConfigFilePath returns the default config file path (~/.zapx.yaml).
func ConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zapx.yaml"
	}
	return filepath.Join(home, ".zapx.yaml")
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	// Every key needs a default so that AutomaticEnv can see it on Unmarshal.
	v.SetDefault("default_target", d.DefaultTarget)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("config_dir", d.ConfigDir)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("start_delay", d.StartDelay)
	v.SetDefault("max_duration", d.MaxDuration)
	v.SetDefault("serve_addr", d.ServeAddr)
	v.SetDefault("zap.url", d.ZAP.URL)
	v.SetDefault("zap.api_key", d.ZAP.APIKey)
	v.SetDefault("zap.timeout", d.ZAP.Timeout)
	v.SetDefault("zap.retries", d.ZAP.Retries)
	v.SetDefault("zap.rate_limit", d.ZAP.RateLimit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("log.caller", d.Log.Caller)
}
