package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// BotConfig holds the Telegram transport settings.
type BotConfig struct {
	// Token is the bot API token. The TASKBOT_TOKEN environment
	// variable overrides the file value.
	Token string `mapstructure:"token" yaml:"token"`

	// PollTimeoutSec is the long-poll timeout for the updates feed.
	PollTimeoutSec int `mapstructure:"poll_timeout_sec" yaml:"poll_timeout_sec"`
}

// StorageConfig holds the SQLite settings.
type StorageConfig struct {
	// Path is the database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// ReportConfig holds the daily progress report schedule.
//
// Timezone is the single reference zone for both the trigger time and
// the today/this-week stat windows; mixing zones between the two was a
// known defect in an earlier version of this bot.
type ReportConfig struct {
	Hour     int    `mapstructure:"hour" yaml:"hour"`
	Minute   int    `mapstructure:"minute" yaml:"minute"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Bot      BotConfig     `mapstructure:"bot" yaml:"bot"`
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	Report   ReportConfig  `mapstructure:"report" yaml:"report"`
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/taskbot/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskbot", "config.yaml")
}

// defaultDBPath returns the default SQLite file location next to the
// config file.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "tasks.db")
	}
	return filepath.Join(home, ".config", "taskbot", "tasks.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Bot: BotConfig{
			PollTimeoutSec: 30,
		},
		Storage: StorageConfig{
			Path: defaultDBPath(),
		},
		Report: ReportConfig{
			Hour:     20,
			Minute:   0,
			Timezone: "UTC",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns a default
// configuration. The bot token may always be supplied via the
// TASKBOT_TOKEN environment variable instead of the file.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("bot.poll_timeout_sec", 30)
	v.SetDefault("storage.path", defaultDBPath())
	v.SetDefault("report.hour", 20)
	v.SetDefault("report.minute", 0)
	v.SetDefault("report.timezone", "UTC")
	v.SetDefault("log_level", "info")

	cfg := defaultAppConfig()

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// The environment always wins for the secret.
	if token := os.Getenv("TASKBOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}

	if cfg.Report.Hour < 0 || cfg.Report.Hour > 23 || cfg.Report.Minute < 0 || cfg.Report.Minute > 59 {
		return nil, fmt.Errorf("config %s: report time %02d:%02d out of range", path, cfg.Report.Hour, cfg.Report.Minute)
	}

	return cfg, nil
}

// Location resolves the configured report timezone.
func (c ReportConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("resolving report timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
