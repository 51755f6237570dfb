// Package config handles configuration loading for quarterlens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"   json:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"  yaml:"scraper"  json:"scraper"`
	Index    IndexConfig    `mapstructure:"index"    yaml:"index"    json:"index"`
	Calendar CalendarConfig `mapstructure:"calendar" yaml:"calendar" json:"calendar"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"     json:"news"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"  json:"logging"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// ScraperConfig holds quarterly-results scraper settings.
type ScraperConfig struct {
	BaseURL        string `mapstructure:"base_url"        yaml:"base_url"        json:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	BatchDelayMs   int    `mapstructure:"batch_delay_ms"  yaml:"batch_delay_ms"  json:"batch_delay_ms"`
	MaxQuarters    int    `mapstructure:"max_quarters"    yaml:"max_quarters"    json:"max_quarters"`
	CacheTTL       int    `mapstructure:"cache_ttl"       yaml:"cache_ttl"       json:"cache_ttl"` // seconds
}

// IndexConfig holds symbol-index settings.
type IndexConfig struct {
	EquityListURL  string `mapstructure:"equity_list_url" yaml:"equity_list_url" json:"equity_list_url"`
	HomeURL        string `mapstructure:"home_url"        yaml:"home_url"        json:"home_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	BatchSize      int    `mapstructure:"batch_size"      yaml:"batch_size"      json:"batch_size"`
}

// CalendarConfig holds forthcoming-results calendar settings.
type CalendarConfig struct {
	URL            string   `mapstructure:"url"             yaml:"url"             json:"url"`
	AllowedDomains []string `mapstructure:"allowed_domains" yaml:"allowed_domains" json:"allowed_domains"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	CacheTTL       int      `mapstructure:"cache_ttl"       yaml:"cache_ttl"       json:"cache_ttl"` // seconds
}

// NewsSourceConfig is one RSS feed entry.
type NewsSourceConfig struct {
	Name   string `mapstructure:"name"    yaml:"name"    json:"name"`
	RSSURL string `mapstructure:"rss_url" yaml:"rss_url" json:"rss_url"`
}

// NewsConfig holds news aggregation settings. An empty Sources list means
// the built-in Indian financial feeds.
type NewsConfig struct {
	Sources        []NewsSourceConfig `mapstructure:"sources"         yaml:"sources"         json:"sources"`
	TimeoutSeconds int                `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	CacheTTL       int                `mapstructure:"cache_ttl"       yaml:"cache_ttl"       json:"cache_ttl"` // seconds
	DefaultLimit   int                `mapstructure:"default_limit"   yaml:"default_limit"   json:"default_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"    yaml:"level"    json:"level"`    // "debug", "info", "warn", "error"
	Format   string `mapstructure:"format"   yaml:"format"   json:"format"`   // "text" or "json"
	Detailed bool   `mapstructure:"detailed" yaml:"detailed" json:"detailed"` // include caller source in logs
	Tracing  bool   `mapstructure:"tracing"  yaml:"tracing"  json:"tracing"`  // emit OpenTelemetry stdout traces
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config.yaml (working directory)
//  2. ./config/config.yaml
//  3. ~/.quarterlens/config.yaml
//  4. /etc/quarterlens/config.yaml
//
// Environment variables override config file values.
// Format: QUARTERLENS_<SECTION>_<KEY>, e.g., QUARTERLENS_SERVER_PORT
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".quarterlens"))
	v.AddConfigPath("/etc/quarterlens")

	v.SetEnvPrefix("QUARTERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults + env vars
	}
	configFileUsed = v.ConfigFileUsed()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("QUARTERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	configFileUsed = path

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// configFileUsed is set by Load/LoadFromFile; startup-only, no locking.
var configFileUsed string

// ConfigFilePath returns the file the running configuration was read from,
// or "" when only defaults and environment variables applied.
func ConfigFilePath() string {
	return configFileUsed
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Scraper defaults
	v.SetDefault("scraper.base_url", "https://www.screener.in")
	v.SetDefault("scraper.timeout_seconds", 10)
	v.SetDefault("scraper.batch_delay_ms", 1500)
	v.SetDefault("scraper.max_quarters", 8)
	v.SetDefault("scraper.cache_ttl", 1800) // 30 minutes

	// Index defaults
	v.SetDefault("index.equity_list_url", "https://nsearchives.nseindia.com/content/equities/EQUITY_L.csv")
	v.SetDefault("index.home_url", "https://www.nseindia.com")
	v.SetDefault("index.timeout_seconds", 30)
	v.SetDefault("index.batch_size", 500)

	// Calendar defaults
	v.SetDefault("calendar.url", "https://www.bseindia.com/corporates/Forth_Results.aspx")
	v.SetDefault("calendar.timeout_seconds", 20)
	v.SetDefault("calendar.cache_ttl", 3600) // 1 hour

	// News defaults
	v.SetDefault("news.timeout_seconds", 15)
	v.SetDefault("news.cache_ttl", 600) // 10 minutes
	v.SetDefault("news.default_limit", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.detailed", false)
	v.SetDefault("logging.tracing", false)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
