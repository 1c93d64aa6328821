package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/appsearch/internal/domain/catalog"
	"github.com/kailas-cloud/appsearch/internal/search/analysis"
)

// Config holds the appsearch service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Listing  ListingConfig  `yaml:"listing"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the system-of-record connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds search engine settings.
type SearchConfig struct {
	URLs       []string `yaml:"urls"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	TimeoutSec int      `yaml:"timeout_sec"` // 0 = no deadline beyond the request's
	Sniff      bool     `yaml:"sniff"`
	UsePlugins bool     `yaml:"use_plugins"`
	// Indexes maps entity types to index names.
	Indexes          map[string]string `yaml:"indexes"`
	Shards           int               `yaml:"shards"`
	Replicas         int               `yaml:"replicas"`
	ReindexBatchSize int               `yaml:"reindex_batch_size"`
	ReindexWorkers   int               `yaml:"reindex_workers"`
}

// AnalysisConfig holds the locale analyzer table.
type AnalysisConfig struct {
	// Analyzers maps engine analyzers to the locales they index.
	Analyzers map[string][]string `yaml:"analyzers"`
	// Plugins lists analyzers that need an engine plugin.
	Plugins []string `yaml:"plugins"`
}

// ListingConfig holds listing defaults.
type ListingConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	// AppID is the client application listings are scoped to by default.
	AppID int `yaml:"app_id"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.Indexes == nil {
		c.Search.Indexes = map[string]string{}
	}
	if c.Search.Indexes[catalog.EntityWebapp] == "" {
		c.Search.Indexes[catalog.EntityWebapp] = "apps"
	}
	if c.Search.Indexes[catalog.EntityCollection] == "" {
		c.Search.Indexes[catalog.EntityCollection] = "collections"
	}
	if c.Search.Shards <= 0 {
		c.Search.Shards = 1
	}
	if c.Search.Replicas < 0 {
		c.Search.Replicas = 0
	}
	if c.Search.ReindexBatchSize <= 0 {
		c.Search.ReindexBatchSize = 100
	}
	if c.Search.ReindexWorkers <= 0 {
		c.Search.ReindexWorkers = 4
	}
	if len(c.Analysis.Analyzers) == 0 {
		c.Analysis.Analyzers = analysis.DefaultAnalyzers()
	}
	if c.Analysis.Plugins == nil {
		c.Analysis.Plugins = analysis.DefaultPlugins()
	}
	if c.Listing.DefaultPageSize <= 0 {
		c.Listing.DefaultPageSize = 20
	}
	if c.Listing.MaxPageSize <= 0 {
		c.Listing.MaxPageSize = 100
	}
	if c.Listing.AppID == 0 {
		c.Listing.AppID = 1
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "appsearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if len(c.Search.URLs) == 0 {
		return fmt.Errorf("search.urls is required")
	}
	if c.Search.TimeoutSec < 0 {
		return fmt.Errorf("search.timeout_sec must not be negative, got %d", c.Search.TimeoutSec)
	}
	if c.Listing.DefaultPageSize > c.Listing.MaxPageSize {
		return fmt.Errorf(
			"listing.default_page_size (%d) must not exceed listing.max_page_size (%d)",
			c.Listing.DefaultPageSize, c.Listing.MaxPageSize,
		)
	}
	for name, locales := range c.Analysis.Analyzers {
		if len(locales) == 0 {
			return fmt.Errorf("analysis.analyzers.%s must list at least one locale", name)
		}
	}
	return nil
}

// AnalysisTable resolves the analyzer table for the configured plugin mode.
func (c *Config) AnalysisTable() *analysis.Table {
	return analysis.NewTable(analysis.Config{
		Analyzers:  c.Analysis.Analyzers,
		Plugins:    c.Analysis.Plugins,
		UsePlugins: c.Search.UsePlugins,
	})
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
