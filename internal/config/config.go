package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tplsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Model     ModelConfig     `yaml:"model"`
	Cache     CacheConfig     `yaml:"cache"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogueConfig holds the Symphony Web Services client settings.
type CatalogueConfig struct {
	BaseURL     string        `yaml:"base_url"`
	SiteURL     string        `yaml:"site_url"` // public site used for hold/catalog deep links
	TimeoutSec  int           `yaml:"timeout_sec"`
	ResultLimit int           `yaml:"result_limit"`
	UserAgent   string        `yaml:"user_agent"`
	Disabled    bool          `yaml:"disabled"` // always serve the static fallback
	Breaker     BreakerConfig `yaml:"breaker"`
	RateLimit   LimitConfig   `yaml:"rate_limit"`
}

// BreakerConfig holds circuit breaker settings for the catalogue client.
type BreakerConfig struct {
	FailureThreshold uint32 `yaml:"failure_threshold"`
	OpenTimeoutSec   int    `yaml:"open_timeout_sec"`
	HalfOpenRequests uint32 `yaml:"half_open_requests"`
}

// LimitConfig holds a token bucket budget. RPS 0 disables the limiter.
type LimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ModelConfig holds hosted language model settings.
// APIKey may be empty: recommendation requests then fail with a configuration error.
type ModelConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig holds the optional recommendation reply cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// FallbackConfig holds static fallback catalogue settings.
type FallbackConfig struct {
	Seed              uint64 `yaml:"seed"`               // availability generator seed
	ScoreDescriptions bool   `yaml:"score_descriptions"` // include descriptions in relevance scoring
}

// APIConfig holds inbound API protection settings.
type APIConfig struct {
	RateLimitRequests  int      `yaml:"rate_limit_requests"` // per IP per window, 0 = disabled
	RateLimitWindowSec int      `yaml:"rate_limit_window_sec"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and applying defaults.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalogue.BaseURL == "" {
		c.Catalogue.BaseURL = "https://catalog.torontopubliclibrary.ca"
	}
	if c.Catalogue.SiteURL == "" {
		c.Catalogue.SiteURL = "https://www.torontopubliclibrary.ca"
	}
	if c.Catalogue.TimeoutSec <= 0 {
		c.Catalogue.TimeoutSec = 8
	}
	if c.Catalogue.ResultLimit <= 0 {
		c.Catalogue.ResultLimit = 8
	}
	if c.Catalogue.UserAgent == "" {
		c.Catalogue.UserAgent = "TPL-Search-Enhanced/1.0 (Go)"
	}
	if c.Catalogue.Breaker.FailureThreshold == 0 {
		c.Catalogue.Breaker.FailureThreshold = 5
	}
	if c.Catalogue.Breaker.OpenTimeoutSec <= 0 {
		c.Catalogue.Breaker.OpenTimeoutSec = 30
	}
	if c.Catalogue.Breaker.HalfOpenRequests == 0 {
		c.Catalogue.Breaker.HalfOpenRequests = 1
	}
	if c.Catalogue.RateLimit.RPS > 0 && c.Catalogue.RateLimit.Burst <= 0 {
		c.Catalogue.RateLimit.Burst = 1
	}
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = "https://api.anthropic.com/v1/"
	}
	if c.Model.Model == "" {
		c.Model.Model = "claude-3-haiku-20240307"
	}
	if c.Model.MaxTokens <= 0 {
		c.Model.MaxTokens = 1000
	}
	if c.Model.TimeoutSec <= 0 {
		c.Model.TimeoutSec = 20
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.API.RateLimitWindowSec <= 0 {
		c.API.RateLimitWindowSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := validateURL("catalogue.base_url", c.Catalogue.BaseURL); err != nil {
		return err
	}
	if err := validateURL("catalogue.site_url", c.Catalogue.SiteURL); err != nil {
		return err
	}
	if err := validateURL("model.base_url", c.Model.BaseURL); err != nil {
		return err
	}
	if c.Catalogue.RateLimit.RPS < 0 {
		return fmt.Errorf("catalogue.rate_limit.rps must not be negative, got %v", c.Catalogue.RateLimit.RPS)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	if c.API.RateLimitRequests < 0 {
		return fmt.Errorf("api.rate_limit_requests must not be negative, got %d", c.API.RateLimitRequests)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, raw)
	}
	return nil
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
