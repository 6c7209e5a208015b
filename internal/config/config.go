package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	GitHub  GitHubConfig  `yaml:"github"`
	Marketo MarketoConfig `yaml:"marketo"`
	Builds  BuildsConfig  `yaml:"builds"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener and the publisher session.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SecretKey       string        `yaml:"secret_key"`
	SessionCookie   string        `yaml:"session_cookie"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	LoginURL        string        `yaml:"login_url"`
	AgreementURL    string        `yaml:"agreement_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig points at the snap store dashboard API.
type StoreConfig struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// GitHubConfig points at the GitHub REST API.
type GitHubConfig struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MarketoConfig holds CRM credentials. Empty credentials fall back to
// MARKETO_CLIENT_ID and MARKETO_CLIENT_SECRET.
type MarketoConfig struct {
	BaseURL           string        `yaml:"base_url"`
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

// BuildsConfig holds settings for the build status pages.
type BuildsConfig struct {
	BSIURL string `yaml:"bsi_url"`
}

// RetryConfig controls retries of idempotent upstream requests.
type RetryConfig struct {
	Mode       string        `yaml:"mode"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries *int          `yaml:"max_retries"`
}

// Retries returns the configured retry count.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return 0
	}
	return *r.MaxRetries
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from configPath. A .env file in the working
// directory is loaded first without overriding the process environment, and
// ${VAR} references in the YAML are expanded before parsing.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	setString(&c.Server.Addr, ":8004")
	setString(&c.Server.SessionCookie, "snapfront_session")
	setString(&c.Server.LoginURL, "/login")
	setString(&c.Server.AgreementURL, "/account/agreement")
	setDuration(&c.Server.SessionTTL, 24*time.Hour)
	setDuration(&c.Server.ReadTimeout, 15*time.Second)
	setDuration(&c.Server.WriteTimeout, 30*time.Second)
	setDuration(&c.Server.ShutdownTimeout, 10*time.Second)

	setString(&c.Store.APIURL, "https://dashboard.snapcraft.io")
	setDuration(&c.Store.Timeout, 10*time.Second)

	setString(&c.GitHub.APIURL, "https://api.github.com")
	setDuration(&c.GitHub.Timeout, 10*time.Second)

	setString(&c.Marketo.BaseURL, "https://066-eov-335.mktorest.com")
	setString(&c.Marketo.ClientID, os.Getenv("MARKETO_CLIENT_ID"))
	setString(&c.Marketo.ClientSecret, os.Getenv("MARKETO_CLIENT_SECRET"))
	if c.Marketo.RequestsPerSecond <= 0 {
		c.Marketo.RequestsPerSecond = 5
	}
	if c.Marketo.Burst <= 0 {
		c.Marketo.Burst = 10
	}
	setDuration(&c.Marketo.Timeout, 10*time.Second)

	setString(&c.Builds.BSIURL, "https://build.snapcraft.io")

	setString(&c.Retry.Mode, string(RetryBackoffExponential))
	setDuration(&c.Retry.Initial, 200*time.Millisecond)
	setDuration(&c.Retry.Max, 2*time.Second)
	if c.Retry.MaxRetries == nil {
		n := 2
		c.Retry.MaxRetries = &n
	}

	setString(&c.Logging.Level, string(LogLevelInfo))
	setString(&c.Logging.Format, string(LogFormatText))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.SecretKey == "" {
		return errors.ConfigError("server.secret_key is required").Build()
	}
	if len(c.Server.SecretKey) < 16 {
		return errors.ConfigError("server.secret_key must be at least 16 bytes").Build()
	}
	if NormalizeRetryBackoff(c.Retry.Mode) == "" {
		return invalidValue("retry.mode", c.Retry.Mode)
	}
	if c.Retry.Retries() < 0 {
		return errors.ConfigError("retry.max_retries cannot be negative").Build()
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := ParseLogFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

func invalidValue(field, value string) error {
	return errors.ConfigError(fmt.Sprintf("invalid value for %s", field)).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst <= 0 {
		*dst = def
	}
}
