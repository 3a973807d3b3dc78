// Package config provides configuration management for the research report service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Authentication modes.
const (
	// AuthModeJWT verifies HMAC-signed bearer tokens locally.
	AuthModeJWT = "jwt"
	// AuthModeRemote resolves bearer tokens against the identity provider's user endpoint.
	AuthModeRemote = "remote"
)

// envPrefix is the prefix for every environment variable read by Load.
const envPrefix = "REPORTSVC"

// Config holds all configuration for the research report service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LLM contains completion provider settings.
	LLM LLMConfig `mapstructure:"llm"`
	// PaperSources contains paper search API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// Auth contains bearer token verification settings.
	Auth AuthConfig `mapstructure:"auth"`
	// Pipeline contains report and search pipeline tuning.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind to.
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	// Report generation waits on several completions, so this is generous.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is a directory of migration files. Empty uses the migrations embedded in the binary.
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// LLMConfig holds completion client configuration.
type LLMConfig struct {
	// Provider is the completion provider (openai, anthropic).
	Provider string `mapstructure:"provider"`
	// Timeout bounds a single completion call.
	Timeout time.Duration `mapstructure:"timeout"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (loaded from REPORTSVC_LLM_OPENAI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the OpenAI model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the OpenAI API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key (loaded from REPORTSVC_LLM_ANTHROPIC_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the Anthropic model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the Anthropic API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// PaperSourcesConfig holds configuration for the paper search APIs.
type PaperSourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv PaperSourceConfig `mapstructure:"arxiv"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds a single search call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	// Mode selects the identity provider (jwt, remote).
	Mode string `mapstructure:"mode"`
	// Timeout bounds a single identity lookup in remote mode.
	Timeout time.Duration `mapstructure:"timeout"`
	// JWT contains local token verification settings.
	JWT JWTConfig `mapstructure:"jwt"`
	// Remote contains identity provider endpoint settings.
	Remote RemoteAuthConfig `mapstructure:"remote"`
}

// JWTConfig holds HMAC token verification settings.
type JWTConfig struct {
	// Secret is the HMAC signing secret (loaded from REPORTSVC_AUTH_JWT_SECRET env var).
	Secret string `mapstructure:"-"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `mapstructure:"issuer"`
	// Audience, when set, must be present in the token's aud claim.
	Audience string `mapstructure:"audience"`
	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration `mapstructure:"leeway"`
}

// RemoteAuthConfig holds identity provider endpoint settings.
type RemoteAuthConfig struct {
	// BaseURL is the identity provider's base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the project key sent with every lookup (loaded from REPORTSVC_AUTH_REMOTE_API_KEY env var).
	APIKey string `mapstructure:"-"`
}

// PipelineConfig holds pipeline tuning.
type PipelineConfig struct {
	// ReportMaxResults is the number of papers fetched for a report.
	ReportMaxResults int `mapstructure:"report_max_results"`
	// SearchMaxResults is the number of papers fetched for a plain search.
	SearchMaxResults int `mapstructure:"search_max_results"`
	// MaxConcurrency caps concurrent per-paper completions. Zero means unbounded.
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase loads the full configuration but only validates the database
// section. It serves tools that never start the API, such as the migrator.
func LoadDatabase() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/research-report-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" and never come from config files.
	loadSecrets(&cfg)

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = os.Getenv(envPrefix + "_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv(envPrefix + "_LLM_ANTHROPIC_API_KEY")
	cfg.Auth.JWT.Secret = os.Getenv(envPrefix + "_AUTH_JWT_SECRET")
	cfg.Auth.Remote.APIKey = os.Getenv(envPrefix + "_AUTH_REMOTE_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "reports")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "research_reports")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "research_report")

	// LLM defaults. API keys are loaded from the environment (see loadSecrets).
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")

	// Paper sources defaults - arXiv
	v.SetDefault("paper_sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("paper_sources.arxiv.timeout", "30s")

	// Auth defaults
	v.SetDefault("auth.mode", AuthModeJWT)
	v.SetDefault("auth.timeout", "10s")
	v.SetDefault("auth.jwt.issuer", "")
	v.SetDefault("auth.jwt.audience", "authenticated")
	v.SetDefault("auth.jwt.leeway", "30s")
	v.SetDefault("auth.remote.base_url", "")

	// Pipeline defaults
	v.SetDefault("pipeline.report_max_results", 5)
	v.SetDefault("pipeline.search_max_results", 10)
	v.SetDefault("pipeline.max_concurrency", 0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_OPENAI_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires %s_LLM_ANTHROPIC_API_KEY to be set", c.LLM.Provider, envPrefix)
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLM.Provider)
	}

	switch strings.ToLower(c.Auth.Mode) {
	case AuthModeJWT:
		if c.Auth.JWT.Secret == "" {
			return fmt.Errorf("auth mode %q requires %s_AUTH_JWT_SECRET to be set", c.Auth.Mode, envPrefix)
		}
	case AuthModeRemote:
		if c.Auth.Remote.BaseURL == "" {
			return fmt.Errorf("auth mode %q requires auth.remote.base_url", c.Auth.Mode)
		}
	default:
		return fmt.Errorf("unsupported auth mode: %q", c.Auth.Mode)
	}

	if c.Pipeline.ReportMaxResults <= 0 {
		return fmt.Errorf("pipeline report_max_results must be positive")
	}
	if c.Pipeline.SearchMaxResults <= 0 {
		return fmt.Errorf("pipeline search_max_results must be positive")
	}
	if c.Pipeline.MaxConcurrency < 0 {
		return fmt.Errorf("pipeline max_concurrency must not be negative")
	}

	return nil
}

// Validate checks the database connection settings.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.MaxConns < c.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.MaxConns, c.MinConns)
	}
	return nil
}
