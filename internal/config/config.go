// Package config provides application configuration with multi-source priority.
//
// Sources, highest priority first:
//  1. Environment variables (runtime override)
//  2. Config file (~/.handbook/config.yaml, or ./config.yaml)
//  3. Default values
//
// Categories:
//   - AI: provider, model, embedder, temperature
//   - Storage: PostgreSQL connection for the handbook corpus
//   - Agent: retrieval depth, history limits, request deadline
//   - Eval: latency ceilings for the LASH latency dimension
//
// Sensitive fields (the database password) are masked in MarshalJSON.
// Validation fails fast with sentinel errors checkable via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// DefaultEmbedderModel is the default Gemini embedder.
// gemini-embedding-001 supports truncation to 768 dimensions, matching the
// vector(768) column in the documents migration.
const DefaultEmbedderModel = "gemini-embedding-001"

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; update it when adding
// passwords, API keys, or tokens.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	OllamaHost    string  `mapstructure:"ollama_host" json:"ollama_host"`

	// Agent configuration
	RetrievalTopK     int           `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	MaxHistoryLength  int           `mapstructure:"max_history_length" json:"max_history_length"`
	GraderConcurrency int           `mapstructure:"grader_concurrency" json:"grader_concurrency"`

	// Storage configuration
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateLimit   float64  `mapstructure:"rate_limit" json:"rate_limit"` // requests/second per IP; <= 0 disables
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Eval configuration: LASH latency dimension ceilings.
	// Responses under LatencyGood score 1.0; the score decays linearly to 0.5
	// at LatencyCeiling and continues to 0 beyond it.
	LatencyGood    time.Duration `mapstructure:"latency_good" json:"latency_good"`
	LatencyCeiling time.Duration `mapstructure:"latency_ceiling" json:"latency_ceiling"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".handbook")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("retrieval_top_k", 5)
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("max_history_length", 50)
	v.SetDefault("grader_concurrency", 4)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "handbook")
	v.SetDefault("postgres_password", "handbook_dev_password")
	v.SetDefault("postgres_db_name", "handbook")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("rate_burst", 60)

	v.SetDefault("latency_good", "2s")
	v.SetDefault("latency_ceiling", "5s")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via viper;
// Validate only checks its presence for the gemini provider.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "HANDBOOK_PROVIDER")
	mustBind("model_name", "HANDBOOK_MODEL_NAME")
	mustBind("embedder_model", "HANDBOOK_EMBEDDER_MODEL")
	mustBind("ollama_host", "HANDBOOK_OLLAMA_HOST")
	mustBind("listen_addr", "HANDBOOK_LISTEN_ADDR")
	mustBind("cors_origins", "HANDBOOK_CORS_ORIGINS")
	mustBind("trust_proxy", "HANDBOOK_TRUST_PROXY")
	mustBind("rate_limit", "HANDBOOK_RATE_LIMIT")
	mustBind("rate_burst", "HANDBOOK_RATE_BURST")
	mustBind("log_level", "HANDBOOK_LOG_LEVEL")
	mustBind("postgres_password", "HANDBOOK_POSTGRES_PASSWORD")
}

// parseDatabaseURL overrides PostgreSQL settings from DATABASE_URL when set.
// The URL form wins over individual fields so a single deployment variable
// can carry the whole connection.
func (c *Config) parseDatabaseURL() error {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidPostgresHost, u.Scheme)
	}

	if h := u.Hostname(); h != "" {
		c.PostgresHost = h
	}
	if p := u.Port(); p != "" {
		var port int
		if _, err := fmt.Sscanf(p, "%d", &port); err != nil {
			return fmt.Errorf("%w: port %q", ErrInvalidPostgresPort, p)
		}
		c.PostgresPort = port
	}
	if u.User != nil {
		c.PostgresUser = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.PostgresPassword = pw
		}
	}
	if db := filepath.Base(u.Path); db != "" && db != "/" && db != "." {
		c.PostgresDBName = db
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.PostgresSSLMode = mode
	}
	return nil
}

// PostgresURL returns the postgres:// connection URL, used for both the pgx
// pool and golang-migrate.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// maskedValue replaces sensitive values in serialized config.
const maskedValue = "********"

// MarshalJSON masks sensitive fields so config dumps are safe to log.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // no methods, avoids recursion
	a := alias(c)
	if a.PostgresPassword != "" {
		a.PostgresPassword = maskedValue
	}
	return json.Marshal(a)
}
