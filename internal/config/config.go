package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned by RequireAPIKey when no credentials are set
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Config holds all application configuration
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Context   ContextConfig   `mapstructure:"context"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=gemini ollama"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"min=1s"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

// ProxyConfig mirrors the HTTP_PROXY / HTTPS_PROXY environment variables
type ProxyConfig struct {
	HTTP  string `mapstructure:"http"`
	HTTPS string `mapstructure:"https"`
}

// Empty reports whether no proxy is configured
func (c ProxyConfig) Empty() bool {
	return c.HTTP == "" && c.HTTPS == ""
}

// Apply exports the proxy settings to the process environment. Both the
// gRPC transport used by the Gemini SDK and net/http read them from there.
func (c ProxyConfig) Apply() error {
	if c.HTTP != "" {
		if err := os.Setenv("HTTP_PROXY", c.HTTP); err != nil {
			return fmt.Errorf("failed to set HTTP_PROXY: %w", err)
		}
	}
	if c.HTTPS != "" {
		if err := os.Setenv("HTTPS_PROXY", c.HTTPS); err != nil {
			return fmt.Errorf("failed to set HTTPS_PROXY: %w", err)
		}
	}
	return nil
}

type StorageConfig struct {
	Driver  string `mapstructure:"driver" validate:"oneof=file sqlite"`
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// SessionsDir is the directory holding one JSON record per session
func (c StorageConfig) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// SQLitePath is the database file used by the sqlite driver
func (c StorageConfig) SQLitePath() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

// ContextConfig bounds the context window prepended to prompts
type ContextConfig struct {
	Window       int `mapstructure:"window" validate:"min=1"`
	RenderedTurn int `mapstructure:"rendered_turns" validate:"min=1"`
	TurnChars    int `mapstructure:"turn_chars" validate:"min=1"`
	HistorySize  int `mapstructure:"history_size" validate:"min=1"`
}

// SummaryConfig controls periodic summarization
type SummaryConfig struct {
	Interval    int `mapstructure:"interval" validate:"min=1"`
	MinMessages int `mapstructure:"min_messages" validate:"min=1"`
	Window      int `mapstructure:"window" validate:"min=1"`
	TurnChars   int `mapstructure:"turn_chars" validate:"min=1"`
	MaxChars    int `mapstructure:"max_chars" validate:"min=1"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" validate:"min=1"`
	Burst             int  `mapstructure:"burst" validate:"min=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	File   string `mapstructure:"file"`
}

// RequireAPIKey fails when the active provider needs credentials that are missing
func (c *Config) RequireAPIKey() error {
	if c.LLM.Provider == "gemini" && c.LLM.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("GEMINI_CONFIG")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Default returns the configuration produced when neither file nor env is set
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// LLM
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.gemini.model", "gemini-pro")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.default_model", "llama3")

	// Storage
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.data_dir", ".gemini_data")

	// Context window
	v.SetDefault("context.window", 5)
	v.SetDefault("context.rendered_turns", 3)
	v.SetDefault("context.turn_chars", 100)
	v.SetDefault("context.history_size", 10)

	// Summarization
	v.SetDefault("summary.interval", 10)
	v.SetDefault("summary.min_messages", 5)
	v.SetDefault("summary.window", 10)
	v.SetDefault("summary.turn_chars", 200)
	v.SetDefault("summary.max_chars", 100)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Rate limit
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
}

func bindEnvVars(v *viper.Viper) {
	// LLM
	v.BindEnv("llm.provider", "GEMINI_PROVIDER")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.gemini.model", "GEMINI_MODEL")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Proxy
	v.BindEnv("proxy.http", "HTTP_PROXY")
	v.BindEnv("proxy.https", "HTTPS_PROXY")

	// Storage
	v.BindEnv("storage.data_dir", "GEMINI_DATA_DIR")
	v.BindEnv("storage.driver", "GEMINI_STORAGE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.file", "LOG_FILE")
}
