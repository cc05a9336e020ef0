package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Webhook WebhookConfig
	LLM     LLMConfig `mapstructure:"llm"`
	Shopify ShopifyConfig
	Session SessionConfig
	Cache   CacheConfig
	Search  SearchConfig
	Widget  WidgetConfig
	Prompts PromptsConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicURL      string   `mapstructure:"public_url"`
}

// WebhookConfig holds the upstream chat webhook configuration
type WebhookConfig struct {
	URL        string        `mapstructure:"url"`
	AuthHeader string        `mapstructure:"auth_header"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // "ollama", "openai" or "none"
	BaseURL     string        `mapstructure:"base_url"` // empty uses the provider default
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ShopifyConfig holds storefront API configuration
type ShopifyConfig struct {
	StoreDomain     string        `mapstructure:"store_domain"`
	StorefrontToken string        `mapstructure:"storefront_token"`
	APIVersion      string        `mapstructure:"api_version"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second
}

// SessionConfig bounds ephemeral chat sessions
type SessionConfig struct {
	HistoryLimit int           `mapstructure:"history_limit"`
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SearchConfig tunes the product search pipeline
type SearchConfig struct {
	MaxResults   int  `mapstructure:"max_results"`
	Candidates   int  `mapstructure:"candidates"`
	EnableRerank bool `mapstructure:"enable_rerank"`
}

// WidgetConfig is served to the embedded widget at load time
type WidgetConfig struct {
	Theme          string `mapstructure:"theme"`
	Position       string `mapstructure:"position"`
	AutoOpen       bool   `mapstructure:"auto_open"`
	WelcomeMessage string `mapstructure:"welcome_message"`
	PrimaryColor   string `mapstructure:"primary_color"`
	SecondaryColor string `mapstructure:"secondary_color"`
	StyleFile      string `mapstructure:"style_file"`
}

// PromptsConfig points at optional prompt overrides
type PromptsConfig struct {
	ExamplesFile string `mapstructure:"examples_file"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
	File   string `mapstructure:"file"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopchat/")

	// SHOPCHAT_WEBHOOK_URL maps to webhook.url
	v.SetEnvPrefix("SHOPCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without
// overriding variables that are already set.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "https://*.myshopify.com"})
	v.SetDefault("server.public_url", "http://localhost:3000")

	// Webhook defaults
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.auth_header", "")
	v.SetDefault("webhook.username", "")
	v.SetDefault("webhook.password", "")
	v.SetDefault("webhook.timeout", "20s")

	// LLM defaults
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "llama3.1:latest")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", "20s")

	// Shopify defaults
	v.SetDefault("shopify.store_domain", "")
	v.SetDefault("shopify.storefront_token", "")
	v.SetDefault("shopify.api_version", "2024-10")
	v.SetDefault("shopify.timeout", "20s")
	v.SetDefault("shopify.rate_limit", 2.0)

	// Session defaults
	v.SetDefault("session.history_limit", 50)
	v.SetDefault("session.idle_ttl", "2h")

	// Cache defaults
	v.SetDefault("cache.ttl", "10m")

	// Search defaults
	v.SetDefault("search.max_results", 8)
	v.SetDefault("search.candidates", 100)
	v.SetDefault("search.enable_rerank", false)

	// Widget defaults
	v.SetDefault("widget.theme", "modern")
	v.SetDefault("widget.position", "bottom-right")
	v.SetDefault("widget.auto_open", false)
	v.SetDefault("widget.welcome_message", "Hi! I'm your AI assistant. How can I help you today?")
	v.SetDefault("widget.primary_color", "#667eea")
	v.SetDefault("widget.secondary_color", "#764ba2")
	v.SetDefault("widget.style_file", "")

	v.SetDefault("prompts.examples_file", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Webhook.URL == "" {
		return fmt.Errorf("webhook URL is required (set SHOPCHAT_WEBHOOK_URL)")
	}

	switch config.LLM.Provider {
	case "ollama", "none":
	case "openai":
		if config.LLM.APIKey == "" {
			return fmt.Errorf("LLM API key is required when provider is 'openai'")
		}
	default:
		return fmt.Errorf("LLM provider must be 'ollama', 'openai' or 'none', got: %s", config.LLM.Provider)
	}

	if config.Session.HistoryLimit <= 0 {
		return fmt.Errorf("session history limit must be positive, got: %d", config.Session.HistoryLimit)
	}

	if config.Search.MaxResults <= 0 {
		return fmt.Errorf("search max results must be positive, got: %d", config.Search.MaxResults)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got: %s", config.Logging.Format)
	}

	return nil
}
