package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"`
	APIPrefix   string `json:"api_prefix" yaml:"api_prefix"`
	LogLevel    string `json:"log_level" yaml:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	// Auth
	EnableAuth    bool   `json:"enable_auth" yaml:"enable_auth"`
	APIKeyHeader  string `json:"api_key_header" yaml:"api_key_header"`
	DevUserEmail  string `json:"dev_user_email" yaml:"dev_user_email"`     // caller identity when auth is off
	DevUserAPIKey string `json:"dev_user_api_key" yaml:"dev_user_api_key"` // key given to the seeded dev user

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// Store
	StoreDriver string `json:"store_driver" yaml:"store_driver"` // "postgres" | "memory"
	DatabaseURL string `json:"database_url" yaml:"database_url"`
	AutoMigrate bool   `json:"auto_migrate" yaml:"auto_migrate"`

	// AI / LLM
	LLMProvider           string `json:"llm_provider" yaml:"llm_provider"` // "openai" | "anthropic"
	LLMAPIKey             string `json:"llm_api_key" yaml:"llm_api_key"`
	LLMBaseURL            string `json:"llm_base_url" yaml:"llm_base_url"`
	LLMModel              string `json:"llm_model" yaml:"llm_model"`
	AgentTimeout          int    `json:"agent_timeout" yaml:"agent_timeout"` // seconds
	AgentMaxParallelTools int    `json:"agent_max_parallel_tools" yaml:"agent_max_parallel_tools"`

	// Security
	EnablePromptValidation bool     `json:"enable_prompt_validation" yaml:"enable_prompt_validation"`
	EnablePIIDetection     bool     `json:"enable_pii_detection" yaml:"enable_pii_detection"`
	PIIKeywords            []string `json:"pii_keywords" yaml:"pii_keywords"`
	EnableAuditLogging     bool     `json:"enable_audit_logging" yaml:"enable_audit_logging"`
	MaxPromptLength        int      `json:"max_prompt_length" yaml:"max_prompt_length"`
	TokenBudgetPerUser     int64    `json:"token_budget_per_user" yaml:"token_budget_per_user"` // 0 = unlimited
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                   DefaultHost,
		Port:                   DefaultPort,
		Environment:            DefaultEnvironment,
		APIPrefix:              DefaultAPIPrefix,
		LogLevel:               DefaultLogLevel,
		CORSOrigins:            DefaultCORSOrigins,
		EnableAuth:             true,
		APIKeyHeader:           "X-API-Key",
		DevUserEmail:           DefaultDevUserEmail,
		RateLimitPerMinute:     DefaultRateLimitPerMinute,
		StoreDriver:            DefaultStoreDriver,
		DatabaseURL:            DefaultDatabaseURL,
		LLMProvider:            DefaultLLMProvider,
		AgentTimeout:           DefaultAgentTimeout,
		AgentMaxParallelTools:  DefaultMaxParallelTool,
		EnablePromptValidation: true,
		EnablePIIDetection:     true,
		PIIKeywords:            DefaultPIIKeywords,
		EnableAuditLogging:     true,
		MaxPromptLength:        DefaultMaxPromptLength,
	}

	// Load from config file if specified
	if path := getEnv("STOCKWISE_CONFIG", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown store_driver %q", c.StoreDriver)
	}
	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown llm_provider %q", c.LLMProvider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("config: agent_timeout must be positive")
	}
	if c.AgentMaxParallelTools <= 0 {
		c.AgentMaxParallelTools = 1
	}
	return nil
}

// Model returns the configured model or the provider default.
func (c *Config) Model() string {
	if c.LLMModel != "" {
		return c.LLMModel
	}
	if c.LLMProvider == "anthropic" {
		return DefaultAnthropicModel
	}
	return DefaultOpenAIModel
}

// AgentTimeoutDuration is the request-level deadline of one chat turn.
func (c *Config) AgentTimeoutDuration() time.Duration {
	return time.Duration(c.AgentTimeout) * time.Second
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("STOCKWISE_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("STOCKWISE_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("STOCKWISE_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("STOCKWISE_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("STOCKWISE_CORS_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("DEV_USER_EMAIL", ""); v != "" {
		cfg.DevUserEmail = v
	}
	if v := getEnv("DEV_USER_API_KEY", ""); v != "" {
		cfg.DevUserAPIKey = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("STORE_DRIVER", ""); v != "" {
		cfg.StoreDriver = v
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getEnv("AUTO_MIGRATE", ""); v != "" {
		cfg.AutoMigrate = v == "true" || v == "1"
	}
	if v := getEnv("LLM_PROVIDER", ""); v != "" {
		cfg.LLMProvider = v
	}
	// Provider-specific keys, the generic one wins
	if cfg.LLMProvider == "anthropic" {
		if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
			cfg.LLMAPIKey = v
		}
		if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
			cfg.LLMBaseURL = v
		}
	} else if v := getEnv("GROQ_API_KEY", ""); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := getEnv("LLM_API_KEY", ""); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := getEnv("LLM_BASE_URL", ""); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := getEnv("LLM_MODEL", ""); v != "" {
		cfg.LLMModel = v
	}
	if v := getEnv("AGENT_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.AgentTimeout = t
		}
	}
	if v := getEnv("MAX_PROMPT_LENGTH", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxPromptLength = n
		}
	}
	if v := getEnv("TOKEN_BUDGET_PER_USER", ""); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TokenBudgetPerUser = n
		}
	}
}

// Development reports whether the server runs in the development environment.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
