package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	openaiEmbedder "github.com/fragent/fragent-go/pkg/embedder/openai"
	"github.com/fragent/fragent-go/pkg/intelligence"
	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/log"
)

// Config contains the complete configuration for a fragent client.
//
// It includes settings for:
//   - Relational storage (sqlite, postgres, oceanbase)
//   - LLM providers and their fallback credentials
//   - Embedding provider (optional)
//   - Retrieval limits and memory lifecycle thresholds
//
// Example:
//
//	config := core.DefaultConfig()
//	config.Database = core.DatabaseConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path": "./fragent.db",
//	    },
//	}
//	config.LLM.DefaultProvider = "openai"
type Config struct {
	// Database contains relational storage configuration.
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// LLM contains provider selection and credential fallbacks.
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// Embedder contains embedding provider configuration (optional).
	// When nil, context is ranked by recency and priority only.
	Embedder *EmbedderConfig `json:"embedder,omitempty" mapstructure:"embedder"`

	// Retrieval contains default context assembly limits.
	Retrieval RetrievalConfig `json:"retrieval" mapstructure:"retrieval"`

	// Lifecycle contains memory retention thresholds.
	Lifecycle LifecycleConfig `json:"lifecycle" mapstructure:"lifecycle"`

	// Log contains logger configuration.
	Log log.Config `json:"log" mapstructure:"log"`

	// Metrics toggles Prometheus instrumentation.
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// DatabaseConfig contains configuration for the relational store.
//
// Supported providers: sqlite, postgres, oceanbase (alias mysql)
type DatabaseConfig struct {
	// Provider is the storage backend name.
	Provider string `json:"provider" mapstructure:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, busy_timeout_ms
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	// For OceanBase: host, port, user, password, db_name
	Config map[string]interface{} `json:"config" mapstructure:"config"`
}

// ProviderConfig holds fallback credentials for one LLM provider. Values
// stored in the provider_<name> setting take precedence.
type ProviderConfig struct {
	APIKey       string `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL      string `json:"base_url,omitempty" mapstructure:"base_url"`
	DefaultModel string `json:"default_model,omitempty" mapstructure:"default_model"`
}

// LLMConfig contains configuration for LLM provider resolution.
//
// Supported providers: openai, openrouter, ollama, custom
type LLMConfig struct {
	// DefaultProvider is used when neither the agent nor the
	// default_provider setting names one.
	DefaultProvider string `json:"default_provider" mapstructure:"default_provider"`

	// Timeout bounds each provider call. Defaults to 60s.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// SettingsCacheTTL is how long resolved provider settings are cached.
	SettingsCacheTTL time.Duration `json:"settings_cache_ttl" mapstructure:"settings_cache_ttl"`

	// Providers maps provider names to fallback credentials.
	Providers map[string]ProviderConfig `json:"providers" mapstructure:"providers"`

	// Referer and AppTitle are sent to OpenRouter as attribution headers.
	Referer  string `json:"referer,omitempty" mapstructure:"referer"`
	AppTitle string `json:"app_title,omitempty" mapstructure:"app_title"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai
type EmbedderConfig struct {
	Provider   string `json:"provider" mapstructure:"provider"`
	APIKey     string `json:"api_key" mapstructure:"api_key"`
	Model      string `json:"model" mapstructure:"model"`
	BaseURL    string `json:"base_url,omitempty" mapstructure:"base_url"`
	Dimensions int    `json:"dimensions,omitempty" mapstructure:"dimensions"`
}

// RetrievalConfig contains default limits for BuildAgentContext.
type RetrievalConfig struct {
	MemoryLimit    int `json:"memory_limit" mapstructure:"memory_limit"`
	KnowledgeLimit int `json:"knowledge_limit" mapstructure:"knowledge_limit"`
}

// LifecycleConfig contains memory retention configuration.
type LifecycleConfig struct {
	// DefaultMemoryType is assigned to memories created without an explicit type.
	DefaultMemoryType string `json:"default_memory_type" mapstructure:"default_memory_type"`

	// TemporaryMaxAgeDays is the sweeper threshold for temporary memories.
	TemporaryMaxAgeDays int `json:"temporary_max_age_days" mapstructure:"temporary_max_age_days"`

	// ExecutionMaxAgeHours is the sweeper threshold for execution memories.
	ExecutionMaxAgeHours int `json:"execution_max_age_hours" mapstructure:"execution_max_age_hours"`

	// SweepInterval enables RunRetentionSweeper when positive.
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// DefaultConfig returns a configuration with every default filled in and a
// SQLite database at ./fragent.db.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Provider: "sqlite",
			Config: map[string]interface{}{
				"db_path": "./fragent.db",
			},
		},
		LLM: LLMConfig{
			DefaultProvider:  string(llm.ProviderCustom),
			Timeout:          60 * time.Second,
			SettingsCacheTTL: 30 * time.Second,
			Providers: map[string]ProviderConfig{
				string(llm.ProviderOpenAI): {
					BaseURL:      "https://api.openai.com/v1",
					DefaultModel: "gpt-4",
				},
				string(llm.ProviderOllama): {
					BaseURL:      "http://localhost:11434",
					DefaultModel: "llama3",
				},
				string(llm.ProviderOpenRouter): {
					BaseURL:      "https://openrouter.ai/api/v1",
					DefaultModel: "anthropic/claude-3-opus",
				},
				string(llm.ProviderCustom): {
					BaseURL:      "https://llm.chutes.ai/v1",
					DefaultModel: "RekaAI/reka-flash-3",
				},
			},
			Referer:  "https://fra-gent.ai",
			AppTitle: "Fra-Gent",
		},
		Retrieval: RetrievalConfig{
			MemoryLimit:    10,
			KnowledgeLimit: 5,
		},
		Lifecycle: LifecycleConfig{
			DefaultMemoryType:    intelligence.MemoryTypePermanent,
			TemporaryMaxAgeDays:  7,
			ExecutionMaxAgeHours: 24,
		},
		Log: log.Config{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Overlays environment variables onto DefaultConfig
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, oceanbase)
//   - SQLITE_PATH, SQLITE_BUSY_TIMEOUT_MS
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD, OCEANBASE_DATABASE
//   - DEFAULT_PROVIDER, LLM_TIMEOUT
//   - OPENAI_API_KEY, OPENAI_API_BASE, OPENAI_DEFAULT_MODEL (and the OLLAMA_, OPENROUTER_, CUSTOM_ variants)
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL, EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - MEMORY_LIMIT, KNOWLEDGE_LIMIT
//   - DEFAULT_MEMORY_TYPE, TEMPORARY_MAX_AGE_DAYS, EXECUTION_MAX_AGE_HOURS, RETENTION_SWEEP_INTERVAL
//   - LOG_LEVEL, LOG_FORMAT, LOG_FILE, METRICS_ENABLED
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	config := DefaultConfig()

	config.Database.Provider = getEnvOrDefault("DATABASE_PROVIDER", config.Database.Provider)
	switch config.Database.Provider {
	case "sqlite":
		config.Database.Config = map[string]interface{}{
			"db_path":         getEnvOrDefault("SQLITE_PATH", "./fragent.db"),
			"busy_timeout_ms": getEnvInt("SQLITE_BUSY_TIMEOUT_MS", 5000),
		}
	case "postgres":
		config.Database.Config = map[string]interface{}{
			"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":     getEnvInt("POSTGRES_PORT", 5432),
			"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password": os.Getenv("POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "fragent"),
			"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "oceanbase", "mysql":
		config.Database.Config = map[string]interface{}{
			"host":     getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			"port":     getEnvInt("OCEANBASE_PORT", 2881),
			"user":     getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			"password": os.Getenv("OCEANBASE_PASSWORD"),
			"db_name":  getEnvOrDefault("OCEANBASE_DATABASE", "fragent"),
		}
	}

	config.LLM.DefaultProvider = getEnvOrDefault("DEFAULT_PROVIDER", config.LLM.DefaultProvider)
	config.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", config.LLM.Timeout)
	for _, name := range llm.ProviderNames {
		prefix := strings.ToUpper(string(name))
		p := config.LLM.Providers[string(name)]
		p.APIKey = getEnvOrDefault(prefix+"_API_KEY", p.APIKey)
		p.BaseURL = getEnvOrDefault(prefix+"_API_BASE", p.BaseURL)
		p.DefaultModel = getEnvOrDefault(prefix+"_DEFAULT_MODEL", p.DefaultModel)
		config.LLM.Providers[string(name)] = p
	}

	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		config.Embedder = &EmbedderConfig{
			Provider:   provider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      getEnvOrDefault("EMBEDDING_MODEL", openaiEmbedder.DefaultModel),
			BaseURL:    getEnvOrDefault("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
			Dimensions: getEnvInt("EMBEDDING_DIMS", 0),
		}
	}

	config.Retrieval.MemoryLimit = getEnvInt("MEMORY_LIMIT", config.Retrieval.MemoryLimit)
	config.Retrieval.KnowledgeLimit = getEnvInt("KNOWLEDGE_LIMIT", config.Retrieval.KnowledgeLimit)

	config.Lifecycle.DefaultMemoryType = getEnvOrDefault("DEFAULT_MEMORY_TYPE", config.Lifecycle.DefaultMemoryType)
	config.Lifecycle.TemporaryMaxAgeDays = getEnvInt("TEMPORARY_MAX_AGE_DAYS", config.Lifecycle.TemporaryMaxAgeDays)
	config.Lifecycle.ExecutionMaxAgeHours = getEnvInt("EXECUTION_MAX_AGE_HOURS", config.Lifecycle.ExecutionMaxAgeHours)
	config.Lifecycle.SweepInterval = getEnvDuration("RETENTION_SWEEP_INTERVAL", config.Lifecycle.SweepInterval)

	config.Log.Level = getEnvOrDefault("LOG_LEVEL", config.Log.Level)
	config.Log.Format = getEnvOrDefault("LOG_FORMAT", config.Log.Format)
	config.Log.File = os.Getenv("LOG_FILE")
	if v, err := strconv.ParseBool(os.Getenv("METRICS_ENABLED")); err == nil {
		config.Metrics.Enabled = v
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromFile loads configuration from a YAML, JSON or TOML file.
//
// Values absent from the file keep their DefaultConfig value. Environment
// variables prefixed with FRAGENT_ override file values, with nested keys
// joined by underscores (FRAGENT_LLM_DEFAULT_PROVIDER).
func LoadConfigFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FRAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, NewAgentError("LoadConfigFromFile", err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, NewAgentError("LoadConfigFromFile", err)
	}
	return config, nil
}

// Validate validates the configuration.
//
// Checks that:
//   - the database provider is supported
//   - the default LLM provider is one of the supported names
//   - retrieval limits are not negative
//   - lifecycle thresholds are within their accepted ranges
//
// Returns an error wrapping ErrInvalidConfig if validation fails, nil otherwise.
func (c *Config) Validate() error {
	switch c.Database.Provider {
	case "sqlite", "postgres", "oceanbase", "mysql":
	default:
		return invalidConfig("unsupported database provider %q", c.Database.Provider)
	}
	if _, ok := llm.ParseProviderName(c.LLM.DefaultProvider); !ok {
		return invalidConfig("unsupported default provider %q", c.LLM.DefaultProvider)
	}
	if c.Embedder != nil && c.Embedder.Provider != "openai" {
		return invalidConfig("unsupported embedding provider %q", c.Embedder.Provider)
	}
	if c.Retrieval.MemoryLimit < 0 || c.Retrieval.KnowledgeLimit < 0 {
		return invalidConfig("retrieval limits must not be negative")
	}
	if !intelligence.ValidMemoryType(c.Lifecycle.DefaultMemoryType) {
		return invalidConfig("unsupported default memory type %q", c.Lifecycle.DefaultMemoryType)
	}
	if err := intelligence.ValidateTemporaryDays(c.Lifecycle.TemporaryMaxAgeDays); err != nil {
		return invalidConfig("%v", err)
	}
	if err := intelligence.ValidateExecutionHours(c.Lifecycle.ExecutionMaxAgeHours); err != nil {
		return invalidConfig("%v", err)
	}
	return nil
}

func invalidConfig(format string, args ...interface{}) error {
	return NewAgentError("Validate", fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfig}, args...)...))
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
