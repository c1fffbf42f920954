package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/fragent/fragent-go/pkg/embedder"
	openaiEmbedder "github.com/fragent/fragent-go/pkg/embedder/openai"
	"github.com/fragent/fragent-go/pkg/intelligence"
	"github.com/fragent/fragent-go/pkg/log"
	"github.com/fragent/fragent-go/pkg/metrics"
	"github.com/fragent/fragent-go/pkg/storage"
	oceanbaseStore "github.com/fragent/fragent-go/pkg/storage/oceanbase"
	postgresStore "github.com/fragent/fragent-go/pkg/storage/postgres"
	sqliteStore "github.com/fragent/fragent-go/pkg/storage/sqlite"
)

// Client is the main fragent client.
//
// It provides:
//   - Agent context assembly (memories, knowledge, task template, preferences)
//   - Response generation through the agent's configured LLM provider
//   - Memory lifecycle management (temporary and execution cleanup, stats)
//   - Record management for agents, memories, knowledge, preferences and templates
//
// The client is safe for concurrent use from multiple goroutines.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient(config)
//	defer client.Close()
//
//	result, _ := client.Interact(ctx, agentID, "Hello!")
//	fmt.Println(result.Response)
type Client struct {
	// config contains the client configuration.
	config *Config

	// store persists agents and their records.
	store storage.Store

	// embedder generates query and memory embeddings (nil if not configured).
	embedder embedder.Provider

	// providers resolves and builds LLM providers per agent.
	providers *providerResolver

	// retention holds the sweeper thresholds.
	retention intelligence.RetentionPolicy

	logger *slog.Logger

	// snowflakeNode generates unique record IDs.
	snowflakeNode *snowflake.Node

	now func() time.Time
}

// NewClient creates a new fragent client.
//
// The client is initialized with:
//   - Relational store (SQLite, PostgreSQL or OceanBase), unless WithStore is given
//   - Embedding provider when Config.Embedder is set, unless WithEmbedder is given
//   - Provider resolver backed by the settings store
//
// A nil cfg uses DefaultConfig.
//
// Example:
//
//	client, err := core.NewClient(core.DefaultConfig(),
//	    core.WithLogger(slog.Default()),
//	)
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &clientOptions{nodeID: 1, now: time.Now}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		l, err := log.NewLogger(&cfg.Log)
		if err != nil {
			return nil, NewAgentError("NewClient", err)
		}
		logger = l.Logger
	}

	retention, err := intelligence.NewRetentionPolicy(cfg.Lifecycle.TemporaryMaxAgeDays, cfg.Lifecycle.ExecutionMaxAgeHours)
	if err != nil {
		return nil, NewAgentError("NewClient", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}

	node, err := snowflake.NewNode(options.nodeID)
	if err != nil {
		return nil, NewAgentError("NewClient", err)
	}

	store := options.store
	if store == nil {
		store, err = initStorage(cfg.Database)
		if err != nil {
			return nil, err
		}
	}

	emb := options.embedder
	if emb == nil && cfg.Embedder != nil {
		emb, err = initEmbedder(cfg.Embedder)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	factory := options.providerFactory
	if factory == nil {
		factory = DefaultProviderFactory
	}
	resolver, err := newProviderResolver(store, cfg.LLM, factory)
	if err != nil {
		_ = store.Close()
		return nil, NewAgentError("NewClient", err)
	}

	return &Client{
		config:        cfg,
		store:         store,
		embedder:      emb,
		providers:     resolver,
		retention:     retention,
		logger:        logger,
		snowflakeNode: node,
		now:           options.now,
	}, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *Config {
	return c.config
}

// Store returns the underlying store.
func (c *Client) Store() storage.Store {
	return c.store
}

// Close releases the store, the embedder and the settings cache.
//
// Example:
//
//	defer client.Close()
func (c *Client) Close() error {
	var errs []error

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.providers != nil {
		c.providers.Close()
	}

	return errors.Join(errs...)
}

func (c *Client) newID() string {
	return c.snowflakeNode.Generate().String()
}

func (c *Client) timestamp() time.Time {
	return c.now().UTC()
}

// embed returns an embedding for text, or nil when no embedder is configured
// or embedding fails. Failures are logged.
func (c *Client) embed(ctx context.Context, text string) []float64 {
	if c.embedder == nil {
		return nil
	}
	vec, err := embedder.EmbedText(ctx, c.embedder, text)
	if err != nil {
		c.logger.WarnContext(ctx, "embedding failed", "error", err)
		return nil
	}
	return vec
}

func (c *Client) metricsEnabled() bool {
	return c.config.Metrics.Enabled
}

func (c *Client) countMemoryCreated(m *storage.Memory) {
	if c.metricsEnabled() {
		metrics.MemoriesCreatedTotal.WithLabelValues(m.MemoryType, m.Role).Inc()
	}
}

func (c *Client) countMemoriesDeleted(memoryType string, n int64) {
	if c.metricsEnabled() && n > 0 {
		metrics.MemoriesDeletedTotal.WithLabelValues(memoryType).Add(float64(n))
	}
}

// initStorage opens the store described by cfg.
func initStorage(cfg DatabaseConfig) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Provider {
	case "sqlite":
		s, e := sqliteStore.NewClient(&sqliteStore.Config{
			DBPath:        stringValue(cfg.Config, "db_path", "./fragent.db"),
			BusyTimeoutMS: intValue(cfg.Config, "busy_timeout_ms", 5000),
		})
		store, err = s, e
	case "postgres":
		s, e := postgresStore.NewClient(&postgresStore.Config{
			Host:     stringValue(cfg.Config, "host", "localhost"),
			Port:     intValue(cfg.Config, "port", 5432),
			User:     stringValue(cfg.Config, "user", "postgres"),
			Password: stringValue(cfg.Config, "password", ""),
			DBName:   stringValue(cfg.Config, "db_name", "fragent"),
			SSLMode:  stringValue(cfg.Config, "ssl_mode", "disable"),
		})
		store, err = s, e
	case "oceanbase", "mysql":
		s, e := oceanbaseStore.NewClient(&oceanbaseStore.Config{
			Host:     stringValue(cfg.Config, "host", "127.0.0.1"),
			Port:     intValue(cfg.Config, "port", 2881),
			User:     stringValue(cfg.Config, "user", "root@sys"),
			Password: stringValue(cfg.Config, "password", ""),
			DBName:   stringValue(cfg.Config, "db_name", "fragent"),
		})
		store, err = s, e
	default:
		return nil, NewAgentError("initStorage", fmt.Errorf("%w: database provider %q", ErrInvalidConfig, cfg.Provider))
	}
	if err != nil {
		return nil, NewAgentError("initStorage", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}
	return store, nil
}

// initEmbedder initializes the embedding provider.
func initEmbedder(cfg *EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "openai":
		e, err := openaiEmbedder.NewClient(&openaiEmbedder.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, NewAgentError("initEmbedder", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
		}
		return e, nil
	default:
		return nil, NewAgentError("initEmbedder", ErrInvalidConfig)
	}
}

func stringValue(m map[string]interface{}, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

// intValue reads an integer that may have been decoded as int, int64,
// float64 (JSON) or string (env files).
func intValue(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
