// Package postgres provides the PostgreSQL backend for agent storage.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/fragent/fragent-go/pkg/storage/sqlstore"
)

// Config contains PostgreSQL configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Dialect is the PostgreSQL SQL dialect.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "postgres" }

// Rebind implements sqlstore.Dialect.
func (Dialect) Rebind(query string) string { return sqlstore.RebindDollar(query) }

// Schema implements sqlstore.Dialect.
func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			model VARCHAR(255) NOT NULL DEFAULT '',
			system_prompt TEXT NOT NULL DEFAULT '',
			temperature DOUBLE PRECISION NOT NULL DEFAULT 0.7,
			max_tokens INTEGER NOT NULL DEFAULT 1000,
			personality TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			memory_type VARCHAR(64) NOT NULL DEFAULT 'conversation',
			memory_window INTEGER NOT NULL DEFAULT 10,
			knowledge_base_ids JSONB,
			integration_settings JSONB,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			role VARCHAR(32) NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT,
			memory_type VARCHAR(32) NOT NULL DEFAULT 'permanent',
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_agent_created ON memories(agent_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_type_created ON memories(memory_type, created_at)`,
		`CREATE TABLE IF NOT EXISTS knowledge_items (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			knowledge_type VARCHAR(64) NOT NULL DEFAULT '',
			tags JSONB,
			priority INTEGER NOT NULL DEFAULT 1,
			content TEXT NOT NULL,
			embedding TEXT,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_agent ON knowledge_items(agent_id)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			pref_key VARCHAR(255) NOT NULL,
			pref_value JSONB,
			category VARCHAR(64) NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (agent_id, pref_key)
		)`,
		`CREATE TABLE IF NOT EXISTS task_templates (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			task_type VARCHAR(64) NOT NULL,
			task_pattern TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			steps JSONB,
			examples JSONB,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_agent_type ON task_templates(agent_id, task_type)`,
		`CREATE TABLE IF NOT EXISTS settings (
			setting_key VARCHAR(255) PRIMARY KEY,
			setting_value JSONB,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
}

// NewClient connects to PostgreSQL and returns a store backed by it.
func NewClient(cfg *Config) (*sqlstore.Store, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, Dialect{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
