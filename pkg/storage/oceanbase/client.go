// Package oceanbase provides the OceanBase backend for agent storage.
//
// OceanBase speaks the MySQL protocol, so the same package serves plain MySQL
// deployments.
package oceanbase

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/fragent/fragent-go/pkg/storage/sqlstore"
)

// Config contains OceanBase configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Dialect is the MySQL-compatible SQL dialect used by OceanBase.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "oceanbase" }

// Rebind implements sqlstore.Dialect. MySQL accepts '?' natively.
func (Dialect) Rebind(query string) string { return query }

// Schema implements sqlstore.Dialect.
func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			model VARCHAR(255) NOT NULL DEFAULT '',
			system_prompt LONGTEXT NOT NULL,
			temperature DOUBLE NOT NULL DEFAULT 0.7,
			max_tokens INT NOT NULL DEFAULT 1000,
			personality TEXT NOT NULL,
			bio TEXT NOT NULL,
			avatar_url TEXT NOT NULL,
			memory_type VARCHAR(64) NOT NULL DEFAULT 'conversation',
			memory_window INT NOT NULL DEFAULT 10,
			knowledge_base_ids JSON,
			integration_settings JSON,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL,
			role VARCHAR(32) NOT NULL,
			content LONGTEXT NOT NULL,
			embedding LONGTEXT,
			memory_type VARCHAR(32) NOT NULL DEFAULT 'permanent',
			metadata JSON,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_memories_agent_created (agent_id, created_at),
			INDEX idx_memories_type_created (memory_type, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS knowledge_items (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			knowledge_type VARCHAR(64) NOT NULL DEFAULT '',
			tags JSON,
			priority INT NOT NULL DEFAULT 1,
			content LONGTEXT NOT NULL,
			embedding LONGTEXT,
			metadata JSON,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_knowledge_agent (agent_id)
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL,
			pref_key VARCHAR(255) NOT NULL,
			pref_value JSON,
			category VARCHAR(64) NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			priority INT NOT NULL DEFAULT 0,
			metadata JSON,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			UNIQUE KEY uk_preferences_agent_key (agent_id, pref_key)
		)`,
		`CREATE TABLE IF NOT EXISTS task_templates (
			id VARCHAR(64) PRIMARY KEY,
			agent_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			task_type VARCHAR(64) NOT NULL,
			task_pattern TEXT NOT NULL,
			priority INT NOT NULL DEFAULT 0,
			steps JSON,
			examples JSON,
			metadata JSON,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_templates_agent_type (agent_id, task_type)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			setting_key VARCHAR(255) PRIMARY KEY,
			setting_value JSON,
			description TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL
		)`,
	}
}

// NewClient connects to OceanBase and returns a store backed by it.
func NewClient(cfg *Config) (*sqlstore.Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, Dialect{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
