// Package sqlite provides the SQLite backend for agent storage.
//
// SQLite is a lightweight, file-based database suitable for local development
// and small-scale deployments. Embeddings are stored as JSON strings in TEXT
// fields and similarity ranking happens in memory.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fragent/fragent-go/pkg/storage/sqlstore"
)

// Config contains configuration for creating a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeoutMS is how long a writer waits on a locked database.
	// Defaults to 5000.
	BusyTimeoutMS int
}

// Dialect is the SQLite SQL dialect.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "sqlite" }

// Rebind implements sqlstore.Dialect. SQLite accepts '?' natively.
func (Dialect) Rebind(query string) string { return query }

// Schema implements sqlstore.Dialect.
func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			system_prompt TEXT NOT NULL DEFAULT '',
			temperature REAL NOT NULL DEFAULT 0.7,
			max_tokens INTEGER NOT NULL DEFAULT 1000,
			personality TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			memory_type TEXT NOT NULL DEFAULT 'conversation',
			memory_window INTEGER NOT NULL DEFAULT 10,
			knowledge_base_ids TEXT,
			integration_settings TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT,
			memory_type TEXT NOT NULL DEFAULT 'permanent',
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_agent_created ON memories(agent_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_type_created ON memories(memory_type, created_at)`,
		`CREATE TABLE IF NOT EXISTS knowledge_items (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			knowledge_type TEXT NOT NULL DEFAULT '',
			tags TEXT,
			priority INTEGER NOT NULL DEFAULT 1,
			content TEXT NOT NULL,
			embedding TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_agent ON knowledge_items(agent_id)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			pref_key TEXT NOT NULL,
			pref_value TEXT,
			category TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (agent_id, pref_key)
		)`,
		`CREATE TABLE IF NOT EXISTS task_templates (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			task_type TEXT NOT NULL,
			task_pattern TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			steps TEXT,
			examples TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_agent_type ON task_templates(agent_id, task_type)`,
		`CREATE TABLE IF NOT EXISTS settings (
			setting_key TEXT PRIMARY KEY,
			setting_value TEXT,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
}

// NewClient opens (and if needed creates) a SQLite database and returns a
// store backed by it.
//
// Parameters:
//   - cfg: Configuration containing the database path
//
// Returns:
//   - *sqlstore.Store: The store instance
//   - error: Error if the connection or table creation fails
func NewClient(cfg *Config) (*sqlstore.Store, error) {
	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	busy := cfg.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=%d", cfg.DBPath, busy)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, Dialect{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
