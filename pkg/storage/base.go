// Package storage provides the record types and store interfaces for agent
// persistence.
//
// It defines the Store interface that all relational backends must satisfy,
// along with the row types and list options shared by the sqlite, postgres and
// oceanbase implementations.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by every store lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// Agent represents an agent row.
//
// This type is defined in the storage package to avoid circular dependencies
// with the core package. It mirrors the core.Agent structure.
type Agent struct {
	ID                  string
	Name                string
	Description         string
	Model               string
	SystemPrompt        string
	Temperature         float64
	MaxTokens           int
	Personality         string
	Bio                 string
	AvatarURL           string
	MemoryType          string
	MemoryWindow        int
	KnowledgeBaseIDs    []string
	IntegrationSettings map[string]interface{}
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Memory represents a memory row.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID string

	// AgentID identifies the agent owning this memory.
	AgentID string

	// Role is the conversational role (user, assistant, system).
	Role string

	// Content is the text content of the memory.
	Content string

	// Embedding is the optional vector embedding. Nil when absent.
	Embedding []float64

	// MemoryType is the lifecycle class (permanent, temporary, execution).
	MemoryType string

	// Metadata contains additional structured information.
	Metadata map[string]interface{}

	CreatedAt time.Time
	UpdatedAt time.Time
}

// KnowledgeItem represents a knowledge base row.
type KnowledgeItem struct {
	ID            string
	AgentID       string
	Name          string
	Description   string
	KnowledgeType string
	Tags          []string
	Priority      int
	Content       string
	Embedding     []float64
	Metadata      map[string]interface{}
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Preference represents a preference row. (AgentID, Key) is unique.
type Preference struct {
	ID          string
	AgentID     string
	Key         string
	Value       map[string]interface{}
	Category    string
	Description string
	Priority    int
	Metadata    map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateExample is an input/output pair attached to a task template.
type TemplateExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// TaskTemplate represents a task template row.
type TaskTemplate struct {
	ID          string
	AgentID     string
	Name        string
	Description string
	TaskType    string
	TaskPattern string
	Priority    int
	Steps       []string
	Examples    []TemplateExample
	Metadata    map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Setting represents a global key/value setting row.
type Setting struct {
	Key         string
	Value       map[string]interface{}
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListOptions contains plain pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// MemoryListOptions contains options for listing memories.
type MemoryListOptions struct {
	// AgentID restricts results to one agent (required).
	AgentID string

	// MemoryType restricts results to one lifecycle class (optional).
	MemoryType string

	// Limit is the maximum number of rows (0 means no limit).
	Limit int

	// Offset is the number of rows to skip.
	Offset int

	// Ascending orders by creation time oldest first. The default is newest first.
	Ascending bool
}

// ExpireOptions selects memories for bulk deletion.
type ExpireOptions struct {
	// MemoryType is the lifecycle class to delete (required).
	MemoryType string

	// Before deletes rows created strictly before this instant.
	Before time.Time

	// AgentID scopes the deletion to one agent (optional).
	AgentID string
}

// KnowledgeListOptions contains options for listing knowledge items.
type KnowledgeListOptions struct {
	AgentID        string
	KnowledgeTypes []string
	Limit          int
	Offset         int
}

// PreferenceListOptions contains options for listing preferences.
type PreferenceListOptions struct {
	AgentID  string
	Category string
}

// TaskTemplateListOptions contains options for listing task templates.
type TaskTemplateListOptions struct {
	AgentID  string
	TaskType string
}

// AgentStore persists agents.
type AgentStore interface {
	InsertAgent(ctx context.Context, agent *Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)
	ListAgents(ctx context.Context, opts *ListOptions) ([]*Agent, error)
	UpdateAgent(ctx context.Context, agent *Agent) error

	// DeleteAgent removes the agent and every memory, knowledge item,
	// preference and task template it owns.
	DeleteAgent(ctx context.Context, id string) error
}

// MemoryStore persists memories.
type MemoryStore interface {
	InsertMemory(ctx context.Context, memory *Memory) error
	GetMemory(ctx context.Context, id string) (*Memory, error)
	ListMemories(ctx context.Context, opts *MemoryListOptions) ([]*Memory, error)

	// UpdateMemory replaces content and metadata. The memory type is never changed.
	UpdateMemory(ctx context.Context, memory *Memory) error
	DeleteMemory(ctx context.Context, id string) error

	// DeleteMemoriesBefore bulk deletes memories of one type older than a cutoff
	// and returns the number of rows removed.
	DeleteMemoriesBefore(ctx context.Context, opts *ExpireOptions) (int64, error)

	// CountMemoriesByType returns row counts keyed by memory type. An empty
	// agentID counts across all agents.
	CountMemoriesByType(ctx context.Context, agentID string) (map[string]int64, error)
}

// KnowledgeStore persists knowledge items.
type KnowledgeStore interface {
	InsertKnowledge(ctx context.Context, item *KnowledgeItem) error
	GetKnowledge(ctx context.Context, id string) (*KnowledgeItem, error)
	ListKnowledge(ctx context.Context, opts *KnowledgeListOptions) ([]*KnowledgeItem, error)
	UpdateKnowledge(ctx context.Context, item *KnowledgeItem) error
	DeleteKnowledge(ctx context.Context, id string) error
}

// PreferenceStore persists preferences.
type PreferenceStore interface {
	// UpsertPreference inserts the preference or, when (AgentID, Key) already
	// exists, updates it in place. The stored row is written back into pref.
	UpsertPreference(ctx context.Context, pref *Preference) error
	GetPreference(ctx context.Context, agentID, key string) (*Preference, error)
	ListPreferences(ctx context.Context, opts *PreferenceListOptions) ([]*Preference, error)
	DeletePreference(ctx context.Context, id string) error
}

// TaskTemplateStore persists task templates.
type TaskTemplateStore interface {
	InsertTaskTemplate(ctx context.Context, tmpl *TaskTemplate) error
	GetTaskTemplate(ctx context.Context, id string) (*TaskTemplate, error)
	ListTaskTemplates(ctx context.Context, opts *TaskTemplateListOptions) ([]*TaskTemplate, error)
	UpdateTaskTemplate(ctx context.Context, tmpl *TaskTemplate) error
	DeleteTaskTemplate(ctx context.Context, id string) error
}

// SettingsStore persists global settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (*Setting, error)

	// PutSetting inserts or replaces the setting stored under setting.Key.
	PutSetting(ctx context.Context, setting *Setting) error
	ListSettings(ctx context.Context) ([]*Setting, error)
	DeleteSetting(ctx context.Context, key string) error
}

// Store is the complete persistence surface used by the core client.
//
// Implementations must be safe for concurrent use.
type Store interface {
	AgentStore
	MemoryStore
	KnowledgeStore
	PreferenceStore
	TaskTemplateStore
	SettingsStore

	// Close releases the underlying database handle.
	Close() error
}
