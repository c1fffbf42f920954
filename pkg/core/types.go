package core

import (
	"time"

	"github.com/fragent/fragent-go/pkg/intelligence"
)

// MemoryType is the lifecycle class of a memory.
type MemoryType string

const (
	// MemoryPermanent memories are kept until explicitly deleted.
	MemoryPermanent MemoryType = intelligence.MemoryTypePermanent

	// MemoryTemporary memories expire after a number of days.
	MemoryTemporary MemoryType = intelligence.MemoryTypeTemporary

	// MemoryExecution memories expire after a number of hours.
	MemoryExecution MemoryType = intelligence.MemoryTypeExecution
)

// Valid reports whether t is one of the three lifecycle classes.
func (t MemoryType) Valid() bool {
	return intelligence.ValidMemoryType(string(t))
}

// Agent represents a configured agent.
type Agent struct {
	// ID is the unique identifier of the agent.
	ID string `json:"id"`

	// Name is the display name of the agent.
	Name string `json:"name"`

	Description string `json:"description,omitempty"`

	// Model overrides the provider's default model when set.
	Model string `json:"model,omitempty"`

	// SystemPrompt opens every conversation with the agent.
	SystemPrompt string `json:"system_prompt,omitempty"`

	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Personality string  `json:"personality,omitempty"`
	Bio         string  `json:"bio,omitempty"`
	AvatarURL   string  `json:"avatar_url,omitempty"`

	// MemoryType is the agent's conversational memory mode.
	MemoryType string `json:"memory_type"`

	// MemoryWindow is the number of messages the agent keeps in view. It is
	// profile data; pass it to WithHistoryLimit to cap Interact replay.
	MemoryWindow int `json:"memory_window"`

	KnowledgeBaseIDs []string `json:"knowledge_base_ids,omitempty"`

	// IntegrationSettings holds per-agent integration options. The
	// "provider" key selects the LLM provider.
	IntegrationSettings map[string]interface{} `json:"integration_settings,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderName returns the provider selected in the agent's integration
// settings, or "" when none is set.
func (a *Agent) ProviderName() string {
	if a == nil || a.IntegrationSettings == nil {
		return ""
	}
	name, _ := a.IntegrationSettings["provider"].(string)
	return name
}

// AgentUpdate is a partial update. Nil fields are left unchanged.
type AgentUpdate struct {
	Name                *string
	Description         *string
	Model               *string
	SystemPrompt        *string
	Temperature         *float64
	MaxTokens           *int
	Personality         *string
	Bio                 *string
	AvatarURL           *string
	MemoryType          *string
	MemoryWindow        *int
	KnowledgeBaseIDs    []string
	IntegrationSettings map[string]interface{}
	IsActive            *bool
}

// Memory represents a single remembered message.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID string `json:"id"`

	// AgentID identifies the agent owning this memory.
	AgentID string `json:"agent_id"`

	// Role is user, assistant or system.
	Role string `json:"role"`

	// Content is the text content of the memory.
	Content string `json:"content"`

	// Embedding is the optional vector embedding.
	Embedding []float64 `json:"embedding,omitempty"`

	// MemoryType is fixed at creation.
	MemoryType MemoryType `json:"memory_type"`

	// Metadata contains additional information about the memory.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KnowledgeItem is a unit of agent knowledge.
type KnowledgeItem struct {
	ID            string                 `json:"id"`
	AgentID       string                 `json:"agent_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	KnowledgeType string                 `json:"knowledge_type"`
	Tags          []string               `json:"tags,omitempty"`
	Priority      int                    `json:"priority"`
	Content       string                 `json:"content"`
	Embedding     []float64              `json:"embedding,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Preference is a keyed agent preference. (AgentID, Key) is unique.
type Preference struct {
	ID          string                 `json:"id"`
	AgentID     string                 `json:"agent_id"`
	Key         string                 `json:"key"`
	Value       map[string]interface{} `json:"value"`
	Category    string                 `json:"category,omitempty"`
	Description string                 `json:"description,omitempty"`
	Priority    int                    `json:"priority"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TemplateExample is an input/output pair shown with a task template.
type TemplateExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// TaskTemplate describes how an agent handles one type of task.
type TaskTemplate struct {
	ID          string                 `json:"id"`
	AgentID     string                 `json:"agent_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	TaskType    string                 `json:"task_type"`
	TaskPattern string                 `json:"task_pattern,omitempty"`
	Priority    int                    `json:"priority"`
	Steps       []string               `json:"steps"`
	Examples    []TemplateExample      `json:"examples,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// AgentProfile is the agent slice of a ContextBundle.
type AgentProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Personality  string `json:"personality,omitempty"`
	Bio          string `json:"bio,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ContextMemory is a memory selected into a ContextBundle.
type ContextMemory struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Type      MemoryType `json:"type"`
	Score     float64    `json:"score,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ContextKnowledge is a knowledge item selected into a ContextBundle.
type ContextKnowledge struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Content  string   `json:"content"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority"`
	Score    float64  `json:"score,omitempty"`
}

// ContextTemplate is the task template selected into a ContextBundle.
type ContextTemplate struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	TaskType string            `json:"task_type"`
	Steps    []string          `json:"steps"`
	Examples []TemplateExample `json:"examples,omitempty"`
}

// ContextBundle is the assembled context handed to the response generator.
//
// Memories are ordered most relevant (or most recent) first.
type ContextBundle struct {
	Agent        *AgentProfile          `json:"agent"`
	Memories     []ContextMemory        `json:"memories"`
	Knowledge    []ContextKnowledge     `json:"knowledge"`
	TaskTemplate *ContextTemplate       `json:"task_template,omitempty"`
	Preferences  map[string]interface{} `json:"preferences"`
}

// IsEmpty reports whether the bundle carries no agent context, which is the
// result of building context for an unknown agent.
func (b *ContextBundle) IsEmpty() bool {
	return b == nil || b.Agent == nil
}

// MemoryStats holds memory counts per lifecycle class.
type MemoryStats struct {
	// AgentID is empty for global statistics.
	AgentID string `json:"agent_id,omitempty"`

	Total     int64 `json:"total"`
	Permanent int64 `json:"permanent"`
	Temporary int64 `json:"temporary"`
	Execution int64 `json:"execution"`
}

// Event is an external trigger delivered to an agent.
type Event struct {
	Type    string                 `json:"type"`
	Source  string                 `json:"source"`
	Content string                 `json:"content"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventResult is the outcome of TriggerEvent.
type EventResult struct {
	Response   string         `json:"response"`
	EventID    string         `json:"event_id"`
	ResponseID string         `json:"response_id"`
	Context    *ContextBundle `json:"context"`
}

// InteractionResult is the outcome of Interact.
type InteractionResult struct {
	Response        string  `json:"response"`
	UserMemory      *Memory `json:"user_memory"`
	AssistantMemory *Memory `json:"assistant_memory"`
}
