package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/fragent/fragent-go/pkg/intelligence"
	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/storage"
)

// Setting is a global key/value setting.
type Setting = storage.Setting

// Agent defaults applied by NewAgent and, for zero values, by CreateAgent.
const (
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 1000
	DefaultMemoryWindow = 10
	DefaultAgentMemory  = "conversation"
)

// NewAgent returns an active agent with default generation settings.
func NewAgent(name string) *Agent {
	return &Agent{
		Name:         name,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		MemoryType:   DefaultAgentMemory,
		MemoryWindow: DefaultMemoryWindow,
		IsActive:     true,
	}
}

// CreateAgent persists a new agent and assigns its ID and timestamps.
func (c *Client) CreateAgent(ctx context.Context, agent *Agent) (*Agent, error) {
	if agent == nil || strings.TrimSpace(agent.Name) == "" {
		return nil, NewAgentError("CreateAgent", fmt.Errorf("%w: agent name is required", ErrInvalidInput))
	}
	if agent.MaxTokens == 0 {
		agent.MaxTokens = DefaultMaxTokens
	}
	if agent.MemoryType == "" {
		agent.MemoryType = DefaultAgentMemory
	}
	if agent.MemoryWindow == 0 {
		agent.MemoryWindow = DefaultMemoryWindow
	}
	if p := agent.ProviderName(); p != "" {
		if _, ok := llm.ParseProviderName(p); !ok {
			return nil, NewAgentError("CreateAgent", fmt.Errorf("%w: %q", ErrUnsupportedProvider, p))
		}
	}

	now := c.timestamp()
	agent.ID = c.newID()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	if err := c.store.InsertAgent(ctx, toStorageAgent(agent)); err != nil {
		return nil, storageError("CreateAgent", err)
	}
	return agent, nil
}

// GetAgent returns the agent with the given ID.
func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	a, err := c.store.GetAgent(ctx, id)
	if err != nil {
		return nil, storageError("GetAgent", err)
	}
	return fromStorageAgent(a), nil
}

// ListAgents returns agents in creation order.
func (c *Client) ListAgents(ctx context.Context, limit, offset int) ([]*Agent, error) {
	agents, err := c.store.ListAgents(ctx, &storage.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, storageError("ListAgents", err)
	}
	result := make([]*Agent, len(agents))
	for i, a := range agents {
		result[i] = fromStorageAgent(a)
	}
	return result, nil
}

// UpdateAgent applies a partial update and returns the updated agent.
func (c *Client) UpdateAgent(ctx context.Context, id string, update AgentUpdate) (*Agent, error) {
	a, err := c.store.GetAgent(ctx, id)
	if err != nil {
		return nil, storageError("UpdateAgent", err)
	}

	setString(&a.Name, update.Name)
	setString(&a.Description, update.Description)
	setString(&a.Model, update.Model)
	setString(&a.SystemPrompt, update.SystemPrompt)
	setString(&a.Personality, update.Personality)
	setString(&a.Bio, update.Bio)
	setString(&a.AvatarURL, update.AvatarURL)
	setString(&a.MemoryType, update.MemoryType)
	if update.Temperature != nil {
		a.Temperature = *update.Temperature
	}
	if update.MaxTokens != nil {
		a.MaxTokens = *update.MaxTokens
	}
	if update.MemoryWindow != nil {
		a.MemoryWindow = *update.MemoryWindow
	}
	if update.KnowledgeBaseIDs != nil {
		a.KnowledgeBaseIDs = update.KnowledgeBaseIDs
	}
	if update.IntegrationSettings != nil {
		a.IntegrationSettings = update.IntegrationSettings
	}
	if update.IsActive != nil {
		a.IsActive = *update.IsActive
	}
	if strings.TrimSpace(a.Name) == "" {
		return nil, NewAgentError("UpdateAgent", fmt.Errorf("%w: agent name is required", ErrInvalidInput))
	}

	a.UpdatedAt = c.timestamp()
	if err := c.store.UpdateAgent(ctx, a); err != nil {
		return nil, storageError("UpdateAgent", err)
	}
	return fromStorageAgent(a), nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// DeleteAgent deletes an agent together with its memories, knowledge,
// preferences and task templates.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	if err := c.store.DeleteAgent(ctx, id); err != nil {
		return storageError("DeleteAgent", err)
	}
	return nil
}

// requireAgent loads an agent, mapping a missing row to ErrNotFound.
func (c *Client) requireAgent(ctx context.Context, op, id string) (*storage.Agent, error) {
	a, err := c.store.GetAgent(ctx, id)
	if err != nil {
		return nil, storageError(op, err)
	}
	return a, nil
}

// AddMemory stores a memory for an agent.
//
// The memory type defaults to Config.Lifecycle.DefaultMemoryType and cannot
// change afterwards. Content is embedded when an embedder is configured and
// no embedding is supplied.
//
// Example:
//
//	memory, err := client.AddMemory(ctx, agentID, "user", "Remember the milk",
//	    core.WithMemoryType(core.MemoryTemporary),
//	)
func (c *Client) AddMemory(ctx context.Context, agentID, role, content string, opts ...MemoryOption) (*Memory, error) {
	options := applyMemoryOptions(opts)
	if !isChatRole(role) {
		return nil, NewAgentError("AddMemory", fmt.Errorf("%w: role %q", ErrInvalidInput, role))
	}
	if _, err := c.requireAgent(ctx, "AddMemory", agentID); err != nil {
		return nil, err
	}

	memoryType := options.MemoryType
	if memoryType == "" {
		memoryType = MemoryType(c.config.Lifecycle.DefaultMemoryType)
	}
	if !memoryType.Valid() {
		return nil, NewAgentError("AddMemory", fmt.Errorf("%w: memory type %q", ErrInvalidInput, memoryType))
	}

	embedding := options.Embedding
	if embedding == nil {
		embedding = c.embed(ctx, content)
	}

	m, err := c.insertMemory(ctx, &storage.Memory{
		AgentID:    agentID,
		Role:       role,
		Content:    content,
		Embedding:  embedding,
		MemoryType: string(memoryType),
		Metadata:   options.Metadata,
	})
	if err != nil {
		return nil, storageError("AddMemory", err)
	}
	return fromStorageMemory(m), nil
}

// insertMemory assigns ID and timestamps, persists m and counts it.
func (c *Client) insertMemory(ctx context.Context, m *storage.Memory) (*storage.Memory, error) {
	now := c.timestamp()
	m.ID = c.newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.MemoryType == "" {
		m.MemoryType = c.defaultMemoryType()
	}
	if m.Metadata == nil {
		m.Metadata = map[string]interface{}{}
	}
	if err := c.store.InsertMemory(ctx, m); err != nil {
		return nil, err
	}
	c.countMemoryCreated(m)
	return m, nil
}

// GetMemory returns the memory with the given ID.
func (c *Client) GetMemory(ctx context.Context, id string) (*Memory, error) {
	m, err := c.store.GetMemory(ctx, id)
	if err != nil {
		return nil, storageError("GetMemory", err)
	}
	return fromStorageMemory(m), nil
}

// ListMemories returns an agent's memories newest first, optionally
// restricted to one memory type. A limit of 0 returns every memory.
func (c *Client) ListMemories(ctx context.Context, agentID string, memoryType MemoryType, limit int) ([]*Memory, error) {
	memories, err := c.store.ListMemories(ctx, &storage.MemoryListOptions{
		AgentID:    agentID,
		MemoryType: string(memoryType),
		Limit:      limit,
	})
	if err != nil {
		return nil, storageError("ListMemories", err)
	}
	return fromStorageMemories(memories), nil
}

// UpdateMemory replaces a memory's content and metadata. The memory type is
// left unchanged. A nil metadata keeps the stored metadata.
func (c *Client) UpdateMemory(ctx context.Context, id, content string, metadata map[string]interface{}) (*Memory, error) {
	m, err := c.store.GetMemory(ctx, id)
	if err != nil {
		return nil, storageError("UpdateMemory", err)
	}
	if content != m.Content {
		m.Content = content
		m.Embedding = c.embed(ctx, content)
	}
	if metadata != nil {
		m.Metadata = metadata
	}
	m.UpdatedAt = c.timestamp()

	if err := c.store.UpdateMemory(ctx, m); err != nil {
		return nil, storageError("UpdateMemory", err)
	}
	return fromStorageMemory(m), nil
}

// DeleteMemory deletes a memory.
func (c *Client) DeleteMemory(ctx context.Context, id string) error {
	if err := c.store.DeleteMemory(ctx, id); err != nil {
		return storageError("DeleteMemory", err)
	}
	return nil
}

// AddKnowledge stores a knowledge item for an agent. A zero priority is
// stored as 1. Content is embedded when an embedder is configured and no
// embedding is supplied.
func (c *Client) AddKnowledge(ctx context.Context, item *KnowledgeItem) (*KnowledgeItem, error) {
	if item == nil || item.Name == "" {
		return nil, NewAgentError("AddKnowledge", fmt.Errorf("%w: knowledge name is required", ErrInvalidInput))
	}
	if _, err := c.requireAgent(ctx, "AddKnowledge", item.AgentID); err != nil {
		return nil, err
	}
	if item.Priority == 0 {
		item.Priority = 1
	}
	if item.Embedding == nil {
		item.Embedding = c.embed(ctx, item.Content)
	}

	now := c.timestamp()
	item.ID = c.newID()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := c.store.InsertKnowledge(ctx, toStorageKnowledge(item)); err != nil {
		return nil, storageError("AddKnowledge", err)
	}
	return item, nil
}

// GetKnowledge returns the knowledge item with the given ID.
func (c *Client) GetKnowledge(ctx context.Context, id string) (*KnowledgeItem, error) {
	k, err := c.store.GetKnowledge(ctx, id)
	if err != nil {
		return nil, storageError("GetKnowledge", err)
	}
	return fromStorageKnowledge(k), nil
}

// ListKnowledge returns an agent's knowledge items, optionally restricted to
// the given types.
func (c *Client) ListKnowledge(ctx context.Context, agentID string, types ...string) ([]*KnowledgeItem, error) {
	items, err := c.store.ListKnowledge(ctx, &storage.KnowledgeListOptions{AgentID: agentID, KnowledgeTypes: types})
	if err != nil {
		return nil, storageError("ListKnowledge", err)
	}
	result := make([]*KnowledgeItem, len(items))
	for i, k := range items {
		result[i] = fromStorageKnowledge(k)
	}
	return result, nil
}

// UpdateKnowledge overwrites a knowledge item.
func (c *Client) UpdateKnowledge(ctx context.Context, item *KnowledgeItem) (*KnowledgeItem, error) {
	existing, err := c.store.GetKnowledge(ctx, item.ID)
	if err != nil {
		return nil, storageError("UpdateKnowledge", err)
	}
	if item.Embedding == nil && item.Content != existing.Content {
		item.Embedding = c.embed(ctx, item.Content)
	}
	item.AgentID = existing.AgentID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = c.timestamp()
	if err := c.store.UpdateKnowledge(ctx, toStorageKnowledge(item)); err != nil {
		return nil, storageError("UpdateKnowledge", err)
	}
	return item, nil
}

// DeleteKnowledge deletes a knowledge item.
func (c *Client) DeleteKnowledge(ctx context.Context, id string) error {
	if err := c.store.DeleteKnowledge(ctx, id); err != nil {
		return storageError("DeleteKnowledge", err)
	}
	return nil
}

// SetPreference inserts a preference or updates the existing one with the
// same agent and key. The returned preference carries the stored ID.
func (c *Client) SetPreference(ctx context.Context, pref *Preference) (*Preference, error) {
	if pref == nil || pref.Key == "" {
		return nil, NewAgentError("SetPreference", fmt.Errorf("%w: preference key is required", ErrInvalidInput))
	}
	if _, err := c.requireAgent(ctx, "SetPreference", pref.AgentID); err != nil {
		return nil, err
	}

	now := c.timestamp()
	row := toStoragePreference(pref)
	row.ID = c.newID()
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := c.store.UpsertPreference(ctx, row); err != nil {
		return nil, storageError("SetPreference", err)
	}
	return fromStoragePreference(row), nil
}

// GetPreference returns an agent's preference stored under key.
func (c *Client) GetPreference(ctx context.Context, agentID, key string) (*Preference, error) {
	p, err := c.store.GetPreference(ctx, agentID, key)
	if err != nil {
		return nil, storageError("GetPreference", err)
	}
	return fromStoragePreference(p), nil
}

// ListPreferences returns an agent's preferences ordered by key.
func (c *Client) ListPreferences(ctx context.Context, agentID string) ([]*Preference, error) {
	prefs, err := c.store.ListPreferences(ctx, &storage.PreferenceListOptions{AgentID: agentID})
	if err != nil {
		return nil, storageError("ListPreferences", err)
	}
	result := make([]*Preference, len(prefs))
	for i, p := range prefs {
		result[i] = fromStoragePreference(p)
	}
	return result, nil
}

// DeletePreference deletes a preference by ID.
func (c *Client) DeletePreference(ctx context.Context, id string) error {
	if err := c.store.DeletePreference(ctx, id); err != nil {
		return storageError("DeletePreference", err)
	}
	return nil
}

// AddTaskTemplate stores a task template for an agent.
func (c *Client) AddTaskTemplate(ctx context.Context, tmpl *TaskTemplate) (*TaskTemplate, error) {
	if tmpl == nil || tmpl.TaskType == "" {
		return nil, NewAgentError("AddTaskTemplate", fmt.Errorf("%w: task type is required", ErrInvalidInput))
	}
	if _, err := c.requireAgent(ctx, "AddTaskTemplate", tmpl.AgentID); err != nil {
		return nil, err
	}

	now := c.timestamp()
	tmpl.ID = c.newID()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	if err := c.store.InsertTaskTemplate(ctx, toStorageTemplate(tmpl)); err != nil {
		return nil, storageError("AddTaskTemplate", err)
	}
	return tmpl, nil
}

// GetTaskTemplate returns the task template with the given ID.
func (c *Client) GetTaskTemplate(ctx context.Context, id string) (*TaskTemplate, error) {
	t, err := c.store.GetTaskTemplate(ctx, id)
	if err != nil {
		return nil, storageError("GetTaskTemplate", err)
	}
	return fromStorageTemplate(t), nil
}

// ListTaskTemplates returns an agent's templates, optionally for one task type.
func (c *Client) ListTaskTemplates(ctx context.Context, agentID, taskType string) ([]*TaskTemplate, error) {
	templates, err := c.store.ListTaskTemplates(ctx, &storage.TaskTemplateListOptions{AgentID: agentID, TaskType: taskType})
	if err != nil {
		return nil, storageError("ListTaskTemplates", err)
	}
	result := make([]*TaskTemplate, len(templates))
	for i, t := range templates {
		result[i] = fromStorageTemplate(t)
	}
	return result, nil
}

// UpdateTaskTemplate overwrites a task template.
func (c *Client) UpdateTaskTemplate(ctx context.Context, tmpl *TaskTemplate) (*TaskTemplate, error) {
	existing, err := c.store.GetTaskTemplate(ctx, tmpl.ID)
	if err != nil {
		return nil, storageError("UpdateTaskTemplate", err)
	}
	tmpl.AgentID = existing.AgentID
	tmpl.CreatedAt = existing.CreatedAt
	tmpl.UpdatedAt = c.timestamp()
	if err := c.store.UpdateTaskTemplate(ctx, toStorageTemplate(tmpl)); err != nil {
		return nil, storageError("UpdateTaskTemplate", err)
	}
	return tmpl, nil
}

// DeleteTaskTemplate deletes a task template.
func (c *Client) DeleteTaskTemplate(ctx context.Context, id string) error {
	if err := c.store.DeleteTaskTemplate(ctx, id); err != nil {
		return storageError("DeleteTaskTemplate", err)
	}
	return nil
}

// PutSetting stores a global setting and drops any cached copy.
func (c *Client) PutSetting(ctx context.Context, key string, value map[string]interface{}, description string) error {
	if key == "" {
		return NewAgentError("PutSetting", fmt.Errorf("%w: setting key is required", ErrInvalidInput))
	}
	now := c.timestamp()
	err := c.store.PutSetting(ctx, &storage.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return storageError("PutSetting", err)
	}
	c.providers.Invalidate(key)
	return nil
}

// GetSetting returns the setting stored under key.
func (c *Client) GetSetting(ctx context.Context, key string) (*Setting, error) {
	s, err := c.store.GetSetting(ctx, key)
	if err != nil {
		return nil, storageError("GetSetting", err)
	}
	return s, nil
}

// ListSettings returns every setting ordered by key.
func (c *Client) ListSettings(ctx context.Context) ([]*Setting, error) {
	settings, err := c.store.ListSettings(ctx)
	if err != nil {
		return nil, storageError("ListSettings", err)
	}
	return settings, nil
}

// DeleteSetting removes a setting and drops any cached copy.
func (c *Client) DeleteSetting(ctx context.Context, key string) error {
	if err := c.store.DeleteSetting(ctx, key); err != nil {
		return storageError("DeleteSetting", err)
	}
	c.providers.Invalidate(key)
	return nil
}

// defaultMemoryType is the lifecycle class for memories written by the
// interaction and event flows.
func (c *Client) defaultMemoryType() string {
	if t := c.config.Lifecycle.DefaultMemoryType; intelligence.ValidMemoryType(t) {
		return t
	}
	return intelligence.MemoryTypePermanent
}
