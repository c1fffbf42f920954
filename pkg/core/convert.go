package core

import (
	"errors"

	"github.com/fragent/fragent-go/pkg/storage"
)

// Conversions between core and storage types. The storage package cannot
// import core, so each record type exists on both sides.

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func toStorageAgent(a *Agent) *storage.Agent {
	return &storage.Agent{
		ID:                  a.ID,
		Name:                a.Name,
		Description:         a.Description,
		Model:               a.Model,
		SystemPrompt:        a.SystemPrompt,
		Temperature:         a.Temperature,
		MaxTokens:           a.MaxTokens,
		Personality:         a.Personality,
		Bio:                 a.Bio,
		AvatarURL:           a.AvatarURL,
		MemoryType:          a.MemoryType,
		MemoryWindow:        a.MemoryWindow,
		KnowledgeBaseIDs:    a.KnowledgeBaseIDs,
		IntegrationSettings: a.IntegrationSettings,
		IsActive:            a.IsActive,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func fromStorageAgent(a *storage.Agent) *Agent {
	return &Agent{
		ID:                  a.ID,
		Name:                a.Name,
		Description:         a.Description,
		Model:               a.Model,
		SystemPrompt:        a.SystemPrompt,
		Temperature:         a.Temperature,
		MaxTokens:           a.MaxTokens,
		Personality:         a.Personality,
		Bio:                 a.Bio,
		AvatarURL:           a.AvatarURL,
		MemoryType:          a.MemoryType,
		MemoryWindow:        a.MemoryWindow,
		KnowledgeBaseIDs:    a.KnowledgeBaseIDs,
		IntegrationSettings: a.IntegrationSettings,
		IsActive:            a.IsActive,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func toStorageMemory(m *Memory) *storage.Memory {
	return &storage.Memory{
		ID:         m.ID,
		AgentID:    m.AgentID,
		Role:       m.Role,
		Content:    m.Content,
		Embedding:  m.Embedding,
		MemoryType: string(m.MemoryType),
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func fromStorageMemory(m *storage.Memory) *Memory {
	return &Memory{
		ID:         m.ID,
		AgentID:    m.AgentID,
		Role:       m.Role,
		Content:    m.Content,
		Embedding:  m.Embedding,
		MemoryType: MemoryType(m.MemoryType),
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func fromStorageMemories(memories []*storage.Memory) []*Memory {
	result := make([]*Memory, len(memories))
	for i, m := range memories {
		result[i] = fromStorageMemory(m)
	}
	return result
}

func toStorageKnowledge(k *KnowledgeItem) *storage.KnowledgeItem {
	return &storage.KnowledgeItem{
		ID:            k.ID,
		AgentID:       k.AgentID,
		Name:          k.Name,
		Description:   k.Description,
		KnowledgeType: k.KnowledgeType,
		Tags:          k.Tags,
		Priority:      k.Priority,
		Content:       k.Content,
		Embedding:     k.Embedding,
		Metadata:      k.Metadata,
		CreatedAt:     k.CreatedAt,
		UpdatedAt:     k.UpdatedAt,
	}
}

func fromStorageKnowledge(k *storage.KnowledgeItem) *KnowledgeItem {
	return &KnowledgeItem{
		ID:            k.ID,
		AgentID:       k.AgentID,
		Name:          k.Name,
		Description:   k.Description,
		KnowledgeType: k.KnowledgeType,
		Tags:          k.Tags,
		Priority:      k.Priority,
		Content:       k.Content,
		Embedding:     k.Embedding,
		Metadata:      k.Metadata,
		CreatedAt:     k.CreatedAt,
		UpdatedAt:     k.UpdatedAt,
	}
}

func toStoragePreference(p *Preference) *storage.Preference {
	return &storage.Preference{
		ID:          p.ID,
		AgentID:     p.AgentID,
		Key:         p.Key,
		Value:       p.Value,
		Category:    p.Category,
		Description: p.Description,
		Priority:    p.Priority,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromStoragePreference(p *storage.Preference) *Preference {
	return &Preference{
		ID:          p.ID,
		AgentID:     p.AgentID,
		Key:         p.Key,
		Value:       p.Value,
		Category:    p.Category,
		Description: p.Description,
		Priority:    p.Priority,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toStorageTemplate(t *TaskTemplate) *storage.TaskTemplate {
	examples := make([]storage.TemplateExample, len(t.Examples))
	for i, e := range t.Examples {
		examples[i] = storage.TemplateExample{Input: e.Input, Output: e.Output}
	}
	return &storage.TaskTemplate{
		ID:          t.ID,
		AgentID:     t.AgentID,
		Name:        t.Name,
		Description: t.Description,
		TaskType:    t.TaskType,
		TaskPattern: t.TaskPattern,
		Priority:    t.Priority,
		Steps:       t.Steps,
		Examples:    examples,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromStorageTemplate(t *storage.TaskTemplate) *TaskTemplate {
	examples := make([]TemplateExample, len(t.Examples))
	for i, e := range t.Examples {
		examples[i] = TemplateExample{Input: e.Input, Output: e.Output}
	}
	return &TaskTemplate{
		ID:          t.ID,
		AgentID:     t.AgentID,
		Name:        t.Name,
		Description: t.Description,
		TaskType:    t.TaskType,
		TaskPattern: t.TaskPattern,
		Priority:    t.Priority,
		Steps:       t.Steps,
		Examples:    examples,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toAgentProfile(a *storage.Agent) *AgentProfile {
	return &AgentProfile{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Personality:  a.Personality,
		Bio:          a.Bio,
		SystemPrompt: a.SystemPrompt,
	}
}

func toContextTemplate(t *storage.TaskTemplate) *ContextTemplate {
	examples := make([]TemplateExample, len(t.Examples))
	for i, e := range t.Examples {
		examples[i] = TemplateExample{Input: e.Input, Output: e.Output}
	}
	return &ContextTemplate{
		ID:       t.ID,
		Name:     t.Name,
		TaskType: t.TaskType,
		Steps:    t.Steps,
		Examples: examples,
	}
}
