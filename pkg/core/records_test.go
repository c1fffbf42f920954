package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/llm"
)

func TestCreateAgentDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	agent, err := env.client.CreateAgent(ctx, &Agent{Name: "bare"})
	require.NoError(t, err)
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, DefaultMaxTokens, agent.MaxTokens)
	assert.Equal(t, DefaultAgentMemory, agent.MemoryType)
	assert.Equal(t, DefaultMemoryWindow, agent.MemoryWindow)
	assert.True(t, agent.CreatedAt.Equal(baseTime))

	stored, err := env.client.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "bare", stored.Name)

	_, err = env.client.CreateAgent(ctx, &Agent{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.client.CreateAgent(ctx, &Agent{
		Name:                "bad",
		IntegrationSettings: map[string]interface{}{"provider": "anthropic"},
	})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestListAgentsPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i, name := range []string{"a", "b", "c"} {
		env.clock.Set(baseTime.Add(time.Duration(i) * time.Second))
		env.createAgent(t, name)
	}

	page, err := env.client.ListAgents(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Name)
	assert.Equal(t, "c", page[1].Name)
}

func TestUpdateAgentPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "original")

	name := "renamed"
	window := 25
	updated, err := env.client.UpdateAgent(ctx, agent.ID, AgentUpdate{Name: &name, MemoryWindow: &window})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 25, updated.MemoryWindow)
	assert.Equal(t, "You are helpful", updated.SystemPrompt)
	assert.Equal(t, DefaultTemperature, updated.Temperature)

	empty := ""
	_, err = env.client.UpdateAgent(ctx, agent.ID, AgentUpdate{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.client.UpdateAgent(ctx, "missing", AgentUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAgentRemovesOwnedRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "doomed")

	memory := env.addMemoryAt(t, agent.ID, MemoryTemporary, "note", baseTime)
	_, err := env.client.AddKnowledge(ctx, &KnowledgeItem{AgentID: agent.ID, Name: "fact", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, env.client.DeleteAgent(ctx, agent.ID))

	_, err = env.client.GetAgent(ctx, agent.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.client.GetMemory(ctx, memory.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, env.client.DeleteAgent(ctx, agent.ID), ErrNotFound)
}

func TestAddMemoryValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "memo")

	_, err := env.client.AddMemory(ctx, agent.ID, "tool", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.client.AddMemory(ctx, agent.ID, llm.RoleUser, "x", WithMemoryType("forever"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.client.AddMemory(ctx, "missing", llm.RoleUser, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := env.client.AddMemory(ctx, agent.ID, llm.RoleUser, "x")
	require.NoError(t, err)
	assert.Equal(t, MemoryPermanent, m.MemoryType)
	assert.Equal(t, map[string]interface{}{}, m.Metadata)
}

func TestUpdateMemoryKeepsType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "memo")
	original := env.addMemoryAt(t, agent.ID, MemoryExecution, "step 1", baseTime)

	env.clock.Set(baseTime.Add(time.Hour))
	updated, err := env.client.UpdateMemory(ctx, original.ID, "step 1 done", map[string]interface{}{"done": true})
	require.NoError(t, err)
	assert.Equal(t, MemoryExecution, updated.MemoryType)

	stored, err := env.client.GetMemory(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "step 1 done", stored.Content)
	assert.Equal(t, MemoryExecution, stored.MemoryType)
	assert.Equal(t, true, stored.Metadata["done"])
	assert.True(t, stored.CreatedAt.Equal(baseTime))
	assert.True(t, stored.UpdatedAt.Equal(baseTime.Add(time.Hour)))

	require.NoError(t, env.client.DeleteMemory(ctx, original.ID))
	assert.ErrorIs(t, env.client.DeleteMemory(ctx, original.ID), ErrNotFound)
}

func TestListMemoriesByType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "memo")
	env.addMemoryAt(t, agent.ID, MemoryTemporary, "old", baseTime)
	env.addMemoryAt(t, agent.ID, MemoryTemporary, "new", baseTime.Add(time.Minute))
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "keep", baseTime)

	temporary, err := env.client.ListMemories(ctx, agent.ID, MemoryTemporary, 0)
	require.NoError(t, err)
	require.Len(t, temporary, 2)
	assert.Equal(t, "new", temporary[0].Content)
	assert.Equal(t, "old", temporary[1].Content)
}

func TestSetPreferenceUpserts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "prefs")

	first, err := env.client.SetPreference(ctx, &Preference{
		AgentID: agent.ID,
		Key:     "tone",
		Value:   map[string]interface{}{"value": "formal"},
	})
	require.NoError(t, err)

	second, err := env.client.SetPreference(ctx, &Preference{
		AgentID: agent.ID,
		Key:     "tone",
		Value:   map[string]interface{}{"value": "casual"},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	prefs, err := env.client.ListPreferences(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "casual", prefs[0].Value["value"])

	got, err := env.client.GetPreference(ctx, agent.ID, "tone")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, env.client.DeletePreference(ctx, got.ID))
	_, err = env.client.GetPreference(ctx, agent.ID, "tone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.client.SetPreference(ctx, &Preference{AgentID: agent.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestKnowledgeCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "kb")

	item, err := env.client.AddKnowledge(ctx, &KnowledgeItem{
		AgentID:       agent.ID,
		Name:          "refunds",
		KnowledgeType: "policy",
		Content:       "Refunds within 30 days",
		Priority:      3,
	})
	require.NoError(t, err)

	item.Content = "Refunds within 14 days"
	_, err = env.client.UpdateKnowledge(ctx, item)
	require.NoError(t, err)

	items, err := env.client.ListKnowledge(ctx, agent.ID, "policy")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Refunds within 14 days", items[0].Content)

	items, err = env.client.ListKnowledge(ctx, agent.ID, "faq")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, env.client.DeleteKnowledge(ctx, item.ID))
	_, err = env.client.GetKnowledge(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskTemplateCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "tmpl")

	_, err := env.client.AddTaskTemplate(ctx, &TaskTemplate{AgentID: agent.ID, Name: "no type"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	tmpl, err := env.client.AddTaskTemplate(ctx, &TaskTemplate{
		AgentID:  agent.ID,
		Name:     "Summarize",
		TaskType: "summary",
		Steps:    []string{"Read", "Condense"},
		Examples: []TemplateExample{{Input: "long text", Output: "short text"}},
	})
	require.NoError(t, err)

	tmpl.Priority = 5
	_, err = env.client.UpdateTaskTemplate(ctx, tmpl)
	require.NoError(t, err)

	got, err := env.client.GetTaskTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Priority)
	assert.Equal(t, []string{"Read", "Condense"}, got.Steps)
	assert.Equal(t, []TemplateExample{{Input: "long text", Output: "short text"}}, got.Examples)

	list, err := env.client.ListTaskTemplates(ctx, agent.ID, "other")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, env.client.DeleteTaskTemplate(ctx, tmpl.ID))
	_, err = env.client.GetTaskTemplate(ctx, tmpl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.client.PutSetting(ctx, "theme", map[string]interface{}{"value": "dark"}, "UI theme"))

	setting, err := env.client.GetSetting(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", setting.Value["value"])
	assert.Equal(t, "UI theme", setting.Description)

	settings, err := env.client.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, settings, 1)

	require.NoError(t, env.client.DeleteSetting(ctx, "theme"))
	_, err = env.client.GetSetting(ctx, "theme")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, env.client.PutSetting(ctx, "", nil, ""), ErrInvalidInput)
}
