// Package storagetest provides a behavioural test suite shared by every
// storage.Store backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/storage"
)

// Run exercises store against the storage.Store contract. Every case uses
// fresh agent ids so the suite can run against a shared database.
func Run(t *testing.T, store storage.Store) {
	t.Run("AgentLifecycle", func(t *testing.T) { testAgentLifecycle(t, store) })
	t.Run("MemoryOrdering", func(t *testing.T) { testMemoryOrdering(t, store) })
	t.Run("MemoryUpdateKeepsType", func(t *testing.T) { testMemoryUpdate(t, store) })
	t.Run("ExpireAndCount", func(t *testing.T) { testExpireAndCount(t, store) })
	t.Run("Knowledge", func(t *testing.T) { testKnowledge(t, store) })
	t.Run("PreferenceUpsert", func(t *testing.T) { testPreferenceUpsert(t, store) })
	t.Run("TaskTemplates", func(t *testing.T) { testTaskTemplates(t, store) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, store) })
}

func newID() string {
	return uuid.NewString()
}

// NewAgent inserts a minimal agent and returns it.
func NewAgent(t *testing.T, store storage.Store) *storage.Agent {
	t.Helper()
	now := time.Now().UTC()
	agent := &storage.Agent{
		ID:                  newID(),
		Name:                "agent-" + t.Name(),
		SystemPrompt:        "You are helpful",
		Temperature:         0.7,
		MaxTokens:           1000,
		MemoryType:          "conversation",
		MemoryWindow:        10,
		KnowledgeBaseIDs:    []string{"kb-1"},
		IntegrationSettings: map[string]interface{}{"provider": "custom"},
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, store.InsertAgent(context.Background(), agent))
	return agent
}

// NewMemory inserts a memory created at the given instant.
func NewMemory(t *testing.T, store storage.Store, agentID, memoryType string, createdAt time.Time) *storage.Memory {
	t.Helper()
	memory := &storage.Memory{
		ID:         newID(),
		AgentID:    agentID,
		Role:       "user",
		Content:    "memory " + createdAt.Format(time.RFC3339Nano),
		MemoryType: memoryType,
		Metadata:   map[string]interface{}{"source": "test"},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, store.InsertMemory(context.Background(), memory))
	return memory
}

func testAgentLifecycle(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)

	got, err := store.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, agent.Name, got.Name)
	assert.Equal(t, []string{"kb-1"}, got.KnowledgeBaseIDs)
	assert.Equal(t, "custom", got.IntegrationSettings["provider"])
	assert.True(t, got.IsActive)

	got.Bio = "updated bio"
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateAgent(ctx, got))

	got, err = store.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated bio", got.Bio)

	memory := NewMemory(t, store, agent.ID, "permanent", time.Now().UTC())
	require.NoError(t, store.UpsertPreference(ctx, &storage.Preference{
		ID: newID(), AgentID: agent.ID, Key: "tone", Value: map[string]interface{}{"v": "warm"},
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.DeleteAgent(ctx, agent.ID))

	_, err = store.GetAgent(ctx, agent.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = store.GetMemory(ctx, memory.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = store.GetPreference(ctx, agent.ID, "tone")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	err = store.DeleteAgent(ctx, agent.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testMemoryOrdering(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	var inserted []*storage.Memory
	for i := 0; i < 15; i++ {
		inserted = append(inserted, NewMemory(t, store, agent.ID, "permanent", base.Add(time.Duration(i)*time.Minute)))
	}

	newest, err := store.ListMemories(ctx, &storage.MemoryListOptions{AgentID: agent.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, newest, 10)
	for i, m := range newest {
		assert.Equal(t, inserted[14-i].ID, m.ID)
	}

	oldest, err := store.ListMemories(ctx, &storage.MemoryListOptions{AgentID: agent.ID, Limit: 3, Ascending: true})
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	assert.Equal(t, inserted[0].ID, oldest[0].ID)

	paged, err := store.ListMemories(ctx, &storage.MemoryListOptions{AgentID: agent.ID, Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, paged, 5)
}

func testMemoryUpdate(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)
	memory := NewMemory(t, store, agent.ID, "temporary", time.Now().UTC())

	memory.Content = "rewritten"
	memory.Embedding = []float64{0.5, 0.5}
	memory.MemoryType = "permanent"
	memory.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateMemory(ctx, memory))

	got, err := store.GetMemory(ctx, memory.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Content)
	assert.Equal(t, []float64{0.5, 0.5}, got.Embedding)
	assert.Equal(t, "temporary", got.MemoryType)
	assert.Equal(t, "test", got.Metadata["source"])
}

func testExpireAndCount(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)
	now := time.Now().UTC()

	NewMemory(t, store, agent.ID, "temporary", now.Add(-10*24*time.Hour))
	NewMemory(t, store, agent.ID, "temporary", now.Add(-24*time.Hour))
	NewMemory(t, store, agent.ID, "permanent", now.Add(-30*24*time.Hour))

	opts := &storage.ExpireOptions{MemoryType: "temporary", Before: now.Add(-7 * 24 * time.Hour), AgentID: agent.ID}
	n, err := store.DeleteMemoriesBefore(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.DeleteMemoriesBefore(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	counts, err := store.CountMemoriesByType(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["temporary"])
	assert.Equal(t, int64(1), counts["permanent"])
	assert.Equal(t, int64(0), counts["execution"])
}

func testKnowledge(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)
	now := time.Now().UTC()

	for i, kt := range []string{"faq", "policy", "faq"} {
		require.NoError(t, store.InsertKnowledge(ctx, &storage.KnowledgeItem{
			ID: newID(), AgentID: agent.ID, Name: "item", KnowledgeType: kt, Tags: []string{"a"},
			Priority: i + 1, Content: "content", Embedding: []float64{1, 0},
			CreatedAt: now.Add(time.Duration(i) * time.Second), UpdatedAt: now,
		}))
	}

	all, err := store.ListKnowledge(ctx, &storage.KnowledgeListOptions{AgentID: agent.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{1, 0}, all[0].Embedding)
	assert.Equal(t, []string{"a"}, all[0].Tags)

	faq, err := store.ListKnowledge(ctx, &storage.KnowledgeListOptions{AgentID: agent.ID, KnowledgeTypes: []string{"faq"}})
	require.NoError(t, err)
	assert.Len(t, faq, 2)

	item := all[1]
	item.Priority = 9
	item.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateKnowledge(ctx, item))
	got, err := store.GetKnowledge(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Priority)

	require.NoError(t, store.DeleteKnowledge(ctx, item.ID))
	_, err = store.GetKnowledge(ctx, item.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testPreferenceUpsert(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)
	now := time.Now().UTC()

	first := &storage.Preference{
		ID: newID(), AgentID: agent.ID, Key: "language", Category: "style",
		Value: map[string]interface{}{"value": "en"}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.UpsertPreference(ctx, first))

	second := &storage.Preference{
		ID: newID(), AgentID: agent.ID, Key: "language", Category: "style",
		Value: map[string]interface{}{"value": "fr"}, CreatedAt: now, UpdatedAt: now.Add(time.Second),
	}
	require.NoError(t, store.UpsertPreference(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	prefs, err := store.ListPreferences(ctx, &storage.PreferenceListOptions{AgentID: agent.ID})
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "fr", prefs[0].Value["value"])

	none, err := store.ListPreferences(ctx, &storage.PreferenceListOptions{AgentID: agent.ID, Category: "other"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testTaskTemplates(t *testing.T, store storage.Store) {
	ctx := context.Background()
	agent := NewAgent(t, store)
	now := time.Now().UTC()

	tmpl := &storage.TaskTemplate{
		ID: newID(), AgentID: agent.ID, Name: "triage", TaskType: "support", Priority: 2,
		Steps:     []string{"read", "answer"},
		Examples:  []storage.TemplateExample{{Input: "q", Output: "a"}},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.InsertTaskTemplate(ctx, tmpl))
	require.NoError(t, store.InsertTaskTemplate(ctx, &storage.TaskTemplate{
		ID: newID(), AgentID: agent.ID, Name: "other", TaskType: "sales", CreatedAt: now, UpdatedAt: now,
	}))

	support, err := store.ListTaskTemplates(ctx, &storage.TaskTemplateListOptions{AgentID: agent.ID, TaskType: "support"})
	require.NoError(t, err)
	require.Len(t, support, 1)
	assert.Equal(t, []string{"read", "answer"}, support[0].Steps)
	assert.Equal(t, "a", support[0].Examples[0].Output)

	tmpl.Steps = append(tmpl.Steps, "close")
	tmpl.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateTaskTemplate(ctx, tmpl))
	got, err := store.GetTaskTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Len(t, got.Steps, 3)

	require.NoError(t, store.DeleteTaskTemplate(ctx, tmpl.ID))
	_, err = store.GetTaskTemplate(ctx, tmpl.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testSettings(t *testing.T, store storage.Store) {
	ctx := context.Background()
	key := "provider_" + newID()
	now := time.Now().UTC()

	require.NoError(t, store.PutSetting(ctx, &storage.Setting{
		Key: key, Value: map[string]interface{}{"host": "http://a"}, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.PutSetting(ctx, &storage.Setting{
		Key: key, Value: map[string]interface{}{"host": "http://b"}, CreatedAt: now, UpdatedAt: now,
	}))

	got, err := store.GetSetting(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "http://b", got.Value["host"])

	require.NoError(t, store.DeleteSetting(ctx, key))
	_, err = store.GetSetting(ctx, key)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
