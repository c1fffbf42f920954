package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAgentContextRecency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "recency")

	for i := 0; i < 15; i++ {
		env.addMemoryAt(t, agent.ID, MemoryPermanent, fmt.Sprintf("memory %d", i), baseTime.Add(time.Duration(i)*time.Minute))
	}

	bundle, err := env.client.BuildAgentContext(ctx, agent.ID, "anything", WithMemoryLimit(10))
	require.NoError(t, err)
	require.Len(t, bundle.Memories, 10)
	for i, m := range bundle.Memories {
		assert.Equal(t, fmt.Sprintf("memory %d", 14-i), m.Content)
	}
}

func TestBuildAgentContextRecencyTieBreak(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createAgent(t, "ties")

	env.addMemoryAt(t, agent.ID, MemoryPermanent, "first", baseTime)
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "second", baseTime)

	bundle, err := env.client.BuildAgentContext(context.Background(), agent.ID, "", WithMemoryLimit(1))
	require.NoError(t, err)
	require.Len(t, bundle.Memories, 1)
	assert.Equal(t, "second", bundle.Memories[0].Content)
}

func TestBuildAgentContextSemanticMemories(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createAgent(t, "semantic")

	env.addMemoryAt(t, agent.ID, MemoryPermanent, "orthogonal", baseTime, WithMemoryEmbedding([]float64{0, 1}))
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "aligned", baseTime.Add(time.Minute), WithMemoryEmbedding([]float64{1, 0}))
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "close", baseTime.Add(2*time.Minute), WithMemoryEmbedding([]float64{1, 1}))
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "no embedding", baseTime.Add(3*time.Minute))

	bundle, err := env.client.BuildAgentContext(context.Background(), agent.ID, "", WithEmbedding([]float64{1, 0}))
	require.NoError(t, err)
	require.Len(t, bundle.Memories, 3)
	assert.Equal(t, "aligned", bundle.Memories[0].Content)
	assert.Equal(t, "close", bundle.Memories[1].Content)
	assert.Equal(t, "orthogonal", bundle.Memories[2].Content)
	assert.InDelta(t, 1.0, bundle.Memories[0].Score, 1e-9)
}

func TestBuildAgentContextEmbedsInputOnRequest(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"cats":  {1, 0},
		"dogs":  {0, 1},
		"query": {1, 0},
	}}
	env := newTestEnv(t, WithEmbedder(emb))
	agent := env.createAgent(t, "embedder")

	env.addMemoryAt(t, agent.ID, MemoryPermanent, "dogs", baseTime.Add(time.Minute))
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "cats", baseTime)
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "unknown text", baseTime.Add(2*time.Minute))

	ctx := context.Background()

	bundle, err := env.client.BuildAgentContext(ctx, agent.ID, "query")
	require.NoError(t, err)
	require.Len(t, bundle.Memories, 3)
	assert.Equal(t, "unknown text", bundle.Memories[0].Content)
	assert.Equal(t, "dogs", bundle.Memories[1].Content)
	assert.Equal(t, "cats", bundle.Memories[2].Content)

	bundle, err = env.client.BuildAgentContext(ctx, agent.ID, "query", WithInputEmbedding())
	require.NoError(t, err)
	require.Len(t, bundle.Memories, 2)
	assert.Equal(t, "cats", bundle.Memories[0].Content)
	assert.Equal(t, "dogs", bundle.Memories[1].Content)

	bundle, err = env.client.BuildAgentContext(ctx, agent.ID, "query",
		WithInputEmbedding(), WithEmbedding([]float64{0, 1}))
	require.NoError(t, err)
	require.Len(t, bundle.Memories, 2)
	assert.Equal(t, "dogs", bundle.Memories[0].Content)
}

func TestBuildAgentContextKnowledgePriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "knowledge")

	for i, k := range []struct {
		name     string
		priority int
		kind     string
	}{
		{"low", 1, "faq"},
		{"high-a", 3, "faq"},
		{"high-b", 3, "policy"},
	} {
		env.clock.Set(baseTime.Add(time.Duration(i) * time.Minute))
		_, err := env.client.AddKnowledge(ctx, &KnowledgeItem{
			AgentID:       agent.ID,
			Name:          k.name,
			Content:       k.name + " content",
			KnowledgeType: k.kind,
			Priority:      k.priority,
		})
		require.NoError(t, err)
	}

	bundle, err := env.client.BuildAgentContext(ctx, agent.ID, "", WithKnowledgeLimit(2))
	require.NoError(t, err)
	require.Len(t, bundle.Knowledge, 2)
	assert.Equal(t, "high-a", bundle.Knowledge[0].Name)
	assert.Equal(t, "high-b", bundle.Knowledge[1].Name)

	bundle, err = env.client.BuildAgentContext(ctx, agent.ID, "", WithKnowledgeTypes("faq"))
	require.NoError(t, err)
	require.Len(t, bundle.Knowledge, 2)
	assert.Equal(t, "high-a", bundle.Knowledge[0].Name)
	assert.Equal(t, "low", bundle.Knowledge[1].Name)
}

func TestBuildAgentContextSemanticKnowledge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "semantic-knowledge")

	_, err := env.client.AddKnowledge(ctx, &KnowledgeItem{AgentID: agent.ID, Name: "unembedded", Priority: 5})
	require.NoError(t, err)
	_, err = env.client.AddKnowledge(ctx, &KnowledgeItem{AgentID: agent.ID, Name: "aligned", Priority: 1, Embedding: []float64{1, 0}})
	require.NoError(t, err)

	bundle, err := env.client.BuildAgentContext(ctx, agent.ID, "", WithEmbedding([]float64{1, 0}))
	require.NoError(t, err)
	require.Len(t, bundle.Knowledge, 2)
	assert.Equal(t, "aligned", bundle.Knowledge[0].Name)
	assert.InDelta(t, 1.1, bundle.Knowledge[0].Score, 1e-9)
	assert.InDelta(t, 0.5, bundle.Knowledge[1].Score, 1e-9)
}

func TestBuildAgentContextTemplateAndPreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "templates")

	for _, tmpl := range []*TaskTemplate{
		{AgentID: agent.ID, Name: "support-basic", TaskType: "support", Priority: 1, Steps: []string{"Greet"}},
		{AgentID: agent.ID, Name: "support-pro", TaskType: "support", Priority: 5, Steps: []string{"Greet", "Solve"}},
		{AgentID: agent.ID, Name: "billing", TaskType: "billing", Priority: 9, Steps: []string{"Invoice"}},
	} {
		_, err := env.client.AddTaskTemplate(ctx, tmpl)
		require.NoError(t, err)
	}
	_, err := env.client.SetPreference(ctx, &Preference{
		AgentID: agent.ID,
		Key:     "tone",
		Value:   map[string]interface{}{"value": "formal"},
	})
	require.NoError(t, err)

	bundle, err := env.client.BuildAgentContext(ctx, agent.ID, "", WithTaskType("support"))
	require.NoError(t, err)
	require.NotNil(t, bundle.TaskTemplate)
	assert.Equal(t, "support-pro", bundle.TaskTemplate.Name)
	assert.Equal(t, []string{"Greet", "Solve"}, bundle.TaskTemplate.Steps)
	assert.Equal(t, map[string]interface{}{"value": "formal"}, bundle.Preferences["tone"])

	bundle, err = env.client.BuildAgentContext(ctx, agent.ID, "")
	require.NoError(t, err)
	require.NotNil(t, bundle.TaskTemplate)
	assert.Equal(t, "billing", bundle.TaskTemplate.Name)

	bundle, err = env.client.BuildAgentContext(ctx, agent.ID, "", WithTaskType("shipping"))
	require.NoError(t, err)
	assert.Nil(t, bundle.TaskTemplate)
}

func TestBuildAgentContextUnknownAgent(t *testing.T) {
	env := newTestEnv(t)

	bundle, err := env.client.BuildAgentContext(context.Background(), "missing", "hello")
	require.NoError(t, err)
	assert.True(t, bundle.IsEmpty())
	assert.Empty(t, bundle.Memories)
	assert.Empty(t, bundle.Knowledge)
}

func TestBuildAgentContextIsReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "read-only")
	env.addMemoryAt(t, agent.ID, MemoryTemporary, "note", baseTime)

	before, err := env.client.GetMemoryStats(ctx, agent.ID)
	require.NoError(t, err)
	_, err = env.client.BuildAgentContext(ctx, agent.ID, "hello")
	require.NoError(t, err)
	after, err := env.client.GetMemoryStats(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
