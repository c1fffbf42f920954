package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/llm"
)

func TestBuildMessagesSystemAndUser(t *testing.T) {
	agent := NewAgent("helper")
	agent.SystemPrompt = "You are helpful"

	messages := BuildMessages(agent, "hello", nil, nil)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are helpful"},
		{Role: llm.RoleUser, Content: "hello"},
	}, messages)
}

func TestBuildMessagesOmitsEmptySystem(t *testing.T) {
	messages := BuildMessages(NewAgent("bare"), "hello", nil, nil)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, messages)
}

func TestBuildMessagesHistoryWinsOverBundle(t *testing.T) {
	agent := NewAgent("helper")
	history := []*Memory{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: "tool", Content: "skipped"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}
	bundle := &ContextBundle{
		Agent:    &AgentProfile{ID: "a"},
		Memories: []ContextMemory{{Role: llm.RoleUser, Content: "from bundle"}},
	}

	messages := BuildMessages(agent, "now", history, bundle)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
		{Role: llm.RoleUser, Content: "now"},
	}, messages)
}

func TestBuildMessagesReplaysBundleOldestFirst(t *testing.T) {
	agent := NewAgent("helper")
	bundle := &ContextBundle{
		Agent: &AgentProfile{ID: "a"},
		Memories: []ContextMemory{
			{Role: llm.RoleAssistant, Content: "newest", CreatedAt: baseTime.Add(2 * time.Minute)},
			{Role: llm.RoleUser, Content: "middle", CreatedAt: baseTime.Add(time.Minute)},
			{Role: llm.RoleUser, Content: "oldest", CreatedAt: baseTime},
		},
	}

	messages := BuildMessages(agent, "now", nil, bundle)
	require.Len(t, messages, 4)
	assert.Equal(t, "oldest", messages[0].Content)
	assert.Equal(t, "middle", messages[1].Content)
	assert.Equal(t, "newest", messages[2].Content)
	assert.Equal(t, "now", messages[3].Content)
}

func TestBuildSystemPrompt(t *testing.T) {
	agent := NewAgent("helper")
	agent.SystemPrompt = "You are helpful"
	agent.Personality = "calm"
	agent.Bio = "a librarian"

	bundle := &ContextBundle{
		Agent: &AgentProfile{ID: "a"},
		Knowledge: []ContextKnowledge{
			{Name: "hours", Content: "9 to 5"},
		},
		Preferences: map[string]interface{}{
			"tone":   map[string]interface{}{"value": "formal"},
			"format": map[string]interface{}{"style": "list", "max": float64(3)},
		},
		TaskTemplate: &ContextTemplate{
			TaskType: "lookup",
			Steps:    []string{"Find the book", "Report the shelf"},
			Examples: []TemplateExample{{Input: "Dune?", Output: "Shelf 4"}},
		},
	}

	want := "You are helpful" +
		"\n\nYour personality: calm\nYour bio: a librarian" +
		"\n\nYou have the following knowledge:\n- hours: 9 to 5\n" +
		"\n\nYou have the following preferences:\n" +
		"- format: {\"max\":3,\"style\":\"list\"}\n" +
		"- tone: formal\n" +
		"\n\nFor tasks of type 'lookup', follow these steps:\n" +
		"1. Find the book\n2. Report the shelf\n" +
		"\nExamples:\n- Input: Dune?\n  Output: Shelf 4\n"
	assert.Equal(t, want, BuildSystemPrompt(agent, bundle))
}

func TestBuildSystemPromptIgnoresEmptyBundle(t *testing.T) {
	agent := NewAgent("helper")
	agent.SystemPrompt = "Base"
	agent.Personality = "calm"

	assert.Equal(t, "Base", BuildSystemPrompt(agent, &ContextBundle{}))
	assert.Equal(t, "Base", BuildSystemPrompt(agent, nil))
}

func TestGenerateAgentResponse(t *testing.T) {
	env := newTestEnv(t)
	agent := env.createAgent(t, "responder")

	reply, err := env.client.GenerateAgentResponse(context.Background(), agent, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello from the agent", reply)

	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are helpful"},
		{Role: llm.RoleUser, Content: "hello"},
	}, env.provider.lastCall())

	settings := env.provider.lastSettings()
	assert.Equal(t, llm.ProviderCustom, settings.Name)
	assert.Equal(t, "https://llm.chutes.ai/v1", settings.BaseURL)
	assert.Equal(t, "RekaAI/reka-flash-3", settings.Model)
}

func TestGenerateAgentResponseDegradation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server error", &llm.StatusError{StatusCode: 500, Body: "boom"}, "Error: 500 - boom"},
		{"unauthorized", &llm.StatusError{StatusCode: 401, Body: "bad key"}, ServiceUnavailableResponse},
		{"forbidden", &llm.StatusError{StatusCode: 403, Body: "nope"}, ServiceUnavailableResponse},
		{"transport", errors.New("dial tcp: connection refused"), "Error: dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.provider.err = tt.err
			agent := env.createAgent(t, "degraded")

			reply, err := env.client.GenerateAgentResponse(context.Background(), agent, "hello")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestGenerateAgentResponseUnavailableProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	missingKey := NewAgent("openai-agent")
	missingKey.IntegrationSettings = map[string]interface{}{"provider": "openai"}
	reply, err := env.client.GenerateAgentResponse(ctx, missingKey, "hello")
	require.NoError(t, err)
	assert.Equal(t, ServiceUnavailableResponse, reply)

	unknown := NewAgent("mystery")
	unknown.IntegrationSettings = map[string]interface{}{"provider": "mystery"}
	reply, err = env.client.GenerateAgentResponse(ctx, unknown, "hello")
	require.NoError(t, err)
	assert.Equal(t, ServiceUnavailableResponse, reply)

	assert.Empty(t, env.provider.calls)
}

func TestGenerateAgentResponseNoHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Providers[string(llm.ProviderCustom)] = ProviderConfig{}
	env := newTestEnvWithConfig(t, cfg)
	agent := env.createAgent(t, "hostless")

	reply, err := env.client.GenerateAgentResponse(context.Background(), agent, "hello")
	require.NoError(t, err)
	assert.Equal(t, ServiceUnavailableResponse, reply)
}

func TestProviderSettingsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "configured")

	_, err := env.client.GenerateAgentResponse(ctx, agent, "first")
	require.NoError(t, err)
	assert.Equal(t, "https://llm.chutes.ai/v1", env.provider.lastSettings().BaseURL)

	require.NoError(t, env.client.SetProviderSettings(ctx, llm.ProviderCustom, ProviderCredentials{
		APIKey:       "secret",
		Host:         "http://localhost:9000/v1/",
		DefaultModel: "tiny",
	}))

	_, err = env.client.GenerateAgentResponse(ctx, agent, "second")
	require.NoError(t, err)
	settings := env.provider.lastSettings()
	assert.Equal(t, "secret", settings.APIKey)
	assert.Equal(t, "http://localhost:9000/v1", settings.BaseURL)
	assert.Equal(t, "tiny", settings.Model)

	agent.Model = "agent-model"
	_, err = env.client.GenerateAgentResponse(ctx, agent, "third")
	require.NoError(t, err)
	assert.Equal(t, "agent-model", env.provider.lastSettings().Model)
}

func TestSetDefaultProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := NewAgent("default-provider")

	require.NoError(t, env.client.SetProviderSettings(ctx, llm.ProviderOpenRouter, ProviderCredentials{APIKey: "or-key"}))
	require.NoError(t, env.client.SetDefaultProvider(ctx, llm.ProviderOpenRouter))

	_, err := env.client.GenerateAgentResponse(ctx, agent, "hello")
	require.NoError(t, err)
	settings := env.provider.lastSettings()
	assert.Equal(t, llm.ProviderOpenRouter, settings.Name)
	assert.Equal(t, "or-key", settings.APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", settings.BaseURL)
	assert.Equal(t, "https://fra-gent.ai", settings.Referer)

	err = env.client.SetDefaultProvider(ctx, "bogus")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestDefaultProviderFactory(t *testing.T) {
	for _, name := range llm.ProviderNames {
		p, err := DefaultProviderFactory(ProviderSettings{
			Name:    name,
			APIKey:  "key",
			BaseURL: "http://localhost:1234",
			Model:   "m",
		})
		require.NoError(t, err, name)
		require.NotNil(t, p)
		assert.NoError(t, p.Close())
	}

	_, err := DefaultProviderFactory(ProviderSettings{Name: "bogus"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
