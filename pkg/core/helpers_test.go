package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/log"
	"github.com/fragent/fragent-go/pkg/storage/sqlite"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    [][]llm.Message
	settings []ProviderSettings
}

func (f *fakeProvider) factory(settings ProviderSettings) (llm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, settings)
	return f, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return f.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (f *fakeProvider) GenerateWithMessages(_ context.Context, messages []llm.Message, _ ...llm.GenerateOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) lastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeProvider) lastSettings() ProviderSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.settings) == 0 {
		return ProviderSettings{}
	}
	return f.settings[len(f.settings)-1]
}

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float64
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	return e.vectors[text], nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int { return 2 }

func (e *fakeEmbedder) Close() error { return nil }

type testEnv struct {
	client   *Client
	provider *fakeProvider
	clock    *testClock
}

func newTestEnv(t *testing.T, opts ...ClientOption) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, DefaultConfig(), opts...)
}

func newTestEnvWithConfig(t *testing.T, cfg *Config, opts ...ClientOption) *testEnv {
	t.Helper()

	store, err := sqlite.NewClient(&sqlite.Config{DBPath: filepath.Join(t.TempDir(), "fragent.db")})
	require.NoError(t, err)

	provider := &fakeProvider{reply: "Hello from the agent"}
	clock := &testClock{now: baseTime}

	base := []ClientOption{
		WithStore(store),
		WithLogger(log.Discard()),
		WithProviderFactory(provider.factory),
		WithClock(clock.Now),
	}
	client, err := NewClient(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &testEnv{client: client, provider: provider, clock: clock}
}

func (e *testEnv) createAgent(t *testing.T, name string) *Agent {
	t.Helper()
	agent := NewAgent(name)
	agent.SystemPrompt = "You are helpful"
	created, err := e.client.CreateAgent(context.Background(), agent)
	require.NoError(t, err)
	return created
}

// addMemoryAt stores a memory with the clock set to at.
func (e *testEnv) addMemoryAt(t *testing.T, agentID string, memoryType MemoryType, content string, at time.Time, opts ...MemoryOption) *Memory {
	t.Helper()
	prev := e.clock.Now()
	e.clock.Set(at)
	defer e.clock.Set(prev)

	m, err := e.client.AddMemory(context.Background(), agentID, llm.RoleUser, content,
		append([]MemoryOption{WithMemoryType(memoryType)}, opts...)...)
	require.NoError(t, err)
	return m
}
