package core

import (
	"log/slog"
	"time"

	"github.com/fragent/fragent-go/pkg/embedder"
	"github.com/fragent/fragent-go/pkg/storage"
)

// ClientOption configures a Client at construction.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger          *slog.Logger
	store           storage.Store
	embedder        embedder.Provider
	providerFactory ProviderFactory
	now             func() time.Time
	nodeID          int64
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithStore uses an already opened store instead of the one described by
// Config.Database. The client takes ownership and closes it.
func WithStore(store storage.Store) ClientOption {
	return func(opts *clientOptions) {
		opts.store = store
	}
}

// WithEmbedder uses the given embedding provider instead of Config.Embedder.
func WithEmbedder(e embedder.Provider) ClientOption {
	return func(opts *clientOptions) {
		opts.embedder = e
	}
}

// WithProviderFactory replaces the factory that turns resolved provider
// settings into an llm.Provider.
func WithProviderFactory(factory ProviderFactory) ClientOption {
	return func(opts *clientOptions) {
		opts.providerFactory = factory
	}
}

// WithClock replaces time.Now for timestamps and retention cutoffs.
func WithClock(now func() time.Time) ClientOption {
	return func(opts *clientOptions) {
		opts.now = now
	}
}

// WithNodeID sets the snowflake node used for record IDs. Defaults to 1.
func WithNodeID(id int64) ClientOption {
	return func(opts *clientOptions) {
		opts.nodeID = id
	}
}

// ContextOption is a function type for configuring BuildAgentContext.
type ContextOption func(*ContextOptions)

// ContextOptions contains configuration options for BuildAgentContext.
type ContextOptions struct {
	// TaskType restricts task template selection to one type.
	TaskType string

	// Embedding ranks memories and knowledge by similarity when set.
	Embedding []float64

	// MemoryLimit is the maximum number of memories. Defaults to Config.Retrieval.MemoryLimit.
	MemoryLimit int

	// KnowledgeLimit is the maximum number of knowledge items. Defaults to Config.Retrieval.KnowledgeLimit.
	KnowledgeLimit int

	// KnowledgeTypes restricts knowledge to the given types.
	KnowledgeTypes []string

	// EmbedInput embeds the input with the client's embedder when no
	// Embedding is given. Without it the newest memories are returned.
	EmbedInput bool
}

// WithTaskType selects the task template for the given task type.
//
// Example:
//
//	bundle, _ := client.BuildAgentContext(ctx, agentID, "hi", core.WithTaskType("support"))
func WithTaskType(taskType string) ContextOption {
	return func(opts *ContextOptions) {
		opts.TaskType = taskType
	}
}

// WithEmbedding ranks memories and knowledge against the given query embedding.
func WithEmbedding(embedding []float64) ContextOption {
	return func(opts *ContextOptions) {
		opts.Embedding = embedding
	}
}

// WithInputEmbedding ranks memories and knowledge against the input text,
// embedded with the client's embedder. An explicit WithEmbedding wins.
func WithInputEmbedding() ContextOption {
	return func(opts *ContextOptions) {
		opts.EmbedInput = true
	}
}

// WithMemoryLimit sets the maximum number of memories in the bundle.
func WithMemoryLimit(limit int) ContextOption {
	return func(opts *ContextOptions) {
		opts.MemoryLimit = limit
	}
}

// WithKnowledgeLimit sets the maximum number of knowledge items in the bundle.
func WithKnowledgeLimit(limit int) ContextOption {
	return func(opts *ContextOptions) {
		opts.KnowledgeLimit = limit
	}
}

// WithKnowledgeTypes restricts knowledge to the given types.
func WithKnowledgeTypes(types ...string) ContextOption {
	return func(opts *ContextOptions) {
		opts.KnowledgeTypes = types
	}
}

// ResponseOption is a function type for configuring GenerateAgentResponse.
type ResponseOption func(*ResponseOptions)

// ResponseOptions contains configuration options for GenerateAgentResponse.
type ResponseOptions struct {
	// History is replayed before the user message. It takes precedence
	// over the bundle's memories.
	History []*Memory

	// Bundle enriches the system prompt.
	Bundle *ContextBundle
}

// WithConversationHistory replays the given memories, oldest first, before
// the user message.
func WithConversationHistory(history []*Memory) ResponseOption {
	return func(opts *ResponseOptions) {
		opts.History = history
	}
}

// WithContextBundle enriches the prompt with an assembled context bundle.
func WithContextBundle(bundle *ContextBundle) ResponseOption {
	return func(opts *ResponseOptions) {
		opts.Bundle = bundle
	}
}

// InteractOption is a function type for configuring Interact.
type InteractOption func(*InteractOptions)

// InteractOptions contains configuration options for Interact.
type InteractOptions struct {
	// UseHistory replays stored memories before the message. Defaults to true.
	UseHistory bool

	// HistoryLimit caps replayed memories to the newest N. Zero replays all of them.
	HistoryLimit int
}

// WithHistory toggles replaying stored memories.
func WithHistory(enabled bool) InteractOption {
	return func(opts *InteractOptions) {
		opts.UseHistory = enabled
	}
}

// WithHistoryLimit caps how many stored memories are replayed.
func WithHistoryLimit(limit int) InteractOption {
	return func(opts *InteractOptions) {
		opts.HistoryLimit = limit
	}
}

// CleanupOption is a function type for configuring lifecycle cleanups.
type CleanupOption func(*CleanupOptions)

// CleanupOptions contains configuration options for lifecycle cleanups.
type CleanupOptions struct {
	// AgentID scopes the cleanup to one agent. Empty means all agents.
	AgentID string
}

// WithCleanupAgentID scopes a cleanup to one agent.
//
// Example:
//
//	deleted, _ := client.CleanupTemporaryMemories(ctx, 7, core.WithCleanupAgentID(agentID))
func WithCleanupAgentID(agentID string) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.AgentID = agentID
	}
}

// MemoryOption is a function type for configuring AddMemory.
type MemoryOption func(*MemoryOptions)

// MemoryOptions contains configuration options for AddMemory.
type MemoryOptions struct {
	// MemoryType defaults to Config.Lifecycle.DefaultMemoryType.
	MemoryType MemoryType

	Metadata  map[string]interface{}
	Embedding []float64
}

// WithMemoryType sets the lifecycle class of the new memory.
func WithMemoryType(t MemoryType) MemoryOption {
	return func(opts *MemoryOptions) {
		opts.MemoryType = t
	}
}

// WithMemoryMetadata attaches metadata to the new memory.
func WithMemoryMetadata(metadata map[string]interface{}) MemoryOption {
	return func(opts *MemoryOptions) {
		opts.Metadata = metadata
	}
}

// WithMemoryEmbedding stores an embedding with the new memory. When unset and
// an embedder is configured, the content is embedded automatically.
func WithMemoryEmbedding(embedding []float64) MemoryOption {
	return func(opts *MemoryOptions) {
		opts.Embedding = embedding
	}
}

func applyContextOptions(opts []ContextOption) *ContextOptions {
	options := &ContextOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func applyResponseOptions(opts []ResponseOption) *ResponseOptions {
	options := &ResponseOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func applyInteractOptions(opts []InteractOption) *InteractOptions {
	options := &InteractOptions{UseHistory: true}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func applyCleanupOptions(opts []CleanupOption) *CleanupOptions {
	options := &CleanupOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func applyMemoryOptions(opts []MemoryOption) *MemoryOptions {
	options := &MemoryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
