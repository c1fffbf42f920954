package core

import (
	"context"
	"time"

	"github.com/fragent/fragent-go/pkg/intelligence"
	"github.com/fragent/fragent-go/pkg/metrics"
	"github.com/fragent/fragent-go/pkg/storage"
)

// BuildAgentContext assembles the context an agent needs to answer input:
// its most relevant memories, knowledge items, the matching task template
// and its preferences.
//
// Without a query embedding, memories are the most recent ones and knowledge
// is ordered by priority. With an embedding (supplied by WithEmbedding, or
// produced from input when WithInputEmbedding is set), both are ranked by cosine
// similarity and memories without an embedding are skipped.
//
// An unknown agent yields an empty bundle and no error. The call never
// writes to the store.
//
// Example:
//
//	bundle, err := client.BuildAgentContext(ctx, agentID, "How do I reset my password?",
//	    core.WithTaskType("support"),
//	    core.WithMemoryLimit(5),
//	)
func (c *Client) BuildAgentContext(ctx context.Context, agentID, input string, opts ...ContextOption) (*ContextBundle, error) {
	start := time.Now()
	bundle, outcome, err := c.buildAgentContext(ctx, agentID, input, applyContextOptions(opts))
	if c.metricsEnabled() {
		metrics.ContextBuildTotal.WithLabelValues(outcome).Inc()
		metrics.ContextBuildDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, storageError("BuildAgentContext", err)
	}
	return bundle, nil
}

func (c *Client) buildAgentContext(ctx context.Context, agentID, input string, options *ContextOptions) (*ContextBundle, string, error) {
	agent, err := c.store.GetAgent(ctx, agentID)
	if err != nil {
		if isNotFound(err) {
			c.logger.WarnContext(ctx, "context requested for unknown agent", "agent_id", agentID)
			return &ContextBundle{}, "unknown_agent", nil
		}
		return nil, "error", err
	}

	memoryLimit := options.MemoryLimit
	if memoryLimit <= 0 {
		memoryLimit = c.config.Retrieval.MemoryLimit
	}
	knowledgeLimit := options.KnowledgeLimit
	if knowledgeLimit <= 0 {
		knowledgeLimit = c.config.Retrieval.KnowledgeLimit
	}

	embedding := options.Embedding
	if len(embedding) == 0 && options.EmbedInput {
		embedding = c.embed(ctx, input)
	}

	bundle := &ContextBundle{
		Agent:       toAgentProfile(agent),
		Memories:    []ContextMemory{},
		Knowledge:   []ContextKnowledge{},
		Preferences: map[string]interface{}{},
	}

	if bundle.Memories, err = c.relevantMemories(ctx, agentID, embedding, memoryLimit); err != nil {
		return nil, "error", err
	}
	if bundle.Knowledge, err = c.relevantKnowledge(ctx, agentID, embedding, knowledgeLimit, options.KnowledgeTypes); err != nil {
		return nil, "error", err
	}

	templates, err := c.store.ListTaskTemplates(ctx, &storage.TaskTemplateListOptions{
		AgentID:  agentID,
		TaskType: options.TaskType,
	})
	if err != nil {
		return nil, "error", err
	}
	if tmpl := intelligence.SelectTaskTemplate(templates, options.TaskType); tmpl != nil {
		bundle.TaskTemplate = toContextTemplate(tmpl)
	}

	prefs, err := c.store.ListPreferences(ctx, &storage.PreferenceListOptions{AgentID: agentID})
	if err != nil {
		return nil, "error", err
	}
	for _, p := range prefs {
		bundle.Preferences[p.Key] = p.Value
	}

	c.logger.DebugContext(ctx, "agent context built",
		"agent_id", agentID,
		"memories", len(bundle.Memories),
		"knowledge", len(bundle.Knowledge),
		"template", bundle.TaskTemplate != nil,
		"semantic", len(embedding) > 0,
	)
	return bundle, "ok", nil
}

func (c *Client) relevantMemories(ctx context.Context, agentID string, embedding []float64, limit int) ([]ContextMemory, error) {
	var ranked []intelligence.ScoredMemory

	if len(embedding) == 0 {
		recent, err := c.store.ListMemories(ctx, &storage.MemoryListOptions{AgentID: agentID, Limit: limit})
		if err != nil {
			return nil, err
		}
		ranked = make([]intelligence.ScoredMemory, len(recent))
		for i, m := range recent {
			ranked[i] = intelligence.ScoredMemory{Memory: m}
		}
	} else {
		all, err := c.store.ListMemories(ctx, &storage.MemoryListOptions{AgentID: agentID, Ascending: true})
		if err != nil {
			return nil, err
		}
		ranked = intelligence.RankMemories(all, embedding, limit)
	}

	memories := make([]ContextMemory, len(ranked))
	for i, s := range ranked {
		memories[i] = ContextMemory{
			ID:        s.Memory.ID,
			Role:      s.Memory.Role,
			Content:   s.Memory.Content,
			Type:      MemoryType(s.Memory.MemoryType),
			Score:     s.Score,
			CreatedAt: s.Memory.CreatedAt,
		}
	}
	return memories, nil
}

func (c *Client) relevantKnowledge(ctx context.Context, agentID string, embedding []float64, limit int, types []string) ([]ContextKnowledge, error) {
	items, err := c.store.ListKnowledge(ctx, &storage.KnowledgeListOptions{AgentID: agentID, KnowledgeTypes: types})
	if err != nil {
		return nil, err
	}

	ranked := intelligence.RankKnowledge(items, embedding, limit)
	knowledge := make([]ContextKnowledge, len(ranked))
	for i, s := range ranked {
		knowledge[i] = ContextKnowledge{
			ID:       s.Item.ID,
			Name:     s.Item.Name,
			Content:  s.Item.Content,
			Type:     s.Item.KnowledgeType,
			Tags:     s.Item.Tags,
			Priority: s.Item.Priority,
			Score:    s.Score,
		}
	}
	return knowledge, nil
}
