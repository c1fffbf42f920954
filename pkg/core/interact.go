package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/storage"
)

// Interact runs one conversational exchange with an agent.
//
// The user message is stored before generation and the reply after it; both
// memories share an exchange_id. When history is enabled the agent's stored
// memories (all of them, or the newest WithHistoryLimit) are replayed in
// chronological order. A failed generation leaves the user memory in place.
//
// Example:
//
//	result, err := client.Interact(ctx, agentID, "What did I ask yesterday?",
//	    core.WithHistoryLimit(20),
//	)
func (c *Client) Interact(ctx context.Context, agentID, message string, opts ...InteractOption) (*InteractionResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, NewAgentError("Interact", fmt.Errorf("%w: message is required", ErrInvalidInput))
	}
	options := applyInteractOptions(opts)

	agent, err := c.requireAgent(ctx, "Interact", agentID)
	if err != nil {
		return nil, err
	}

	var history []*Memory
	if options.UseHistory {
		limit := options.HistoryLimit
		if limit < 0 {
			limit = 0
		}
		recent, err := c.store.ListMemories(ctx, &storage.MemoryListOptions{AgentID: agentID, Limit: limit})
		if err != nil {
			return nil, storageError("Interact", err)
		}
		history = fromStorageMemories(recent)
		for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
			history[i], history[j] = history[j], history[i]
		}
	}

	exchangeID := uuid.NewString()
	userMemory, err := c.insertMemory(ctx, &storage.Memory{
		AgentID:   agentID,
		Role:      llm.RoleUser,
		Content:   message,
		Embedding: c.embed(ctx, message),
		Metadata:  map[string]interface{}{"exchange_id": exchangeID},
	})
	if err != nil {
		return nil, storageError("Interact", err)
	}

	reply, err := c.GenerateAgentResponse(ctx, fromStorageAgent(agent), message, WithConversationHistory(history))
	if err != nil {
		return nil, err
	}

	assistantMemory, err := c.insertMemory(ctx, &storage.Memory{
		AgentID:   agentID,
		Role:      llm.RoleAssistant,
		Content:   reply,
		Embedding: c.embed(ctx, reply),
		Metadata: map[string]interface{}{
			"exchange_id":    exchangeID,
			"in_response_to": userMemory.ID,
		},
	})
	if err != nil {
		return nil, storageError("Interact", err)
	}

	c.logger.InfoContext(ctx, "interaction completed", "agent_id", agentID, "exchange_id", exchangeID)
	return &InteractionResult{
		Response:        reply,
		UserMemory:      fromStorageMemory(userMemory),
		AssistantMemory: fromStorageMemory(assistantMemory),
	}, nil
}

// TriggerEvent delivers an external event to an agent.
//
// Context is built with the event type as task type, the event is stored as
// a user memory, the agent's reply is generated from the context bundle and
// stored as an assistant memory pointing back at the event.
func (c *Client) TriggerEvent(ctx context.Context, agentID string, event Event) (*EventResult, error) {
	if event.Type == "" || strings.TrimSpace(event.Content) == "" {
		return nil, NewAgentError("TriggerEvent", fmt.Errorf("%w: event type and content are required", ErrInvalidInput))
	}

	agent, err := c.requireAgent(ctx, "TriggerEvent", agentID)
	if err != nil {
		return nil, err
	}

	embedding := c.embed(ctx, event.Content)
	contextOpts := []ContextOption{WithTaskType(event.Type)}
	if embedding != nil {
		contextOpts = append(contextOpts, WithEmbedding(embedding))
	}
	bundle, err := c.BuildAgentContext(ctx, agentID, event.Content, contextOpts...)
	if err != nil {
		return nil, err
	}

	eventContext := event.Context
	if eventContext == nil {
		eventContext = map[string]interface{}{}
	}
	exchangeID := uuid.NewString()
	eventMemory, err := c.insertMemory(ctx, &storage.Memory{
		AgentID:   agentID,
		Role:      llm.RoleUser,
		Content:   event.Content,
		Embedding: embedding,
		Metadata: map[string]interface{}{
			"event_type":   event.Type,
			"event_source": event.Source,
			"context":      eventContext,
			"exchange_id":  exchangeID,
		},
	})
	if err != nil {
		return nil, storageError("TriggerEvent", err)
	}

	reply, err := c.GenerateAgentResponse(ctx, fromStorageAgent(agent), event.Content, WithContextBundle(bundle))
	if err != nil {
		return nil, err
	}

	responseMemory, err := c.insertMemory(ctx, &storage.Memory{
		AgentID:   agentID,
		Role:      llm.RoleAssistant,
		Content:   reply,
		Embedding: c.embed(ctx, reply),
		Metadata: map[string]interface{}{
			"event_type":     event.Type,
			"event_source":   "agent",
			"in_response_to": eventMemory.ID,
			"exchange_id":    exchangeID,
		},
	})
	if err != nil {
		return nil, storageError("TriggerEvent", err)
	}

	c.logger.InfoContext(ctx, "event handled", "agent_id", agentID, "event_type", event.Type, "event_id", eventMemory.ID)
	return &EventResult{
		Response:   reply,
		EventID:    eventMemory.ID,
		ResponseID: responseMemory.ID,
		Context:    bundle,
	}, nil
}
