package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/metrics"
)

// ServiceUnavailableResponse is returned in place of a generated reply when
// the agent's provider is not configured or rejects its credentials.
const ServiceUnavailableResponse = "The AI service is currently unavailable. Please check the provider configuration and try again."

// GenerateAgentResponse produces the agent's reply to message.
//
// Provider failures never surface as errors: a misconfigured provider or
// rejected credentials yield ServiceUnavailableResponse, and transport or
// HTTP failures yield a text starting with "Error: ". An error is returned
// only when the settings store cannot be read or ctx is already done.
//
// Example:
//
//	bundle, _ := client.BuildAgentContext(ctx, agent.ID, "hello")
//	reply, err := client.GenerateAgentResponse(ctx, agent, "hello",
//	    core.WithContextBundle(bundle),
//	)
func (c *Client) GenerateAgentResponse(ctx context.Context, agent *Agent, message string, opts ...ResponseOption) (string, error) {
	if agent == nil {
		return "", NewAgentError("GenerateAgentResponse", fmt.Errorf("%w: agent is required", ErrInvalidInput))
	}
	if err := ctx.Err(); err != nil {
		return "", NewAgentError("GenerateAgentResponse", err)
	}
	options := applyResponseOptions(opts)

	settings, err := c.providers.Resolve(ctx, toStorageAgent(agent))
	if err != nil {
		if errors.Is(err, ErrUnsupportedProvider) || errors.Is(err, ErrProviderUnavailable) {
			c.logger.WarnContext(ctx, "llm provider unavailable", "agent_id", agent.ID, "error", err)
			c.observeLLM(string(settings.Name), "unavailable", 0)
			return ServiceUnavailableResponse, nil
		}
		return "", NewAgentError("GenerateAgentResponse", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}

	provider, err := c.providers.factory(settings)
	if err != nil {
		c.logger.WarnContext(ctx, "llm provider unavailable", "agent_id", agent.ID, "provider", settings.Name, "error", err)
		c.observeLLM(string(settings.Name), "unavailable", 0)
		return ServiceUnavailableResponse, nil
	}
	defer func() { _ = provider.Close() }()

	messages := BuildMessages(agent, message, options.History, options.Bundle)

	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := provider.GenerateWithMessages(callCtx, messages,
		llm.WithTemperature(agent.Temperature),
		llm.WithMaxTokens(agent.MaxTokens),
	)
	elapsed := time.Since(start)
	if err != nil {
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.Unauthorized() {
				c.logger.WarnContext(ctx, "llm provider rejected credentials",
					"agent_id", agent.ID, "provider", settings.Name, "status", statusErr.StatusCode)
				c.observeLLM(string(settings.Name), "unavailable", elapsed)
				return ServiceUnavailableResponse, nil
			}
			c.logger.ErrorContext(ctx, "llm request failed",
				"agent_id", agent.ID, "provider", settings.Name, "status", statusErr.StatusCode)
			c.observeLLM(string(settings.Name), "error", elapsed)
			return "Error: " + statusErr.Error(), nil
		}
		c.logger.ErrorContext(ctx, "llm request failed", "agent_id", agent.ID, "provider", settings.Name, "error", err)
		c.observeLLM(string(settings.Name), "error", elapsed)
		return "Error: " + err.Error(), nil
	}

	c.observeLLM(string(settings.Name), "ok", elapsed)
	c.logger.DebugContext(ctx, "llm response generated",
		"agent_id", agent.ID, "provider", settings.Name, "model", settings.Model, "duration", elapsed)
	return reply, nil
}

func (c *Client) observeLLM(provider, status string, elapsed time.Duration) {
	if !c.metricsEnabled() {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	metrics.LLMRequestTotal.WithLabelValues(provider, status).Inc()
	if elapsed > 0 {
		metrics.LLMRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// BuildMessages assembles the message sequence sent to the provider: the
// system prompt (omitted when empty), then either history or the bundle's
// memories replayed oldest first, then the user message. Explicit history
// takes precedence over bundle memories and the two are never merged.
func BuildMessages(agent *Agent, message string, history []*Memory, bundle *ContextBundle) []llm.Message {
	var messages []llm.Message

	if system := BuildSystemPrompt(agent, bundle); system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	}

	switch {
	case len(history) > 0:
		for _, m := range history {
			if isChatRole(m.Role) {
				messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
			}
		}
	case !bundle.IsEmpty():
		for _, m := range chronological(bundle.Memories) {
			if isChatRole(m.Role) {
				messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
			}
		}
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

// chronological returns a copy of memories ordered oldest first. Bundle
// memories arrive newest (or most relevant) first.
func chronological(memories []ContextMemory) []ContextMemory {
	out := make([]ContextMemory, len(memories))
	for i, m := range memories {
		out[len(memories)-1-i] = m
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func isChatRole(role string) bool {
	switch role {
	case llm.RoleUser, llm.RoleAssistant, llm.RoleSystem:
		return true
	}
	return false
}

// BuildSystemPrompt returns the agent's system prompt enriched with the
// personality, knowledge, preferences and task template of bundle.
func BuildSystemPrompt(agent *Agent, bundle *ContextBundle) string {
	var b strings.Builder
	b.WriteString(agent.SystemPrompt)

	if bundle.IsEmpty() {
		return b.String()
	}

	if agent.Personality != "" || agent.Bio != "" {
		fmt.Fprintf(&b, "\n\nYour personality: %s\nYour bio: %s", agent.Personality, agent.Bio)
	}

	if len(bundle.Knowledge) > 0 {
		b.WriteString("\n\nYou have the following knowledge:\n")
		for _, k := range bundle.Knowledge {
			fmt.Fprintf(&b, "- %s: %s\n", k.Name, k.Content)
		}
	}

	if len(bundle.Preferences) > 0 {
		keys := make([]string, 0, len(bundle.Preferences))
		for k := range bundle.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n\nYou have the following preferences:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, preferenceText(bundle.Preferences[k]))
		}
	}

	if t := bundle.TaskTemplate; t != nil {
		fmt.Fprintf(&b, "\n\nFor tasks of type '%s', follow these steps:\n", t.TaskType)
		for i, step := range t.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		if len(t.Examples) > 0 {
			b.WriteString("\nExamples:\n")
			for _, e := range t.Examples {
				fmt.Fprintf(&b, "- Input: %s\n  Output: %s\n", e.Input, e.Output)
			}
		}
	}

	return b.String()
}

// preferenceText renders a preference value. A map holding only "value" is
// shown as that scalar; anything else is shown as JSON.
func preferenceText(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok && len(m) == 1 {
		if inner, ok := m["value"]; ok {
			if s, ok := inner.(string); ok {
				return s
			}
			v = inner
		}
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
