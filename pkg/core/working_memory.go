package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fragent/fragent-go/pkg/intelligence"
	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/storage"
)

const previewLength = 100

// WorkingStep is one recorded processing step.
type WorkingStep struct {
	Step     string                 `json:"step"`
	Result   interface{}            `json:"result,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// WorkingDocument is a document held during a task.
type WorkingDocument struct {
	Content  string                 `json:"content"`
	Source   string                 `json:"source,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// WorkingResult is a task result. Results whose metadata has important=true
// become memories of their own on distillation.
type WorkingResult struct {
	Result      interface{}            `json:"result"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// WorkingMemorySummary is a snapshot of a WorkingMemory with document
// contents shortened to a preview.
type WorkingMemorySummary struct {
	Data      map[string]interface{} `json:"data"`
	Steps     []WorkingStep          `json:"steps"`
	Documents []WorkingDocument      `json:"documents"`
	Results   []WorkingResult        `json:"results"`
}

// WorkingMemory is per-task scratch space. It is never persisted directly;
// ToPermanentMemories distills it into permanent memories.
//
// A WorkingMemory is safe for concurrent use.
type WorkingMemory struct {
	mu        sync.Mutex
	data      map[string]interface{}
	steps     []WorkingStep
	documents []WorkingDocument
	results   []WorkingResult
}

// NewWorkingMemory returns an empty WorkingMemory.
func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{data: map[string]interface{}{}}
}

// AddData stores value under key.
func (w *WorkingMemory) AddData(key string, value interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.data == nil {
		w.data = map[string]interface{}{}
	}
	w.data[key] = value
}

// GetData returns the value stored under key, or def when absent.
func (w *WorkingMemory) GetData(key string, def interface{}) interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v, ok := w.data[key]; ok {
		return v
	}
	return def
}

// AddStep records a processing step.
func (w *WorkingMemory) AddStep(step string, result interface{}, metadata map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.steps = append(w.steps, WorkingStep{Step: step, Result: result, Metadata: orEmpty(metadata)})
}

// AddDocument records a document.
func (w *WorkingMemory) AddDocument(content, source string, metadata map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.documents = append(w.documents, WorkingDocument{Content: content, Source: source, Metadata: orEmpty(metadata)})
}

// AddResult records a result.
func (w *WorkingMemory) AddResult(result interface{}, description string, metadata map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = append(w.results, WorkingResult{Result: result, Description: description, Metadata: orEmpty(metadata)})
}

// Summary returns a snapshot of the working memory.
func (w *WorkingMemory) Summary() WorkingMemorySummary {
	w.mu.Lock()
	defer w.mu.Unlock()

	data := make(map[string]interface{}, len(w.data))
	for k, v := range w.data {
		data[k] = v
	}
	docs := make([]WorkingDocument, len(w.documents))
	for i, d := range w.documents {
		docs[i] = WorkingDocument{Content: preview(d.Content), Source: d.Source, Metadata: d.Metadata}
	}
	return WorkingMemorySummary{
		Data:      data,
		Steps:     append([]WorkingStep(nil), w.steps...),
		Documents: docs,
		Results:   append([]WorkingResult(nil), w.results...),
	}
}

// Clear drops everything recorded so far.
func (w *WorkingMemory) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = map[string]interface{}{}
	w.steps = nil
	w.documents = nil
	w.results = nil
}

// ToPermanentMemories distills the working memory into permanent system
// memories for agentID: one task summary, plus one memory per important
// result. Nothing is produced when no step was recorded.
func (w *WorkingMemory) ToPermanentMemories(agentID string) []*Memory {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.steps) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task summary: Completed %d steps.\n", len(w.steps))
	fmt.Fprintf(&b, "Started with: %s\n", w.steps[0].Step)
	if len(w.steps) > 1 {
		fmt.Fprintf(&b, "Ended with: %s\n", w.steps[len(w.steps)-1].Step)
	}
	if len(w.results) > 0 {
		b.WriteString("\nResults:\n")
		for _, r := range w.results {
			fmt.Fprintf(&b, "- %s: %s\n", describe(r.Description, "Result"), preview(resultText(r.Result)))
		}
	}

	memories := []*Memory{{
		AgentID:    agentID,
		Role:       llm.RoleSystem,
		Content:    b.String(),
		MemoryType: MemoryPermanent,
		Metadata: map[string]interface{}{
			"type":            "task_summary",
			"steps_count":     len(w.steps),
			"documents_count": len(w.documents),
			"results_count":   len(w.results),
		},
	}}

	for _, r := range w.results {
		if important, _ := r.Metadata["important"].(bool); !important {
			continue
		}
		metadata := map[string]interface{}{"type": "task_result"}
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		memories = append(memories, &Memory{
			AgentID:    agentID,
			Role:       llm.RoleSystem,
			Content:    fmt.Sprintf("Result: %s\n%s", describe(r.Description, "Important result"), resultText(r.Result)),
			MemoryType: MemoryPermanent,
			Metadata:   metadata,
		})
	}
	return memories
}

// CommitWorkingMemory persists the memories distilled from wm and returns
// them with IDs assigned.
func (c *Client) CommitWorkingMemory(ctx context.Context, agentID string, wm *WorkingMemory) ([]*Memory, error) {
	if wm == nil {
		return nil, NewAgentError("CommitWorkingMemory", fmt.Errorf("%w: working memory is required", ErrInvalidInput))
	}
	if _, err := c.requireAgent(ctx, "CommitWorkingMemory", agentID); err != nil {
		return nil, err
	}

	distilled := wm.ToPermanentMemories(agentID)
	saved := make([]*Memory, 0, len(distilled))
	for _, m := range distilled {
		row, err := c.insertMemory(ctx, &storage.Memory{
			AgentID:    m.AgentID,
			Role:       m.Role,
			Content:    m.Content,
			MemoryType: intelligence.MemoryTypePermanent,
			Metadata:   m.Metadata,
		})
		if err != nil {
			return saved, storageError("CommitWorkingMemory", err)
		}
		saved = append(saved, fromStorageMemory(row))
	}

	c.logger.InfoContext(ctx, "working memory committed", "agent_id", agentID, "memories", len(saved))
	return saved, nil
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func describe(description, def string) string {
	if description == "" {
		return def
	}
	return description
}

func resultText(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLength {
		return string(r[:previewLength]) + "..."
	}
	return s
}
