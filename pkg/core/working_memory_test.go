package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/llm"
)

func TestWorkingMemoryToPermanentMemories(t *testing.T) {
	wm := NewWorkingMemory()
	wm.AddStep("Fetch orders", nil, nil)
	wm.AddStep("Compute totals", 42, nil)
	wm.AddStep("Write report", nil, nil)
	wm.AddDocument("orders.csv contents", "s3://bucket/orders.csv", nil)
	wm.AddResult(1280, "Total revenue", map[string]interface{}{"important": true, "unit": "EUR"})
	wm.AddResult("ok", "Status", nil)

	memories := wm.ToPermanentMemories("agent-1")
	require.Len(t, memories, 2)

	summary := memories[0]
	assert.Equal(t, "agent-1", summary.AgentID)
	assert.Equal(t, llm.RoleSystem, summary.Role)
	assert.Equal(t, MemoryPermanent, summary.MemoryType)
	assert.Equal(t, "Task summary: Completed 3 steps.\n"+
		"Started with: Fetch orders\n"+
		"Ended with: Write report\n"+
		"\nResults:\n"+
		"- Total revenue: 1280\n"+
		"- Status: ok\n", summary.Content)
	assert.Equal(t, map[string]interface{}{
		"type":            "task_summary",
		"steps_count":     3,
		"documents_count": 1,
		"results_count":   2,
	}, summary.Metadata)

	result := memories[1]
	assert.Equal(t, "Result: Total revenue\n1280", result.Content)
	assert.Equal(t, MemoryPermanent, result.MemoryType)
	assert.Equal(t, map[string]interface{}{
		"type":      "task_result",
		"important": true,
		"unit":      "EUR",
	}, result.Metadata)
}

func TestWorkingMemoryWithoutSteps(t *testing.T) {
	wm := NewWorkingMemory()
	wm.AddResult("value", "Important", map[string]interface{}{"important": true})

	assert.Empty(t, wm.ToPermanentMemories("agent-1"))
}

func TestWorkingMemorySingleStep(t *testing.T) {
	wm := NewWorkingMemory()
	wm.AddStep("Only step", nil, nil)

	memories := wm.ToPermanentMemories("agent-1")
	require.Len(t, memories, 1)
	assert.Equal(t, "Task summary: Completed 1 steps.\nStarted with: Only step\n", memories[0].Content)
}

func TestWorkingMemoryTruncatesLongResults(t *testing.T) {
	wm := NewWorkingMemory()
	wm.AddStep("step", nil, nil)
	long := strings.Repeat("x", 150)
	wm.AddResult(long, "", nil)

	memories := wm.ToPermanentMemories("agent-1")
	require.Len(t, memories, 1)
	assert.Contains(t, memories[0].Content, "- Result: "+strings.Repeat("x", 100)+"...\n")
}

func TestWorkingMemoryDataAndSummary(t *testing.T) {
	wm := NewWorkingMemory()
	wm.AddData("user", "ada")
	assert.Equal(t, "ada", wm.GetData("user", nil))
	assert.Equal(t, "fallback", wm.GetData("missing", "fallback"))

	wm.AddDocument(strings.Repeat("d", 120), "doc", nil)
	wm.AddStep("read", nil, nil)

	summary := wm.Summary()
	require.Len(t, summary.Documents, 1)
	assert.Equal(t, strings.Repeat("d", 100)+"...", summary.Documents[0].Content)
	assert.Equal(t, "doc", summary.Documents[0].Source)
	assert.Len(t, summary.Steps, 1)

	wm.Clear()
	summary = wm.Summary()
	assert.Empty(t, summary.Data)
	assert.Empty(t, summary.Steps)
	assert.Empty(t, summary.Documents)
	assert.Empty(t, wm.ToPermanentMemories("agent-1"))
}

func TestCommitWorkingMemory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "worker")

	wm := NewWorkingMemory()
	wm.AddStep("one", nil, nil)
	wm.AddStep("two", nil, nil)
	wm.AddStep("three", nil, nil)
	wm.AddResult("done", "Outcome", map[string]interface{}{"important": true})

	saved, err := env.client.CommitWorkingMemory(ctx, agent.ID, wm)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, m := range saved {
		assert.NotEmpty(t, m.ID)
	}

	stats, err := env.client.GetMemoryStats(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Permanent)

	_, err = env.client.CommitWorkingMemory(ctx, "missing", wm)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.client.CommitWorkingMemory(ctx, agent.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
