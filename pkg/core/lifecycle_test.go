package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupTemporaryMemories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "cleanup")

	day := 24 * time.Hour
	env.addMemoryAt(t, agent.ID, MemoryTemporary, "ten days old", baseTime.Add(-10*day))
	recent := env.addMemoryAt(t, agent.ID, MemoryTemporary, "one day old", baseTime.Add(-1*day))
	permanent := env.addMemoryAt(t, agent.ID, MemoryPermanent, "old but permanent", baseTime.Add(-30*day))
	execution := env.addMemoryAt(t, agent.ID, MemoryExecution, "old execution", baseTime.Add(-30*day))

	deleted, err := env.client.CleanupTemporaryMemories(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = env.client.CleanupTemporaryMemories(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	for _, id := range []string{recent.ID, permanent.ID, execution.ID} {
		_, err := env.client.GetMemory(ctx, id)
		assert.NoError(t, err)
	}
}

func TestCleanupExecutionMemories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "execution")

	env.addMemoryAt(t, agent.ID, MemoryExecution, "stale", baseTime.Add(-48*time.Hour))
	env.addMemoryAt(t, agent.ID, MemoryExecution, "fresh", baseTime.Add(-time.Hour))
	env.addMemoryAt(t, agent.ID, MemoryTemporary, "temporary", baseTime.Add(-48*time.Hour))

	deleted, err := env.client.CleanupExecutionMemories(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := env.client.GetMemoryStats(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Execution)
	assert.Equal(t, int64(1), stats.Temporary)
}

func TestCleanupScopedToAgent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createAgent(t, "a")
	b := env.createAgent(t, "b")

	old := baseTime.Add(-10 * 24 * time.Hour)
	env.addMemoryAt(t, a.ID, MemoryTemporary, "a old", old)
	env.addMemoryAt(t, b.ID, MemoryTemporary, "b old", old)

	deleted, err := env.client.CleanupTemporaryMemories(ctx, 7, WithCleanupAgentID(a.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := env.client.GetMemoryStats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Temporary)
}

func TestCleanupValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, days := range []int{0, -1, 366} {
		_, err := env.client.CleanupTemporaryMemories(ctx, days)
		assert.ErrorIs(t, err, ErrInvalidInput, "days=%d", days)
	}
	for _, hours := range []int{0, 721} {
		_, err := env.client.CleanupExecutionMemories(ctx, hours)
		assert.ErrorIs(t, err, ErrInvalidInput, "hours=%d", hours)
	}

	_, err := env.client.CleanupTemporaryMemories(ctx, 365)
	assert.NoError(t, err)
	_, err = env.client.CleanupExecutionMemories(ctx, 720)
	assert.NoError(t, err)

	_, err = env.client.CleanupTemporaryMemories(ctx, 7, WithCleanupAgentID("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMemoryStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agent := env.createAgent(t, "stats")
	other := env.createAgent(t, "other")

	for _, mt := range []MemoryType{
		MemoryPermanent, MemoryPermanent,
		MemoryTemporary, MemoryTemporary, MemoryTemporary,
		MemoryExecution,
	} {
		env.addMemoryAt(t, agent.ID, mt, "m", baseTime)
	}
	env.addMemoryAt(t, other.ID, MemoryPermanent, "elsewhere", baseTime)

	stats, err := env.client.GetMemoryStats(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, &MemoryStats{AgentID: agent.ID, Total: 6, Permanent: 2, Temporary: 3, Execution: 1}, stats)

	global, err := env.client.GetMemoryStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), global.Total)
	assert.Equal(t, int64(3), global.Permanent)

	_, err = env.client.GetMemoryStats(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunRetentionSweeper(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lifecycle.SweepInterval = 10 * time.Millisecond
	env := newTestEnvWithConfig(t, cfg)
	agent := env.createAgent(t, "sweeper")

	env.addMemoryAt(t, agent.ID, MemoryTemporary, "expired", baseTime.Add(-8*24*time.Hour))
	env.addMemoryAt(t, agent.ID, MemoryExecution, "expired", baseTime.Add(-25*time.Hour))
	env.addMemoryAt(t, agent.ID, MemoryPermanent, "kept", baseTime.Add(-100*24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.client.RunRetentionSweeper(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		stats, err := env.client.GetMemoryStats(context.Background(), agent.ID)
		return err == nil && stats.Total == 1 && stats.Permanent == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunRetentionSweeperDisabled(t *testing.T) {
	env := newTestEnv(t)

	done := make(chan struct{})
	go func() {
		env.client.RunRetentionSweeper(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper should return when no interval is configured")
	}
}
