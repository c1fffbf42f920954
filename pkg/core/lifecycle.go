package core

import (
	"context"
	"fmt"
	"time"

	"github.com/fragent/fragent-go/pkg/intelligence"
	"github.com/fragent/fragent-go/pkg/storage"
)

// CleanupTemporaryMemories deletes temporary memories older than days
// (1 to 365) and returns how many were removed. Permanent and execution
// memories are never touched. With WithCleanupAgentID the cleanup is scoped
// to one existing agent.
//
// Example:
//
//	deleted, err := client.CleanupTemporaryMemories(ctx, 7)
func (c *Client) CleanupTemporaryMemories(ctx context.Context, days int, opts ...CleanupOption) (int64, error) {
	if err := intelligence.ValidateTemporaryDays(days); err != nil {
		return 0, NewAgentError("CleanupTemporaryMemories", fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	policy := intelligence.RetentionPolicy{TemporaryMaxAge: time.Duration(days) * 24 * time.Hour}
	return c.cleanup(ctx, "CleanupTemporaryMemories", intelligence.MemoryTypeTemporary, policy, applyCleanupOptions(opts))
}

// CleanupExecutionMemories deletes execution memories older than hours
// (1 to 720) and returns how many were removed.
func (c *Client) CleanupExecutionMemories(ctx context.Context, hours int, opts ...CleanupOption) (int64, error) {
	if err := intelligence.ValidateExecutionHours(hours); err != nil {
		return 0, NewAgentError("CleanupExecutionMemories", fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	policy := intelligence.RetentionPolicy{ExecutionMaxAge: time.Duration(hours) * time.Hour}
	return c.cleanup(ctx, "CleanupExecutionMemories", intelligence.MemoryTypeExecution, policy, applyCleanupOptions(opts))
}

// cleanup deletes memories of memoryType created before the policy cutoff.
func (c *Client) cleanup(ctx context.Context, op, memoryType string, policy intelligence.RetentionPolicy, options *CleanupOptions) (int64, error) {
	if options.AgentID != "" {
		if _, err := c.requireAgent(ctx, op, options.AgentID); err != nil {
			return 0, err
		}
	}

	cutoff, ok := policy.Cutoff(memoryType, c.timestamp())
	if !ok {
		return 0, nil
	}
	deleted, err := c.store.DeleteMemoriesBefore(ctx, &storage.ExpireOptions{
		MemoryType: memoryType,
		Before:     cutoff,
		AgentID:    options.AgentID,
	})
	if err != nil {
		return 0, storageError(op, err)
	}

	c.countMemoriesDeleted(memoryType, deleted)
	c.logger.InfoContext(ctx, "memories cleaned up",
		"memory_type", memoryType,
		"agent_id", options.AgentID,
		"cutoff", cutoff,
		"deleted", deleted,
	)
	return deleted, nil
}

// GetMemoryStats returns memory counts per type. An empty agentID returns
// counts across all agents; a non-empty one must name an existing agent.
func (c *Client) GetMemoryStats(ctx context.Context, agentID string) (*MemoryStats, error) {
	if agentID != "" {
		if _, err := c.requireAgent(ctx, "GetMemoryStats", agentID); err != nil {
			return nil, err
		}
	}

	counts, err := c.store.CountMemoriesByType(ctx, agentID)
	if err != nil {
		return nil, storageError("GetMemoryStats", err)
	}

	stats := &MemoryStats{
		AgentID:   agentID,
		Permanent: counts[intelligence.MemoryTypePermanent],
		Temporary: counts[intelligence.MemoryTypeTemporary],
		Execution: counts[intelligence.MemoryTypeExecution],
	}
	stats.Total = stats.Permanent + stats.Temporary + stats.Execution
	return stats, nil
}

// SweepResult reports one retention sweep.
type SweepResult struct {
	Temporary int64
	Execution int64
}

// Sweep runs both cleanups with the configured retention policy across all
// agents.
func (c *Client) Sweep(ctx context.Context) (*SweepResult, error) {
	all := &CleanupOptions{}
	temporary, err := c.cleanup(ctx, "Sweep", intelligence.MemoryTypeTemporary, c.retention, all)
	if err != nil {
		return nil, err
	}
	execution, err := c.cleanup(ctx, "Sweep", intelligence.MemoryTypeExecution, c.retention, all)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Temporary: temporary, Execution: execution}, nil
}

// RunRetentionSweeper calls Sweep every Config.Lifecycle.SweepInterval until
// ctx is cancelled. It returns immediately when the interval is not positive.
// Sweep failures are logged and the sweeper keeps running.
//
// Example:
//
//	go client.RunRetentionSweeper(ctx)
func (c *Client) RunRetentionSweeper(ctx context.Context) {
	interval := c.config.Lifecycle.SweepInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.InfoContext(ctx, "retention sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "retention sweeper stopped")
			return
		case <-ticker.C:
			res, err := c.Sweep(ctx)
			if err != nil {
				c.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
				continue
			}
			c.logger.DebugContext(ctx, "retention sweep finished",
				"temporary_deleted", res.Temporary,
				"execution_deleted", res.Execution,
			)
		}
	}
}
