package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fragent/fragent-go/pkg/storage"
)

const memoryColumns = `id, agent_id, role, content, embedding, memory_type, metadata, created_at, updated_at`

// InsertMemory inserts a memory row. Embeddings are stored as JSON text.
func (s *Store) InsertMemory(ctx context.Context, memory *storage.Memory) error {
	embedding, err := encodeEmbedding(memory.Embedding)
	if err != nil {
		return fmt.Errorf("InsertMemory: %w", err)
	}
	metadata, err := encodeMap(memory.Metadata)
	if err != nil {
		return fmt.Errorf("InsertMemory: %w", err)
	}

	_, err = s.exec(ctx, s.db, `INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		memory.ID, memory.AgentID, memory.Role, memory.Content, embedding,
		memory.MemoryType, metadata, memory.CreatedAt.UTC(), memory.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("InsertMemory: %w", err)
	}
	return nil
}

// GetMemory returns the memory with the given id.
func (s *Store) GetMemory(ctx context.Context, id string) (*storage.Memory, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	memory, err := scanMemory(row)
	if err != nil {
		return nil, fmt.Errorf("GetMemory: %w", notFound(err))
	}
	return memory, nil
}

// ListMemories returns an agent's memories, newest first unless
// opts.Ascending is set. Ties on created_at are broken by id.
func (s *Store) ListMemories(ctx context.Context, opts *storage.MemoryListOptions) ([]*storage.Memory, error) {
	if opts == nil || opts.AgentID == "" {
		return nil, fmt.Errorf("ListMemories: agent id is required")
	}

	query := `SELECT ` + memoryColumns + ` FROM memories WHERE agent_id = ?`
	args := []interface{}{opts.AgentID}
	if opts.MemoryType != "" {
		query += ` AND memory_type = ?`
		args = append(args, opts.MemoryType)
	}
	if opts.Ascending {
		query += ` ORDER BY created_at ASC, id ASC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	page, pageArgs := paginate(opts.Limit, opts.Offset)
	query += page
	args = append(args, pageArgs...)

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*storage.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("ListMemories: %w", err)
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListMemories: %w", err)
	}
	return memories, nil
}

// UpdateMemory rewrites content, embedding and metadata.
func (s *Store) UpdateMemory(ctx context.Context, memory *storage.Memory) error {
	embedding, err := encodeEmbedding(memory.Embedding)
	if err != nil {
		return fmt.Errorf("UpdateMemory: %w", err)
	}
	metadata, err := encodeMap(memory.Metadata)
	if err != nil {
		return fmt.Errorf("UpdateMemory: %w", err)
	}

	res, err := s.exec(ctx, s.db,
		`UPDATE memories SET content = ?, embedding = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		memory.Content, embedding, metadata, memory.UpdatedAt.UTC(), memory.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateMemory: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("UpdateMemory: %w", err)
	}
	return nil
}

// DeleteMemory deletes a single memory.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteMemory: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("DeleteMemory: %w", err)
	}
	return nil
}

// DeleteMemoriesBefore deletes memories of one type created before opts.Before.
func (s *Store) DeleteMemoriesBefore(ctx context.Context, opts *storage.ExpireOptions) (int64, error) {
	if opts == nil || opts.MemoryType == "" {
		return 0, fmt.Errorf("DeleteMemoriesBefore: memory type is required")
	}

	query := `DELETE FROM memories WHERE memory_type = ? AND created_at < ?`
	args := []interface{}{opts.MemoryType, opts.Before.UTC()}
	if opts.AgentID != "" {
		query += ` AND agent_id = ?`
		args = append(args, opts.AgentID)
	}

	res, err := s.exec(ctx, s.db, query, args...)
	if err != nil {
		return 0, fmt.Errorf("DeleteMemoriesBefore: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteMemoriesBefore: %w", err)
	}
	return n, nil
}

// CountMemoriesByType groups memory counts by type.
func (s *Store) CountMemoriesByType(ctx context.Context, agentID string) (map[string]int64, error) {
	query := `SELECT memory_type, COUNT(*) FROM memories`
	var args []interface{}
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` GROUP BY memory_type`

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("CountMemoriesByType: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			memoryType string
			n          int64
		)
		if err := rows.Scan(&memoryType, &n); err != nil {
			return nil, fmt.Errorf("CountMemoriesByType: %w", err)
		}
		counts[memoryType] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountMemoriesByType: %w", err)
	}
	return counts, nil
}

func scanMemory(row rowScanner) (*storage.Memory, error) {
	var (
		memory    storage.Memory
		embedding sql.NullString
		metadata  sql.NullString
	)
	err := row.Scan(
		&memory.ID, &memory.AgentID, &memory.Role, &memory.Content, &embedding,
		&memory.MemoryType, &metadata, &memory.CreatedAt, &memory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if memory.Embedding, err = decodeEmbedding(embedding); err != nil {
		return nil, err
	}
	if memory.Metadata, err = decodeMap(metadata); err != nil {
		return nil, err
	}
	return &memory, nil
}
