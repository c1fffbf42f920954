package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fragent/fragent-go/pkg/storage"
)

const knowledgeColumns = `id, agent_id, name, description, knowledge_type, tags, priority,
	content, embedding, metadata, created_at, updated_at`

// InsertKnowledge inserts a knowledge item.
func (s *Store) InsertKnowledge(ctx context.Context, item *storage.KnowledgeItem) error {
	tags, embedding, metadata, err := encodeKnowledge(item)
	if err != nil {
		return fmt.Errorf("InsertKnowledge: %w", err)
	}

	_, err = s.exec(ctx, s.db, `INSERT INTO knowledge_items (`+knowledgeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.AgentID, item.Name, item.Description, item.KnowledgeType, tags,
		item.Priority, item.Content, embedding, metadata, item.CreatedAt.UTC(), item.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("InsertKnowledge: %w", err)
	}
	return nil
}

// GetKnowledge returns the knowledge item with the given id.
func (s *Store) GetKnowledge(ctx context.Context, id string) (*storage.KnowledgeItem, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+knowledgeColumns+` FROM knowledge_items WHERE id = ?`, id)
	item, err := scanKnowledge(row)
	if err != nil {
		return nil, fmt.Errorf("GetKnowledge: %w", notFound(err))
	}
	return item, nil
}

// ListKnowledge returns an agent's knowledge items in insertion order,
// optionally restricted to a set of knowledge types.
func (s *Store) ListKnowledge(ctx context.Context, opts *storage.KnowledgeListOptions) ([]*storage.KnowledgeItem, error) {
	if opts == nil || opts.AgentID == "" {
		return nil, fmt.Errorf("ListKnowledge: agent id is required")
	}

	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_items WHERE agent_id = ?`
	args := []interface{}{opts.AgentID}
	if len(opts.KnowledgeTypes) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(opts.KnowledgeTypes)), ", ")
		query += ` AND knowledge_type IN (` + marks + `)`
		for _, t := range opts.KnowledgeTypes {
			args = append(args, t)
		}
	}
	query += ` ORDER BY created_at, id`
	page, pageArgs := paginate(opts.Limit, opts.Offset)
	query += page
	args = append(args, pageArgs...)

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListKnowledge: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*storage.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledge(rows)
		if err != nil {
			return nil, fmt.Errorf("ListKnowledge: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListKnowledge: %w", err)
	}
	return items, nil
}

// UpdateKnowledge overwrites every mutable column of the item.
func (s *Store) UpdateKnowledge(ctx context.Context, item *storage.KnowledgeItem) error {
	tags, embedding, metadata, err := encodeKnowledge(item)
	if err != nil {
		return fmt.Errorf("UpdateKnowledge: %w", err)
	}

	res, err := s.exec(ctx, s.db, `UPDATE knowledge_items SET
		name = ?, description = ?, knowledge_type = ?, tags = ?, priority = ?, content = ?,
		embedding = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, item.Description, item.KnowledgeType, tags, item.Priority, item.Content,
		embedding, metadata, item.UpdatedAt.UTC(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateKnowledge: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("UpdateKnowledge: %w", err)
	}
	return nil
}

// DeleteKnowledge deletes a knowledge item.
func (s *Store) DeleteKnowledge(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM knowledge_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteKnowledge: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("DeleteKnowledge: %w", err)
	}
	return nil
}

func encodeKnowledge(item *storage.KnowledgeItem) (string, sql.NullString, string, error) {
	tags, err := encodeJSON(item.Tags, "[]")
	if err != nil {
		return "", sql.NullString{}, "", err
	}
	embedding, err := encodeEmbedding(item.Embedding)
	if err != nil {
		return "", sql.NullString{}, "", err
	}
	metadata, err := encodeMap(item.Metadata)
	if err != nil {
		return "", sql.NullString{}, "", err
	}
	return tags, embedding, metadata, nil
}

func scanKnowledge(row rowScanner) (*storage.KnowledgeItem, error) {
	var (
		item      storage.KnowledgeItem
		tags      sql.NullString
		embedding sql.NullString
		metadata  sql.NullString
	)
	err := row.Scan(
		&item.ID, &item.AgentID, &item.Name, &item.Description, &item.KnowledgeType, &tags,
		&item.Priority, &item.Content, &embedding, &metadata, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeInto(tags, &item.Tags); err != nil {
		return nil, err
	}
	if item.Embedding, err = decodeEmbedding(embedding); err != nil {
		return nil, err
	}
	if item.Metadata, err = decodeMap(metadata); err != nil {
		return nil, err
	}
	return &item, nil
}
