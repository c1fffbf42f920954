package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fragent/fragent-go/pkg/storage"
)

const agentColumns = `id, name, description, model, system_prompt, temperature, max_tokens,
	personality, bio, avatar_url, memory_type, memory_window, knowledge_base_ids,
	integration_settings, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// InsertAgent inserts a new agent row.
func (s *Store) InsertAgent(ctx context.Context, agent *storage.Agent) error {
	kbIDs, err := encodeJSON(agent.KnowledgeBaseIDs, "[]")
	if err != nil {
		return fmt.Errorf("InsertAgent: %w", err)
	}
	settings, err := encodeMap(agent.IntegrationSettings)
	if err != nil {
		return fmt.Errorf("InsertAgent: %w", err)
	}

	_, err = s.exec(ctx, s.db, `INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.Name, agent.Description, agent.Model, agent.SystemPrompt,
		agent.Temperature, agent.MaxTokens, agent.Personality, agent.Bio, agent.AvatarURL,
		agent.MemoryType, agent.MemoryWindow, kbIDs, settings, agent.IsActive,
		agent.CreatedAt.UTC(), agent.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("InsertAgent: %w", err)
	}
	return nil
}

// GetAgent returns the agent with the given id.
func (s *Store) GetAgent(ctx context.Context, id string) (*storage.Agent, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	agent, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("GetAgent: %w", notFound(err))
	}
	return agent, nil
}

// ListAgents returns agents ordered by creation time.
func (s *Store) ListAgents(ctx context.Context, opts *storage.ListOptions) ([]*storage.Agent, error) {
	if opts == nil {
		opts = &storage.ListOptions{}
	}
	page, args := paginate(opts.Limit, opts.Offset)

	rows, err := s.query(ctx, s.db, `SELECT `+agentColumns+` FROM agents ORDER BY created_at, id`+page, args...)
	if err != nil {
		return nil, fmt.Errorf("ListAgents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []*storage.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAgents: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAgents: %w", err)
	}
	return agents, nil
}

// UpdateAgent overwrites every mutable column of the agent row.
func (s *Store) UpdateAgent(ctx context.Context, agent *storage.Agent) error {
	kbIDs, err := encodeJSON(agent.KnowledgeBaseIDs, "[]")
	if err != nil {
		return fmt.Errorf("UpdateAgent: %w", err)
	}
	settings, err := encodeMap(agent.IntegrationSettings)
	if err != nil {
		return fmt.Errorf("UpdateAgent: %w", err)
	}

	res, err := s.exec(ctx, s.db, `UPDATE agents SET
		name = ?, description = ?, model = ?, system_prompt = ?, temperature = ?, max_tokens = ?,
		personality = ?, bio = ?, avatar_url = ?, memory_type = ?, memory_window = ?,
		knowledge_base_ids = ?, integration_settings = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		agent.Name, agent.Description, agent.Model, agent.SystemPrompt, agent.Temperature,
		agent.MaxTokens, agent.Personality, agent.Bio, agent.AvatarURL, agent.MemoryType,
		agent.MemoryWindow, kbIDs, settings, agent.IsActive, agent.UpdatedAt.UTC(), agent.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateAgent: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("UpdateAgent: %w", err)
	}
	return nil
}

// DeleteAgent removes an agent together with all rows it owns.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"memories", "knowledge_items", "preferences", "task_templates"} {
			if _, err := s.exec(ctx, tx, `DELETE FROM `+table+` WHERE agent_id = ?`, id); err != nil {
				return err
			}
		}
		res, err := s.exec(ctx, tx, `DELETE FROM agents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return mustAffect(res)
	})
	if err != nil {
		return fmt.Errorf("DeleteAgent: %w", err)
	}
	return nil
}

func scanAgent(row rowScanner) (*storage.Agent, error) {
	var (
		agent    storage.Agent
		kbIDs    sql.NullString
		settings sql.NullString
	)
	err := row.Scan(
		&agent.ID, &agent.Name, &agent.Description, &agent.Model, &agent.SystemPrompt,
		&agent.Temperature, &agent.MaxTokens, &agent.Personality, &agent.Bio, &agent.AvatarURL,
		&agent.MemoryType, &agent.MemoryWindow, &kbIDs, &settings, &agent.IsActive,
		&agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeInto(kbIDs, &agent.KnowledgeBaseIDs); err != nil {
		return nil, err
	}
	if agent.IntegrationSettings, err = decodeMap(settings); err != nil {
		return nil, err
	}
	return &agent, nil
}
