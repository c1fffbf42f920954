package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fragent/fragent-go/pkg/storage"
)

const templateColumns = `id, agent_id, name, description, task_type, task_pattern, priority,
	steps, examples, metadata, created_at, updated_at`

// InsertTaskTemplate inserts a task template.
func (s *Store) InsertTaskTemplate(ctx context.Context, tmpl *storage.TaskTemplate) error {
	steps, examples, metadata, err := encodeTemplate(tmpl)
	if err != nil {
		return fmt.Errorf("InsertTaskTemplate: %w", err)
	}

	_, err = s.exec(ctx, s.db, `INSERT INTO task_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.AgentID, tmpl.Name, tmpl.Description, tmpl.TaskType, tmpl.TaskPattern,
		tmpl.Priority, steps, examples, metadata, tmpl.CreatedAt.UTC(), tmpl.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("InsertTaskTemplate: %w", err)
	}
	return nil
}

// GetTaskTemplate returns the template with the given id.
func (s *Store) GetTaskTemplate(ctx context.Context, id string) (*storage.TaskTemplate, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+templateColumns+` FROM task_templates WHERE id = ?`, id)
	tmpl, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("GetTaskTemplate: %w", notFound(err))
	}
	return tmpl, nil
}

// ListTaskTemplates returns an agent's templates in insertion order,
// optionally filtered by task type.
func (s *Store) ListTaskTemplates(ctx context.Context, opts *storage.TaskTemplateListOptions) ([]*storage.TaskTemplate, error) {
	if opts == nil || opts.AgentID == "" {
		return nil, fmt.Errorf("ListTaskTemplates: agent id is required")
	}

	query := `SELECT ` + templateColumns + ` FROM task_templates WHERE agent_id = ?`
	args := []interface{}{opts.AgentID}
	if opts.TaskType != "" {
		query += ` AND task_type = ?`
		args = append(args, opts.TaskType)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListTaskTemplates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []*storage.TaskTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTaskTemplates: %w", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTaskTemplates: %w", err)
	}
	return templates, nil
}

// UpdateTaskTemplate overwrites every mutable column of the template.
func (s *Store) UpdateTaskTemplate(ctx context.Context, tmpl *storage.TaskTemplate) error {
	steps, examples, metadata, err := encodeTemplate(tmpl)
	if err != nil {
		return fmt.Errorf("UpdateTaskTemplate: %w", err)
	}

	res, err := s.exec(ctx, s.db, `UPDATE task_templates SET
		name = ?, description = ?, task_type = ?, task_pattern = ?, priority = ?,
		steps = ?, examples = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		tmpl.Name, tmpl.Description, tmpl.TaskType, tmpl.TaskPattern, tmpl.Priority,
		steps, examples, metadata, tmpl.UpdatedAt.UTC(), tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateTaskTemplate: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("UpdateTaskTemplate: %w", err)
	}
	return nil
}

// DeleteTaskTemplate deletes a template.
func (s *Store) DeleteTaskTemplate(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM task_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteTaskTemplate: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("DeleteTaskTemplate: %w", err)
	}
	return nil
}

func encodeTemplate(tmpl *storage.TaskTemplate) (string, string, string, error) {
	steps, err := encodeJSON(tmpl.Steps, "[]")
	if err != nil {
		return "", "", "", err
	}
	examples, err := encodeJSON(tmpl.Examples, "[]")
	if err != nil {
		return "", "", "", err
	}
	metadata, err := encodeMap(tmpl.Metadata)
	if err != nil {
		return "", "", "", err
	}
	return steps, examples, metadata, nil
}

func scanTemplate(row rowScanner) (*storage.TaskTemplate, error) {
	var (
		tmpl     storage.TaskTemplate
		steps    sql.NullString
		examples sql.NullString
		metadata sql.NullString
	)
	err := row.Scan(
		&tmpl.ID, &tmpl.AgentID, &tmpl.Name, &tmpl.Description, &tmpl.TaskType, &tmpl.TaskPattern,
		&tmpl.Priority, &steps, &examples, &metadata, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeInto(steps, &tmpl.Steps); err != nil {
		return nil, err
	}
	if err := decodeInto(examples, &tmpl.Examples); err != nil {
		return nil, err
	}
	if tmpl.Metadata, err = decodeMap(metadata); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
