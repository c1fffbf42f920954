package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fragent/fragent-go/pkg/storage"
)

const preferenceColumns = `id, agent_id, pref_key, pref_value, category, description, priority,
	metadata, created_at, updated_at`

// UpsertPreference inserts pref, or updates the existing row with the same
// (agent_id, key) in place. On update pref.ID and pref.CreatedAt are replaced
// with the stored values.
func (s *Store) UpsertPreference(ctx context.Context, pref *storage.Preference) error {
	value, err := encodeMap(pref.Value)
	if err != nil {
		return fmt.Errorf("UpsertPreference: %w", err)
	}
	metadata, err := encodeMap(pref.Metadata)
	if err != nil {
		return fmt.Errorf("UpsertPreference: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			existingID string
			createdAt  time.Time
		)
		err := s.queryRow(ctx, tx,
			`SELECT id, created_at FROM preferences WHERE agent_id = ? AND pref_key = ?`,
			pref.AgentID, pref.Key,
		).Scan(&existingID, &createdAt)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = s.exec(ctx, tx, `INSERT INTO preferences (`+preferenceColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				pref.ID, pref.AgentID, pref.Key, value, pref.Category, pref.Description,
				pref.Priority, metadata, pref.CreatedAt.UTC(), pref.UpdatedAt.UTC(),
			)
			return err
		case err != nil:
			return err
		}

		pref.ID = existingID
		pref.CreatedAt = createdAt
		_, err = s.exec(ctx, tx, `UPDATE preferences SET
			pref_value = ?, category = ?, description = ?, priority = ?, metadata = ?, updated_at = ?
			WHERE id = ?`,
			value, pref.Category, pref.Description, pref.Priority, metadata, pref.UpdatedAt.UTC(), existingID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("UpsertPreference: %w", err)
	}
	return nil
}

// GetPreference returns the preference stored under (agentID, key).
func (s *Store) GetPreference(ctx context.Context, agentID, key string) (*storage.Preference, error) {
	row := s.queryRow(ctx, s.db,
		`SELECT `+preferenceColumns+` FROM preferences WHERE agent_id = ? AND pref_key = ?`,
		agentID, key,
	)
	pref, err := scanPreference(row)
	if err != nil {
		return nil, fmt.Errorf("GetPreference: %w", notFound(err))
	}
	return pref, nil
}

// ListPreferences returns an agent's preferences ordered by key.
func (s *Store) ListPreferences(ctx context.Context, opts *storage.PreferenceListOptions) ([]*storage.Preference, error) {
	if opts == nil || opts.AgentID == "" {
		return nil, fmt.Errorf("ListPreferences: agent id is required")
	}

	query := `SELECT ` + preferenceColumns + ` FROM preferences WHERE agent_id = ?`
	args := []interface{}{opts.AgentID}
	if opts.Category != "" {
		query += ` AND category = ?`
		args = append(args, opts.Category)
	}
	query += ` ORDER BY pref_key`

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListPreferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prefs []*storage.Preference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPreferences: %w", err)
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPreferences: %w", err)
	}
	return prefs, nil
}

// DeletePreference deletes a preference by id.
func (s *Store) DeletePreference(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM preferences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeletePreference: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("DeletePreference: %w", err)
	}
	return nil
}

func scanPreference(row rowScanner) (*storage.Preference, error) {
	var (
		pref     storage.Preference
		value    sql.NullString
		metadata sql.NullString
	)
	err := row.Scan(
		&pref.ID, &pref.AgentID, &pref.Key, &value, &pref.Category, &pref.Description,
		&pref.Priority, &metadata, &pref.CreatedAt, &pref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pref.Value, err = decodeMap(value); err != nil {
		return nil, err
	}
	if pref.Metadata, err = decodeMap(metadata); err != nil {
		return nil, err
	}
	return &pref, nil
}
