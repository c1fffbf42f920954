package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fragent/fragent-go/pkg/storage"
)

// GetSetting returns the setting stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (*storage.Setting, error) {
	row := s.queryRow(ctx, s.db,
		`SELECT setting_key, setting_value, description, created_at, updated_at FROM settings WHERE setting_key = ?`,
		key,
	)
	setting, err := scanSetting(row)
	if err != nil {
		return nil, fmt.Errorf("GetSetting: %w", notFound(err))
	}
	return setting, nil
}

// PutSetting inserts or replaces a setting inside one transaction.
func (s *Store) PutSetting(ctx context.Context, setting *storage.Setting) error {
	value, err := encodeMap(setting.Value)
	if err != nil {
		return fmt.Errorf("PutSetting: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var createdAt time.Time
		err := s.queryRow(ctx, tx, `SELECT created_at FROM settings WHERE setting_key = ?`, setting.Key).
			Scan(&createdAt)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = s.exec(ctx, tx,
				`INSERT INTO settings (setting_key, setting_value, description, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				setting.Key, value, setting.Description, setting.CreatedAt.UTC(), setting.UpdatedAt.UTC(),
			)
			return err
		case err != nil:
			return err
		}

		setting.CreatedAt = createdAt
		_, err = s.exec(ctx, tx,
			`UPDATE settings SET setting_value = ?, description = ?, updated_at = ? WHERE setting_key = ?`,
			value, setting.Description, setting.UpdatedAt.UTC(), setting.Key,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("PutSetting: %w", err)
	}
	return nil
}

// ListSettings returns every setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]*storage.Setting, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT setting_key, setting_value, description, created_at, updated_at FROM settings ORDER BY setting_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListSettings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var settings []*storage.Setting
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSettings: %w", err)
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSettings: %w", err)
	}
	return settings, nil
}

// DeleteSetting removes a setting.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM settings WHERE setting_key = ?`, key)
	if err != nil {
		return fmt.Errorf("DeleteSetting: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("DeleteSetting: %w", err)
	}
	return nil
}

func scanSetting(row rowScanner) (*storage.Setting, error) {
	var (
		setting storage.Setting
		value   sql.NullString
	)
	if err := row.Scan(&setting.Key, &value, &setting.Description, &setting.CreatedAt, &setting.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if setting.Value, err = decodeMap(value); err != nil {
		return nil, err
	}
	return &setting, nil
}
