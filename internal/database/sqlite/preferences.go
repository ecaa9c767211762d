package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"baristalog/internal/database"
)

// ========== Preference Operations ==========

func (s *SQLiteStore) GetPreference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.Persistence("get preference", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetPreference(ctx context.Context, key, value string) error {
	return s.withTx(ctx, "set preference", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO preferences (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to save preference %s: %w", key, err)
		}
		return nil
	})
}

func (s *SQLiteStore) ListPreferences(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM preferences")
	if err != nil {
		return nil, database.Persistence("list preferences", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, database.Persistence("list preferences", err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, database.Persistence("list preferences", err)
	}
	return prefs, nil
}
