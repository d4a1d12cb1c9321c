package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Settings returns the persisted settings keys. Values round-trip through
// JSON so floats, bools and strings survive both backends identically.
func (s *Store) Settings(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	defer rows.Close()

	settings := map[string]any{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("settings: scan: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("settings: decode %q: %w", key, err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return settings, nil
}

// SaveSetting persists one key/value pair, overwriting any prior value.
func (s *Store) SaveSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("save setting %q: encode: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(raw), s.now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}
