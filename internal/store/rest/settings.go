package rest

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// settingRow mirrors the remote settings table: one row per key, value
// stored as JSON so floats, bools and strings round-trip.
type settingRow struct {
	Key       string `json:"key"`
	Value     any    `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Settings returns the persisted settings keys.
func (s *Store) Settings(ctx context.Context) (map[string]any, error) {
	var rows []settingRow
	if err := s.c.selectAll(ctx, "settings", nil, &rows); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	settings := map[string]any{}
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// SaveSetting upserts one key/value pair: update if the key exists, insert
// otherwise.
func (s *Store) SaveSetting(ctx context.Context, key string, value any) error {
	q := url.Values{}
	q.Set("select", "key")
	q.Set("key", eq(key))
	var existing []settingRow
	if err := s.c.do(ctx, "GET", "settings", q, nil, &existing); err != nil {
		return fmt.Errorf("save setting %q: check: %w", key, err)
	}

	now := s.now().Format(time.RFC3339)
	if len(existing) > 0 {
		q := url.Values{}
		q.Set("key", eq(key))
		body := map[string]any{"value": value, "updated_at": now}
		if err := s.c.update(ctx, "settings", q, body); err != nil {
			return fmt.Errorf("save setting %q: %w", key, err)
		}
		return nil
	}

	row := settingRow{Key: key, Value: value, UpdatedAt: now}
	if err := s.c.insert(ctx, "settings", row, nil); err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}
