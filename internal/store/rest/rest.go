// Package rest implements the persistence port against a remote
// PostgREST-style table store. The remote side offers per-table CRUD only:
// no joins, no aggregates, no cascade deletes and no multi-column unique
// constraints. All of those are emulated here in application code, with
// output shapes identical to the sqlite adapter's.
package rest

import (
	"context"
	"net/url"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// Store is the remote table API adapter.
type Store struct {
	c   *client
	now func() time.Time
}

// Open connects to the remote store and probes the settings table. A probe
// failure is CodeBackendUnavailable: a configuration condition, reported at
// startup rather than per request.
func Open(ctx context.Context, baseURL, apiKey string) (*Store, error) {
	if baseURL == "" || apiKey == "" {
		return nil, model.BackendUnavailable("remote store credentials not configured", nil)
	}

	s := &Store{c: newClient(baseURL, apiKey), now: time.Now}

	q := url.Values{}
	q.Set("select", "key")
	q.Set("limit", "1")
	var probe []map[string]any
	if err := s.c.do(ctx, "GET", "settings", q, nil, &probe); err != nil {
		return nil, model.BackendUnavailable("remote store unreachable", err)
	}
	return s, nil
}

// Ping re-runs the connection probe.
func (s *Store) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "key")
	q.Set("limit", "1")
	var probe []map[string]any
	if err := s.c.do(ctx, "GET", "settings", q, nil, &probe); err != nil {
		return model.Unknown("remote store ping failed", err)
	}
	return nil
}

// Close is a no-op; the adapter holds no persistent connection.
func (s *Store) Close() error { return nil }

// SetNow overrides the timestamp source. Tests only.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}
