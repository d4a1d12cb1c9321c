package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rollcall/rollcall/internal/model"
)

// sessionRow mirrors the remote sessions table.
type sessionRow struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

func (r sessionRow) toModel() model.Session {
	return model.Session{
		ID:        r.ID,
		Name:      r.Name,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

// CreateSession inserts a session.
func (s *Store) CreateSession(ctx context.Context, ns model.NewSession) (int64, error) {
	row := sessionRow{Name: ns.Name, Date: ns.Date, StartTime: ns.StartTime, EndTime: ns.EndTime}
	var inserted []sessionRow
	if err := s.c.insert(ctx, "sessions", row, &inserted); err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	if len(inserted) == 0 {
		return 0, model.Unknown("create session: remote returned no representation", nil)
	}
	return inserted[0].ID, nil
}

// ListSessions returns all sessions ordered date descending, id descending.
// The ordering matches the sqlite adapter; the remote supports compound
// order natively so no application sort is needed here.
func (s *Store) ListSessions(ctx context.Context) ([]model.Session, error) {
	q := url.Values{}
	q.Set("order", "date.desc,id.desc")
	var rows []sessionRow
	if err := s.c.selectAll(ctx, "sessions", q, &rows); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := []model.Session{}
	for _, row := range rows {
		sessions = append(sessions, row.toModel())
	}
	return sessions, nil
}

// SessionByID resolves a session by id.
func (s *Store) SessionByID(ctx context.Context, id int64) (*model.Session, error) {
	q := url.Values{}
	q.Set("id", eq(id))
	var rows []sessionRow
	if err := s.c.selectAll(ctx, "sessions", q, &rows); err != nil {
		return nil, fmt.Errorf("session by id: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.NotFound("session")
	}
	sess := rows[0].toModel()
	return &sess, nil
}

// DeleteSession emulates the cascade: attendance rows first, then the
// session row. A failure in between is an inconsistency, not a success.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.SessionByID(ctx, id); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("session_id", eq(id))
	if err := s.c.delete(ctx, "attendance", q); err != nil {
		return model.Unknown(fmt.Sprintf("delete session %d: attendance", id), err)
	}

	q = url.Values{}
	q.Set("id", eq(id))
	if err := s.c.delete(ctx, "sessions", q); err != nil {
		return model.Unknown(fmt.Sprintf("delete session %d: cascade incomplete: session row remains", id), err)
	}
	return nil
}

// SessionAttendanceCount counts attendance rows for one session.
func (s *Store) SessionAttendanceCount(ctx context.Context, sessionID int64) (int, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("session_id", eq(sessionID))
	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := s.c.do(ctx, "GET", "attendance", q, nil, &rows); err != nil {
		return 0, fmt.Errorf("session attendance count: %w", err)
	}
	return len(rows), nil
}
