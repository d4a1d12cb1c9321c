package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rollcall/rollcall/internal/model"
)

// CreateSession inserts a session. No uniqueness on name/date - duplicate
// sessions are permitted by design.
func (s *Store) CreateSession(ctx context.Context, ns model.NewSession) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (name, date, start_time, end_time)
		VALUES (?, ?, ?, ?)
	`, ns.Name, ns.Date, nullable(ns.StartTime), nullable(ns.EndTime))
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create session: last insert id: %w", err)
	}
	return id, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	var sess model.Session
	var start, end sql.NullString
	if err := row.Scan(&sess.ID, &sess.Name, &sess.Date, &start, &end); err != nil {
		return nil, err
	}
	sess.StartTime = start.String
	sess.EndTime = end.String
	return &sess, nil
}

// ListSessions returns all sessions, date descending, id descending.
func (s *Store) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, start_time, end_time
		FROM sessions ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// SessionByID resolves a session by id.
func (s *Store) SessionByID(ctx context.Context, id int64) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, date, start_time, end_time FROM sessions WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("session")
	}
	if err != nil {
		return nil, fmt.Errorf("session by id: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session; attendance rows cascade.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: rows affected: %w", err)
	}
	if affected == 0 {
		return model.NotFound("session")
	}
	return nil
}

// SessionAttendanceCount counts attendance rows for one session.
func (s *Store) SessionAttendanceCount(ctx context.Context, sessionID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("session attendance count: %w", err)
	}
	return count, nil
}
