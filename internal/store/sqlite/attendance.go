package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// AttendanceFor returns the record for the pair, or CodeNotFound when the
// student has not been marked for the session.
func (s *Store) AttendanceFor(ctx context.Context, studentID, sessionID int64) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var ts string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, session_id, timestamp, status
		FROM attendance WHERE student_id = ? AND session_id = ?
	`, studentID, sessionID).Scan(&rec.ID, &rec.StudentID, &rec.SessionID, &ts, &rec.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("attendance")
	}
	if err != nil {
		return nil, fmt.Errorf("attendance for pair: %w", err)
	}
	rec.Timestamp, err = time.Parse(time.RFC3339, ts)
	if err != nil {
		return nil, fmt.Errorf("attendance for pair: bad timestamp %q: %w", ts, err)
	}
	return &rec, nil
}

// InsertAttendance inserts a presence record. The UNIQUE pair index backs
// up the ledger's check; a violation maps to CodeConflict.
func (s *Store) InsertAttendance(ctx context.Context, rec model.AttendanceRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (student_id, session_id, timestamp, status)
		VALUES (?, ?, ?, ?)
	`, rec.StudentID, rec.SessionID, rec.Timestamp.Format(time.RFC3339), rec.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.Conflict("attendance", "attendance already marked for this student in this session")
		}
		return 0, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert attendance: last insert id: %w", err)
	}
	return id, nil
}

// AttendanceBySession returns a session's records joined with student
// details, newest first.
func (s *Store) AttendanceBySession(ctx context.Context, sessionID int64) ([]model.SessionAttendee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.student_id, a.session_id, a.timestamp, a.status,
		       s.name, s.student_id, s.email
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		WHERE a.session_id = ?
		ORDER BY a.timestamp DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("attendance by session: %w", err)
	}
	defer rows.Close()

	attendees := []model.SessionAttendee{}
	for rows.Next() {
		var at model.SessionAttendee
		var ts string
		var email sql.NullString
		err := rows.Scan(&at.ID, &at.StudentID, &at.SessionID, &ts, &at.Status,
			&at.StudentName, &at.StudentExternalID, &email)
		if err != nil {
			return nil, fmt.Errorf("attendance by session: scan: %w", err)
		}
		at.Email = email.String
		at.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("attendance by session: bad timestamp %q: %w", ts, err)
		}
		attendees = append(attendees, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance by session: %w", err)
	}
	return attendees, nil
}
