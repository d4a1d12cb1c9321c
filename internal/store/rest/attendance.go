package rest

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// attendanceRow mirrors the remote attendance table. Timestamps travel as
// RFC 3339 strings.
type attendanceRow struct {
	ID        int64  `json:"id,omitempty"`
	StudentID int64  `json:"student_id"`
	SessionID int64  `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

func (r attendanceRow) toModel() (model.AttendanceRecord, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("attendance %d: bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return model.AttendanceRecord{
		ID:        r.ID,
		StudentID: r.StudentID,
		SessionID: r.SessionID,
		Timestamp: ts,
		Status:    r.Status,
	}, nil
}

// AttendanceFor returns the record for the pair, or CodeNotFound.
func (s *Store) AttendanceFor(ctx context.Context, studentID, sessionID int64) (*model.AttendanceRecord, error) {
	q := url.Values{}
	q.Set("student_id", eq(studentID))
	q.Set("session_id", eq(sessionID))
	var rows []attendanceRow
	if err := s.c.selectAll(ctx, "attendance", q, &rows); err != nil {
		return nil, fmt.Errorf("attendance for pair: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.NotFound("attendance")
	}
	rec, err := rows[0].toModel()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertAttendance inserts a presence record. The remote cannot declare
// the pair constraint, so a pre-insert check stands in for it; the window
// between check and insert is covered per process by the ledger's keyed
// lock and remains a documented risk across processes.
func (s *Store) InsertAttendance(ctx context.Context, rec model.AttendanceRecord) (int64, error) {
	if _, err := s.AttendanceFor(ctx, rec.StudentID, rec.SessionID); err == nil {
		return 0, model.Conflict("attendance", "attendance already marked for this student in this session")
	} else if !model.IsNotFound(err) {
		return 0, fmt.Errorf("insert attendance: pre-check: %w", err)
	}

	row := attendanceRow{
		StudentID: rec.StudentID,
		SessionID: rec.SessionID,
		Timestamp: rec.Timestamp.Format(time.RFC3339),
		Status:    rec.Status,
	}
	var inserted []attendanceRow
	if err := s.c.insert(ctx, "attendance", row, &inserted); err != nil {
		return 0, fmt.Errorf("insert attendance: %w", err)
	}
	if len(inserted) == 0 {
		return 0, model.Unknown("insert attendance: remote returned no representation", nil)
	}
	return inserted[0].ID, nil
}

// AttendanceBySession joins a session's records with student details in
// application code: one attendance scan plus one students scan.
func (s *Store) AttendanceBySession(ctx context.Context, sessionID int64) ([]model.SessionAttendee, error) {
	q := url.Values{}
	q.Set("session_id", eq(sessionID))
	var rows []attendanceRow
	if err := s.c.selectAll(ctx, "attendance", q, &rows); err != nil {
		return nil, fmt.Errorf("attendance by session: %w", err)
	}

	students, err := s.studentIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("attendance by session: %w", err)
	}

	attendees := []model.SessionAttendee{}
	for _, row := range rows {
		st, ok := students[row.StudentID]
		if !ok {
			continue // orphaned record; the relational join drops it too
		}
		rec, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("attendance by session: %w", err)
		}
		attendees = append(attendees, model.SessionAttendee{
			AttendanceRecord:  rec,
			StudentName:       st.Name,
			StudentExternalID: st.ExternalID,
			Email:             st.Email,
		})
	}

	sort.SliceStable(attendees, func(i, j int) bool {
		return attendees[i].Timestamp.After(attendees[j].Timestamp)
	})
	return attendees, nil
}

// studentIndex scans the students table into an id-keyed map for
// application-level joins.
func (s *Store) studentIndex(ctx context.Context) (map[int64]studentRow, error) {
	var rows []studentRow
	if err := s.c.selectAll(ctx, "students", nil, &rows); err != nil {
		return nil, err
	}
	index := make(map[int64]studentRow, len(rows))
	for _, row := range rows {
		index[row.ID] = row
	}
	return index, nil
}

// sessionIndex scans the sessions table into an id-keyed map.
func (s *Store) sessionIndex(ctx context.Context) (map[int64]sessionRow, error) {
	var rows []sessionRow
	if err := s.c.selectAll(ctx, "sessions", nil, &rows); err != nil {
		return nil, err
	}
	index := make(map[int64]sessionRow, len(rows))
	for _, row := range rows {
		index[row.ID] = row
	}
	return index, nil
}
