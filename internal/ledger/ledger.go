// Package ledger enforces the attendance invariants: a presence record is
// created only here, at most once per (student, session) pair.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/im7mortal/kmutex"

	"github.com/rollcall/rollcall/internal/model"
	"github.com/rollcall/rollcall/internal/store"
)

// Ledger is the attendance write path.
//
// The existence check and the insert are not one storage transaction, so
// two concurrent marks for the same pair could both pass the check. A
// keyed mutex serializes marks per pair within this process; the sqlite
// backend additionally carries a UNIQUE pair index. Across processes on
// the remote backend the residual race remains and is accepted.
type Ledger struct {
	store store.Store
	locks *kmutex.Kmutex
	now   func() time.Time
}

type pairKey struct {
	studentID int64
	sessionID int64
}

// New creates a Ledger over the given store.
func New(st store.Store) *Ledger {
	return &Ledger{store: st, locks: kmutex.New(), now: time.Now}
}

// SetNow overrides the timestamp source. Tests only.
func (l *Ledger) SetNow(now func() time.Time) {
	l.now = now
}

// Mark records presence for a student in a session.
//
// Fails with CodeNotFound("student") or CodeNotFound("session") when
// either side of the pair is missing, and CodeConflict when the pair is
// already marked. Returns the created record and the student's display
// name for confirmation messaging.
func (l *Ledger) Mark(ctx context.Context, studentID, sessionID int64) (*model.AttendanceRecord, string, error) {
	student, err := l.store.StudentByID(ctx, studentID)
	if err != nil {
		return nil, "", err
	}
	if _, err := l.store.SessionByID(ctx, sessionID); err != nil {
		return nil, "", err
	}

	key := pairKey{studentID, sessionID}
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	if _, err := l.store.AttendanceFor(ctx, studentID, sessionID); err == nil {
		return nil, "", model.Conflict("attendance", "attendance already marked for this student in this session")
	} else if !model.IsNotFound(err) {
		return nil, "", err
	}

	rec := model.AttendanceRecord{
		StudentID: studentID,
		SessionID: sessionID,
		Timestamp: l.now(),
		Status:    model.StatusPresent,
	}
	rec.ID, err = l.store.InsertAttendance(ctx, rec)
	if err != nil {
		return nil, "", err
	}

	slog.Info("attendance marked",
		"student_id", studentID,
		"session_id", sessionID,
		"record_id", rec.ID,
	)
	return &rec, student.Name, nil
}
