package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// createTestStore opens a fresh file-backed store with a frozen clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.SetNow(func() time.Time {
		return time.Date(2024, 3, 14, 10, 30, 0, 0, time.UTC)
	})
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestStudent(t *testing.T, s *Store, externalID, name string) int64 {
	t.Helper()
	id, err := s.CreateStudent(context.Background(), model.NewStudent{
		ExternalID: externalID,
		Name:       name,
		Email:      externalID + "@example.edu",
		Course:     "Computer Science",
	})
	if err != nil {
		t.Fatalf("CreateStudent(%q) failed: %v", externalID, err)
	}
	return id
}

func createTestSession(t *testing.T, s *Store, name, date string) int64 {
	t.Helper()
	id, err := s.CreateSession(context.Background(), model.NewSession{
		Name: name,
		Date: date,
	})
	if err != nil {
		t.Fatalf("CreateSession(%q) failed: %v", name, err)
	}
	return id
}

func markTestAttendance(t *testing.T, s *Store, studentID, sessionID int64, ts time.Time) int64 {
	t.Helper()
	id, err := s.InsertAttendance(context.Background(), model.AttendanceRecord{
		StudentID: studentID,
		SessionID: sessionID,
		Timestamp: ts,
		Status:    model.StatusPresent,
	})
	if err != nil {
		t.Fatalf("InsertAttendance(%d, %d) failed: %v", studentID, sessionID, err)
	}
	return id
}
