package store

import (
	"context"

	"github.com/rollcall/rollcall/internal/model"
)

// Store is the persistence port. Both adapters satisfy it; callers never
// depend on which backend is wired in.
type Store interface {
	// Ping verifies the backing connection. Surfaced by diagnostics.
	Ping(ctx context.Context) error

	// CreateStudent inserts a student and returns its internal id.
	// Fails with CodeConflict when the external id already exists.
	CreateStudent(ctx context.Context, s model.NewStudent) (int64, error)

	// StudentByID resolves a student by internal id.
	StudentByID(ctx context.Context, id int64) (*model.Student, error)

	// StudentByExternalID resolves a student by external student id.
	StudentByExternalID(ctx context.Context, externalID string) (*model.Student, error)

	// ListStudents pages through students ordered by creation descending.
	// query matches case-insensitively as a substring against external id,
	// name, email and course; empty query returns all. Returns the page
	// and the total match count.
	ListStudents(ctx context.Context, page, perPage int, query string) ([]model.Student, int, error)

	// UpdateStudent applies a partial update. Absent fields are untouched.
	UpdateStudent(ctx context.Context, id int64, patch model.StudentPatch) error

	// DeleteStudent removes a student and cascades its face encoding,
	// voice embedding and attendance rows.
	DeleteStudent(ctx context.Context, id int64) error

	// CreateSession inserts a session and returns its id. Duplicate
	// name/date combinations are allowed.
	CreateSession(ctx context.Context, s model.NewSession) (int64, error)

	// ListSessions returns all sessions ordered by date descending,
	// tiebroken by id descending.
	ListSessions(ctx context.Context) ([]model.Session, error)

	// SessionByID resolves a session by id.
	SessionByID(ctx context.Context, id int64) (*model.Session, error)

	// DeleteSession removes a session and cascades its attendance rows.
	DeleteSession(ctx context.Context, id int64) error

	// SessionAttendanceCount counts attendance rows for one session.
	SessionAttendanceCount(ctx context.Context, sessionID int64) (int, error)

	// SaveFaceEncoding upserts the face artifact for a student.
	SaveFaceEncoding(ctx context.Context, studentID int64, data string) error

	// FaceEncodings returns every stored face artifact.
	FaceEncodings(ctx context.Context) ([]model.FaceEncoding, error)

	// SaveVoiceEmbedding upserts the voice artifact for a student.
	SaveVoiceEmbedding(ctx context.Context, studentID int64, data string) error

	// VoiceEmbeddings returns every stored voice artifact.
	VoiceEmbeddings(ctx context.Context) ([]model.VoiceEmbedding, error)

	// AttendanceFor returns the record for (studentID, sessionID), or
	// CodeNotFound when the pair has no record.
	AttendanceFor(ctx context.Context, studentID, sessionID int64) (*model.AttendanceRecord, error)

	// InsertAttendance inserts a presence record and returns its id.
	// Only the ledger calls this.
	InsertAttendance(ctx context.Context, rec model.AttendanceRecord) (int64, error)

	// AttendanceBySession returns a session's records joined with student
	// details, timestamp descending.
	AttendanceBySession(ctx context.Context, sessionID int64) ([]model.SessionAttendee, error)

	// AttendanceReport returns filtered, joined report rows and their
	// aggregate stats. See ReportFilter for filter semantics.
	AttendanceReport(ctx context.Context, f ReportFilter) ([]ReportRow, ReportStats, error)

	// DailyStats returns per-date attendance counts for the same filters,
	// ascending by date. Dates with zero attendance do not appear.
	DailyStats(ctx context.Context, f ReportFilter) ([]DailyStat, error)

	// Settings returns the persisted settings keys. May be empty; the
	// settings store layers defaults on top.
	Settings(ctx context.Context) (map[string]any, error)

	// SaveSetting persists one key/value pair, overwriting any prior value.
	SaveSetting(ctx context.Context, key string, value any) error

	// Close releases the backing connection.
	Close() error
}

// ReportFilter narrows report queries. Zero values mean "no filter".
// StartDate and EndDate compare against the session date, inclusive.
type ReportFilter struct {
	StartDate string
	EndDate   string
	SessionID int64
	StudentID int64
}

// ReportRow is one attendance record joined with its student and session.
type ReportRow struct {
	ID          int64  `json:"id"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	SessionID   int64  `json:"session_id"`
	SessionName string `json:"session_name"`
	Date        string `json:"date"`
}

// ReportStats aggregates the filtered rows. AttendanceRate measures row
// density against the full active roster times sessions-in-range, not
// against the students appearing in the rows.
type ReportStats struct {
	TotalSessions  int `json:"total_sessions"`
	TotalStudents  int `json:"total_students"`
	TotalRecords   int `json:"total_records"`
	AttendanceRate int `json:"attendance_rate"`
}

// DailyStat is one date's attendance count.
type DailyStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AttendanceRate computes the rounded percentage of records against the
// possible attendance (activeStudents x sessions). Returns 0 when either
// factor is zero. Both adapters share this arithmetic so their stats are
// identical.
func AttendanceRate(records, activeStudents, sessions int) int {
	possible := activeStudents * sessions
	if possible <= 0 {
		return 0
	}
	return int(float64(records)/float64(possible)*100 + 0.5)
}
