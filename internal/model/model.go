package model

import "time"

// DateLayout is the calendar-date format used everywhere a date is stored
// or compared. Dates are plain strings so that both backends compare and
// sort them identically, with no timezone involved.
const DateLayout = "2006-01-02"

// Student statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StatusPresent is the only attendance status currently written.
const StatusPresent = "present"

// Student is a registered student. ID and ExternalID are immutable after
// creation; RegistrationDate is set once by the store.
type Student struct {
	ID               int64  `json:"id"`
	ExternalID       string `json:"student_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Course           string `json:"course"`
	RegistrationDate string `json:"registration_date"`
	Status           string `json:"status"`
}

// NewStudent carries the fields supplied at registration time.
type NewStudent struct {
	ExternalID string
	Name       string
	Email      string
	Course     string
}

// StudentPatch is a partial update: nil fields are left untouched.
type StudentPatch struct {
	Name   *string
	Email  *string
	Course *string
	Status *string
}

// Empty reports whether the patch modifies nothing.
func (p StudentPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Course == nil && p.Status == nil
}

// Session is a scheduled class session. Duplicate name/date combinations
// are permitted.
type Session struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// NewSession carries the fields supplied at session creation.
type NewSession struct {
	Name      string
	Date      string
	StartTime string
	EndTime   string
}

// AttendanceRecord is one presence event. At most one record exists per
// (StudentID, SessionID) pair; records are immutable once created and are
// only removed by cascade.
type AttendanceRecord struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	SessionID int64     `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// SessionAttendee is an attendance record joined with its student, as shown
// on the per-session attendance view. Timestamp descending.
type SessionAttendee struct {
	AttendanceRecord
	StudentName       string `json:"student_name"`
	StudentExternalID string `json:"student_external_id"`
	Email             string `json:"email,omitempty"`
}

// FaceEncoding is an opaque student-keyed face artifact. Exactly one row
// exists per student at any time (upsert semantics).
type FaceEncoding struct {
	StudentID int64  `json:"student_id"`
	Data      string `json:"encoding_data"`
}

// VoiceEmbedding is an opaque student-keyed voice artifact, same contract
// as FaceEncoding.
type VoiceEmbedding struct {
	StudentID int64  `json:"student_id"`
	Data      string `json:"embedding_data"`
}
