package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/rollcall/internal/ledger"
	"github.com/rollcall/rollcall/internal/recognition"
	"github.com/rollcall/rollcall/internal/report"
	"github.com/rollcall/rollcall/internal/settings"
	"github.com/rollcall/rollcall/internal/store/sqlite"
	"github.com/rollcall/rollcall/internal/testutil"
)

func newTestServer(t *testing.T) (*fiber.App, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.FixedClock(time.Date(2024, 3, 14, 10, 30, 0, 0, time.UTC))
	st.SetNow(clock)

	led := ledger.New(st)
	led.SetNow(clock)

	srv, app := New(st, led, report.NewEngine(st), settings.New(st),
		recognition.NewFaceService(st, 0.5),
		recognition.NewVoiceService(st, 0.5))
	srv.SetNow(clock)
	return app, st
}

// request performs one in-process request and decodes the JSON envelope.
func request(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func registerBody(externalID, name string) map[string]any {
	return map[string]any{
		"student_id":       externalID,
		"name":             name,
		"email":            externalID + "@example.edu",
		"course":           "Computer Science",
		"face_image":       base64.StdEncoding.EncodeToString([]byte(name + "-face")),
		"voice_transcript": "my voice is my passport " + name,
	}
}

func TestStatusEndpoint(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "attendance system API is running", body["status"])
}

func TestRegisterStudent(t *testing.T) {
	app, st := newTestServer(t)

	status, body := request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Student Ada registered successfully", body["message"])
	assert.Equal(t, float64(1), body["student_id"])

	// Registration enrolls both artifacts.
	faces, err := st.FaceEncodings(t.Context())
	require.NoError(t, err)
	assert.Len(t, faces, 1)
	voices, err := st.VoiceEmbeddings(t.Context())
	require.NoError(t, err)
	assert.Len(t, voices, 1)
}

func TestRegisterStudent_Validation(t *testing.T) {
	app, _ := newTestServer(t)

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{"missing name", func(b map[string]any) { b["name"] = "" }, "missing required student information"},
		{"missing face image", func(b map[string]any) { b["face_image"] = "" }, "missing face image data"},
		{"missing voice sample", func(b map[string]any) { b["voice_transcript"] = "" }, "missing voice sample"},
		{"bad base64", func(b map[string]any) { b["face_image"] = "%%%" }, "face image is not valid base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := registerBody("S009", "Nobody")
			tt.mutate(body)
			status, envelope := request(t, app, http.MethodPost, "/api/students/register", body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, envelope["success"])
			assert.Equal(t, tt.message, envelope["message"])
		})
	}
}

func TestRegisterStudent_DuplicateIs400(t *testing.T) {
	app, _ := newTestServer(t)

	status, _ := request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))
	require.Equal(t, http.StatusOK, status)

	status, body := request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Imposter"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "already exists")
}

func TestListStudents(t *testing.T) {
	app, _ := newTestServer(t)

	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))
	request(t, app, http.MethodPost, "/api/students/register", registerBody("S002", "Grace"))

	status, body := request(t, app, http.MethodGet, "/api/students?page=1&per_page=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["students"], 1)

	status, body = request(t, app, http.MethodGet, "/api/students?query=grace", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
}

func TestGetStudent_NotFoundIs404(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodGet, "/api/students/42", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestUpdateStudent_RejectsUnknownStatus(t *testing.T) {
	app, _ := newTestServer(t)
	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))

	status, body := request(t, app, http.MethodPut, "/api/students/1", map[string]any{"status": "expelled"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "status must be active or inactive", body["message"])

	status, _ = request(t, app, http.MethodPut, "/api/students/1", map[string]any{"status": "inactive"})
	assert.Equal(t, http.StatusOK, status)
}

func TestSessions_CreateListDelete(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodPost, "/api/sessions", map[string]any{"name": "Lecture 1", "date": "2024-03-12"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["session_id"])

	// Date defaults to today when omitted.
	status, _ = request(t, app, http.MethodPost, "/api/sessions", map[string]any{"name": "Lecture 2"})
	require.Equal(t, http.StatusOK, status)

	status, body = request(t, app, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, status)
	sessions := body["sessions"].([]any)
	require.Len(t, sessions, 2)
	first := sessions[0].(map[string]any)
	assert.Equal(t, "Lecture 2", first["name"])
	assert.Equal(t, "2024-03-14", first["date"])
	assert.Equal(t, float64(0), first["attendance_count"])

	status, _ = request(t, app, http.MethodDelete, "/api/sessions/1", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = request(t, app, http.MethodDelete, "/api/sessions/1", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateSession_NameRequired(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodPost, "/api/sessions", map[string]any{"date": "2024-03-12"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "session name is required", body["message"])
}

func TestMarkAttendance(t *testing.T) {
	app, _ := newTestServer(t)

	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))
	request(t, app, http.MethodPost, "/api/sessions", map[string]any{"name": "Lecture 1"})

	mark := map[string]any{"student_id": 1, "session_id": 1}

	status, body := request(t, app, http.MethodPost, "/api/attendance/mark", mark)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Attendance marked successfully", body["message"])
	assert.Equal(t, "Ada", body["student_name"])
	assert.Equal(t, float64(1), body["attendance_id"])

	// Marking twice is a conflict, reported as 400.
	status, body = request(t, app, http.MethodPost, "/api/attendance/mark", mark)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "already marked")

	// Unknown student is 404.
	status, _ = request(t, app, http.MethodPost, "/api/attendance/mark", map[string]any{"student_id": 99, "session_id": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = request(t, app, http.MethodGet, "/api/attendance?session_id=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["attendance"], 1)
}

func TestSessionAttendance_RequiresSessionID(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodGet, "/api/attendance", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "session ID is required", body["message"])
}

func TestReports(t *testing.T) {
	app, _ := newTestServer(t)

	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))
	request(t, app, http.MethodPost, "/api/sessions", map[string]any{"name": "Lecture 1"})
	request(t, app, http.MethodPost, "/api/attendance/mark", map[string]any{"student_id": 1, "session_id": 1})

	status, body := request(t, app, http.MethodGet, "/api/reports?date_range=today", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["attendance"], 1)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_records"])
	assert.Equal(t, float64(100), stats["attendance_rate"])
	assert.Len(t, body["daily_stats"], 1)

	// Yesterday has no records.
	status, body = request(t, app, http.MethodGet, "/api/reports?date_range=yesterday", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["attendance"])
}

func TestReportsExport(t *testing.T) {
	app, _ := newTestServer(t)

	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))
	request(t, app, http.MethodPost, "/api/sessions", map[string]any{"name": "Lecture 1"})
	request(t, app, http.MethodPost, "/api/attendance/mark", map[string]any{"student_id": 1, "session_id": 1})

	status, body := request(t, app, http.MethodGet, "/api/reports/export", nil)
	require.Equal(t, http.StatusOK, status)
	csv := body["csv_content"].(string)
	assert.Contains(t, csv, "Date,Session,Student ID,Student Name,Time,Status\n")
	assert.Contains(t, csv, "2024-03-14,Lecture 1,S001,Ada,10:30:00,present\n")
}

func TestSettingsEndpoints(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, status)
	resolved := body["settings"].(map[string]any)
	assert.Equal(t, 0.5, resolved["face_recognition_threshold"])
	assert.Equal(t, true, resolved["require_both_auth"])

	// Partial payloads are rejected.
	status, body = request(t, app, http.MethodPost, "/api/settings", map[string]any{
		"face_recognition_threshold": 0.8,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required setting: voice_recognition_threshold", body["message"])

	status, _ = request(t, app, http.MethodPost, "/api/settings", map[string]any{
		"face_recognition_threshold":  0.8,
		"voice_recognition_threshold": 0.6,
		"require_both_auth":           false,
	})
	require.Equal(t, http.StatusOK, status)

	status, body = request(t, app, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, status)
	resolved = body["settings"].(map[string]any)
	assert.Equal(t, 0.8, resolved["face_recognition_threshold"])
	assert.Equal(t, false, resolved["require_both_auth"])
}

func TestDetectFace(t *testing.T) {
	app, _ := newTestServer(t)

	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))

	image := base64.StdEncoding.EncodeToString([]byte("Ada-face"))
	status, body := request(t, app, http.MethodPost, "/api/recognition/detect-face", map[string]any{"image": image})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["recognized"])
	assert.Equal(t, "Ada", body["name"])
	assert.Equal(t, float64(1), body["student_id"])

	unknown := base64.StdEncoding.EncodeToString([]byte("stranger"))
	status, body = request(t, app, http.MethodPost, "/api/recognition/detect-face", map[string]any{"image": unknown})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["recognized"])
}

func TestVerifyVoice(t *testing.T) {
	app, _ := newTestServer(t)

	request(t, app, http.MethodPost, "/api/students/register", registerBody("S001", "Ada"))

	status, body := request(t, app, http.MethodPost, "/api/recognition/verify-voice", map[string]any{
		"student_id": 1,
		"transcript": "my voice is my passport Ada",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Voice verified successfully", body["message"])

	status, body = request(t, app, http.MethodPost, "/api/recognition/verify-voice", map[string]any{
		"student_id": 1,
		"transcript": "entirely different wording",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])

	status, _ = request(t, app, http.MethodPost, "/api/recognition/verify-voice", map[string]any{
		"student_id": 42,
		"transcript": "anything",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDiagnostics(t *testing.T) {
	app, _ := newTestServer(t)

	status, body := request(t, app, http.MethodGet, "/api/diagnostics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRequestIDHeader(t *testing.T) {
	app, _ := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
