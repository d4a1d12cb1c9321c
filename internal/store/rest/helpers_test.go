package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

const testAPIKey = "test-key"

// fakeRemote is an in-memory stand-in for the remote table API: per-table
// CRUD with eq filters, compound order and limit, nothing more. It
// deliberately offers no joins, aggregates or cascades, matching the
// capability surface the adapter is written against.
type fakeRemote struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	nextID map[string]int64

	// failing tables answer 500 to every call, for fault injection.
	failing map[string]bool

	srv *httptest.Server
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{
		tables:  map[string][]map[string]any{},
		nextID:  map[string]int64{},
		failing: map[string]bool{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRemote) url() string { return f.srv.URL }

func (f *fakeRemote) fail(table string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[table] = true
}

func (f *fakeRemote) rows(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any{}, f.tables[table]...)
}

func (f *fakeRemote) handle(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	if table == r.URL.Path || strings.Contains(table, "/") {
		http.Error(w, "no such route", http.StatusNotFound)
		return
	}
	if r.Header.Get("apikey") != testAPIKey {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing[table] {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filters := map[string]string{}
	for key, vals := range query {
		switch key {
		case "select", "order", "limit":
			continue
		}
		filters[key] = strings.TrimPrefix(vals[0], "eq.")
	}

	match := func(row map[string]any) bool {
		for col, want := range filters {
			if fmt.Sprint(row[col]) != want {
				return false
			}
		}
		return true
	}

	switch r.Method {
	case http.MethodGet:
		out := []map[string]any{}
		for _, row := range f.tables[table] {
			if match(row) {
				out = append(out, row)
			}
		}
		applyOrder(out, query.Get("order"))
		if limit := query.Get("limit"); limit != "" {
			var n int
			fmt.Sscanf(limit, "%d", &n)
			if n < len(out) {
				out = out[:n]
			}
		}
		json.NewEncoder(w).Encode(out)

	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, ok := row["id"]; !ok {
			f.nextID[table]++
			row["id"] = float64(f.nextID[table])
		}
		f.tables[table] = append(f.tables[table], row)
		w.WriteHeader(http.StatusCreated)
		if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
			json.NewEncoder(w).Encode([]map[string]any{row})
		}

	case http.MethodPatch:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, row := range f.tables[table] {
			if match(row) {
				for col, val := range fields {
					row[col] = val
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		kept := f.tables[table][:0]
		for _, row := range f.tables[table] {
			if !match(row) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not supported", http.StatusMethodNotAllowed)
	}
}

// applyOrder sorts rows per a PostgREST order clause: "col.desc,col2.asc".
func applyOrder(rows []map[string]any, order string) {
	if order == "" {
		return
	}
	type key struct {
		col  string
		desc bool
	}
	keys := []key{}
	for _, part := range strings.Split(order, ",") {
		col, dir, _ := strings.Cut(part, ".")
		keys = append(keys, key{col: col, desc: dir == "desc"})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareValues(rows[i][k.col], rows[j][k.col])
			if cmp == 0 {
				continue
			}
			if k.desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// createTestStore opens the adapter against a fresh fake remote, with a
// frozen clock.
func createTestStore(t *testing.T) (*Store, *fakeRemote) {
	t.Helper()
	remote := newFakeRemote(t)
	s, err := Open(context.Background(), remote.url(), testAPIKey)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.SetNow(func() time.Time {
		return time.Date(2024, 3, 14, 10, 30, 0, 0, time.UTC)
	})
	return s, remote
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
	id, err := s.CreateSession(context.Background(), model.NewSession{Name: name, Date: date})
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
