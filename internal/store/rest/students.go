package rest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/rollcall/rollcall/internal/model"
)

// studentRow mirrors the remote students table.
type studentRow struct {
	ID               int64  `json:"id,omitempty"`
	ExternalID       string `json:"student_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Course           string `json:"course"`
	RegistrationDate string `json:"registration_date"`
	Status           string `json:"status"`
}

func (r studentRow) toModel() model.Student {
	return model.Student{
		ID:               r.ID,
		ExternalID:       r.ExternalID,
		Name:             r.Name,
		Email:            r.Email,
		Course:           r.Course,
		RegistrationDate: r.RegistrationDate,
		Status:           r.Status,
	}
}

// CreateStudent inserts a student. The remote store cannot be trusted to
// carry the UNIQUE constraint, so the duplicate check runs here first; a
// remote 409 still maps to CodeConflict as backstop.
func (s *Store) CreateStudent(ctx context.Context, ns model.NewStudent) (int64, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("student_id", eq(ns.ExternalID))
	var existing []studentRow
	if err := s.c.do(ctx, "GET", "students", q, nil, &existing); err != nil {
		return 0, fmt.Errorf("create student: duplicate check: %w", err)
	}
	if len(existing) > 0 {
		return 0, model.Conflict("student", fmt.Sprintf("student ID %s already exists", ns.ExternalID))
	}

	row := studentRow{
		ExternalID:       ns.ExternalID,
		Name:             ns.Name,
		Email:            ns.Email,
		Course:           ns.Course,
		RegistrationDate: s.now().Format(time.RFC3339),
		Status:           model.StatusActive,
	}
	var inserted []studentRow
	if err := s.c.insert(ctx, "students", row, &inserted); err != nil {
		return 0, fmt.Errorf("create student: %w", err)
	}
	if len(inserted) == 0 {
		return 0, model.Unknown("create student: remote returned no representation", nil)
	}
	return inserted[0].ID, nil
}

// StudentByID resolves a student by internal id.
func (s *Store) StudentByID(ctx context.Context, id int64) (*model.Student, error) {
	q := url.Values{}
	q.Set("id", eq(id))
	var rows []studentRow
	if err := s.c.selectAll(ctx, "students", q, &rows); err != nil {
		return nil, fmt.Errorf("student by id: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.NotFound("student")
	}
	st := rows[0].toModel()
	return &st, nil
}

// StudentByExternalID resolves a student by external student id.
func (s *Store) StudentByExternalID(ctx context.Context, externalID string) (*model.Student, error) {
	q := url.Values{}
	q.Set("student_id", eq(externalID))
	var rows []studentRow
	if err := s.c.selectAll(ctx, "students", q, &rows); err != nil {
		return nil, fmt.Errorf("student by external id: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.NotFound("student")
	}
	st := rows[0].toModel()
	return &st, nil
}

var fold = cases.Fold()

// matchesQuery does the case-insensitive substring match the relational
// backend gets from LIKE. Unicode case folding keeps non-ASCII names
// searchable.
func matchesQuery(st studentRow, query string) bool {
	needle := fold.String(query)
	for _, hay := range []string{st.ExternalID, st.Name, st.Email, st.Course} {
		if strings.Contains(fold.String(hay), needle) {
			return true
		}
	}
	return false
}

// ListStudents fetches the full table ordered by id descending, then
// filters and paginates here: the remote side has no cross-column
// case-insensitive search, and the total must count matches, not rows.
func (s *Store) ListStudents(ctx context.Context, page, perPage int, query string) ([]model.Student, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	q := url.Values{}
	q.Set("order", "id.desc")
	var rows []studentRow
	if err := s.c.selectAll(ctx, "students", q, &rows); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	matched := rows
	if query != "" {
		matched = matched[:0:0]
		for _, row := range rows {
			if matchesQuery(row, query) {
				matched = append(matched, row)
			}
		}
	}

	total := len(matched)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	students := []model.Student{}
	for _, row := range matched[start:end] {
		students = append(students, row.toModel())
	}
	return students, total, nil
}

// UpdateStudent applies a partial update. Only supplied fields are sent.
func (s *Store) UpdateStudent(ctx context.Context, id int64, patch model.StudentPatch) error {
	if _, err := s.StudentByID(ctx, id); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.Course != nil {
		fields["course"] = *patch.Course
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}

	q := url.Values{}
	q.Set("id", eq(id))
	if err := s.c.update(ctx, "students", q, fields); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// DeleteStudent emulates the cascade: face encoding, voice embedding and
// attendance rows are deleted explicitly, in that order, before the
// student row. A failure after the first child delete leaves the store
// inconsistent and is reported as such - never as success.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	if _, err := s.StudentByID(ctx, id); err != nil {
		return err
	}

	byStudent := func() url.Values {
		q := url.Values{}
		q.Set("student_id", eq(id))
		return q
	}

	if err := s.c.delete(ctx, "face_encodings", byStudent()); err != nil {
		return model.Unknown(fmt.Sprintf("delete student %d: face encodings", id), err)
	}
	if err := s.c.delete(ctx, "voice_embeddings", byStudent()); err != nil {
		return model.Unknown(fmt.Sprintf("delete student %d: cascade incomplete: voice embeddings", id), err)
	}
	if err := s.c.delete(ctx, "attendance", byStudent()); err != nil {
		return model.Unknown(fmt.Sprintf("delete student %d: cascade incomplete: attendance", id), err)
	}

	q := url.Values{}
	q.Set("id", eq(id))
	if err := s.c.delete(ctx, "students", q); err != nil {
		return model.Unknown(fmt.Sprintf("delete student %d: cascade incomplete: student row remains", id), err)
	}
	return nil
}
