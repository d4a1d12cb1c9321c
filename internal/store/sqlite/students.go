package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// CreateStudent inserts a student, stamping the registration date.
// A duplicate external id maps to CodeConflict via the UNIQUE constraint.
func (s *Store) CreateStudent(ctx context.Context, ns model.NewStudent) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO students (student_id, name, email, course, registration_date, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		ns.ExternalID,
		ns.Name,
		ns.Email,
		ns.Course,
		s.now().Format(time.RFC3339),
		model.StatusActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.Conflict("student", fmt.Sprintf("student ID %s already exists", ns.ExternalID))
		}
		return 0, fmt.Errorf("create student: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create student: last insert id: %w", err)
	}
	return id, nil
}

const studentColumns = "id, student_id, name, email, course, registration_date, status"

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	var st model.Student
	var email, course, regDate sql.NullString
	err := row.Scan(&st.ID, &st.ExternalID, &st.Name, &email, &course, &regDate, &st.Status)
	if err != nil {
		return nil, err
	}
	st.Email = email.String
	st.Course = course.String
	st.RegistrationDate = regDate.String
	return &st, nil
}

// StudentByID resolves a student by internal id.
func (s *Store) StudentByID(ctx context.Context, id int64) (*model.Student, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE id = ?", id)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("student")
	}
	if err != nil {
		return nil, fmt.Errorf("student by id: %w", err)
	}
	return st, nil
}

// StudentByExternalID resolves a student by external student id.
func (s *Store) StudentByExternalID(ctx context.Context, externalID string) (*model.Student, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE student_id = ?", externalID)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("student")
	}
	if err != nil {
		return nil, fmt.Errorf("student by external id: %w", err)
	}
	return st, nil
}

// ListStudents pages through students, most recently created first.
// query matches as a case-insensitive substring against external id, name,
// email and course (LIKE is case-insensitive in SQLite for ASCII).
func (s *Store) ListStudents(ctx context.Context, page, perPage int, query string) ([]model.Student, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	where := ""
	args := []any{}
	if query != "" {
		where = ` WHERE student_id LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'` +
			` OR email LIKE ? ESCAPE '\' OR course LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(query) + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+studentColumns+" FROM students"+where+" ORDER BY id DESC LIMIT ? OFFSET ?",
		append(append([]any{}, args...), perPage, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list students: scan: %w", err)
		}
		students = append(students, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM students"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: count: %w", err)
	}

	return students, total, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied queries so a
// search for "100%" matches literally.
func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, `%`, `\%`)
	return strings.ReplaceAll(q, `_`, `\_`)
}

// UpdateStudent applies a partial update; nil patch fields are untouched.
func (s *Store) UpdateStudent(ctx context.Context, id int64, patch model.StudentPatch) error {
	if _, err := s.StudentByID(ctx, id); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	sets := []string{}
	args := []any{}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Course != nil {
		sets = append(sets, "course = ?")
		args = append(args, *patch.Course)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	args = append(args, id)

	_, err := s.db.ExecContext(ctx,
		"UPDATE students SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// DeleteStudent removes a student. Face, voice and attendance rows go with
// it via ON DELETE CASCADE.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student: rows affected: %w", err)
	}
	if affected == 0 {
		return model.NotFound("student")
	}
	return nil
}
