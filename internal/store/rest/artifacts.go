package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rollcall/rollcall/internal/model"
)

type faceRow struct {
	StudentID int64  `json:"student_id"`
	Data      string `json:"encoding_data"`
}

type voiceRow struct {
	StudentID int64  `json:"student_id"`
	Data      string `json:"embedding_data"`
}

// upsertByStudent emulates the artifact upsert: select by student id, then
// PATCH in place or POST a new row. The remote cannot declare the
// single-row-per-student constraint, so this check-then-write is what
// keeps it true.
func (s *Store) upsertByStudent(ctx context.Context, table string, studentID int64, insertBody, updateBody any) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("student_id", eq(studentID))
	var existing []struct {
		ID int64 `json:"id"`
	}
	if err := s.c.do(ctx, "GET", table, q, nil, &existing); err != nil {
		return fmt.Errorf("upsert %s: check: %w", table, err)
	}

	if len(existing) > 0 {
		q := url.Values{}
		q.Set("student_id", eq(studentID))
		if err := s.c.update(ctx, table, q, updateBody); err != nil {
			return fmt.Errorf("upsert %s: update: %w", table, err)
		}
		return nil
	}
	if err := s.c.insert(ctx, table, insertBody, nil); err != nil {
		return fmt.Errorf("upsert %s: insert: %w", table, err)
	}
	return nil
}

// SaveFaceEncoding upserts the face artifact for a student.
func (s *Store) SaveFaceEncoding(ctx context.Context, studentID int64, data string) error {
	return s.upsertByStudent(ctx, "face_encodings", studentID,
		faceRow{StudentID: studentID, Data: data},
		map[string]any{"encoding_data": data})
}

// FaceEncodings returns every stored face artifact.
func (s *Store) FaceEncodings(ctx context.Context) ([]model.FaceEncoding, error) {
	var rows []faceRow
	if err := s.c.selectAll(ctx, "face_encodings", nil, &rows); err != nil {
		return nil, fmt.Errorf("face encodings: %w", err)
	}
	encodings := []model.FaceEncoding{}
	for _, row := range rows {
		encodings = append(encodings, model.FaceEncoding{StudentID: row.StudentID, Data: row.Data})
	}
	return encodings, nil
}

// SaveVoiceEmbedding upserts the voice artifact for a student.
func (s *Store) SaveVoiceEmbedding(ctx context.Context, studentID int64, data string) error {
	return s.upsertByStudent(ctx, "voice_embeddings", studentID,
		voiceRow{StudentID: studentID, Data: data},
		map[string]any{"embedding_data": data})
}

// VoiceEmbeddings returns every stored voice artifact.
func (s *Store) VoiceEmbeddings(ctx context.Context) ([]model.VoiceEmbedding, error) {
	var rows []voiceRow
	if err := s.c.selectAll(ctx, "voice_embeddings", nil, &rows); err != nil {
		return nil, fmt.Errorf("voice embeddings: %w", err)
	}
	embeddings := []model.VoiceEmbedding{}
	for _, row := range rows {
		embeddings = append(embeddings, model.VoiceEmbedding{StudentID: row.StudentID, Data: row.Data})
	}
	return embeddings, nil
}
