package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rollcall/rollcall/internal/model"
)

// SaveFaceEncoding upserts the face artifact for a student. The UNIQUE
// constraint on student_id keeps exactly one row per student.
func (s *Store) SaveFaceEncoding(ctx context.Context, studentID int64, data string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO face_encodings (student_id, encoding_data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET encoding_data = excluded.encoding_data,
			created_at = excluded.created_at
	`, studentID, data, s.now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save face encoding: %w", err)
	}
	return nil
}

// FaceEncodings returns every stored face artifact.
func (s *Store) FaceEncodings(ctx context.Context) ([]model.FaceEncoding, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT student_id, encoding_data FROM face_encodings")
	if err != nil {
		return nil, fmt.Errorf("face encodings: %w", err)
	}
	defer rows.Close()

	encodings := []model.FaceEncoding{}
	for rows.Next() {
		var enc model.FaceEncoding
		if err := rows.Scan(&enc.StudentID, &enc.Data); err != nil {
			return nil, fmt.Errorf("face encodings: scan: %w", err)
		}
		encodings = append(encodings, enc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("face encodings: %w", err)
	}
	return encodings, nil
}

// SaveVoiceEmbedding upserts the voice artifact for a student.
func (s *Store) SaveVoiceEmbedding(ctx context.Context, studentID int64, data string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voice_embeddings (student_id, embedding_data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET embedding_data = excluded.embedding_data,
			created_at = excluded.created_at
	`, studentID, data, s.now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save voice embedding: %w", err)
	}
	return nil
}

// VoiceEmbeddings returns every stored voice artifact.
func (s *Store) VoiceEmbeddings(ctx context.Context) ([]model.VoiceEmbedding, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT student_id, embedding_data FROM voice_embeddings")
	if err != nil {
		return nil, fmt.Errorf("voice embeddings: %w", err)
	}
	defer rows.Close()

	embeddings := []model.VoiceEmbedding{}
	for rows.Next() {
		var emb model.VoiceEmbedding
		if err := rows.Scan(&emb.StudentID, &emb.Data); err != nil {
			return nil, fmt.Errorf("voice embeddings: scan: %w", err)
		}
		embeddings = append(embeddings, emb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("voice embeddings: %w", err)
	}
	return embeddings, nil
}
