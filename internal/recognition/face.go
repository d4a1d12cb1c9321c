package recognition

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/rollcall/rollcall/internal/store"
)

// embeddingSize is the fixed length of the placeholder face embedding.
const embeddingSize = 128

// FaceStrategy is the placeholder face scorer: cosine similarity between
// stored embedding vectors.
type FaceStrategy struct{}

// ScoreMatch decodes both artifacts and returns their cosine similarity.
func (FaceStrategy) ScoreMatch(sample, enrolled string) (float64, error) {
	a, err := decodeEmbedding(sample)
	if err != nil {
		return 0, fmt.Errorf("face score: sample: %w", err)
	}
	b, err := decodeEmbedding(enrolled)
	if err != nil {
		return 0, fmt.Errorf("face score: enrolled: %w", err)
	}
	return cosine(a, b)
}

// Encode derives the placeholder embedding for an image. Deterministic:
// the same image always produces the same vector. This is NOT a biometric
// feature extractor; it exists so the enrollment and identification plumbing
// can run end to end.
func Encode(image []byte) string {
	digest := sha256.Sum256(image)
	vec := make([]float64, embeddingSize)
	for i := range vec {
		// Stretch the digest across the vector by rehashing per block.
		block := sha256.Sum256(append(digest[:], byte(i)))
		bits := binary.BigEndian.Uint64(block[:8])
		// Zero-centered components keep unrelated images near zero
		// similarity, so thresholds behave sensibly.
		vec[i] = float64(bits%2001)/1000 - 1
	}
	raw, _ := json.Marshal(vec)
	return string(raw)
}

func decodeEmbedding(data string) ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal([]byte(data), &vec); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return vec, nil
}

// FaceService enrolls face artifacts and identifies samples against them.
type FaceService struct {
	store     store.Store
	strategy  Strategy
	threshold float64
}

// NewFaceService creates a face service with the given match threshold.
func NewFaceService(st store.Store, threshold float64) *FaceService {
	return &FaceService{store: st, strategy: FaceStrategy{}, threshold: threshold}
}

// SetThreshold updates the similarity threshold (settings changes).
func (s *FaceService) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// Enroll encodes an image and upserts it as the student's face artifact.
func (s *FaceService) Enroll(ctx context.Context, studentID int64, image []byte) (string, error) {
	encoding := Encode(image)
	if err := s.store.SaveFaceEncoding(ctx, studentID, encoding); err != nil {
		return "", fmt.Errorf("enroll face: %w", err)
	}
	return encoding, nil
}

// Match is one identification candidate.
type Match struct {
	StudentID int64   `json:"student_id"`
	Score     float64 `json:"score"`
}

// Identify scores a sample image against every enrolled encoding and
// returns the best match at or above the threshold, or ok=false.
func (s *FaceService) Identify(ctx context.Context, image []byte) (Match, bool, error) {
	sample := Encode(image)
	enrolled, err := s.store.FaceEncodings(ctx)
	if err != nil {
		return Match{}, false, fmt.Errorf("identify face: %w", err)
	}

	best := Match{Score: -1}
	for _, enc := range enrolled {
		score, err := s.strategy.ScoreMatch(sample, enc.Data)
		if err != nil {
			return Match{}, false, fmt.Errorf("identify face: student %d: %w", enc.StudentID, err)
		}
		if score > best.Score {
			best = Match{StudentID: enc.StudentID, Score: score}
		}
	}
	if best.StudentID == 0 || best.Score < s.threshold {
		return Match{}, false, nil
	}
	return best, true, nil
}
