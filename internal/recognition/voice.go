package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rollcall/rollcall/internal/store"
)

// verificationPhrases are the fixed phrases a student may speak for voice
// confirmation. The placeholder scorer matches transcripts against these
// and against the enrolled sample.
var verificationPhrases = []string{
	"i am present today for the class",
	"confirming my attendance for today's session",
	"recording my presence for this class",
}

// VoiceStrategy is the placeholder voice scorer: word overlap between the
// sample transcript and the enrolled transcript (Jaccard over word sets).
type VoiceStrategy struct{}

// ScoreMatch decodes both artifacts and returns their word overlap ratio.
func (VoiceStrategy) ScoreMatch(sample, enrolled string) (float64, error) {
	a, err := decodeTranscript(sample)
	if err != nil {
		return 0, fmt.Errorf("voice score: sample: %w", err)
	}
	b, err := decodeTranscript(enrolled)
	if err != nil {
		return 0, fmt.Errorf("voice score: enrolled: %w", err)
	}
	return wordOverlap(a, b), nil
}

// EncodeTranscript wraps a transcript as the stored voice artifact.
func EncodeTranscript(transcript string) string {
	raw, _ := json.Marshal(map[string]string{"transcript": transcript})
	return string(raw)
}

func decodeTranscript(data string) (string, error) {
	var wrapper struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal([]byte(data), &wrapper); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	return wrapper.Transcript, nil
}

func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(w, ".,!?'\"")] = struct{}{}
	}
	delete(set, "")
	return set
}

func wordOverlap(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	common, union := 0, len(setB)
	for w := range setA {
		if _, ok := setB[w]; ok {
			common++
		} else {
			union++
		}
	}
	return float64(common) / float64(union)
}

// VoiceService enrolls voice artifacts and verifies samples against them.
type VoiceService struct {
	store     store.Store
	strategy  Strategy
	threshold float64
}

// NewVoiceService creates a voice service with the given match threshold.
func NewVoiceService(st store.Store, threshold float64) *VoiceService {
	return &VoiceService{store: st, strategy: VoiceStrategy{}, threshold: threshold}
}

// SetThreshold updates the match threshold (settings changes).
func (s *VoiceService) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// Enroll stores a transcript as the student's voice artifact.
func (s *VoiceService) Enroll(ctx context.Context, studentID int64, transcript string) (string, error) {
	embedding := EncodeTranscript(transcript)
	if err := s.store.SaveVoiceEmbedding(ctx, studentID, embedding); err != nil {
		return "", fmt.Errorf("enroll voice: %w", err)
	}
	return embedding, nil
}

// Verify scores a sample transcript against the student's enrolled
// artifact and the fixed verification phrases; the best score wins.
func (s *VoiceService) Verify(ctx context.Context, studentID int64, transcript string) (float64, bool, error) {
	embeddings, err := s.store.VoiceEmbeddings(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("verify voice: %w", err)
	}

	sample := EncodeTranscript(transcript)
	best := 0.0
	for _, emb := range embeddings {
		if emb.StudentID != studentID {
			continue
		}
		score, err := s.strategy.ScoreMatch(sample, emb.Data)
		if err != nil {
			return 0, false, fmt.Errorf("verify voice: %w", err)
		}
		if score > best {
			best = score
		}
	}
	for _, phrase := range verificationPhrases {
		if score := wordOverlap(transcript, phrase); score > best {
			best = score
		}
	}
	return best, best >= s.threshold, nil
}
