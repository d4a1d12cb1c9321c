package recognition

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall/rollcall/internal/model"
	"github.com/rollcall/rollcall/internal/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func enrollStudent(t *testing.T, st *sqlite.Store, externalID string) int64 {
	t.Helper()
	id, err := st.CreateStudent(context.Background(), model.NewStudent{
		ExternalID: externalID,
		Name:       "Student " + externalID,
	})
	require.NoError(t, err)
	return id
}

func TestEncode_Deterministic(t *testing.T) {
	a := Encode([]byte("image-bytes"))
	b := Encode([]byte("image-bytes"))
	c := Encode([]byte("different"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	vec, err := decodeEmbedding(a)
	require.NoError(t, err)
	assert.Len(t, vec, embeddingSize)
}

func TestCosine_SelfSimilarityIsOne(t *testing.T) {
	enc := Encode([]byte("image"))
	score, err := FaceStrategy{}.ScoreMatch(enc, enc)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestFaceService_IdentifyEnrolledStudent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ada := enrollStudent(t, st, "S001")
	grace := enrollStudent(t, st, "S002")

	svc := NewFaceService(st, 0.9)
	_, err := svc.Enroll(ctx, ada, []byte("ada-face"))
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, grace, []byte("grace-face"))
	require.NoError(t, err)

	match, ok, err := svc.Identify(ctx, []byte("ada-face"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ada, match.StudentID)
	assert.InDelta(t, 1.0, match.Score, 1e-9)
}

func TestFaceService_NoEnrollmentsNoMatch(t *testing.T) {
	st := newTestStore(t)

	svc := NewFaceService(st, 0.5)
	_, ok, err := svc.Identify(context.Background(), []byte("anybody"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFaceService_ThresholdGates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ada := enrollStudent(t, st, "S001")
	svc := NewFaceService(st, 0.5)
	_, err := svc.Enroll(ctx, ada, []byte("ada-face"))
	require.NoError(t, err)

	// An impossible threshold rejects even the exact enrolled image.
	svc.SetThreshold(1.1)
	_, ok, err := svc.Identify(ctx, []byte("ada-face"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVoiceService_VerifyAgainstEnrolledSample(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ada := enrollStudent(t, st, "S001")
	svc := NewVoiceService(st, 0.5)
	_, err := svc.Enroll(ctx, ada, "my voice is my passport")
	require.NoError(t, err)

	score, ok, err := svc.Verify(ctx, ada, "my voice is my passport")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestVoiceService_VerificationPhraseMatches(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ada := enrollStudent(t, st, "S001")
	svc := NewVoiceService(st, 0.5)

	// No enrolled artifact: a fixed verification phrase still verifies.
	score, ok, err := svc.Verify(ctx, ada, "I am present today for the class")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestVoiceService_UnrelatedTranscriptFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ada := enrollStudent(t, st, "S001")
	svc := NewVoiceService(st, 0.5)
	_, err := svc.Enroll(ctx, ada, "my voice is my passport")
	require.NoError(t, err)

	_, ok, err := svc.Verify(ctx, ada, "completely unrelated words here")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWordOverlap(t *testing.T) {
	assert.Equal(t, 1.0, wordOverlap("hello world", "Hello, world!"))
	assert.Equal(t, 0.0, wordOverlap("", "hello"))
	assert.InDelta(t, 1.0/3.0, wordOverlap("a b", "a c"), 1e-9)
}
