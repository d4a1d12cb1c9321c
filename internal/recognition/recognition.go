// Package recognition holds the pluggable face and voice match
// strategies. The bundled implementations are deliberate placeholders -
// a deterministic pseudo-embedding for faces and phrase word-overlap for
// voice - kept behind the Strategy interface so a real biometric
// implementation can be substituted without touching the ledger or the
// report engine.
package recognition

import (
	"fmt"
	"math"
)

// Strategy scores a captured sample against an enrolled artifact. Both
// sides are the opaque stored form; the persistence layer never interprets
// them. Higher scores mean a closer match.
type Strategy interface {
	ScoreMatch(sample, enrolled string) (float64, error)
}

// cosine is the similarity between two equal-length vectors.
func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
