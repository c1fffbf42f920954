// Package intelligence provides the scoring and lifecycle policies used to
// assemble agent context: vector similarity, memory and knowledge ranking,
// task template selection, and retention thresholds per memory type.
package intelligence

import "math"

// CosineSimilarity calculates the cosine similarity between two vectors.
//
// The result lies in [-1, 1]. It returns 0 when either vector is empty, the
// lengths differ, or either vector has zero magnitude, so malformed input
// never fails a ranking pass.
//
// Formula: cos(θ) = (A · B) / (||A|| * ||B||)
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(-1, math.Min(1, sim))
}
