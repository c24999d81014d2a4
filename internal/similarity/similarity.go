// Package similarity implements the cosine-similarity kernel used for both
// verification decisions and enrollment-quality diagnostics. Everything here
// is pure and deterministic.
package similarity

import "math"

// epsilon guards the norm so a degenerate all-zero vector divides cleanly
// instead of producing NaN.
const epsilon = 1e-8

// Cosine returns the cosine similarity between two vectors, in [-1, 1].
// Vectors of mismatched length compare as 0.
func Cosine(query, reference []float32) float64 {
	if len(query) != len(reference) || len(query) == 0 {
		return 0
	}

	var dot, normQ, normR float64
	for i := range query {
		q := float64(query[i])
		r := float64(reference[i])
		dot += q * r
		normQ += q * q
		normR += r * r
	}

	sim := dot / ((math.Sqrt(normQ) + epsilon) * (math.Sqrt(normR) + epsilon))

	// Clamp to [-1, 1] to absorb float rounding
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// CosineAll compares the query against every reference row, preserving row
// order in the output.
func CosineAll(query []float32, references [][]float32) []float64 {
	sims := make([]float64, len(references))
	for i, ref := range references {
		sims[i] = Cosine(query, ref)
	}
	return sims
}

// BestMatch returns the index and value of the highest similarity between
// the query and the reference rows. Index is -1 when references is empty.
func BestMatch(query []float32, references [][]float32) (int, float64) {
	bestIdx := -1
	best := math.Inf(-1)
	for i, ref := range references {
		if sim := Cosine(query, ref); sim > best {
			bestIdx = i
			best = sim
		}
	}
	if bestIdx == -1 {
		return -1, 0
	}
	return bestIdx, best
}

// Normalize returns a unit-length copy of the embedding. A zero vector is
// returned unchanged.
func Normalize(embedding []float32) []float32 {
	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return embedding
	}

	norm = math.Sqrt(norm)
	normalized := make([]float32, len(embedding))
	for i, v := range embedding {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}
