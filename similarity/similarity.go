package similarity

import (
	"math"
	"time"
)

// Metric identifies a distance/similarity metric.
type Metric int

const (
	// Cosine measures the angle between two vectors. Similarity is in
	// [-1, 1]; distance is defined as 1 - similarity.
	Cosine Metric = iota

	// Euclidean is the straight-line distance. Similarity is derived as
	// 1 / (1 + distance).
	Euclidean

	// Manhattan is the sum of absolute coordinate differences. Similarity
	// is derived as 1 / (1 + distance).
	Manhattan
)

// String returns the metric's name.
func (m Metric) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Euclidean:
		return "euclidean"
	case Manhattan:
		return "manhattan"
	default:
		return "unknown"
	}
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Returns 0 when the vectors differ in length or either has zero norm.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// EuclideanDistance returns the L2 distance between a and b.
// Returns math.MaxFloat64 when the vectors differ in length.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// ManhattanDistance returns the L1 distance between a and b.
// Returns math.MaxFloat64 when the vectors differ in length.
func ManhattanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// TemporalWeight returns the decay weight for a record created at the given
// unix timestamp (seconds), relative to now. The weight follows exponential
// half-life decay: exp(-ln2 * ageDays / halfLifeDays). It is 1.0 for a
// brand-new record, exactly 0.5 at one half-life of age, and strictly
// decreasing with age. A non-positive half-life yields weight 1.0.
func TemporalWeight(timestamp int64, halfLifeDays float64) float64 {
	return TemporalWeightAt(timestamp, time.Now(), halfLifeDays)
}

// TemporalWeightAt is TemporalWeight evaluated at an explicit reference time.
func TemporalWeightAt(timestamp int64, now time.Time, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return 1.0
	}
	ageDays := now.Sub(time.Unix(timestamp, 0)).Hours() / 24
	if ageDays <= 0 {
		return 1.0
	}
	return math.Exp(-math.Ln2 * ageDays / halfLifeDays)
}
