package similarity

import "sort"

// Candidate is a vector under consideration in a nearest-neighbor search.
type Candidate struct {
	// ID identifies the candidate; per-candidate weights in SearchOptions
	// are keyed by it.
	ID string

	// Vector is the candidate's embedding.
	Vector []float64
}

// Match is one nearest-neighbor result.
type Match struct {
	ID         string
	Similarity float64
	Distance   float64
}

// SearchOptions tunes a FindNearest call. The zero value applies no filters
// and no weighting.
type SearchOptions struct {
	// MinSimilarity drops candidates with (weighted) similarity below this
	// value. Only applied when > 0.
	MinSimilarity float64

	// MaxDistance drops candidates with (weighted) distance above this
	// value. Only applied when > 0.
	MaxDistance float64

	// Weights multiplies each candidate's similarity and inversely scales
	// its distance, keyed by candidate ID. Missing IDs default to 1.0.
	// Typically holds temporal decay weights.
	Weights map[string]float64
}

// FindNearest returns the k candidates most similar to query under the given
// metric, sorted by descending similarity. Candidates failing the similarity
// or distance filters are dropped. An empty candidate set or non-positive k
// yields an empty result; at most k matches are ever returned.
func FindNearest(query []float64, candidates []Candidate, k int, metric Metric, opts SearchOptions) []Match {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		sim, dist := score(query, c.Vector, metric)

		if w, ok := opts.Weights[c.ID]; ok && w > 0 {
			sim *= w
			dist /= w
		}
		if opts.MinSimilarity > 0 && sim < opts.MinSimilarity {
			continue
		}
		if opts.MaxDistance > 0 && dist > opts.MaxDistance {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Similarity: sim, Distance: dist})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// score computes the (similarity, distance) pair for one candidate.
func score(query, vector []float64, metric Metric) (float64, float64) {
	switch metric {
	case Euclidean:
		d := EuclideanDistance(query, vector)
		return 1 / (1 + d), d
	case Manhattan:
		d := ManhattanDistance(query, vector)
		return 1 / (1 + d), d
	default:
		s := CosineSimilarity(query, vector)
		return s, 1 - s
	}
}
