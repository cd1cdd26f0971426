package similarity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidates() []Candidate {
	return []Candidate{
		{ID: "exact", Vector: []float64{1, 0, 0}},
		{ID: "close", Vector: []float64{0.9, 0.1, 0}},
		{ID: "mid", Vector: []float64{0.5, 0.5, 0}},
		{ID: "far", Vector: []float64{0, 1, 0}},
	}
}

func TestFindNearestOrderAndBound(t *testing.T) {
	query := []float64{1, 0, 0}

	matches := FindNearest(query, testCandidates(), 3, Cosine, SearchOptions{})
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].ID)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity,
			"results must be sorted descending by similarity")
	}
}

func TestFindNearestNeverExceedsK(t *testing.T) {
	query := []float64{1, 0}
	var candidates []Candidate
	for i := 0; i < 50; i++ {
		candidates = append(candidates, Candidate{
			ID:     fmt.Sprintf("c%d", i),
			Vector: []float64{float64(i), 1},
		})
	}

	for _, k := range []int{1, 5, 49, 50, 100} {
		matches := FindNearest(query, candidates, k, Cosine, SearchOptions{})
		assert.LessOrEqual(t, len(matches), k)
	}
}

func TestFindNearestEmptyAndInvalid(t *testing.T) {
	query := []float64{1, 0}

	assert.Empty(t, FindNearest(query, nil, 5, Cosine, SearchOptions{}))
	assert.Empty(t, FindNearest(query, testCandidates(), 0, Cosine, SearchOptions{}))
	assert.Empty(t, FindNearest(query, testCandidates(), -1, Cosine, SearchOptions{}))
}

func TestFindNearestMinSimilarityFilter(t *testing.T) {
	query := []float64{1, 0, 0}

	matches := FindNearest(query, testCandidates(), 10, Cosine, SearchOptions{MinSimilarity: 0.9})
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.9)
	}
	assert.NotEmpty(t, matches)
	for _, m := range matches {
		assert.NotEqual(t, "far", m.ID)
	}
}

func TestFindNearestMaxDistanceFilter(t *testing.T) {
	query := []float64{0, 0}
	candidates := []Candidate{
		{ID: "near", Vector: []float64{1, 0}},
		{ID: "far", Vector: []float64{10, 0}},
	}

	matches := FindNearest(query, candidates, 10, Euclidean, SearchOptions{MaxDistance: 2})
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].ID)
}

func TestFindNearestWeights(t *testing.T) {
	query := []float64{1, 0}
	candidates := []Candidate{
		{ID: "a", Vector: []float64{1, 0}},
		{ID: "b", Vector: []float64{1, 0}},
	}

	// Down-weighting "a" should let the otherwise identical "b" win.
	matches := FindNearest(query, candidates, 2, Cosine, SearchOptions{
		Weights: map[string]float64{"a": 0.5},
	})
	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].ID)
	assert.InDelta(t, 0.5, matches[1].Similarity, 1e-9)
}

func TestFindNearestDimensionMismatchCandidates(t *testing.T) {
	query := []float64{1, 0}
	candidates := []Candidate{
		{ID: "good", Vector: []float64{1, 0}},
		{ID: "bad", Vector: []float64{1, 0, 0}},
	}

	// Mismatched candidates score zero similarity but do not error.
	matches := FindNearest(query, candidates, 2, Cosine, SearchOptions{})
	require.Len(t, matches, 2)
	assert.Equal(t, "good", matches[0].ID)
	assert.Equal(t, 0.0, matches[1].Similarity)
}

func TestMetricString(t *testing.T) {
	assert.Equal(t, "cosine", Cosine.String())
	assert.Equal(t, "euclidean", Euclidean.String())
	assert.Equal(t, "manhattan", Manhattan.String())
	assert.Equal(t, "unknown", Metric(99).String())
}
