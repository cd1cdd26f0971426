package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/adaptive/history"
)

func newEngine(t *testing.T, opts Options) (*Engine, *history.Store) {
	t.Helper()
	store, err := history.New(history.NewMemStore(), history.Options{})
	require.NoError(t, err)
	return New(store, opts), store
}

func seed(t *testing.T, store *history.Store, agentID string, vec []float64, success bool, quality float64) {
	t.Helper()
	require.NoError(t, store.Record(context.Background(), history.Record{
		AgentID:   agentID,
		TaskText:  "deploy the python service",
		Embedding: vec,
		Success:   success,
		Quality:   quality,
		Timestamp: time.Now().Unix(),
		Meta:      history.Metadata{Extra: map[string]string{"domain": "python backend"}},
	}))
}

func TestBootstrapTransfersQualifyingSamples(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()

	seed(t, store, "mentor", []float64{1, 0, 0}, true, 9)
	seed(t, store, "mentor", []float64{0, 1, 0}, true, 8)
	seed(t, store, "mentor", []float64{0, 0, 1}, true, 5)  // below the floor
	seed(t, store, "mentor", []float64{0.5, 0.5, 0}, false, 9) // failed

	report, err := e.Bootstrap(ctx, "mentor", "apprentice", BootstrapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 2, report.Transferred)
	assert.Equal(t, 0, report.Skipped)

	target := store.ByAgent("apprentice")
	require.Len(t, target, 2)
	for _, r := range target {
		assert.Equal(t, "mentor", r.Meta.TransferredFrom)
	}
	// Best first: 9*0.9 then 8*0.9.
	qualities := []float64{target[0].Quality, target[1].Quality}
	assert.ElementsMatch(t, []float64{8.1, 7.2}, qualities)
}

func TestBootstrapIdempotent(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()

	seed(t, store, "mentor", []float64{1, 0, 0}, true, 9)
	seed(t, store, "mentor", []float64{0, 1, 0}, true, 8)

	first, err := e.Bootstrap(ctx, "mentor", "apprentice", BootstrapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Transferred)

	second, err := e.Bootstrap(ctx, "mentor", "apprentice", BootstrapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Transferred, "second run with unchanged inputs transfers nothing")
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, store.ByAgent("apprentice"), 2)
}

func TestBootstrapMaxSamples(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()

	vecs := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}}
	for i, v := range vecs {
		seed(t, store, "mentor", v, true, 7+float64(i)*0.5)
	}

	report, err := e.Bootstrap(ctx, "mentor", "apprentice", BootstrapOptions{MaxSamples: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Transferred)

	// The cap keeps the best samples.
	for _, r := range store.ByAgent("apprentice") {
		assert.GreaterOrEqual(t, r.Quality, 8.0*bootstrapDiscount)
	}
}

func TestBootstrapDomainMappings(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()

	seed(t, store, "mentor", []float64{1, 0, 0}, true, 9)

	_, err := e.Bootstrap(ctx, "mentor", "apprentice", BootstrapOptions{
		DomainMappings: map[string]string{"python": "go"},
	})
	require.NoError(t, err)

	target := store.ByAgent("apprentice")
	require.Len(t, target, 1)
	assert.Equal(t, "deploy the go service", target[0].TaskText)
	assert.Equal(t, "go backend", target[0].Meta.Extra["domain"])
}

func TestFineTune(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()

	seed(t, store, "mentor", []float64{1, 0, 0}, true, 9)
	seed(t, store, "mentor", []float64{0.9, 0.1, 0}, true, 7)
	seed(t, store, "other", []float64{1, 0, 0}, true, 10)

	result := e.FineTune(ctx, "mentor", []float64{1, 0, 0}, 5, map[string]string{"python": "go"})
	require.Len(t, result.Recommendations, 2)
	assert.Equal(t, "deploy the go service", result.Recommendations[0].TaskText)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.GreaterOrEqual(t, result.Recommendations[0].Similarity, result.Recommendations[1].Similarity)
}

func TestFineTuneNoHistory(t *testing.T) {
	e, _ := newEngine(t, Options{})
	result := e.FineTune(context.Background(), "nobody", []float64{1, 0, 0}, 5, nil)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestDistillGreedyDiversity(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()

	// Two near-duplicates plus one genuinely different sample.
	seed(t, store, "s1", []float64{1, 0, 0}, true, 9.5)
	seed(t, store, "s1", []float64{0.99, 0.01, 0}, true, 9)
	seed(t, store, "s2", []float64{0, 1, 0}, true, 8)

	report, err := e.Distill(ctx, []string{"s1", "s2"}, "student", BootstrapOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 2, report.Transferred, "near-duplicate is dropped by the diversity cutoff")

	target := store.ByAgent("student")
	require.Len(t, target, 2)
	for _, r := range target {
		assert.Equal(t, "s1,s2", r.Meta.TransferredFrom)
		assert.Equal(t, "distill", r.Meta.Strategy)
	}
	// 9.5 and 8 selected, each discounted by 0.95.
	assert.ElementsMatch(t,
		[]float64{9.5 * distillDiscount, 8 * distillDiscount},
		[]float64{target[0].Quality, target[1].Quality})
}

func TestDistillKeepsBestSample(t *testing.T) {
	pool := []history.Record{
		{Quality: 9.5, Embedding: []float64{1, 0}},
		{Quality: 9.4, Embedding: []float64{1, 0.01}},
	}
	selected := selectRepresentative(pool, 10, 0.8)
	require.Len(t, selected, 1, "only the best of two near-identical samples survives")
	assert.Equal(t, 9.5, selected[0].Quality)
}

func TestMeasureEffectiveness(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()
	base := time.Now().Unix()

	// Quality climbs from 5 to 9 over 12 records; 3 are transferred.
	for i := 0; i < 12; i++ {
		quality := 5 + float64(i)*0.4
		rec := history.Record{
			AgentID:   "student",
			Embedding: []float64{1, float64(i)},
			Success:   true,
			Quality:   quality,
			Timestamp: base + int64(i),
		}
		if i < 3 {
			rec.Meta.TransferredFrom = "mentor"
		}
		require.NoError(t, store.Record(ctx, rec))
	}

	eff := e.MeasureEffectiveness("student")
	assert.Equal(t, 12, eff.Records)
	assert.InDelta(t, 5.8, eff.ColdStartQuality, 1e-9, "avg of first 5: 5, 5.4, 5.8, 6.2, 6.6")
	assert.Greater(t, eff.QualityImprovement, 0.0)
	assert.InDelta(t, 0.25, eff.TransferredRatio, 1e-9)
	// Quality first reaches 8.0 at the 9th record (index 8): 5 + 8*0.4 = 8.2.
	assert.InDelta(t, 1.0/9.0, eff.LearningSpeed, 1e-9)
}

func TestMeasureEffectivenessEmpty(t *testing.T) {
	e, _ := newEngine(t, Options{})
	eff := e.MeasureEffectiveness("nobody")
	assert.Equal(t, Effectiveness{}, eff)
}

func TestMeasureEffectivenessNeverReachesTarget(t *testing.T) {
	e, store := newEngine(t, Options{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, history.Record{
			AgentID:   "student",
			Embedding: []float64{1, 0},
			Quality:   5,
			Success:   true,
			Timestamp: time.Now().Unix(),
		}))
	}
	assert.Equal(t, 0.0, e.MeasureEffectiveness("student").LearningSpeed)
}
