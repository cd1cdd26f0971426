package meta

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/adaptive/history"
)

func newTestLearner(t *testing.T, opts Options) (*Learner, *history.Store) {
	t.Helper()
	s, err := history.New(history.NewMemStore(), history.Options{})
	require.NoError(t, err)
	return New(s, opts), s
}

func TestUpdateMetaModel(t *testing.T) {
	l, _ := newTestLearner(t, Options{})

	require.NoError(t, l.UpdateMetaModel(GradientBased, true, 10, 8))

	m := l.Metrics()[GradientBased]
	assert.InDelta(t, 0.55, m.SuccessRate, 1e-9)
	assert.InDelta(t, 0.46, m.SampleEfficiency, 1e-9)
	assert.InDelta(t, 5.3, m.AvgQuality, 1e-9)
	assert.Equal(t, 1, m.UsedCount)

	// Untouched strategies keep their neutral priors.
	other := l.Metrics()[ModelBased]
	assert.Equal(t, 0.5, other.SuccessRate)
	assert.Equal(t, 0, other.UsedCount)
}

func TestUpdateMetaModelUnknownStrategy(t *testing.T) {
	l, _ := newTestLearner(t, Options{})

	err := l.UpdateMetaModel(Strategy("quantum"), true, 1, 9)
	require.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestSelectAlgorithmPrefersProvenStrategy(t *testing.T) {
	l, _ := newTestLearner(t, Options{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.UpdateMetaModel(ModelBased, true, 2, 9))
		require.NoError(t, l.UpdateMetaModel(GradientBased, false, 20, 3))
	}

	assert.Equal(t, ModelBased, l.SelectAlgorithm(ctx, nil))
}

func TestSelectAlgorithmUsesSimilarEpisodes(t *testing.T) {
	l, store := newTestLearner(t, Options{})
	ctx := context.Background()

	// All candidate metrics are equal, so the episode share is the
	// deciding term.
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Record(ctx, history.Record{
			TaskText:  "classify logs",
			Embedding: []float64{1, 0},
			AgentID:   history.AgentMetaLearner,
			Success:   true,
			Quality:   8,
			Meta:      history.Metadata{Strategy: string(MetricBased)},
		}))
	}

	assert.Equal(t, MetricBased, l.SelectAlgorithm(ctx, []float64{1, 0}))
}

func TestOptimizeLearningRate(t *testing.T) {
	tests := []struct {
		name    string
		initial float64
		quality []float64
		want    float64
	}{
		{"improving accelerates", 0.01, []float64{4, 5, 6, 7, 8}, 0.012},
		{"degrading backs off", 0.01, []float64{8, 7, 6, 5, 4}, 0.008},
		{"flat nudges up", 0.01, []float64{6, 6, 6, 6}, 0.0105},
		{"capped at ceiling", 0.09, []float64{4, 5, 6, 7, 8}, 0.1},
		{"floored", 0.0012, []float64{8, 7, 6, 5, 4}, 0.001},
		{"too few points is flat", 0.01, []float64{9}, 0.0105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLearner(t, Options{LearningRate: tt.initial})
			got := l.OptimizeLearningRate(tt.quality)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, tt.want, l.LearningRate(), 1e-9)
		})
	}
}

func TestFewShotAdaptColdStart(t *testing.T) {
	l, store := newTestLearner(t, Options{})
	ctx := context.Background()

	examples := []Example{
		{Text: strings.Repeat("x", 50), Quality: 8},
		{Text: strings.Repeat("x", 50), Quality: 8},
		{Text: strings.Repeat("x", 50), Quality: 8},
		{Text: strings.Repeat("x", 50), Quality: 8},
		{Text: strings.Repeat("x", 50), Quality: 8},
	}
	task := Task{Text: "summarize incident", Embedding: []float64{1, 0}}

	got, err := l.FewShotAdapt(ctx, task, examples)
	require.NoError(t, err)

	// Simple, high-quality examples mean low complexity, which boosts
	// the learning rate.
	assert.InDelta(t, 0.015, got.LearningRate, 1e-9)
	assert.Equal(t, 5, got.Window)
	assert.InDelta(t, 0.1, got.Confidence, 1e-9)
	assert.NotEmpty(t, got.Strategy)

	// The episode is recorded for future adaptations.
	episodes := store.ByAgent(history.AgentMetaLearner)
	require.Len(t, episodes, 1)
	assert.Equal(t, string(got.Strategy), episodes[0].Meta.Strategy)
}

func TestFewShotAdaptFollowsPastEpisodes(t *testing.T) {
	l, store := newTestLearner(t, Options{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, history.Record{
			TaskText:  "triage alerts",
			Embedding: []float64{1, 0},
			AgentID:   history.AgentMetaLearner,
			Success:   true,
			Quality:   9,
			Meta:      history.Metadata{Strategy: string(OptimizationBased)},
		}))
	}

	task := Task{Text: "triage new alerts", Embedding: []float64{1, 0}}
	got, err := l.FewShotAdapt(ctx, task, []Example{{Text: "short", Quality: 9}})
	require.NoError(t, err)

	assert.Equal(t, OptimizationBased, got.Strategy)
	assert.Greater(t, got.Confidence, 0.8)
	assert.Equal(t, 3, got.Window)
}

func TestFewShotAdaptComplexTaskHalvesRate(t *testing.T) {
	l, _ := newTestLearner(t, Options{})

	long := strings.Repeat("y", 600)
	examples := []Example{
		{Text: long, Quality: 2},
		{Text: long, Quality: 3},
	}
	got, err := l.FewShotAdapt(context.Background(), Task{Text: "hard", Embedding: []float64{0, 1}}, examples)
	require.NoError(t, err)

	assert.InDelta(t, 0.005, got.LearningRate, 1e-9)
}
