package adaptive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/adaptive/ensemble"
	"github.com/zero-day-ai/adaptive/history"
	"github.com/zero-day-ai/adaptive/promptopt"
)

func TestNewDefaults(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	assert.NotNil(t, engine.History())
	assert.NotNil(t, engine.Predictor())
	assert.NotNil(t, engine.Combiner())
	assert.NotNil(t, engine.Transfer())
	assert.NotNil(t, engine.Selector())
	assert.NotNil(t, engine.Learner())
	assert.NotNil(t, engine.Optimizer())
	assert.Equal(t, DefaultConfig(), engine.Config())
}

func TestNewUnknownEnsembleStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ensemble.Strategy = "coin_flip"

	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindConfiguration})
	assert.ErrorIs(t, err, ensemble.ErrUnknownStrategy)
}

func TestNewUnknownSamplingStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Active.Strategy = "vibes"

	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Kind: KindConfiguration})
}

func TestEngineFileSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	cfg := DefaultConfig()
	cfg.History.SnapshotPath = path
	ctx := context.Background()

	engine, err := New(WithConfig(cfg))
	require.NoError(t, err)

	require.NoError(t, engine.History().Record(ctx, history.Record{
		TaskText:  "scan endpoints",
		Embedding: []float64{1, 0, 0},
		AgentID:   "scanner",
		Success:   true,
		Quality:   8,
	}))
	require.NoError(t, engine.Close(ctx))

	reopened, err := New(WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.History().Len())
}

func TestEngineSharedStore(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	// An outcome recorded through the predictor is visible to ranking.
	require.NoError(t, engine.Predictor().RecordPerformance(ctx, history.Record{
		TaskText:  "triage",
		Embedding: []float64{0, 1},
		AgentID:   "triager",
		Success:   true,
		Quality:   9,
	}))

	ranks := engine.History().BestAgentsForSimilar(ctx, []float64{0, 1}, 10, 1)
	require.Len(t, ranks, 1)
	assert.Equal(t, "triager", ranks[0].AgentID)
}

func TestEngineWithTextGenerator(t *testing.T) {
	gen := promptopt.GeneratorFunc(func(context.Context, string) (string, error) {
		return "OPTIMIZED PROMPT:\nrefined\nIMPROVEMENTS:\n- tightened wording", nil
	})
	engine, err := New(WithTextGenerator(gen))
	require.NoError(t, err)

	res := engine.Optimizer().Optimize(context.Background(), "rough", []float64{1, 0})
	assert.Equal(t, "refined", res.Prompt)
}

func TestEngineWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  max_size: 5\n"), 0o644))

	engine, err := New(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 5, engine.Config().History.MaxSize)
}
