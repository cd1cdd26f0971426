package ensemble

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/zero-day-ai/adaptive/history"
)

// Options configures a Combiner.
type Options struct {
	// Strategy is the default strategy name when a Combine call leaves its
	// own empty. Defaults to "voting".
	Strategy string

	// HistoryK is the neighborhood size used when weighting agents by
	// their past performance. Defaults to 20.
	HistoryK int

	// Logger receives per-agent failure diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Rand drives bootstrap sampling in bagging. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// CombineOptions tunes one Combine call.
type CombineOptions struct {
	// Strategy overrides the combiner's default strategy for this call.
	Strategy string

	// SampleSize is the bagging bootstrap size. Non-positive means the
	// successful-result count.
	SampleSize int
}

// Combiner runs a set of agents against a task and merges their outputs
// by a registered strategy, feeding the result back into the history store.
type Combiner struct {
	store  *history.Store
	opts   Options
	logger *slog.Logger
	rand   *rand.Rand
}

// New creates a Combiner over the shared history store. The default strategy
// name is validated immediately; an unknown name is a configuration error.
func New(store *history.Store, opts Options) (*Combiner, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyVoting
	}
	if _, err := lookupStrategy(opts.Strategy); err != nil {
		return nil, err
	}
	if opts.HistoryK <= 0 {
		opts.HistoryK = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Combiner{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		rand:   opts.Rand,
	}, nil
}

// Combine runs every agent independently and merges the successful outputs
// with the selected strategy. A per-agent failure is captured as a failed
// sub-result and excluded from the vote; only total failure yields a
// Combined with Success false. The outcome is recorded back to the store
// under "ensemble:<strategy>".
func (c *Combiner) Combine(ctx context.Context, task Task, agents map[string]Agent, opts CombineOptions) (Combined, error) {
	name := opts.Strategy
	if name == "" {
		name = c.opts.Strategy
	}
	strategy, err := lookupStrategy(name)
	if err != nil {
		return Combined{}, err
	}

	results := c.runAgents(ctx, task, agents)

	var successful []AgentResult
	for _, r := range results {
		if r.Success {
			successful = append(successful, r)
		}
	}

	combined := Combined{Strategy: name, Results: results}
	if len(successful) == 0 {
		c.recordOutcome(ctx, task, name, combined)
		return combined, nil
	}

	decision := strategy.Decide(Input{
		Results:    successful,
		Weights:    c.historicalWeights(ctx, task, successful),
		SampleSize: opts.SampleSize,
		Rand:       c.rand,
	})

	combined.Success = true
	combined.Output = decision.Output
	combined.AgentID = decision.AgentID
	combined.Quality = decision.Quality
	combined.Confidence = decision.Confidence
	combined.Details = decision.Details

	c.recordOutcome(ctx, task, name, combined)
	return combined, nil
}

// runAgents executes every agent, in deterministic id order, capturing
// failures as failed sub-results.
func (c *Combiner) runAgents(ctx context.Context, task Task, agents map[string]Agent) []AgentResult {
	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]AgentResult, 0, len(ids))
	for _, id := range ids {
		start := time.Now()
		outcome, err := agents[id].Execute(ctx, task)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			c.logger.Warn("ensemble agent failed",
				"agent", id,
				"error", err)
			results = append(results, AgentResult{
				AgentID:  id,
				Duration: elapsed,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, AgentResult{
			AgentID:    id,
			Output:     outcome.Output,
			Quality:    outcome.Quality,
			Iterations: outcome.Iterations,
			Duration:   elapsed,
			Success:    true,
		})
	}
	return results
}

// historicalWeights computes each successful agent's weight from its past
// performance on similar tasks: 0.5*successRate + 0.5*avgQuality/10, with
// 1.0 for agents the store has never seen near this task.
func (c *Combiner) historicalWeights(ctx context.Context, task Task, successful []AgentResult) map[string]float64 {
	weights := make(map[string]float64, len(successful))
	for _, r := range successful {
		perf := c.store.AgentPerformanceOnSimilar(ctx, task.Embedding, r.AgentID, c.opts.HistoryK)
		if perf.Attempts == 0 {
			weights[r.AgentID] = 1.0
			continue
		}
		weights[r.AgentID] = 0.5*perf.SuccessRate + 0.5*perf.AvgQuality/10
	}
	return weights
}

// recordOutcome writes the combination back to the store so future ensemble
// weighting benefits from this run. Recording is best-effort.
func (c *Combiner) recordOutcome(ctx context.Context, task Task, strategy string, combined Combined) {
	var totalDuration float64
	for _, r := range combined.Results {
		totalDuration += r.Duration
	}
	err := c.store.Record(ctx, history.Record{
		TaskText:  task.Text,
		Embedding: task.Embedding,
		AgentID:   history.EnsemblePrefix + strategy,
		Success:   combined.Success,
		Quality:   combined.Quality,
		Duration:  totalDuration,
		Meta:      history.Metadata{Strategy: strategy},
	})
	if err != nil {
		c.logger.Warn("failed to record ensemble outcome",
			"strategy", strategy,
			"error", err)
	}
}
