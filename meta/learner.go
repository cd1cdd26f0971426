package meta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zero-day-ai/adaptive/history"
)

// ErrUnknownStrategy is returned when an update names a strategy outside
// the fixed candidate set.
var ErrUnknownStrategy = errors.New("meta: unknown learning strategy")

// Strategy is one candidate learning approach.
type Strategy string

// The fixed candidate set. Strategies are never added at runtime; their
// metrics are updated in place.
const (
	GradientBased     Strategy = "gradient_based"
	ModelBased        Strategy = "model_based"
	MetricBased       Strategy = "metric_based"
	OptimizationBased Strategy = "optimization_based"
)

// Candidates returns the fixed candidate strategies in a stable order.
func Candidates() []Strategy {
	return []Strategy{GradientBased, ModelBased, MetricBased, OptimizationBased}
}

// StrategyMetrics tracks one strategy's moving performance. The EMAs are
// updated, never recreated.
type StrategyMetrics struct {
	// SuccessRate is the EMA of episode success.
	SuccessRate float64

	// SampleEfficiency is the EMA of 1/samplesUsed per episode.
	SampleEfficiency float64

	// AvgQuality is the EMA of episode quality.
	AvgQuality float64

	// UsedCount counts episodes attributed to the strategy.
	UsedCount int
}

// Options configures a Learner.
type Options struct {
	// Alpha is the EMA smoothing factor. Defaults to 0.1.
	Alpha float64

	// LearningRate is the initial tunable learning rate. Defaults to 0.01.
	LearningRate float64

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Learner selects learning strategies and tunes hyperparameters from the
// shared history store.
type Learner struct {
	store  *history.Store
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	metrics      map[Strategy]*StrategyMetrics
	learningRate float64
}

// New creates a Learner with neutral starting metrics: every candidate
// begins at a 0.5 success rate so none dominates before evidence arrives.
func New(store *history.Store, opts Options) *Learner {
	if opts.Alpha <= 0 {
		opts.Alpha = 0.1
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.01
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	metrics := make(map[Strategy]*StrategyMetrics, len(Candidates()))
	for _, s := range Candidates() {
		metrics[s] = &StrategyMetrics{SuccessRate: 0.5, SampleEfficiency: 0.5, AvgQuality: 5}
	}
	return &Learner{
		store:        store,
		opts:         opts,
		logger:       opts.Logger,
		metrics:      metrics,
		learningRate: opts.LearningRate,
	}
}

// UpdateMetaModel folds one completed episode into the strategy's EMAs.
// samplesUsed drives sample efficiency as 1/samplesUsed.
func (l *Learner) UpdateMetaModel(strategy Strategy, success bool, samplesUsed int, quality float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.metrics[strategy]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	a := l.opts.Alpha
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	efficiency := 0.0
	if samplesUsed > 0 {
		efficiency = 1 / float64(samplesUsed)
	}

	m.SuccessRate = (1-a)*m.SuccessRate + a*outcome
	m.SampleEfficiency = (1-a)*m.SampleEfficiency + a*efficiency
	m.AvgQuality = (1-a)*m.AvgQuality + a*quality
	m.UsedCount++
	return nil
}

// Metrics returns a copy of every strategy's current metrics.
func (l *Learner) Metrics() map[Strategy]StrategyMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[Strategy]StrategyMetrics, len(l.metrics))
	for s, m := range l.metrics {
		out[s] = *m
	}
	return out
}

// SelectAlgorithm scores every candidate as 0.6*successRate +
// 0.4*sampleEfficiency + 0.1*relevantUses and returns the maximum, where
// relevantUses is the strategy's share of the task's nearest recorded
// episodes.
func (l *Learner) SelectAlgorithm(ctx context.Context, query []float64) Strategy {
	relevant := l.relevantUses(ctx, query)

	l.mu.Lock()
	defer l.mu.Unlock()

	best := Candidates()[0]
	bestScore := -1.0
	for _, s := range Candidates() {
		m := l.metrics[s]
		score := 0.6*m.SuccessRate + 0.4*m.SampleEfficiency + 0.1*relevant[s]
		if score > bestScore {
			bestScore = score
			best = s
		}
	}
	return best
}

// relevantUses returns, per strategy, its share of the 10 nearest
// meta-learning episodes to the query.
func (l *Learner) relevantUses(ctx context.Context, query []float64) map[Strategy]float64 {
	uses := make(map[Strategy]float64)
	if len(query) == 0 {
		return uses
	}
	neighbors := l.store.FindSimilar(ctx, query, 10, history.Filter{AgentID: history.AgentMetaLearner})
	if len(neighbors) == 0 {
		return uses
	}
	for _, n := range neighbors {
		uses[Strategy(n.Record.Meta.Strategy)] += 1 / float64(len(neighbors))
	}
	return uses
}

// LearningRate returns the current tunable learning rate.
func (l *Learner) LearningRate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.learningRate
}

// OptimizeLearningRate fits a least-squares slope over recent quality
// scores and adjusts the learning rate: a clear upward trend accelerates it
// (x1.2, capped at 0.1), a clear downward trend backs it off (x0.8, floored
// at 0.001), and a flat trend nudges it up gently (x1.05). Returns the new
// rate.
func (l *Learner) OptimizeLearningRate(recentQuality []float64) float64 {
	slope := trendSlope(recentQuality)

	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case slope > 0.1:
		l.learningRate *= 1.2
		if l.learningRate > 0.1 {
			l.learningRate = 0.1
		}
	case slope < -0.1:
		l.learningRate *= 0.8
		if l.learningRate < 0.001 {
			l.learningRate = 0.001
		}
	default:
		l.learningRate *= 1.05
		if l.learningRate > 0.1 {
			l.learningRate = 0.1
		}
	}
	return l.learningRate
}

// trendSlope computes the least-squares slope of values over their indices.
// Fewer than two points have no trend.
func trendSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
