package active

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zero-day-ai/adaptive/history"
)

// ErrUnknownStrategy is returned when a selector is configured with a
// sampling strategy that is not in the registry.
var ErrUnknownStrategy = errors.New("active: unknown sampling strategy")

// Sampling strategy names accepted by New.
const (
	StrategyUncertainty    = "uncertainty"
	StrategyDiversity      = "diversity"
	StrategyErrorReduction = "error_reduction"
	StrategyCommittee      = "committee"
)

// neighborhood is the neighbor count every sampling strategy scores over.
const neighborhood = 5

// Task is the unit of work under consideration for a human query.
type Task struct {
	Text      string
	Embedding []float64
}

// Outcome is the execution result being judged for uncertainty.
type Outcome struct {
	// Confidence is the executing agent's self-reported confidence in
	// [0, 1].
	Confidence float64

	// Success and Quality describe the outcome.
	Success bool
	Quality float64

	// Votes carries ensemble vote values when the outcome came from a
	// committee; the committee strategy uses their variance.
	Votes []float64
}

// sampler scores how uncertain an outcome is, in [0, 1].
type sampler interface {
	Name() string
	Score(ctx context.Context, store *history.Store, task Task, out Outcome) float64
}

var samplerTable = map[string]sampler{
	StrategyUncertainty:    uncertaintySampler{},
	StrategyDiversity:      diversitySampler{},
	StrategyErrorReduction: errorReductionSampler{},
	StrategyCommittee:      committeeSampler{},
}

// SamplingStrategies returns the registered strategy names, sorted.
func SamplingStrategies() []string {
	names := make([]string, 0, len(samplerTable))
	for name := range samplerTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupSampler(name string) (sampler, error) {
	s, ok := samplerTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownStrategy, name, strings.Join(SamplingStrategies(), ", "))
	}
	return s, nil
}

// uncertaintySampler blends the model's own doubt with the disagreement of
// quality among the nearest neighbors. With no history the score is biased
// upward: unknown territory is uncertain territory.
type uncertaintySampler struct{}

func (uncertaintySampler) Name() string { return StrategyUncertainty }

func (uncertaintySampler) Score(ctx context.Context, store *history.Store, task Task, out Outcome) float64 {
	doubt := 1 - out.Confidence
	neighbors := store.FindSimilar(ctx, task.Embedding, neighborhood, history.Filter{})
	if len(neighbors) == 0 {
		return capUnit(0.5*doubt + 0.5*0.8)
	}

	var mean float64
	for _, n := range neighbors {
		mean += n.Record.Quality
	}
	mean /= float64(len(neighbors))
	var variance float64
	for _, n := range neighbors {
		d := n.Record.Quality - mean
		variance += d * d
	}
	variance /= float64(len(neighbors))

	// Std of a [0,10] score caps at 5; normalize against that.
	disagreement := capUnit(math.Sqrt(variance) / 5)
	return capUnit(0.5*doubt + 0.5*disagreement)
}

// diversitySampler scores novelty: tasks unlike anything seen before are
// worth a human look.
type diversitySampler struct{}

func (diversitySampler) Name() string { return StrategyDiversity }

func (diversitySampler) Score(ctx context.Context, store *history.Store, task Task, out Outcome) float64 {
	neighbors := store.FindSimilar(ctx, task.Embedding, 1, history.Filter{})
	if len(neighbors) == 0 {
		return 0.9
	}
	return capUnit(1 - neighbors[0].Similarity)
}

// errorReductionSampler averages neighbor dissimilarity, weighted toward
// neighbors that were failures or low-quality: being near past mistakes
// raises the value of a correction.
type errorReductionSampler struct{}

func (errorReductionSampler) Name() string { return StrategyErrorReduction }

func (errorReductionSampler) Score(ctx context.Context, store *history.Store, task Task, out Outcome) float64 {
	neighbors := store.FindSimilar(ctx, task.Embedding, neighborhood, history.Filter{})
	if len(neighbors) == 0 {
		return 0.8
	}

	var weighted, total float64
	for _, n := range neighbors {
		w := 1.0
		if !n.Record.Success || n.Record.Quality < 5 {
			w = 2.0
		}
		weighted += w * (1 - n.Similarity)
		total += w
	}
	return capUnit(weighted / total)
}

// committeeSampler uses the variance of ensemble votes when present,
// falling back to the model's own doubt otherwise.
type committeeSampler struct{}

func (committeeSampler) Name() string { return StrategyCommittee }

func (committeeSampler) Score(ctx context.Context, store *history.Store, task Task, out Outcome) float64 {
	if len(out.Votes) == 0 {
		return capUnit(1 - out.Confidence)
	}
	var mean float64
	for _, v := range out.Votes {
		mean += v
	}
	mean /= float64(len(out.Votes))
	var variance float64
	for _, v := range out.Votes {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(out.Votes))
	return capUnit(variance)
}

func capUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < 0 {
		return 0
	}
	return x
}
