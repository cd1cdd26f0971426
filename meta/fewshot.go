package meta

import (
	"context"
	"math"
	"strconv"

	"github.com/zero-day-ai/adaptive/history"
)

// Task is the new task a few-shot adaptation targets.
type Task struct {
	Text      string
	Embedding []float64
}

// Example is one labeled demonstration provided for few-shot adaptation.
type Example struct {
	Text    string
	Quality float64
}

// Adaptation is the hyperparameter plan produced by FewShotAdapt.
type Adaptation struct {
	// Strategy is the recommended learning strategy.
	Strategy Strategy

	// LearningRate is the rate adjusted for the task's complexity.
	LearningRate float64

	// Window is the number of examples to learn from per step.
	Window int

	// Confidence is the recommendation confidence in [0, 1].
	Confidence float64
}

// FewShotAdapt derives an adaptation plan for a new task from a handful of
// examples. It extracts meta-features from the examples, consults similar
// past adaptation episodes, and records the new episode so future calls
// learn from it.
func (l *Learner) FewShotAdapt(ctx context.Context, task Task, examples []Example) (Adaptation, error) {
	meanQ, stdQ, meanLen := exampleFeatures(examples)
	complexity := 0.5*math.Min(1, meanLen/500) + 0.5*(1-meanQ/10)

	strategy, avgSim, avgQ := l.voteFromEpisodes(ctx, task.Embedding)
	if strategy == "" {
		strategy = l.SelectAlgorithm(ctx, task.Embedding)
	}

	rate := l.LearningRate()
	switch {
	case complexity > 0.7:
		rate /= 2
	case complexity < 0.3:
		rate *= 1.5
	}

	window := 3
	if n := len(examples); n >= 3 {
		window = n
		if window > 10 {
			window = 10
		}
	}

	confidence := 0.5*avgSim + 0.4*avgQ/10
	if len(examples) >= 5 {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}

	adaptation := Adaptation{
		Strategy:     strategy,
		LearningRate: rate,
		Window:       window,
		Confidence:   confidence,
	}

	rec := history.Record{
		TaskText:  task.Text,
		Embedding: task.Embedding,
		AgentID:   history.AgentMetaLearner,
		Success:   true,
		Quality:   meanQ,
		Meta: history.Metadata{
			Strategy: string(strategy),
			Extra: map[string]string{
				"complexity": strconv.FormatFloat(complexity, 'f', 3, 64),
			},
		},
	}
	if err := l.store.Record(ctx, rec); err != nil {
		l.logger.Warn("failed to record adaptation episode", "error", err)
	}

	l.logger.Debug("few-shot adaptation",
		"strategy", strategy,
		"learning_rate", rate,
		"window", window,
		"confidence", confidence,
		"quality_std", stdQ)
	return adaptation, nil
}

// voteFromEpisodes takes a similarity-weighted vote among the strategies of
// the 5 nearest successful adaptation episodes. An empty strategy means no
// usable episodes exist.
func (l *Learner) voteFromEpisodes(ctx context.Context, query []float64) (Strategy, float64, float64) {
	if len(query) == 0 {
		return "", 0, 0
	}
	success := true
	neighbors := l.store.FindSimilar(ctx, query, 5, history.Filter{
		AgentID: history.AgentMetaLearner,
		Success: &success,
	})
	if len(neighbors) == 0 {
		return "", 0, 0
	}

	votes := make(map[Strategy]float64)
	var sumSim, sumQ float64
	for _, n := range neighbors {
		votes[Strategy(n.Record.Meta.Strategy)] += n.Similarity
		sumSim += n.Similarity
		sumQ += n.Record.Quality
	}

	var best Strategy
	bestWeight := -1.0
	for _, s := range Candidates() {
		if w, ok := votes[s]; ok && w > bestWeight {
			bestWeight = w
			best = s
		}
	}
	if best == "" {
		return "", 0, 0
	}
	count := float64(len(neighbors))
	return best, sumSim / count, sumQ / count
}

// exampleFeatures computes mean quality, quality standard deviation, and
// mean text length over the examples.
func exampleFeatures(examples []Example) (meanQ, stdQ, meanLen float64) {
	if len(examples) == 0 {
		return 5, 0, 0
	}
	n := float64(len(examples))
	for _, ex := range examples {
		meanQ += ex.Quality
		meanLen += float64(len(ex.Text))
	}
	meanQ /= n
	meanLen /= n

	var variance float64
	for _, ex := range examples {
		d := ex.Quality - meanQ
		variance += d * d
	}
	return meanQ, math.Sqrt(variance / n), meanLen
}
