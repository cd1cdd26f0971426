package ensemble

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode"
)

// Strategy names accepted by Combine.
const (
	StrategyVoting         = "voting"
	StrategyWeightedVoting = "weighted_voting"
	StrategyBagging        = "bagging"
	StrategyStacking       = "stacking"
	StrategyBestOfN        = "best_of_n"
)

// Input is what a strategy decides over: the successful sub-results, the
// historical weight per agent, and the knobs individual strategies need.
type Input struct {
	// Results are the successful sub-results only.
	Results []AgentResult

	// Weights holds the normalized historical weight per agent id;
	// agents without history carry 1.0.
	Weights map[string]float64

	// SampleSize is the bootstrap sample size for bagging. Non-positive
	// means the full result count.
	SampleSize int

	// Rand drives bootstrap sampling. Never nil when bagging runs.
	Rand *rand.Rand
}

// Strategy combines successful sub-results into one decision. Implementations
// are registered in the strategy table; Combine refuses unregistered names.
type Strategy interface {
	// Name returns the registry key.
	Name() string

	// Decide picks the winning output. Input.Results is never empty.
	Decide(in Input) Decision
}

var strategyTable = map[string]Strategy{
	StrategyVoting:         votingStrategy{},
	StrategyWeightedVoting: weightedVotingStrategy{},
	StrategyBagging:        baggingStrategy{},
	StrategyStacking:       stackingStrategy{},
	StrategyBestOfN:        bestOfNStrategy{},
}

// Strategies returns the registered strategy names, sorted.
func Strategies() []string {
	names := make([]string, 0, len(strategyTable))
	for name := range strategyTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupStrategy resolves a name or reports a configuration error.
func lookupStrategy(name string) (Strategy, error) {
	s, ok := strategyTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownStrategy, name, strings.Join(Strategies(), ", "))
	}
	return s, nil
}

// normalizeAnswer canonicalizes an output for voting: lowercase, punctuation
// stripped, whitespace collapsed, truncated to 200 characters.
func normalizeAnswer(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	if len(collapsed) > 200 {
		collapsed = collapsed[:200]
	}
	return collapsed
}

// voteGroup is one equivalence class of normalized answers.
type voteGroup struct {
	first  *AgentResult // earliest result in the group, supplies the output
	weight float64
	count  int
	sumQ   float64
}

// tally groups results by normalized answer, accumulating the given weight
// per result, and returns the winning group plus the total weight.
func tally(results []AgentResult, weightOf func(*AgentResult) float64) (*voteGroup, float64) {
	groups := make(map[string]*voteGroup)
	order := make([]string, 0, len(results))
	var total float64

	for i := range results {
		r := &results[i]
		key := normalizeAnswer(r.Output)
		g, ok := groups[key]
		if !ok {
			g = &voteGroup{first: r}
			groups[key] = g
			order = append(order, key)
		}
		w := weightOf(r)
		g.weight += w
		g.count++
		g.sumQ += r.Quality
		total += w
	}

	var winner *voteGroup
	for _, key := range order {
		g := groups[key]
		if winner == nil || g.weight > winner.weight {
			winner = g
		}
	}
	return winner, total
}

type votingStrategy struct{}

func (votingStrategy) Name() string { return StrategyVoting }

// Decide takes a plain majority vote; confidence is the winning vote count
// over the successful-agent count.
func (votingStrategy) Decide(in Input) Decision {
	winner, _ := tally(in.Results, func(*AgentResult) float64 { return 1 })
	return Decision{
		Output:     winner.first.Output,
		AgentID:    winner.first.AgentID,
		Quality:    winner.sumQ / float64(winner.count),
		Confidence: float64(winner.count) / float64(len(in.Results)),
	}
}

type weightedVotingStrategy struct{}

func (weightedVotingStrategy) Name() string { return StrategyWeightedVoting }

// Decide weights each vote by the agent's historical weight; confidence is
// the winning weight over the total weight.
func (weightedVotingStrategy) Decide(in Input) Decision {
	winner, total := tally(in.Results, func(r *AgentResult) float64 {
		if w, ok := in.Weights[r.AgentID]; ok {
			return w
		}
		return 1.0
	})
	confidence := 0.0
	if total > 0 {
		confidence = winner.weight / total
	}
	return Decision{
		Output:     winner.first.Output,
		AgentID:    winner.first.AgentID,
		Quality:    winner.sumQ / float64(winner.count),
		Confidence: confidence,
	}
}

type baggingStrategy struct{}

func (baggingStrategy) Name() string { return StrategyBagging }

// Decide bootstrap-samples the successful results with replacement and runs
// weighted voting over the sample.
func (baggingStrategy) Decide(in Input) Decision {
	k := in.SampleSize
	if k <= 0 {
		k = len(in.Results)
	}
	sample := make([]AgentResult, 0, k)
	for i := 0; i < k; i++ {
		sample = append(sample, in.Results[in.Rand.Intn(len(in.Results))])
	}

	d := weightedVotingStrategy{}.Decide(Input{Results: sample, Weights: in.Weights})
	d.Details = map[string]any{"sample_size": k}
	return d
}

type stackingStrategy struct{}

func (stackingStrategy) Name() string { return StrategyStacking }

// Decide scores each result on quality and iteration cost, scales it by the
// agent's historical weight, and picks the maximum.
func (stackingStrategy) Decide(in Input) Decision {
	best := -1.0
	var pick *AgentResult
	scores := make(map[string]float64, len(in.Results))

	for i := range in.Results {
		r := &in.Results[i]
		w := 1.0
		if hw, ok := in.Weights[r.AgentID]; ok {
			w = hw
		}
		score := (r.Quality*0.7 + iterationBonus(r.Iterations)*0.3) * w
		scores[r.AgentID] = score
		if score > best {
			best = score
			pick = r
		}
	}

	return Decision{
		Output:     pick.Output,
		AgentID:    pick.AgentID,
		Quality:    pick.Quality,
		Confidence: capUnit(best / 10),
		Details:    map[string]any{"scores": scores},
	}
}

type bestOfNStrategy struct{}

func (bestOfNStrategy) Name() string { return StrategyBestOfN }

// Decide picks the highest quality/iteration score and records every
// candidate's score for auditability.
func (bestOfNStrategy) Decide(in Input) Decision {
	best := -1.0
	var pick *AgentResult
	scores := make(map[string]float64, len(in.Results))

	for i := range in.Results {
		r := &in.Results[i]
		score := 0.7*r.Quality + 0.3*iterationBonus(r.Iterations)
		scores[r.AgentID] = score
		if score > best {
			best = score
			pick = r
		}
	}

	return Decision{
		Output:     pick.Output,
		AgentID:    pick.AgentID,
		Quality:    pick.Quality,
		Confidence: capUnit(best / 10),
		Details:    map[string]any{"scores": scores},
	}
}

// iterationBonus rewards answers that needed fewer rounds: 10 minus half an
// iteration each, floored at 0.
func iterationBonus(iterations int) float64 {
	bonus := 10 - float64(iterations)*0.5
	if bonus < 0 {
		return 0
	}
	return bonus
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
