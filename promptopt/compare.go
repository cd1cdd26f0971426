package promptopt

import (
	"context"
	"strings"
)

// Comparison ranks a set of candidate prompts for one task.
type Comparison struct {
	// Winner is the highest-scoring prompt.
	Winner string

	// WinnerIndex is the winner's position in the input slice.
	WinnerIndex int

	// Scores holds each candidate's score, aligned with the input slice.
	Scores []float64

	// Confidence is the score gap between the winner and the runner-up,
	// clamped to [0, 1]. A single candidate has confidence 1.
	Confidence float64
}

// ComparePrompts scores each candidate heuristically and against prompts
// that historically succeeded on similar tasks, without calling the text
// generator. An empty candidate list yields a zero Comparison.
func (o *Optimizer) ComparePrompts(ctx context.Context, prompts []string, query []float64) Comparison {
	if len(prompts) == 0 {
		return Comparison{}
	}

	exemplars, _, _ := o.exemplars(ctx, query)

	scores := make([]float64, len(prompts))
	for i, p := range prompts {
		scores[i] = heuristicScore(p) + overlapBonus(p, exemplars)
	}

	winner, runnerUp := 0, -1
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[winner] {
			runnerUp = winner
			winner = i
		} else if runnerUp < 0 || scores[i] > scores[runnerUp] {
			runnerUp = i
		}
	}

	confidence := 1.0
	if runnerUp >= 0 {
		confidence = scores[winner] - scores[runnerUp]
		if confidence > 1 {
			confidence = 1
		}
	}
	return Comparison{
		Winner:      prompts[winner],
		WinnerIndex: winner,
		Scores:      scores,
		Confidence:  confidence,
	}
}

// heuristicScore awards fixed bonuses for structural traits that correlate
// with effective prompts.
func heuristicScore(prompt string) float64 {
	lower := strings.ToLower(prompt)
	var score float64

	// Structural markers: headings, bullets, or numbered steps.
	if strings.Contains(prompt, "\n-") || strings.Contains(prompt, "\n*") ||
		strings.Contains(prompt, "#") || strings.Contains(prompt, "1.") {
		score += 1
	}
	if len(prompt) >= 100 {
		score += 1
	}
	if strings.Contains(lower, "example") || strings.Contains(lower, "e.g.") {
		score += 1
	}
	if strings.Contains(lower, "must") || strings.Contains(lower, "should") ||
		strings.Contains(lower, "step") {
		score += 1
	}
	return score
}

// overlapBonus rewards resemblance to historically successful prompts,
// scaled by the best character-bigram overlap found.
func overlapBonus(prompt string, exemplars []exemplar) float64 {
	var best float64
	for _, ex := range exemplars {
		if o := bigramOverlap(prompt, ex.prompt); o > best {
			best = o
		}
	}
	return 2 * best
}

// bigramOverlap returns the fraction of a's character bigrams that also
// occur in b.
func bigramOverlap(a, b string) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	inB := make(map[string]struct{}, len(b)-1)
	for i := 0; i+2 <= len(b); i++ {
		inB[b[i:i+2]] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a)-1)
	matched := 0
	for i := 0; i+2 <= len(a); i++ {
		bg := a[i : i+2]
		if _, dup := seen[bg]; dup {
			continue
		}
		seen[bg] = struct{}{}
		if _, ok := inB[bg]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}
