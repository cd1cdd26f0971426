package promptopt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/zero-day-ai/adaptive/history"
)

// TextGenerator produces free text from a prompt. Implementations wrap an
// LLM or any other rewriting service; callers are responsible for bounding
// the call with a context deadline.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the TextGenerator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options configures an Optimizer.
type Options struct {
	// HistoryK is how many similar records to retrieve when gathering
	// exemplar prompts. Defaults to 20.
	HistoryK int

	// MinQuality is the quality floor for exemplar prompts. Defaults to 7.
	MinQuality float64

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of an optimization attempt. A failed attempt still
// yields a usable Result carrying the original prompt.
type Result struct {
	// Prompt is the optimized prompt, or the original on failure.
	Prompt string

	// Improvements lists what changed, or explains why nothing did.
	Improvements []string

	// Confidence is in [0, 1]; 0 means the original prompt came back.
	Confidence float64
}

// Optimizer rewrites prompts using exemplars from history and an external
// text generator.
type Optimizer struct {
	store  *history.Store
	gen    TextGenerator
	opts   Options
	logger *slog.Logger
}

// New creates an Optimizer. gen may be nil, in which case every Optimize
// call degrades to the original prompt.
func New(store *history.Store, gen TextGenerator, opts Options) *Optimizer {
	if opts.HistoryK <= 0 {
		opts.HistoryK = 20
	}
	if opts.MinQuality <= 0 {
		opts.MinQuality = 7
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Optimizer{store: store, gen: gen, opts: opts, logger: opts.Logger}
}

const (
	promptSection       = "OPTIMIZED PROMPT:"
	improvementsSection = "IMPROVEMENTS:"
)

// Optimize rewrites prompt using up to three exemplar prompts that succeeded
// on tasks near query. Generator errors, a nil generator, and malformed
// responses all fall back to the original prompt with confidence 0.
func (o *Optimizer) Optimize(ctx context.Context, prompt string, query []float64) Result {
	fallback := func(note string) Result {
		return Result{Prompt: prompt, Improvements: []string{note}, Confidence: 0}
	}
	if o.gen == nil {
		return fallback("no text generator configured")
	}

	exemplars, avgSim, avgQuality := o.exemplars(ctx, query)
	request := buildRequest(prompt, exemplars)

	response, err := o.gen.Generate(ctx, request)
	if err != nil {
		o.logger.Warn("prompt optimization generator failed", "error", err)
		return fallback("generator error, original prompt kept")
	}

	optimized, improvements := parseResponse(response)
	if optimized == "" {
		o.logger.Warn("prompt optimization response missing expected sections")
		return fallback("unparseable generator response, original prompt kept")
	}

	confidence := 0.5*avgSim + 0.4*avgQuality/10
	if confidence > 1 {
		confidence = 1
	}
	if len(improvements) == 0 {
		improvements = []string{"rewritten from historical exemplars"}
	}
	return Result{Prompt: optimized, Improvements: improvements, Confidence: confidence}
}

// RecordPromptResult logs how a prompt performed so future optimizations can
// use it as an exemplar.
func (o *Optimizer) RecordPromptResult(ctx context.Context, agentID, taskText, prompt string, embedding []float64, success bool, quality float64) error {
	return o.store.Record(ctx, history.Record{
		TaskText:  taskText,
		Embedding: embedding,
		AgentID:   agentID,
		Success:   success,
		Quality:   quality,
		Meta:      history.Metadata{Prompt: prompt},
	})
}

type exemplar struct {
	prompt     string
	quality    float64
	similarity float64
}

// exemplars returns the top 3 historical prompts by quality x similarity
// among successful, high-quality neighbors, with the average similarity and
// quality of those kept.
func (o *Optimizer) exemplars(ctx context.Context, query []float64) ([]exemplar, float64, float64) {
	success := true
	neighbors := o.store.FindSimilar(ctx, query, o.opts.HistoryK, history.Filter{
		Success:    &success,
		MinQuality: o.opts.MinQuality,
		HasPrompt:  true,
	})
	if len(neighbors) == 0 {
		return nil, 0, 0
	}

	candidates := make([]exemplar, 0, len(neighbors))
	for _, n := range neighbors {
		candidates = append(candidates, exemplar{
			prompt:     n.Record.Meta.Prompt,
			quality:    n.Record.Quality,
			similarity: n.Similarity,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].quality*candidates[i].similarity > candidates[j].quality*candidates[j].similarity
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	var sumSim, sumQ float64
	for _, c := range candidates {
		sumSim += c.similarity
		sumQ += c.quality
	}
	n := float64(len(candidates))
	return candidates, sumSim / n, sumQ / n
}

func buildRequest(prompt string, exemplars []exemplar) string {
	var b strings.Builder
	b.WriteString("Improve the following prompt. Respond with two sections labeled\n")
	b.WriteString("exactly \"" + promptSection + "\" and \"" + improvementsSection + "\".\n\n")
	b.WriteString("ORIGINAL PROMPT:\n")
	b.WriteString(prompt)
	b.WriteString("\n")
	for i, ex := range exemplars {
		fmt.Fprintf(&b, "\nSUCCESSFUL EXAMPLE %d (quality %.1f):\n%s\n", i+1, ex.quality, ex.prompt)
	}
	return b.String()
}

// parseResponse extracts the optimized prompt and improvement bullets from
// the generator's labeled sections. A missing prompt section yields "".
func parseResponse(response string) (string, []string) {
	pi := strings.Index(response, promptSection)
	if pi < 0 {
		return "", nil
	}
	rest := response[pi+len(promptSection):]

	var promptText, improvementText string
	if ii := strings.Index(rest, improvementsSection); ii >= 0 {
		promptText = rest[:ii]
		improvementText = rest[ii+len(improvementsSection):]
	} else {
		promptText = rest
	}

	promptText = strings.TrimSpace(promptText)
	if promptText == "" {
		return "", nil
	}

	var improvements []string
	for _, line := range strings.Split(improvementText, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if line != "" {
			improvements = append(improvements, line)
		}
	}
	return promptText, improvements
}
