package transfer

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/zero-day-ai/adaptive/history"
)

// Discounts applied to transferred quality scores. Transferred knowledge is
// slightly less trustworthy in the new context than where it was earned.
const (
	bootstrapDiscount = 0.9
	distillDiscount   = 0.95
)

// Options configures an Engine.
type Options struct {
	// MinQuality is the default quality floor for transfer candidates.
	// Defaults to 7.0.
	MinQuality float64

	// MaxSamples is the default cap on transferred samples per call.
	// Defaults to 50.
	MaxSamples int

	// SimilarityThreshold is the neighbor similarity above which a
	// candidate is considered already known to the target. Defaults to
	// 0.85.
	SimilarityThreshold float64

	// DiversityCutoff is the maximum cosine similarity a distillation
	// candidate may have to any already-selected sample. Defaults to 0.8;
	// empirically chosen, deliberately configurable.
	DiversityCutoff float64

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// BootstrapOptions tunes one Bootstrap or Distill call. Zero fields take the
// engine defaults.
type BootstrapOptions struct {
	MinQuality          float64
	MaxSamples          int
	SimilarityThreshold float64

	// DomainMappings rewrites task text and domain metadata by plain
	// string substitution, e.g. {"python": "go"}.
	DomainMappings map[string]string
}

// Report summarizes a Bootstrap or Distill run.
type Report struct {
	// Candidates is how many source records qualified before dedup and
	// diversity selection.
	Candidates int

	// Transferred is how many records were written to the target.
	Transferred int

	// Skipped is how many qualifying records the target already knew.
	Skipped int
}

// Recommendation is one ranked FineTune result.
type Recommendation struct {
	TaskText   string
	Quality    float64
	Similarity float64
	Success    bool
}

// FineTuneResult is a ranked recommendation set with its overall confidence.
type FineTuneResult struct {
	Recommendations []Recommendation

	// Confidence blends neighbor similarity and quality:
	// 0.6*avgSimilarity + 0.4*avgQuality/10.
	Confidence float64
}

// Effectiveness reports how a target agent's record set evolved.
type Effectiveness struct {
	// ColdStartQuality is the average quality of the first 5 records.
	ColdStartQuality float64

	// QualityImprovement is avg(last 10) - avg(first 10).
	QualityImprovement float64

	// LearningSpeed is 1/i where i is the 1-based index of the first
	// record reaching quality 8.0, or 0 if never reached.
	LearningSpeed float64

	// TransferredRatio is the share of records carrying transfer
	// provenance.
	TransferredRatio float64

	// Records is the agent's total record count.
	Records int
}

// Engine transfers knowledge between agents sharing one history store.
// Source and target are agent ids within the store.
type Engine struct {
	store  *history.Store
	opts   Options
	logger *slog.Logger
}

// New creates a transfer engine over the shared store.
func New(store *history.Store, opts Options) *Engine {
	if opts.MinQuality <= 0 {
		opts.MinQuality = 7.0
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 50
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.85
	}
	if opts.DiversityCutoff <= 0 {
		opts.DiversityCutoff = 0.8
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{store: store, opts: opts, logger: opts.Logger}
}

// Bootstrap seeds the target agent's history from the source agent's best
// outcomes. Only successful records at or above the quality floor qualify,
// best first, capped at MaxSamples. A candidate the target already has a
// close neighbor for is skipped, which makes repeated runs with unchanged
// inputs transfer nothing new. Transferred quality is discounted by 0.9 and
// provenance is recorded in metadata.
func (e *Engine) Bootstrap(ctx context.Context, sourceAgentID, targetAgentID string, opts BootstrapOptions) (Report, error) {
	opts = e.fill(opts)

	candidates := e.qualifying(sourceAgentID, opts.MinQuality)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Quality > candidates[j].Quality
	})
	if len(candidates) > opts.MaxSamples {
		candidates = candidates[:opts.MaxSamples]
	}

	report := Report{Candidates: len(candidates)}
	for _, src := range candidates {
		if e.targetKnows(ctx, targetAgentID, src.Embedding, opts.SimilarityThreshold) {
			report.Skipped++
			continue
		}
		rec := adapt(src, opts.DomainMappings)
		rec.AgentID = targetAgentID
		rec.Quality = src.Quality * bootstrapDiscount
		rec.Meta.TransferredFrom = sourceAgentID
		if err := e.store.Record(ctx, rec); err != nil {
			return report, err
		}
		report.Transferred++
	}

	e.logger.Info("bootstrap complete",
		"source", sourceAgentID,
		"target", targetAgentID,
		"transferred", report.Transferred,
		"skipped", report.Skipped)
	return report, nil
}

// FineTune retrieves the source agent's k nearest outcomes to a task, applies
// the same domain adaptation, and returns them ranked by similarity with an
// overall confidence.
func (e *Engine) FineTune(ctx context.Context, sourceAgentID string, query []float64, k int, mappings map[string]string) FineTuneResult {
	neighbors := e.store.FindSimilar(ctx, query, k, history.Filter{AgentID: sourceAgentID})
	if len(neighbors) == 0 {
		return FineTuneResult{}
	}

	var result FineTuneResult
	var sumSim, sumQ float64
	for _, n := range neighbors {
		adapted := adapt(n.Record, mappings)
		result.Recommendations = append(result.Recommendations, Recommendation{
			TaskText:   adapted.TaskText,
			Quality:    n.Record.Quality,
			Similarity: n.Similarity,
			Success:    n.Record.Success,
		})
		sumSim += n.Similarity
		sumQ += n.Record.Quality
	}
	n := float64(len(neighbors))
	result.Confidence = 0.6*(sumSim/n) + 0.4*(sumQ/n)/10
	return result
}

// qualifying returns the agent's successful records at or above the quality
// floor.
func (e *Engine) qualifying(agentID string, minQuality float64) []history.Record {
	var out []history.Record
	for _, r := range e.store.ByAgent(agentID) {
		if r.Success && r.Quality >= minQuality {
			out = append(out, r)
		}
	}
	return out
}

// targetKnows reports whether the target already holds a neighbor at or
// above the similarity threshold.
func (e *Engine) targetKnows(ctx context.Context, targetAgentID string, vec []float64, threshold float64) bool {
	neighbors := e.store.FindSimilar(ctx, vec, 1, history.Filter{AgentID: targetAgentID})
	return len(neighbors) > 0 && neighbors[0].Similarity >= threshold
}

// adapt clones a record with domain mappings applied to its task text and
// domain metadata. The embedding is carried over unchanged.
func adapt(src history.Record, mappings map[string]string) history.Record {
	rec := history.Record{
		TaskText:  src.TaskText,
		Embedding: src.Embedding,
		Success:   src.Success,
		Quality:   src.Quality,
		Duration:  src.Duration,
		Meta: history.Metadata{
			Strategy: src.Meta.Strategy,
			Prompt:   src.Meta.Prompt,
		},
	}
	if len(src.Meta.Extra) > 0 {
		rec.Meta.Extra = make(map[string]string, len(src.Meta.Extra))
		for k, v := range src.Meta.Extra {
			rec.Meta.Extra[k] = v
		}
	}
	for from, to := range mappings {
		rec.TaskText = strings.ReplaceAll(rec.TaskText, from, to)
		if domain, ok := rec.Meta.Extra["domain"]; ok {
			rec.Meta.Extra["domain"] = strings.ReplaceAll(domain, from, to)
		}
	}
	return rec
}

// fill substitutes engine defaults for zero call options.
func (e *Engine) fill(opts BootstrapOptions) BootstrapOptions {
	if opts.MinQuality <= 0 {
		opts.MinQuality = e.opts.MinQuality
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = e.opts.MaxSamples
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = e.opts.SimilarityThreshold
	}
	return opts
}

// MeasureEffectiveness reports cold-start quality, quality improvement,
// learning speed, and the transferred-record ratio for a target agent.
func (e *Engine) MeasureEffectiveness(targetAgentID string) Effectiveness {
	records := e.store.ByAgent(targetAgentID)
	eff := Effectiveness{Records: len(records)}
	if len(records) == 0 {
		return eff
	}

	eff.ColdStartQuality = avgQuality(records[:min(5, len(records))])

	firstN := records[:min(10, len(records))]
	lastN := records[max(0, len(records)-10):]
	eff.QualityImprovement = avgQuality(lastN) - avgQuality(firstN)

	for i, r := range records {
		if r.Quality >= 8.0 {
			eff.LearningSpeed = 1 / float64(i+1)
			break
		}
	}

	var transferred int
	for _, r := range records {
		if r.Meta.TransferredFrom != "" {
			transferred++
		}
	}
	eff.TransferredRatio = float64(transferred) / float64(len(records))
	return eff
}

func avgQuality(records []history.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Quality
	}
	return sum / float64(len(records))
}
