package transfer

import (
	"context"
	"sort"
	"strings"

	"github.com/zero-day-ai/adaptive/history"
	"github.com/zero-day-ai/adaptive/similarity"
)

// Distill pools qualifying samples from several source agents and transfers
// a greedily selected representative subset to the target: the single best
// sample is always kept, and each further candidate is accepted only while
// its maximum cosine similarity to everything already selected stays below
// the diversity cutoff, until MaxSamples is reached. Transferred quality is
// discounted by 0.95 with distillation provenance.
func (e *Engine) Distill(ctx context.Context, sourceAgentIDs []string, targetAgentID string, opts BootstrapOptions) (Report, error) {
	opts = e.fill(opts)

	var pool []history.Record
	for _, src := range sourceAgentIDs {
		pool = append(pool, e.qualifying(src, opts.MinQuality)...)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Quality > pool[j].Quality
	})

	selected := selectRepresentative(pool, opts.MaxSamples, e.opts.DiversityCutoff)

	report := Report{Candidates: len(pool)}
	provenance := strings.Join(sourceAgentIDs, ",")
	for _, src := range selected {
		if e.targetKnows(ctx, targetAgentID, src.Embedding, opts.SimilarityThreshold) {
			report.Skipped++
			continue
		}
		rec := adapt(src, opts.DomainMappings)
		rec.AgentID = targetAgentID
		rec.Quality = src.Quality * distillDiscount
		rec.Meta.TransferredFrom = provenance
		rec.Meta.Strategy = "distill"
		if err := e.store.Record(ctx, rec); err != nil {
			return report, err
		}
		report.Transferred++
	}

	e.logger.Info("distillation complete",
		"sources", provenance,
		"target", targetAgentID,
		"pool", len(pool),
		"selected", len(selected),
		"transferred", report.Transferred)
	return report, nil
}

// selectRepresentative greedily picks a diverse, high-quality subset from a
// quality-sorted pool. The head of the pool seeds the selection.
func selectRepresentative(pool []history.Record, maxSamples int, diversityCutoff float64) []history.Record {
	if len(pool) == 0 || maxSamples <= 0 {
		return nil
	}

	selected := []history.Record{pool[0]}
	for _, candidate := range pool[1:] {
		if len(selected) >= maxSamples {
			break
		}
		maxSim := 0.0
		for _, s := range selected {
			if sim := similarity.CosineSimilarity(candidate.Embedding, s.Embedding); sim > maxSim {
				maxSim = sim
			}
		}
		if maxSim < diversityCutoff {
			selected = append(selected, candidate)
		}
	}
	return selected
}
