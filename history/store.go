package history

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/adaptive/similarity"
)

// RankWeights are the coefficients of the agent ranking score in
// BestAgentsForSimilar: w1*successRate + w2*(avgQuality/10) + w3*avgSimilarity.
// The defaults are empirically chosen; they carry no documented derivation
// and are deliberately configurable.
type RankWeights struct {
	SuccessRate float64
	Quality     float64
	Similarity  float64
}

// DefaultRankWeights returns the 0.4/0.4/0.2 default ranking coefficients.
func DefaultRankWeights() RankWeights {
	return RankWeights{SuccessRate: 0.4, Quality: 0.4, Similarity: 0.2}
}

// Options configures a Store. Zero fields take defaults.
type Options struct {
	// MaxSize bounds the number of records held; insertion beyond it
	// evicts the oldest records by timestamp. Defaults to 1000.
	MaxSize int

	// AutoPersist writes the full snapshot after every mutation.
	AutoPersist bool

	// HalfLifeDays is the temporal decay half-life applied in FindSimilar.
	// Defaults to 30.
	HalfLifeDays float64

	// RankWeights weight the agent ranking score. Defaults to 0.4/0.4/0.2.
	RankWeights RankWeights

	// ThresholdStdDevOffset is the standard-deviation multiple subtracted
	// from the mean in AdaptiveThreshold. Defaults to 0.5.
	ThresholdStdDevOffset float64

	// Logger receives non-fatal diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Tracer instruments mutations and queries. Defaults to a noop tracer.
	Tracer trace.Tracer
}

// Store is the in-memory record log with snapshot persistence. A single
// Store instance is meant to be constructed once and shared by reference
// across the learning components; its mutex serializes goroutines within
// one process only.
type Store struct {
	mu      sync.RWMutex
	records []Record
	dim     int

	snapshot SnapshotStore
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a Store backed by the given snapshot store and loads the
// existing snapshot. A missing or corrupt snapshot yields an empty store.
func New(snapshot SnapshotStore, opts Options) (*Store, error) {
	if snapshot == nil {
		snapshot = NewMemStore()
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.HalfLifeDays <= 0 {
		opts.HalfLifeDays = 30
	}
	if opts.RankWeights == (RankWeights{}) {
		opts.RankWeights = DefaultRankWeights()
	}
	if opts.ThresholdStdDevOffset <= 0 {
		opts.ThresholdStdDevOffset = 0.5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("history")
	}

	s := &Store{
		snapshot: snapshot,
		opts:     opts,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
	}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Record validates, stamps, appends, and evicts. The embedding dimension is
// fixed by the first record; later mismatches return ErrDimensionMismatch.
// When auto-persist is enabled the full snapshot is written before returning.
func (s *Store) Record(ctx context.Context, rec Record) error {
	ctx, span := s.tracer.Start(ctx, "history.Record")
	defer span.End()

	if err := rec.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim != 0 && len(rec.Embedding) != s.dim {
		return fmt.Errorf("%w: got %d, store holds %d", ErrDimensionMismatch, len(rec.Embedding), s.dim)
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	rec.Quality = clampQuality(rec.Quality)
	if rec.Duration < 0 {
		rec.Duration = 0
	}
	if len(rec.TaskText) > MaxTaskTextLen {
		rec.TaskText = rec.TaskText[:MaxTaskTextLen]
	}

	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	}
	s.records = append(s.records, rec)
	s.evictLocked()

	if s.opts.AutoPersist {
		if err := s.snapshot.Save(ctx, s.records); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}
	return nil
}

// evictLocked drops the oldest records by timestamp until the size bound
// holds. Caller must hold the write lock.
func (s *Store) evictLocked() {
	if len(s.records) <= s.opts.MaxSize {
		return
	}
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Timestamp < s.records[j].Timestamp
	})
	over := len(s.records) - s.opts.MaxSize
	s.records = append([]Record(nil), s.records[over:]...)
}

// Filter restricts query results by record fields. Zero fields match
// everything.
type Filter struct {
	// AgentID matches records with exactly this agent.
	AgentID string

	// AgentIDs matches records whose agent is in the set.
	AgentIDs []string

	// Success, when non-nil, matches records with this success value.
	Success *bool

	// MinQuality matches records at or above this quality.
	MinQuality float64

	// Strategy matches records whose metadata strategy equals this value.
	Strategy string

	// HasPrompt matches only records carrying prompt metadata.
	HasPrompt bool
}

func (f Filter) matches(r *Record) bool {
	if f.AgentID != "" && r.AgentID != f.AgentID {
		return false
	}
	if len(f.AgentIDs) > 0 {
		found := false
		for _, id := range f.AgentIDs {
			if r.AgentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Success != nil && r.Success != *f.Success {
		return false
	}
	if f.MinQuality > 0 && r.Quality < f.MinQuality {
		return false
	}
	if f.Strategy != "" && r.Meta.Strategy != f.Strategy {
		return false
	}
	if f.HasPrompt && r.Meta.Prompt == "" {
		return false
	}
	return true
}

// Neighbor is one FindSimilar result: a stored record with its similarity
// to the query.
type Neighbor struct {
	Record     Record
	Similarity float64
	Distance   float64
}

// FindSimilar returns up to k records nearest to the query vector under
// cosine similarity, after applying the filter. Each survivor's similarity
// is weighted by temporal half-life decay so recent records rank first among
// equals. An empty store or no survivors yields an empty result.
func (s *Store) FindSimilar(ctx context.Context, query []float64, k int, filter Filter) []Neighbor {
	_, span := s.tracer.Start(ctx, "history.FindSimilar")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findSimilarLocked(query, k, filter)
}

func (s *Store) findSimilarLocked(query []float64, k int, filter Filter) []Neighbor {
	now := time.Now()
	byID := make(map[string]*Record)
	candidates := make([]similarity.Candidate, 0, len(s.records))
	weights := make(map[string]float64)

	for i := range s.records {
		r := &s.records[i]
		if !filter.matches(r) {
			continue
		}
		byID[r.ID] = r
		candidates = append(candidates, similarity.Candidate{ID: r.ID, Vector: r.Embedding})
		weights[r.ID] = similarity.TemporalWeightAt(r.Timestamp, now, s.opts.HalfLifeDays)
	}

	matches := similarity.FindNearest(query, candidates, k, similarity.Cosine, similarity.SearchOptions{
		Weights: weights,
	})

	neighbors := make([]Neighbor, 0, len(matches))
	for _, m := range matches {
		neighbors = append(neighbors, Neighbor{
			Record:     *byID[m.ID],
			Similarity: m.Similarity,
			Distance:   m.Distance,
		})
	}
	return neighbors
}

// Performance summarizes one agent's outcomes on tasks similar to a query.
type Performance struct {
	AgentID       string
	Attempts      int
	Successes     int
	SuccessRate   float64
	AvgQuality    float64
	AvgDuration   float64
	AvgSimilarity float64
}

// AgentPerformanceOnSimilar reports the agent's aggregate outcomes over its
// k nearest records to the query vector.
func (s *Store) AgentPerformanceOnSimilar(ctx context.Context, query []float64, agentID string, k int) Performance {
	neighbors := s.FindSimilar(ctx, query, k, Filter{AgentID: agentID})

	perf := Performance{AgentID: agentID, Attempts: len(neighbors)}
	if len(neighbors) == 0 {
		return perf
	}
	for _, n := range neighbors {
		if n.Record.Success {
			perf.Successes++
		}
		perf.AvgQuality += n.Record.Quality
		perf.AvgDuration += n.Record.Duration
		perf.AvgSimilarity += n.Similarity
	}
	count := float64(len(neighbors))
	perf.SuccessRate = float64(perf.Successes) / count
	perf.AvgQuality /= count
	perf.AvgDuration /= count
	perf.AvgSimilarity /= count
	return perf
}

// AgentRank is one entry of a BestAgentsForSimilar ranking.
type AgentRank struct {
	AgentID       string
	Score         float64
	SuccessRate   float64
	AvgQuality    float64
	AvgSimilarity float64
	Samples       int
}

// BestAgentsForSimilar groups the k nearest records by agent, scores each
// agent with the configured rank weights, and returns the top n descending.
func (s *Store) BestAgentsForSimilar(ctx context.Context, query []float64, k, topN int) []AgentRank {
	neighbors := s.FindSimilar(ctx, query, k, Filter{})
	if len(neighbors) == 0 || topN <= 0 {
		return nil
	}

	type acc struct {
		successes int
		quality   float64
		sim       float64
		count     int
	}
	groups := make(map[string]*acc)
	for _, n := range neighbors {
		g, ok := groups[n.Record.AgentID]
		if !ok {
			g = &acc{}
			groups[n.Record.AgentID] = g
		}
		if n.Record.Success {
			g.successes++
		}
		g.quality += n.Record.Quality
		g.sim += n.Similarity
		g.count++
	}

	w := s.opts.RankWeights
	ranks := make([]AgentRank, 0, len(groups))
	for agentID, g := range groups {
		count := float64(g.count)
		rank := AgentRank{
			AgentID:       agentID,
			SuccessRate:   float64(g.successes) / count,
			AvgQuality:    g.quality / count,
			AvgSimilarity: g.sim / count,
			Samples:       g.count,
		}
		rank.Score = w.SuccessRate*rank.SuccessRate +
			w.Quality*(rank.AvgQuality/10) +
			w.Similarity*rank.AvgSimilarity
		ranks = append(ranks, rank)
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		return ranks[i].AgentID < ranks[j].AgentID
	})
	if len(ranks) > topN {
		ranks = ranks[:topN]
	}
	return ranks
}

// AdaptiveThreshold derives a quality bar from successful similar tasks:
// mean quality minus the configured standard-deviation offset, clamped to
// [5.0, 9.5]. With no successful neighbors it returns def unchanged.
func (s *Store) AdaptiveThreshold(ctx context.Context, query []float64, k int, def float64) float64 {
	success := true
	neighbors := s.FindSimilar(ctx, query, k, Filter{Success: &success})
	if len(neighbors) == 0 {
		return def
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

	threshold := mean - s.opts.ThresholdStdDevOffset*math.Sqrt(variance)
	if threshold < 5.0 {
		return 5.0
	}
	if threshold > 9.5 {
		return 9.5
	}
	return threshold
}

// Stats summarizes the store contents.
type Stats struct {
	Count       int
	Agents      int
	SuccessRate float64
	AvgQuality  float64
	Oldest      int64
	Newest      int64
	PerAgent    map[string]int
}

// Stats reports the store's aggregate state.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Count: len(s.records), PerAgent: make(map[string]int)}
	if len(s.records) == 0 {
		return st
	}

	var successes int
	st.Oldest = s.records[0].Timestamp
	st.Newest = s.records[0].Timestamp
	for i := range s.records {
		r := &s.records[i]
		st.PerAgent[r.AgentID]++
		if r.Success {
			successes++
		}
		st.AvgQuality += r.Quality
		if r.Timestamp < st.Oldest {
			st.Oldest = r.Timestamp
		}
		if r.Timestamp > st.Newest {
			st.Newest = r.Timestamp
		}
	}
	st.Agents = len(st.PerAgent)
	st.SuccessRate = float64(successes) / float64(len(s.records))
	st.AvgQuality /= float64(len(s.records))
	return st
}

// ByAgent returns the agent's records ordered by ascending timestamp.
func (s *Store) ByAgent(agentID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for i := range s.records {
		if s.records[i].AgentID == agentID {
			out = append(out, s.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// All returns a copy of every record, in insertion order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the embedding dimension, or 0 while the store is empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Clear removes every record and, when auto-persist is enabled, rewrites the
// empty snapshot.
func (s *Store) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "history.Clear")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.dim = 0
	if s.opts.AutoPersist {
		if err := s.snapshot.Save(ctx, nil); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}
	return nil
}

// Save writes the full snapshot regardless of the auto-persist setting.
func (s *Store) Save(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "history.Save")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.snapshot.Save(ctx, s.records); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Reload replaces the in-memory state with the current snapshot contents.
// Callers sharing a snapshot with another process must call this to observe
// the other writer's mutations; nothing watches the backing medium.
func (s *Store) Reload(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "history.Reload")
	defer span.End()

	records, err := s.snapshot.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.dim = 0
	for _, r := range records {
		if r.validate() != nil {
			s.logger.Warn("skipping invalid snapshot record", "id", r.ID)
			continue
		}
		if s.dim == 0 {
			s.dim = len(r.Embedding)
		} else if len(r.Embedding) != s.dim {
			s.logger.Warn("skipping snapshot record with mismatched dimension",
				"id", r.ID, "got", len(r.Embedding), "want", s.dim)
			continue
		}
		r.Quality = clampQuality(r.Quality)
		s.records = append(s.records, r)
	}
	s.evictLocked()
	return nil
}

