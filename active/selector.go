package active

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zero-day-ai/adaptive/history"
)

// Options configures a Selector.
type Options struct {
	// Strategy names the sampling strategy. Defaults to "uncertainty".
	Strategy string

	// Threshold is the uncertainty score at or above which a task is
	// queued for human feedback. Defaults to 0.3; empirically chosen,
	// deliberately configurable.
	Threshold float64

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// QueueEntry is one pending human query. Entries live in memory only and
// are never persisted.
type QueueEntry struct {
	TaskText string
	Priority float64
	Reason   string
	QueuedAt time.Time
}

// Decision is the verdict of a ShouldQuery call.
type Decision struct {
	// Query reports whether the task should go to a human.
	Query bool

	// Uncertainty is the sampling strategy's score, in [0, 1].
	Uncertainty float64

	// Reason is a human-readable bucket for the score.
	Reason string
}

// Statistics summarizes the selector's activity and the value of the
// feedback received so far.
type Statistics struct {
	// TotalQueried counts tasks ever queued.
	TotalQueried int

	// Pending counts tasks currently awaiting feedback.
	Pending int

	// FeedbackReceived counts human corrections recorded.
	FeedbackReceived int

	// QualityImprovement is avg(last 5 feedback qualities) minus
	// avg(first 5).
	QualityImprovement float64

	// Efficiency is QualityImprovement per feedback received.
	Efficiency float64
}

// Selector decides which outcomes warrant human feedback and tracks the
// pending query queue.
type Selector struct {
	store   *history.Store
	sampler sampler
	opts    Options
	logger  *slog.Logger

	mu           sync.Mutex
	queue        map[string]QueueEntry
	totalQueried int
}

// New creates a Selector over the shared history store. An unknown strategy
// name is a configuration error.
func New(store *history.Store, opts Options) (*Selector, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyUncertainty
	}
	s, err := lookupSampler(opts.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 0.3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Selector{
		store:   store,
		sampler: s,
		opts:    opts,
		logger:  opts.Logger,
		queue:   make(map[string]QueueEntry),
	}, nil
}

// ShouldQuery scores the outcome's uncertainty and, when it reaches the
// threshold, enqueues the task for human feedback. Queue entries are
// deduplicated by task text; re-querying an already queued task refreshes
// its priority but never duplicates it.
func (s *Selector) ShouldQuery(ctx context.Context, task Task, out Outcome) Decision {
	score := s.sampler.Score(ctx, s.store, task, out)
	decision := Decision{
		Query:       score >= s.opts.Threshold,
		Uncertainty: score,
		Reason:      reason(score),
	}
	if !decision.Query {
		return decision
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, queued := s.queue[task.Text]; !queued {
		s.totalQueried++
	}
	s.queue[task.Text] = QueueEntry{
		TaskText: task.Text,
		Priority: score,
		Reason:   decision.Reason,
		QueuedAt: time.Now(),
	}
	return decision
}

// reason buckets an uncertainty score for human consumption.
func reason(score float64) string {
	switch {
	case score >= 0.7:
		return "high uncertainty: historical outcomes disagree strongly"
	case score >= 0.5:
		return "moderate uncertainty: limited confidence on this kind of task"
	case score >= 0.3:
		return "novel or low-confidence task"
	default:
		return "confident: no human review needed"
	}
}

// RecordFeedback appends a human correction to the history store under the
// "human_feedback" agent and removes the task from the queue.
func (s *Selector) RecordFeedback(ctx context.Context, task Task, correctAnswer string, quality float64) error {
	err := s.store.Record(ctx, history.Record{
		TaskText:  task.Text,
		Embedding: task.Embedding,
		AgentID:   history.AgentHumanFeedback,
		Success:   true,
		Quality:   quality,
		Meta: history.Metadata{
			Extra: map[string]string{"correct_answer": truncate(correctAnswer, 500)},
		},
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.queue, task.Text)
	s.mu.Unlock()
	return nil
}

// Queue returns a snapshot of the pending entries, highest priority first.
func (s *Selector) Queue() []QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]QueueEntry, 0, len(s.queue))
	for _, e := range s.queue {
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})
	return entries
}

// Statistics reports query counts and the quality trend of received
// feedback.
func (s *Selector) Statistics() Statistics {
	s.mu.Lock()
	stats := Statistics{
		TotalQueried: s.totalQueried,
		Pending:      len(s.queue),
	}
	s.mu.Unlock()

	feedback := s.store.ByAgent(history.AgentHumanFeedback)
	stats.FeedbackReceived = len(feedback)
	if len(feedback) == 0 {
		return stats
	}

	first := feedback[:min(5, len(feedback))]
	last := feedback[max(0, len(feedback)-5):]
	stats.QualityImprovement = avg(last) - avg(first)
	stats.Efficiency = stats.QualityImprovement / float64(len(feedback))
	return stats
}

func avg(records []history.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Quality
	}
	return sum / float64(len(records))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
