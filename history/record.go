package history

import "errors"

// Common errors returned by store operations.
var (
	// ErrInvalidRecord is returned when a record is missing required fields.
	ErrInvalidRecord = errors.New("history: invalid record")

	// ErrDimensionMismatch is returned when a record's embedding length
	// differs from the store's established dimension.
	ErrDimensionMismatch = errors.New("history: embedding dimension mismatch")
)

// MaxTaskTextLen bounds the task text retained on a record; longer text is
// truncated on Record.
const MaxTaskTextLen = 500

// Well-known agent identifiers written by the engine itself. AgentID is
// otherwise an opaque caller-chosen string.
const (
	// AgentHumanFeedback tags records created from human corrections.
	AgentHumanFeedback = "human_feedback"

	// AgentMetaLearner tags few-shot adaptation episodes.
	AgentMetaLearner = "meta_learner"

	// EnsemblePrefix prefixes the strategy name on records written back
	// after an ensemble combination, e.g. "ensemble:voting".
	EnsemblePrefix = "ensemble:"
)

// Metadata carries record provenance. The named fields cover the keys the
// engine itself consumes; Extra holds anything else callers attach.
type Metadata struct {
	// TransferredFrom names the source agent(s) a transferred or distilled
	// record originated from.
	TransferredFrom string `json:"transferred_from,omitempty"`

	// Strategy names the ensemble, sampling, or learning strategy that
	// produced the record.
	Strategy string `json:"strategy,omitempty"`

	// Prompt is the prompt text associated with the execution, if any.
	Prompt string `json:"prompt,omitempty"`

	// TokenUsage is the token count the execution consumed, if tracked.
	TokenUsage int `json:"token_usage,omitempty"`

	// Extra is an open extension map for forward compatibility.
	Extra map[string]string `json:"extra,omitempty"`
}

// Record is one logged task execution outcome. Records are immutable once
// stored; corrections are appended as new records.
type Record struct {
	// ID uniquely identifies the record. Generated when empty.
	ID string `json:"id"`

	// TaskText is the (truncated) source text of the task.
	TaskText string `json:"task_text"`

	// Embedding is the task's feature vector. Its length must match the
	// store's dimension, fixed by the first record.
	Embedding []float64 `json:"embedding"`

	// AgentID identifies who produced the outcome. May denote a strategy
	// tag such as "ensemble:voting" or "human_feedback".
	AgentID string `json:"agent_id"`

	// Success reports whether the execution succeeded.
	Success bool `json:"success"`

	// Quality is the outcome quality score, clamped to [0, 10].
	Quality float64 `json:"quality_score"`

	// Duration is the execution time in seconds, never negative.
	Duration float64 `json:"duration_seconds"`

	// Timestamp is the unix time (seconds) of the execution. Stamped with
	// the current time when zero.
	Timestamp int64 `json:"timestamp"`

	// Meta carries provenance.
	Meta Metadata `json:"metadata"`
}

// validate reports whether the record carries the required fields.
func (r *Record) validate() error {
	if r.AgentID == "" {
		return errors.Join(ErrInvalidRecord, errors.New("agent id is required"))
	}
	if len(r.Embedding) == 0 {
		return errors.Join(ErrInvalidRecord, errors.New("embedding is required"))
	}
	return nil
}

// clampQuality bounds a quality score to the [0, 10] invariant.
func clampQuality(q float64) float64 {
	if q < 0 {
		return 0
	}
	if q > 10 {
		return 10
	}
	return q
}
