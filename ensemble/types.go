package ensemble

import (
	"context"
	"errors"
)

// ErrUnknownStrategy is returned when a combine call names a strategy that
// is not in the registry. This is a programmer error, raised immediately.
var ErrUnknownStrategy = errors.New("ensemble: unknown strategy")

// Task is the unit of work handed to every agent in a combination.
type Task struct {
	// Text is the task description shown to agents.
	Text string

	// Embedding is the task's feature vector, used for historical
	// weighting and for recording the combined outcome.
	Embedding []float64
}

// Outcome is what a single agent returns for a task.
type Outcome struct {
	// Output is the agent's answer.
	Output string

	// Quality is the agent's self-assessed or externally scored quality,
	// on the store's 0-10 scale.
	Quality float64

	// Iterations is how many reasoning rounds the agent used.
	Iterations int
}

// Agent executes one task. Implementations live outside this engine; the
// combiner only needs the narrow surface below.
type Agent interface {
	// Execute runs the task to completion or returns an error.
	Execute(ctx context.Context, task Task) (Outcome, error)
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc func(ctx context.Context, task Task) (Outcome, error)

// Execute calls f.
func (f AgentFunc) Execute(ctx context.Context, task Task) (Outcome, error) {
	return f(ctx, task)
}

// AgentResult is one agent's sub-result inside a combination, including
// failures.
type AgentResult struct {
	AgentID    string
	Output     string
	Quality    float64
	Iterations int
	Duration   float64
	Success    bool

	// Error holds the failure message when Success is false because the
	// agent returned an error.
	Error string
}

// Decision is a strategy's verdict over the successful sub-results.
type Decision struct {
	// Output is the winning answer.
	Output string

	// AgentID names the agent (or first agent) behind the winning answer.
	AgentID string

	// Quality is the quality attributed to the winning answer.
	Quality float64

	// Confidence expresses how decisively the strategy picked the winner,
	// in [0, 1].
	Confidence float64

	// Details carries strategy-specific audit data, e.g. per-candidate
	// scores for best_of_n.
	Details map[string]any
}

// Combined is the full result of a Combine call.
type Combined struct {
	// Output is the winning answer; empty when Success is false.
	Output string

	// Success is false only when every agent failed.
	Success bool

	// Confidence is the winning decision's confidence.
	Confidence float64

	// Strategy is the name of the strategy that produced the decision.
	Strategy string

	// Quality is the quality attributed to the decision.
	Quality float64

	// AgentID names the winning agent.
	AgentID string

	// Results holds every sub-result, including failures.
	Results []AgentResult

	// Details carries the strategy's audit data.
	Details map[string]any
}
