// Package active decides when a task outcome is uncertain enough to warrant
// human feedback, and manages the queue of pending queries.
//
// Four sampling strategies score uncertainty from the history store:
// uncertainty (model confidence blended with neighbor disagreement),
// diversity (novelty relative to the nearest neighbor), error_reduction
// (dissimilarity weighted toward past failures), and committee (variance of
// ensemble votes). The strategy is fixed at construction; an unknown name is
// a configuration error.
//
// Tasks scoring at or above the threshold are queued, deduplicated by task
// text. Human feedback recorded through RecordFeedback is appended to the
// history store under the "human_feedback" agent and removes the task from
// the queue; the queue itself is never persisted.
package active
