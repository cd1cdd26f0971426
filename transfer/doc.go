// Package transfer seeds one agent's history from another's, so a new agent
// starts from an experienced agent's track record instead of cold.
//
// Bootstrap copies a source agent's best outcomes to a target agent with a
// quality discount and provenance metadata; it is idempotent, skipping any
// sample the target already has a close neighbor for. FineTune returns
// ranked recommendations from the source's history for a single task.
// Distill pools several source agents and greedily selects a high-quality,
// diverse subset to transfer. MeasureEffectiveness reports how much the
// transferred knowledge helped the target.
//
// Domain adaptation is plain string substitution over task text and domain
// metadata, configured per call; embeddings are carried over unchanged.
package transfer
