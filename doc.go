// Package adaptive is a learning and selection engine for agent runtimes.
// It embeds task descriptions as fixed-length vectors, logs execution
// outcomes in a shared history store, and uses k-nearest-neighbor retrieval
// over that history to predict performance, rank agents, combine ensemble
// results, transfer knowledge between agents, decide when to ask a human,
// tune learning strategies, and rewrite prompts.
//
// The engine is a library: it has no network or CLI surface of its own and
// is driven entirely by the surrounding runtime, which supplies execution
// outcomes and consumes recommendations.
//
// # Basic usage
//
// Construct an Engine once and share it. Every component reads and writes
// the same history store, so outcomes recorded by one are visible to all:
//
//	engine, err := adaptive.New(
//		adaptive.WithConfigFile("adaptive.yaml"),
//		adaptive.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close(ctx)
//
//	vec := embedding.Vector(analysis)
//	forecast := engine.Predictor().Predict(ctx, vec, "my-agent", 10)
//	ranks := engine.History().BestAgentsForSimilar(ctx, vec, 20, 3)
//
// # Persistence
//
// History persists as one JSON snapshot, rewritten whole on every save. The
// backend is a file, a single Redis key, or memory, chosen by configuration
// or WithSnapshotStore. At most one writer per snapshot is safe; processes
// sharing a snapshot must serialize writes externally and call Reload to
// observe each other's changes.
//
// The subpackages are usable on their own: embedding and similarity are
// pure functions, and every other component takes a *history.Store directly
// for callers that want finer control than the Engine facade gives.
package adaptive
