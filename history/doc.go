// Package history provides the size-bounded, persisted log of task execution
// outcomes that every learning component queries and appends to.
//
// A Store holds the full record set in memory and persists it as a single
// JSON snapshot through a SnapshotStore backend. Three backends ship with
// the package:
//
//   - FileStore: one JSON array on disk; a missing or unparsable file yields
//     an empty store rather than an error.
//   - RedisStore: the whole snapshot under one Redis key, written with a
//     single SET per save.
//   - MemStore: ephemeral, for tests and callers that persist elsewhere.
//
// Every write is a full read-modify-write of the snapshot, so at most one
// writer at a time is safe; the Store serializes goroutines within one
// process with a mutex, but cross-process writers must serialize externally.
// Readers see the snapshot loaded at construction; call Reload to observe
// mutations made by another process.
//
// Queries are linear scans over the in-memory records, bounded by the
// store's maximum size. FindSimilar applies temporal half-life decay so
// recent outcomes dominate; the aggregate queries (AgentPerformanceOnSimilar,
// BestAgentsForSimilar, AdaptiveThreshold) build on it.
//
// Example:
//
//	store, err := history.New(history.NewFileStore("history.json"), history.Options{
//	    MaxSize:     1000,
//	    AutoPersist: true,
//	})
//	if err != nil {
//	    return err
//	}
//	err = store.Record(ctx, history.Record{
//	    AgentID:   "researcher",
//	    TaskText:  "summarize the incident report",
//	    Embedding: vec,
//	    Success:   true,
//	    Quality:   8.5,
//	})
//	neighbors := store.FindSimilar(ctx, vec, 5, history.Filter{})
package history
