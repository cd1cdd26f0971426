// Package similarity provides the distance and similarity primitives used
// throughout the adaptive learning engine.
//
// Three metrics are supported (cosine, Euclidean, Manhattan), along with an
// exponential half-life decay for down-weighting old records and a filtered
// top-k nearest-neighbor search that every higher-level component builds on.
//
// All functions are total: a dimension mismatch between two vectors yields
// zero similarity and maximal distance rather than an error, and an empty
// candidate set yields an empty result. This keeps the numeric layer free of
// error plumbing; validation happens where records enter the system.
//
// Example:
//
//	matches := similarity.FindNearest(query, candidates, 5, similarity.Cosine,
//	    similarity.SearchOptions{MinSimilarity: 0.3})
//	for _, m := range matches {
//	    fmt.Printf("%s: %.3f\n", m.ID, m.Similarity)
//	}
package similarity
