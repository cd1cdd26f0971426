// Package embedding converts a task analysis into a fixed-length numeric
// feature vector suitable for nearest-neighbor retrieval.
//
// The feature layout is deterministic and has dimension Dim (14): one
// complexity scalar, a six-way domain one-hot block, four capability flags,
// a quality-tier scalar, a normalized step count, and a normalized key
// requirement count. The same analysis always produces the same vector.
//
// WeightedVector scales each feature block by caller-supplied block weights;
// FeatureImportance derives per-dimension weights from the variance observed
// in historical vectors, letting discriminative dimensions dominate future
// weighting.
package embedding
