package embedding

// FeatureImportance derives per-dimension weights from historical embeddings.
// Each weight is the observed variance of that dimension plus a 0.5 floor, so
// dimensions that actually discriminate between tasks dominate future
// weighted searches while constant dimensions are never zeroed out entirely.
//
// Vectors whose length differs from Dim are skipped. With no usable input
// every dimension weighs 1.0.
func FeatureImportance(vectors [][]float64) []float64 {
	weights := make([]float64, Dim)

	var usable [][]float64
	for _, v := range vectors {
		if len(v) == Dim {
			usable = append(usable, v)
		}
	}
	if len(usable) == 0 {
		for i := range weights {
			weights[i] = 1.0
		}
		return weights
	}

	n := float64(len(usable))
	for d := 0; d < Dim; d++ {
		var mean float64
		for _, v := range usable {
			mean += v[d]
		}
		mean /= n

		var variance float64
		for _, v := range usable {
			diff := v[d] - mean
			variance += diff * diff
		}
		variance /= n

		weights[d] = variance + 0.5
	}
	return weights
}
