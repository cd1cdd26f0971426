package embedding

// Dim is the length of every task embedding produced by this package.
const Dim = 14

// Complexity labels how demanding a task is expected to be.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExtreme  Complexity = "extreme"
)

// Domain categorizes the kind of work a task involves.
type Domain string

const (
	DomainGeneral   Domain = "general"
	DomainTechnical Domain = "technical"
	DomainCreative  Domain = "creative"
	DomainAnalysis  Domain = "analysis"
	DomainCoding    Domain = "coding"
	DomainResearch  Domain = "research"
)

// QualityTier labels the quality bar the task must meet.
type QualityTier string

const (
	QualityLow    QualityTier = "low"
	QualityMedium QualityTier = "medium"
	QualityHigh   QualityTier = "high"
)

// TaskAnalysis is the structured description of a task from which an
// embedding is derived. Unset enum fields fall back to the lowest bucket.
type TaskAnalysis struct {
	Complexity        Complexity
	Domain            Domain
	RequiresTools     bool
	RequiresKnowledge bool
	RequiresReasoning bool
	RequiresIteration bool
	Quality           QualityTier
	EstimatedSteps    int
	KeyRequirements   int
}

var complexityValues = map[Complexity]float64{
	ComplexitySimple:   0.25,
	ComplexityModerate: 0.5,
	ComplexityComplex:  0.75,
	ComplexityExtreme:  1.0,
}

var domainIndex = map[Domain]int{
	DomainGeneral:   0,
	DomainTechnical: 1,
	DomainCreative:  2,
	DomainAnalysis:  3,
	DomainCoding:    4,
	DomainResearch:  5,
}

var qualityValues = map[QualityTier]float64{
	QualityLow:    0.33,
	QualityMedium: 0.66,
	QualityHigh:   1.0,
}

// Feature block boundaries within the vector.
const (
	idxComplexity   = 0
	idxDomainStart  = 1 // 6 one-hot slots
	idxFlagsStart   = 7 // tools, knowledge, reasoning, iteration
	idxQuality      = 11
	idxSteps        = 12
	idxRequirements = 13
)

// Vector returns the deterministic Dim-length embedding for a task analysis.
func Vector(a TaskAnalysis) []float64 {
	v := make([]float64, Dim)

	if c, ok := complexityValues[a.Complexity]; ok {
		v[idxComplexity] = c
	} else {
		v[idxComplexity] = complexityValues[ComplexitySimple]
	}

	if i, ok := domainIndex[a.Domain]; ok {
		v[idxDomainStart+i] = 1
	} else {
		v[idxDomainStart+domainIndex[DomainGeneral]] = 1
	}

	flags := []bool{a.RequiresTools, a.RequiresKnowledge, a.RequiresReasoning, a.RequiresIteration}
	for i, f := range flags {
		if f {
			v[idxFlagsStart+i] = 1
		}
	}

	if q, ok := qualityValues[a.Quality]; ok {
		v[idxQuality] = q
	} else {
		v[idxQuality] = qualityValues[QualityLow]
	}

	v[idxSteps] = capUnit(float64(a.EstimatedSteps) / 50)
	v[idxRequirements] = capUnit(float64(a.KeyRequirements) / 10)

	return v
}

// BlockWeights scales each feature block of the embedding. A zero value for
// any field means that block keeps its raw scale of 1.0 only when the whole
// struct is zero; use DefaultBlockWeights as a starting point otherwise.
type BlockWeights struct {
	Complexity   float64
	Domain       float64
	Flags        float64
	Quality      float64
	Steps        float64
	Requirements float64
}

// DefaultBlockWeights favors the quality tier and the capability flags
// (reasoning and tool use in particular discriminate well between tasks).
func DefaultBlockWeights() BlockWeights {
	return BlockWeights{
		Complexity:   1.0,
		Domain:       1.0,
		Flags:        1.5,
		Quality:      2.0,
		Steps:        1.0,
		Requirements: 1.0,
	}
}

// WeightedVector returns the embedding with each feature block multiplied by
// its block weight.
func WeightedVector(a TaskAnalysis, w BlockWeights) []float64 {
	v := Vector(a)

	v[idxComplexity] *= w.Complexity
	for i := 0; i < 6; i++ {
		v[idxDomainStart+i] *= w.Domain
	}
	for i := 0; i < 4; i++ {
		v[idxFlagsStart+i] *= w.Flags
	}
	v[idxQuality] *= w.Quality
	v[idxSteps] *= w.Steps
	v[idxRequirements] *= w.Requirements

	return v
}

func capUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < 0 {
		return 0
	}
	return x
}
