package predict

import (
	"context"

	"github.com/zero-day-ai/adaptive/history"
)

// DefaultNeighbors is the neighbor count used when a call passes k <= 0.
const DefaultNeighbors = 10

// Estimate is one forecast: a point value with its observed range and the
// confidence of the neighborhood it came from.
type Estimate struct {
	// Value is the neighbor mean.
	Value float64

	// Min and Max bound the values observed among the neighbors.
	Min float64
	Max float64

	// Confidence is the mean neighbor similarity, in [0, 1].
	Confidence float64

	// Samples is the number of neighbors the estimate used. Zero means no
	// usable history; the other fields are zero-valued then.
	Samples int
}

// Forecast aggregates the three estimates for one task.
type Forecast struct {
	Duration Estimate
	Success  Estimate
	Quality  Estimate
}

// Predictor forecasts performance from a shared history store.
type Predictor struct {
	store *history.Store
}

// New creates a Predictor over the given store.
func New(store *history.Store) *Predictor {
	return &Predictor{store: store}
}

// Duration forecasts execution time in seconds for a task embedding.
// agentID restricts the neighborhood to one agent when non-empty.
func (p *Predictor) Duration(ctx context.Context, query []float64, agentID string, k int) Estimate {
	return p.estimate(ctx, query, agentID, k, func(r *history.Record) float64 {
		return r.Duration
	})
}

// Success forecasts the success probability for a task embedding.
func (p *Predictor) Success(ctx context.Context, query []float64, agentID string, k int) Estimate {
	return p.estimate(ctx, query, agentID, k, func(r *history.Record) float64 {
		if r.Success {
			return 1
		}
		return 0
	})
}

// Quality forecasts the quality score for a task embedding.
func (p *Predictor) Quality(ctx context.Context, query []float64, agentID string, k int) Estimate {
	return p.estimate(ctx, query, agentID, k, func(r *history.Record) float64 {
		return r.Quality
	})
}

// Predict runs all three forecasts over the same neighborhood parameters.
func (p *Predictor) Predict(ctx context.Context, query []float64, agentID string, k int) Forecast {
	return Forecast{
		Duration: p.Duration(ctx, query, agentID, k),
		Success:  p.Success(ctx, query, agentID, k),
		Quality:  p.Quality(ctx, query, agentID, k),
	}
}

// RecordPerformance appends an execution outcome to the backing store.
func (p *Predictor) RecordPerformance(ctx context.Context, rec history.Record) error {
	return p.store.Record(ctx, rec)
}

func (p *Predictor) estimate(ctx context.Context, query []float64, agentID string, k int, value func(*history.Record) float64) Estimate {
	if k <= 0 {
		k = DefaultNeighbors
	}
	neighbors := p.store.FindSimilar(ctx, query, k, history.Filter{AgentID: agentID})
	if len(neighbors) == 0 {
		return Estimate{}
	}

	est := Estimate{Samples: len(neighbors)}
	est.Min = value(&neighbors[0].Record)
	est.Max = est.Min
	for i := range neighbors {
		v := value(&neighbors[i].Record)
		est.Value += v
		if v < est.Min {
			est.Min = v
		}
		if v > est.Max {
			est.Max = v
		}
		est.Confidence += neighbors[i].Similarity
	}
	n := float64(len(neighbors))
	est.Value /= n
	est.Confidence /= n
	return est
}
