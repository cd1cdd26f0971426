package adaptive

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/adaptive/active"
	"github.com/zero-day-ai/adaptive/ensemble"
	"github.com/zero-day-ai/adaptive/history"
	"github.com/zero-day-ai/adaptive/meta"
	"github.com/zero-day-ai/adaptive/predict"
	"github.com/zero-day-ai/adaptive/promptopt"
	"github.com/zero-day-ai/adaptive/transfer"
)

// Engine wires every learning component around one shared history store.
// Construct it once and share it; all components observe each other's
// recorded outcomes through the store.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	snapshot history.SnapshotStore
	store    *history.Store

	predictor *predict.Predictor
	combiner  *ensemble.Combiner
	transfer  *transfer.Engine
	selector  *active.Selector
	learner   *meta.Learner
	optimizer *promptopt.Optimizer
}

// New constructs an Engine from the provided options. Configuration errors
// (unreadable config file, unknown strategy names) fail construction;
// a missing or corrupt snapshot does not.
func New(opts ...Option) (*Engine, error) {
	ec := engineConfig{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&ec)
	}
	if ec.logger == nil {
		ec.logger = slog.Default()
	}
	if ec.tracer == nil {
		ec.tracer = noop.NewTracerProvider().Tracer("adaptive")
	}

	cfg := ec.config
	if ec.configPath != "" {
		loaded, err := LoadConfig(ec.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	snapshot, err := buildSnapshot(ec, cfg)
	if err != nil {
		return nil, err
	}

	store, err := history.New(snapshot, history.Options{
		MaxSize:      cfg.History.MaxSize,
		AutoPersist:  cfg.History.AutoPersist,
		HalfLifeDays: cfg.History.HalfLifeDays,
		RankWeights: history.RankWeights{
			SuccessRate: cfg.History.RankWeights.SuccessRate,
			Quality:     cfg.History.RankWeights.Quality,
			Similarity:  cfg.History.RankWeights.Similarity,
		},
		ThresholdStdDevOffset: cfg.History.ThresholdStdDevOffset,
		Logger:                ec.logger,
		Tracer:                ec.tracer,
	})
	if err != nil {
		return nil, NewStorageError("Engine.New", err)
	}

	combiner, err := ensemble.New(store, ensemble.Options{
		Strategy: cfg.Ensemble.Strategy,
		HistoryK: cfg.Ensemble.HistoryK,
		Logger:   ec.logger,
	})
	if err != nil {
		return nil, NewConfigurationError("Engine.New", err)
	}

	selector, err := active.New(store, active.Options{
		Strategy:  cfg.Active.Strategy,
		Threshold: cfg.Active.Threshold,
		Logger:    ec.logger,
	})
	if err != nil {
		return nil, NewConfigurationError("Engine.New", err)
	}

	return &Engine{
		cfg:       cfg,
		logger:    ec.logger,
		snapshot:  snapshot,
		store:     store,
		predictor: predict.New(store),
		combiner:  combiner,
		transfer: transfer.New(store, transfer.Options{
			MinQuality:          cfg.Transfer.MinQuality,
			MaxSamples:          cfg.Transfer.MaxSamples,
			SimilarityThreshold: cfg.Transfer.SimilarityThreshold,
			DiversityCutoff:     cfg.Transfer.DiversityCutoff,
			Logger:              ec.logger,
		}),
		selector: selector,
		learner: meta.New(store, meta.Options{
			Alpha:        cfg.Meta.Alpha,
			LearningRate: cfg.Meta.LearningRate,
			Logger:       ec.logger,
		}),
		optimizer: promptopt.New(store, ec.generator, promptopt.Options{
			HistoryK:   cfg.Prompt.HistoryK,
			MinQuality: cfg.Prompt.MinQuality,
			Logger:     ec.logger,
		}),
	}, nil
}

// buildSnapshot resolves the snapshot backend: an explicit store wins, then
// redis_url, then snapshot_path, then in-memory.
func buildSnapshot(ec engineConfig, cfg Config) (history.SnapshotStore, error) {
	if ec.snapshot != nil {
		return ec.snapshot, nil
	}
	if cfg.History.RedisURL != "" {
		rs, err := history.NewRedisStore(history.RedisOptions{
			URL: cfg.History.RedisURL,
			Key: cfg.History.RedisKey,
		})
		if err != nil {
			return nil, NewConfigurationError("Engine.New", err)
		}
		return rs, nil
	}
	if cfg.History.SnapshotPath != "" {
		return history.NewFileStore(cfg.History.SnapshotPath), nil
	}
	return history.NewMemStore(), nil
}

// History returns the shared history store.
func (e *Engine) History() *history.Store { return e.store }

// Predictor returns the performance predictor.
func (e *Engine) Predictor() *predict.Predictor { return e.predictor }

// Combiner returns the ensemble combiner.
func (e *Engine) Combiner() *ensemble.Combiner { return e.combiner }

// Transfer returns the transfer engine.
func (e *Engine) Transfer() *transfer.Engine { return e.transfer }

// Selector returns the active-learning selector.
func (e *Engine) Selector() *active.Selector { return e.selector }

// Learner returns the meta-learner.
func (e *Engine) Learner() *meta.Learner { return e.learner }

// Optimizer returns the prompt optimizer.
func (e *Engine) Optimizer() *promptopt.Optimizer { return e.optimizer }

// Config returns the resolved engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Save persists the full history snapshot.
func (e *Engine) Save(ctx context.Context) error {
	if err := e.store.Save(ctx); err != nil {
		return NewStorageError("Engine.Save", err)
	}
	return nil
}

// Reload re-reads the snapshot, replacing the in-memory history. Needed to
// observe mutations made by another process.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.store.Reload(ctx); err != nil {
		return NewStorageError("Engine.Reload", err)
	}
	return nil
}

// Close flushes the history snapshot and releases the snapshot backend if
// it holds resources (the Redis backend does).
func (e *Engine) Close(ctx context.Context) error {
	err := e.Save(ctx)
	if closer, ok := e.snapshot.(io.Closer); ok {
		CloseWithLog(closer, e.logger, "snapshot store")
	}
	return err
}
