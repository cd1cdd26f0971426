package adaptive

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/adaptive/history"
	"github.com/zero-day-ai/adaptive/promptopt"
)

// Option configures the Engine.
type Option func(*engineConfig)

// engineConfig holds configuration for an Engine instance.
type engineConfig struct {
	config     Config
	configPath string
	logger     *slog.Logger
	tracer     trace.Tracer
	snapshot   history.SnapshotStore
	generator  promptopt.TextGenerator
}

// WithConfig sets the engine configuration directly. Zero-valued fields are
// filled with defaults.
func WithConfig(cfg Config) Option {
	return func(c *engineConfig) {
		c.config = cfg.withDefaults()
	}
}

// WithConfigFile loads the engine configuration from a YAML file.
// Takes precedence over WithConfig.
func WithConfigFile(path string) Option {
	return func(c *engineConfig) {
		c.configPath = path
	}
}

// WithLogger sets a custom logger for the engine and every component it
// constructs. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for the history store's mutations
// and queries. This enables observability across the engine.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *engineConfig) {
		c.tracer = tracer
	}
}

// WithSnapshotStore sets the snapshot backend directly, overriding the
// snapshot_path and redis_url config fields. Useful for supplying a
// preconfigured store or an in-memory one for tests.
func WithSnapshotStore(snapshot history.SnapshotStore) Option {
	return func(c *engineConfig) {
		c.snapshot = snapshot
	}
}

// WithTextGenerator sets the external text-generation collaborator consumed
// by the prompt optimizer. Without one, prompt optimization degrades to
// returning original prompts.
func WithTextGenerator(gen promptopt.TextGenerator) Option {
	return func(c *engineConfig) {
		c.generator = gen
	}
}
