package adaptive

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the engine. Zero-valued fields are filled
// from DefaultConfig, so a partial YAML file only needs the values it
// changes.
type Config struct {
	History  HistoryConfig  `yaml:"history"`
	Ensemble EnsembleConfig `yaml:"ensemble"`
	Transfer TransferConfig `yaml:"transfer"`
	Active   ActiveConfig   `yaml:"active"`
	Meta     MetaConfig     `yaml:"meta"`
	Prompt   PromptConfig   `yaml:"prompt"`
}

// HistoryConfig tunes the shared history store and its snapshot backend.
type HistoryConfig struct {
	// MaxSize bounds stored records; older records are evicted first.
	MaxSize int `yaml:"max_size"`

	// HalfLifeDays is the temporal decay half-life for similarity queries.
	HalfLifeDays float64 `yaml:"half_life_days"`

	// AutoPersist writes the snapshot after every mutation.
	AutoPersist bool `yaml:"auto_persist"`

	// ThresholdStdDevOffset is subtracted (times the standard deviation)
	// from the mean when deriving the adaptive quality threshold.
	ThresholdStdDevOffset float64 `yaml:"threshold_std_dev_offset"`

	// RankWeights weight the agent ranking score.
	RankWeights RankWeightsConfig `yaml:"rank_weights"`

	// SnapshotPath, when set, persists the snapshot to this file.
	SnapshotPath string `yaml:"snapshot_path"`

	// RedisURL, when set, persists the snapshot to Redis instead of a
	// file. Takes precedence over SnapshotPath.
	RedisURL string `yaml:"redis_url"`

	// RedisKey overrides the Redis key holding the snapshot.
	RedisKey string `yaml:"redis_key"`
}

// RankWeightsConfig holds the agent ranking coefficients.
type RankWeightsConfig struct {
	SuccessRate float64 `yaml:"success_rate"`
	Quality     float64 `yaml:"quality"`
	Similarity  float64 `yaml:"similarity"`
}

// EnsembleConfig tunes the ensemble combiner.
type EnsembleConfig struct {
	// Strategy is the default combination strategy.
	Strategy string `yaml:"strategy"`

	// HistoryK is the neighborhood size for historical agent weights.
	HistoryK int `yaml:"history_k"`
}

// TransferConfig tunes the transfer engine.
type TransferConfig struct {
	MinQuality          float64 `yaml:"min_quality"`
	MaxSamples          int     `yaml:"max_samples"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	DiversityCutoff     float64 `yaml:"diversity_cutoff"`
}

// ActiveConfig tunes the active-learning selector.
type ActiveConfig struct {
	// Strategy is the uncertainty sampling strategy.
	Strategy string `yaml:"strategy"`

	// Threshold is the uncertainty level at or above which a task is
	// queued for human feedback.
	Threshold float64 `yaml:"threshold"`
}

// MetaConfig tunes the meta-learner.
type MetaConfig struct {
	// Alpha is the EMA smoothing factor for strategy metrics.
	Alpha float64 `yaml:"alpha"`

	// LearningRate is the initial tunable learning rate.
	LearningRate float64 `yaml:"learning_rate"`
}

// PromptConfig tunes the prompt optimizer.
type PromptConfig struct {
	HistoryK   int     `yaml:"history_k"`
	MinQuality float64 `yaml:"min_quality"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		History: HistoryConfig{
			MaxSize:               1000,
			HalfLifeDays:          30,
			ThresholdStdDevOffset: 0.5,
			RankWeights:           RankWeightsConfig{SuccessRate: 0.4, Quality: 0.4, Similarity: 0.2},
		},
		Ensemble: EnsembleConfig{
			Strategy: "voting",
			HistoryK: 20,
		},
		Transfer: TransferConfig{
			MinQuality:          7.0,
			MaxSamples:          50,
			SimilarityThreshold: 0.85,
			DiversityCutoff:     0.8,
		},
		Active: ActiveConfig{
			Strategy:  "uncertainty",
			Threshold: 0.3,
		},
		Meta: MetaConfig{
			Alpha:        0.1,
			LearningRate: 0.01,
		},
		Prompt: PromptConfig{
			HistoryK:   20,
			MinQuality: 7.0,
		},
	}
}

// LoadConfig reads a YAML config file and fills unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, NewConfigurationError("LoadConfig", fmt.Errorf("reading %s: %w", path, err))
	}

	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, NewConfigurationError("LoadConfig", fmt.Errorf("parsing %s: %w", path, err))
	}
	return cfg.withDefaults(), nil
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.History.MaxSize == 0 {
		c.History.MaxSize = def.History.MaxSize
	}
	if c.History.HalfLifeDays == 0 {
		c.History.HalfLifeDays = def.History.HalfLifeDays
	}
	if c.History.ThresholdStdDevOffset == 0 {
		c.History.ThresholdStdDevOffset = def.History.ThresholdStdDevOffset
	}
	if c.History.RankWeights == (RankWeightsConfig{}) {
		c.History.RankWeights = def.History.RankWeights
	}
	if c.Ensemble.Strategy == "" {
		c.Ensemble.Strategy = def.Ensemble.Strategy
	}
	if c.Ensemble.HistoryK == 0 {
		c.Ensemble.HistoryK = def.Ensemble.HistoryK
	}
	if c.Transfer.MinQuality == 0 {
		c.Transfer.MinQuality = def.Transfer.MinQuality
	}
	if c.Transfer.MaxSamples == 0 {
		c.Transfer.MaxSamples = def.Transfer.MaxSamples
	}
	if c.Transfer.SimilarityThreshold == 0 {
		c.Transfer.SimilarityThreshold = def.Transfer.SimilarityThreshold
	}
	if c.Transfer.DiversityCutoff == 0 {
		c.Transfer.DiversityCutoff = def.Transfer.DiversityCutoff
	}
	if c.Active.Strategy == "" {
		c.Active.Strategy = def.Active.Strategy
	}
	if c.Active.Threshold == 0 {
		c.Active.Threshold = def.Active.Threshold
	}
	if c.Meta.Alpha == 0 {
		c.Meta.Alpha = def.Meta.Alpha
	}
	if c.Meta.LearningRate == 0 {
		c.Meta.LearningRate = def.Meta.LearningRate
	}
	if c.Prompt.HistoryK == 0 {
		c.Prompt.HistoryK = def.Prompt.HistoryK
	}
	if c.Prompt.MinQuality == 0 {
		c.Prompt.MinQuality = def.Prompt.MinQuality
	}
	return c
}
