// Package meta picks a learning strategy and its hyperparameters for new
// tasks from few examples, and tunes a learning-rate parameter over time.
//
// The learner maintains a fixed set of candidate strategies, each with
// exponential-moving-average success-rate and sample-efficiency metrics
// updated whenever an episode completes. SelectAlgorithm scores the
// candidates against those metrics plus each strategy's track record near
// the task at hand; FewShotAdapt goes further, extracting meta-features
// from a handful of examples, voting among strategies that succeeded on
// similar past episodes, and deriving hyperparameters from the examples'
// complexity. Every adaptation episode is recorded to the history store
// under the "meta_learner" agent so later episodes can learn from it.
//
// OptimizeLearningRate fits a least-squares trend over recent quality
// scores and nudges the learning rate up when quality is climbing, down
// when it is falling, and gently up when it is flat.
package meta
