// Package ensemble merges multiple agents' outputs for one task into a
// single decision.
//
// Strategies are registered in an explicit table and implement the Strategy
// interface; selecting one by an unknown name is a configuration error at
// call time, never a silent fallback. Five strategies ship with the package:
//
//   - voting: majority vote over normalized successful outputs.
//   - weighted_voting: votes weighted by each agent's historical success
//     rate and quality from the history store.
//   - bagging: weighted voting over a bootstrap sample of the successful
//     results.
//   - stacking: per-result quality/iteration score scaled by the agent's
//     historical weight; maximum wins.
//   - best_of_n: pure quality/iteration score; maximum wins, with every
//     candidate's score retained in the decision details.
//
// A failing agent never aborts the combination: its error is captured as a
// failed sub-result and excluded from the vote. Only when every agent fails
// does Combine return an explicit failure result (still no error). After a
// combination the outcome is written back to the history store under the
// agent id "ensemble:<strategy>" so future weighting benefits from it.
package ensemble
