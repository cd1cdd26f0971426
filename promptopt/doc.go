// Package promptopt rewrites prompts using evidence from the shared history
// store and an external text generator.
//
// The Optimizer finds historical prompts that succeeded on tasks similar to
// the current one, hands the best of them to a TextGenerator alongside the
// prompt being improved, and parses the labeled sections of the response.
// Any failure along the way degrades to the original prompt with zero
// confidence rather than an error, so callers can always use the result.
//
//	opt := promptopt.New(store, gen, promptopt.Options{})
//	res := opt.Optimize(ctx, "fix the bug", taskVec)
//	fmt.Println(res.Prompt, res.Confidence)
//
// ComparePrompts ranks candidate prompts without calling the generator at
// all, using structural heuristics plus overlap with prompts that worked
// before.
package promptopt
