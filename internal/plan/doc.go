// Package plan defines the task decomposition data model: steps, plans, and
// the per-run state container threaded through the orchestrator.
//
// # Overview
//
// A Plan is an ordered sequence of Steps produced by the planner. Step order
// is execution order; the run state's cursor indexes into it. Steps carry
// their own lifecycle (pending, running, completed, failed, skipped), retry
// accounting, and the category assigned by the classifier.
//
// The package holds pure data plus a small number of behavioral rules:
//
//   - Step requirements are append-only. Diagnostic hints accumulate across
//     retries without losing the original constraints.
//   - A completed step has a result and no error; a failed step has an error.
//     The Mark* transitions enforce this.
//   - RunState messages are an append-only, role-tagged audit log. They are
//     never truncated or reordered.
//
// RunState is owned exclusively by the orchestrator loop for the duration of
// a run. Concurrent runs must each have their own RunState.
package plan
