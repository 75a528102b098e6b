// Package reflection decides what happens after a step fails.
//
// Failures escalate through two levels before a run gives up:
//   - Step retry: while the step has retry budget left, the controller asks
//     the model for a fix hint, folds the error and hint into the step's
//     requirements, and resets the step for another attempt.
//   - Replan: once step retries are spent, the controller signals the
//     orchestrator to request a fresh plan, while plan retry budget lasts.
//   - Fail: with both budgets spent, the run terminates as failed.
//
// The controller never executes anything itself. It mutates the failed step
// and the run's message log, and records the next action for the
// orchestrator to consume.
package reflection
