// Package orchestrator drives a task from free-form text to a terminal
// outcome. It owns the run state for the duration of a run and sequences the
// collaborators: the planner produces steps, the classifier assigns each
// step a category, the router picks an executor, the dispatcher runs it, and
// on failure the escalation controller decides between retry, replan, and
// giving up.
//
// The loop is a state machine over five phases (planning, classifying,
// dispatching, reflecting, done). It is strictly sequential: one plan at a
// time, one step at a time. Collaborator failures never surface as faults;
// they are folded into step status, run messages, or a terminal result.
package orchestrator
