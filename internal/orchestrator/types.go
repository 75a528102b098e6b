package orchestrator

import (
	"context"

	"github.com/fyrsmithlabs/taskd/internal/classifier"
	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

// phase identifies a position in the run state machine.
type phase string

const (
	phasePlanning    phase = "planning"
	phaseClassifying phase = "classifying"
	phaseDispatching phase = "dispatching"
	phaseReflecting  phase = "reflecting"
	phaseDone        phase = "done"
)

// Planner produces the ordered step sequence for a task. priorContext is
// empty on the first attempt and carries replan feedback afterwards.
type Planner interface {
	Plan(ctx context.Context, task, priorContext string) ([]*plan.Step, error)
}

// Classifier assigns an execution category to a step. Implementations must
// not fail; classification degrades to pure-text instead.
type Classifier interface {
	Classify(ctx context.Context, step *plan.Step) classifier.Decision
}

// Dispatcher executes a step on the executor the router selected. The step
// leaves in the completed or failed state.
type Dispatcher interface {
	Dispatch(ctx context.Context, id router.ExecutorID, run *plan.RunState, step *plan.Step) error
}

// Reflector applies the escalation policy to a failed step, recording the
// next action on the run.
type Reflector interface {
	Reflect(ctx context.Context, run *plan.RunState, step *plan.Step)
}

// Result is the terminal outcome of a run.
type Result struct {
	// Plan is the final plan, including any replanned steps.
	Plan *plan.Plan
	// Messages is the full audit log of the run.
	Messages []plan.Message
	// Completed reports whether every step finished successfully.
	Completed bool
	// Summary is the user-facing outcome text.
	Summary string
}
