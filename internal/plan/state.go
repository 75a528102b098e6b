package plan

import "time"

// Role tags the author of a run-state message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one entry in the run's append-only audit log.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NextAction is the transient signal emitted by the escalation controller and
// consumed exactly once by the orchestrator's routing logic.
type NextAction string

const (
	ActionNone   NextAction = "none"
	ActionRetry  NextAction = "retry"
	ActionReplan NextAction = "replan"
	ActionFail   NextAction = "fail"
)

// RunState is the per-execution container threaded through every component.
//
// The orchestrator loop exclusively owns the cursor and the next-action
// signal; all other components receive the already-resolved step. RunState is
// not safe for concurrent use; each run gets its own instance.
type RunState struct {
	// Plan is the current plan, owned by the orchestrator for the run.
	Plan *Plan

	cursor     int
	nextAction NextAction
	messages   []Message
}

// NewRunState creates run state positioned at the first step of p.
func NewRunState(p *Plan) *RunState {
	return &RunState{
		Plan:       p,
		nextAction: ActionNone,
	}
}

// AppendMessage appends a role-tagged entry to the audit log.
func (r *RunState) AppendMessage(role Role, content string) {
	r.messages = append(r.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Messages returns a copy of the audit log in append order.
func (r *RunState) Messages() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// LastMessage returns the most recent message, if any.
func (r *RunState) LastMessage() (Message, bool) {
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Cursor returns the zero-based index of the step to classify or execute
// next. Cursor == len(steps) means the plan is exhausted.
func (r *RunState) Cursor() int {
	return r.cursor
}

// Exhausted reports whether the cursor has moved past the last step.
func (r *RunState) Exhausted() bool {
	return r.Plan == nil || r.cursor >= len(r.Plan.Steps)
}

// CurrentStep resolves the step at the cursor. ok is false when the plan is
// exhausted or the cursor is otherwise out of range.
func (r *RunState) CurrentStep() (*Step, bool) {
	if r.Exhausted() || r.cursor < 0 {
		return nil, false
	}
	return r.Plan.Steps[r.cursor], true
}

// Advance moves the cursor forward by one. The cursor never moves backward
// within a plan.
func (r *RunState) Advance() {
	if r.cursor < len(r.Plan.Steps) {
		r.cursor++
	}
}

// SetNextAction records the escalation controller's signal.
func (r *RunState) SetNextAction(a NextAction) {
	r.nextAction = a
}

// TakeNextAction returns the pending signal and clears it, so each signal is
// consumed exactly once.
func (r *RunState) TakeNextAction() NextAction {
	a := r.nextAction
	r.nextAction = ActionNone
	return a
}

// InstallPlan replaces the plan after a replan. The cursor resets to the
// start of the new plan; the replacement carries the accumulated plan-level
// retry count so the replan budget spans the whole run.
func (r *RunState) InstallPlan(p *Plan) {
	if r.Plan != nil {
		p.PlanRetryCount = r.Plan.PlanRetryCount
		p.MaxPlanRetries = r.Plan.MaxPlanRetries
	}
	r.Plan = p
	r.cursor = 0
}
