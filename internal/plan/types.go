package plan

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the execution status of a step or plan.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Category is the execution-strategy label assigned to a step by the
// classifier. It determines which executor adapter handles the step.
type Category string

const (
	// CategoryLocal routes to the local tool executor.
	CategoryLocal Category = "local"

	// CategoryRemote routes to the remote MCP service executor.
	CategoryRemote Category = "remote"

	// CategoryGeneratedCode routes to the sandboxed code executor.
	CategoryGeneratedCode Category = "generated-code"

	// CategoryPureText routes to the plain text-generation executor.
	// Unrecognized categories fall back here.
	CategoryPureText Category = "pure-text"
)

// KnownCategories returns all recognized categories.
func KnownCategories() []Category {
	return []Category{CategoryLocal, CategoryRemote, CategoryGeneratedCode, CategoryPureText}
}

// Known reports whether c is one of the four recognized categories.
func (c Category) Known() bool {
	switch c {
	case CategoryLocal, CategoryRemote, CategoryGeneratedCode, CategoryPureText:
		return true
	}
	return false
}

// Step is one unit of work in a plan.
//
// The planner sets Role, Description, and the initial Requirements. The
// classifier sets Category (and may overwrite it on reclassification). The
// executor adapters own Result, Error, ToolName, and ToolArgs. The escalation
// controller appends to Requirements and increments RetryCount.
type Step struct {
	// ID is an opaque unique identifier, assigned at creation, immutable.
	ID string `json:"id"`

	// Role is a free-text persona description guiding backend behavior.
	// Set by the planner, never mutated afterward.
	Role string `json:"role"`

	// Description is the task brief for this step.
	Description string `json:"description"`

	// Requirements are concrete constraints. Append-only: use
	// AppendRequirement so diagnostic hints accumulate across retries.
	Requirements []string `json:"requirements"`

	// Category is the execution strategy assigned by the classifier.
	Category Category `json:"category,omitempty"`

	// Status is the step lifecycle state.
	Status Status `json:"status"`

	// Result holds the backend output on success.
	Result string `json:"result,omitempty"`

	// Error holds a human-readable failure cause.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of subtask-level retries performed so far.
	// Incremented only by the escalation controller.
	RetryCount int `json:"retry_count"`

	// MaxRetries bounds subtask-level retries.
	MaxRetries int `json:"max_retries"`

	// ToolName records the concrete capability used, set on success.
	ToolName string `json:"tool_name,omitempty"`

	// ToolArgs records the arguments or payload of the capability used.
	ToolArgs string `json:"tool_args,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStep creates a pending step with a fresh ID.
func NewStep(role, description string, requirements []string, maxRetries int) *Step {
	now := time.Now()
	return &Step{
		ID:           uuid.NewString(),
		Role:         role,
		Description:  description,
		Requirements: requirements,
		Status:       StatusPending,
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AppendRequirement appends a constraint or diagnostic hint. Requirements are
// never replaced or truncated.
func (s *Step) AppendRequirement(req string) {
	s.Requirements = append(s.Requirements, req)
	s.touch()
}

// SetCategory records the classifier's decision. May be called again on
// reclassification after a retry.
func (s *Step) SetCategory(c Category) {
	s.Category = c
	s.touch()
}

// MarkRunning transitions the step to running for the duration of one
// executor invocation.
func (s *Step) MarkRunning() {
	s.Status = StatusRunning
	s.touch()
}

// MarkCompleted records a successful outcome. Any prior error is cleared so
// result and error stay mutually exclusive.
func (s *Step) MarkCompleted(result string) {
	s.Result = result
	s.Error = ""
	s.Status = StatusCompleted
	s.touch()
}

// MarkFailed records a failed outcome with a human-readable cause.
func (s *Step) MarkFailed(cause string) {
	s.Error = cause
	s.Status = StatusFailed
	s.touch()
}

// MarkPending resets the step for another executor attempt. Used by the
// escalation controller on a subtask retry.
func (s *Step) MarkPending() {
	s.Status = StatusPending
	s.touch()
}

func (s *Step) touch() {
	s.UpdatedAt = time.Now()
}

// Plan is an ordered sequence of steps plus plan-level control state.
type Plan struct {
	// ID identifies this plan instance. A replan produces a new plan with a
	// new ID.
	ID string `json:"id"`

	// Task is the original user request, immutable for the plan's lifetime.
	Task string `json:"task"`

	// Steps in insertion order; insertion order is execution order.
	Steps []*Step `json:"steps"`

	// PlanRetryCount counts plan-level replans. Carried forward into the
	// replacement plan on replan.
	PlanRetryCount int `json:"plan_retry_count"`

	// MaxPlanRetries bounds plan-level replans.
	MaxPlanRetries int `json:"max_plan_retries"`

	// Status and Summary are terminal bookkeeping, set only when the
	// orchestrator loop ends.
	Status  Status `json:"status"`
	Summary string `json:"summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewPlan creates an empty pending plan for the given task.
func NewPlan(task string, maxPlanRetries int) *Plan {
	return &Plan{
		ID:             uuid.NewString(),
		Task:           task,
		MaxPlanRetries: maxPlanRetries,
		Status:         StatusPending,
		CreatedAt:      time.Now(),
	}
}
