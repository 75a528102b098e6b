package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(task string, n int) *Plan {
	p := NewPlan(task, 2)
	for i := 0; i < n; i++ {
		p.Steps = append(p.Steps, NewStep("role", "step", nil, 3))
	}
	return p
}

func TestRunStateCursor(t *testing.T) {
	run := NewRunState(testPlan("task", 2))

	step, ok := run.CurrentStep()
	require.True(t, ok)
	assert.Same(t, run.Plan.Steps[0], step)
	assert.False(t, run.Exhausted())

	run.Advance()
	step, ok = run.CurrentStep()
	require.True(t, ok)
	assert.Same(t, run.Plan.Steps[1], step)

	run.Advance()
	assert.True(t, run.Exhausted())
	assert.Equal(t, 2, run.Cursor())

	_, ok = run.CurrentStep()
	assert.False(t, ok)

	// Advancing past the end never pushes the cursor out of bounds.
	run.Advance()
	assert.Equal(t, 2, run.Cursor())
}

func TestRunStateMessagesAppendOnly(t *testing.T) {
	run := NewRunState(testPlan("task", 1))

	run.AppendMessage(RoleUser, "do the thing")
	run.AppendMessage(RoleSystem, "step failed, retrying")

	msgs := run.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "step failed, retrying", msgs[1].Content)

	// Messages() returns a copy; mutating it does not affect the log.
	msgs[0].Content = "tampered"
	fresh := run.Messages()
	assert.Equal(t, "do the thing", fresh[0].Content)

	last, ok := run.LastMessage()
	require.True(t, ok)
	assert.Equal(t, RoleSystem, last.Role)
}

func TestRunStateNextActionConsumedOnce(t *testing.T) {
	run := NewRunState(testPlan("task", 1))

	assert.Equal(t, ActionNone, run.TakeNextAction())

	run.SetNextAction(ActionRetry)
	assert.Equal(t, ActionRetry, run.TakeNextAction())
	assert.Equal(t, ActionNone, run.TakeNextAction())
}

func TestRunStateInstallPlanCarriesRetryBudget(t *testing.T) {
	first := testPlan("task", 3)
	first.PlanRetryCount = 1
	run := NewRunState(first)
	run.Advance()

	replacement := testPlan("task", 2)
	run.InstallPlan(replacement)

	assert.Equal(t, 0, run.Cursor())
	assert.Same(t, replacement, run.Plan)
	assert.Equal(t, 1, run.Plan.PlanRetryCount)
	assert.Equal(t, first.MaxPlanRetries, run.Plan.MaxPlanRetries)
}
