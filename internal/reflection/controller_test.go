package reflection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
)

type stubAnalysis struct {
	hint string
	err  error
}

func (s *stubAnalysis) Complete(ctx context.Context, prompt string) (string, error) {
	return s.hint, s.err
}

func failedRun(t *testing.T, maxRetries, retryCount, maxPlanRetries, planRetryCount int) (*plan.RunState, *plan.Step) {
	t.Helper()
	p := plan.NewPlan("build a report", maxPlanRetries)
	p.PlanRetryCount = planRetryCount
	step := plan.NewStep("analyst", "compute totals", []string{"use the Q3 data"}, maxRetries)
	step.RetryCount = retryCount
	step.MarkFailed("division by zero")
	p.Steps = append(p.Steps, step)
	return plan.NewRunState(p), step
}

func TestReflect_RetryWithHint(t *testing.T) {
	run, step := failedRun(t, 3, 0, 2, 0)
	c := NewController(&stubAnalysis{hint: "guard against empty input"}, zap.NewNop())

	c.Reflect(context.Background(), run, step)

	assert.Equal(t, plan.ActionRetry, run.TakeNextAction())
	assert.Equal(t, plan.StatusPending, step.Status)
	assert.Equal(t, 1, step.RetryCount)
	require.Len(t, step.Requirements, 3)
	assert.Equal(t, "Previous error: division by zero", step.Requirements[1])
	assert.Equal(t, "Fix hint: guard against empty input", step.Requirements[2])

	msg, ok := run.LastMessage()
	require.True(t, ok)
	assert.Equal(t, plan.RoleSystem, msg.Role)
	assert.Contains(t, msg.Content, "Retrying")
}

func TestReflect_RetryWhenAnalysisFails(t *testing.T) {
	run, step := failedRun(t, 3, 1, 2, 0)
	c := NewController(&stubAnalysis{err: errors.New("model offline")}, zap.NewNop())

	c.Reflect(context.Background(), run, step)

	assert.Equal(t, plan.ActionRetry, run.TakeNextAction())
	assert.Equal(t, 2, step.RetryCount)
	// Error is recorded, hint is absent.
	require.Len(t, step.Requirements, 2)
	assert.Contains(t, step.Requirements[1], "Previous error")
}

func TestReflect_RetryWithoutClient(t *testing.T) {
	run, step := failedRun(t, 3, 0, 2, 0)
	c := NewController(nil, zap.NewNop())

	c.Reflect(context.Background(), run, step)

	assert.Equal(t, plan.ActionRetry, run.TakeNextAction())
	require.Len(t, step.Requirements, 2)
}

func TestReflect_ReplanWhenStepBudgetSpent(t *testing.T) {
	run, step := failedRun(t, 2, 2, 2, 0)
	c := NewController(&stubAnalysis{hint: "unused"}, zap.NewNop())

	c.Reflect(context.Background(), run, step)

	assert.Equal(t, plan.ActionReplan, run.TakeNextAction())
	assert.Equal(t, 1, run.Plan.PlanRetryCount)
	assert.Equal(t, plan.StatusFailed, step.Status)
	assert.Equal(t, 2, step.RetryCount)

	msg, ok := run.LastMessage()
	require.True(t, ok)
	assert.Contains(t, msg.Content, "revised plan")
}

func TestReflect_FailWhenBothBudgetsSpent(t *testing.T) {
	run, step := failedRun(t, 2, 2, 2, 2)
	c := NewController(&stubAnalysis{hint: "unused"}, zap.NewNop())

	c.Reflect(context.Background(), run, step)

	assert.Equal(t, plan.ActionFail, run.TakeNextAction())
	assert.Equal(t, 2, run.Plan.PlanRetryCount)

	msg, ok := run.LastMessage()
	require.True(t, ok)
	assert.Contains(t, msg.Content, "cannot be completed")
}

func TestReflect_OrderStepRetryBeforeReplan(t *testing.T) {
	// Step budget remains even though plan budget also remains: step retry
	// wins.
	run, step := failedRun(t, 3, 1, 2, 1)
	c := NewController(nil, zap.NewNop())

	c.Reflect(context.Background(), run, step)

	assert.Equal(t, plan.ActionRetry, run.TakeNextAction())
	assert.Equal(t, 1, run.Plan.PlanRetryCount)
}
