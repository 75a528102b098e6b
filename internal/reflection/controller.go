package reflection

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
)

const hintPromptTemplate = `A task step failed. Diagnose the error and suggest one concrete
change that would let a retry succeed. Reply with the suggestion only, in one
or two sentences.

Step: %s
Requirements:
%s
Error: %s`

// analysisClient is the slice of the LLM client used for failure diagnosis.
type analysisClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Controller applies the two-level escalation policy to failed steps.
type Controller struct {
	client analysisClient
	logger *zap.Logger
}

// NewController creates an escalation controller. client may be nil, in
// which case retries proceed without fix hints.
func NewController(client analysisClient, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{client: client, logger: logger}
}

// Reflect inspects the failed step and records the next action on the run:
// retry while the step has budget, replan while the plan has budget, fail
// otherwise. Checks happen in that fixed order.
func (c *Controller) Reflect(ctx context.Context, run *plan.RunState, step *plan.Step) {
	switch {
	case step.RetryCount < step.MaxRetries:
		c.prepareRetry(ctx, run, step)
	case run.Plan.PlanRetryCount < run.Plan.MaxPlanRetries:
		c.prepareReplan(run, step)
	default:
		c.prepareFail(run, step)
	}
}

// prepareRetry folds the failure and a fix hint into the step's requirements
// and resets it for another attempt.
func (c *Controller) prepareRetry(ctx context.Context, run *plan.RunState, step *plan.Step) {
	step.AppendRequirement(fmt.Sprintf("Previous error: %s", step.Error))
	if hint := c.fixHint(ctx, step); hint != "" {
		step.AppendRequirement(fmt.Sprintf("Fix hint: %s", hint))
	}

	step.RetryCount++
	step.MarkPending()

	run.AppendMessage(plan.RoleSystem, fmt.Sprintf(
		"Step %q failed (%s). Retrying, attempt %d of %d.",
		step.Description, step.Error, step.RetryCount+1, step.MaxRetries+1))
	run.SetNextAction(plan.ActionRetry)

	c.logger.Info("step scheduled for retry",
		zap.String("step_id", step.ID),
		zap.Int("retry_count", step.RetryCount),
		zap.Int("max_retries", step.MaxRetries))
}

// prepareReplan charges the plan retry budget and asks for a fresh plan.
func (c *Controller) prepareReplan(run *plan.RunState, step *plan.Step) {
	run.Plan.PlanRetryCount++

	run.AppendMessage(plan.RoleSystem, fmt.Sprintf(
		"Step %q failed after %d attempts (%s). The current plan is not working; "+
			"produce a revised plan for the task that avoids this failure.",
		step.Description, step.RetryCount+1, step.Error))
	run.SetNextAction(plan.ActionReplan)

	c.logger.Warn("step retries exhausted, requesting replan",
		zap.String("step_id", step.ID),
		zap.Int("plan_retry_count", run.Plan.PlanRetryCount),
		zap.Int("max_plan_retries", run.Plan.MaxPlanRetries))
}

// prepareFail terminates escalation.
func (c *Controller) prepareFail(run *plan.RunState, step *plan.Step) {
	run.AppendMessage(plan.RoleSystem, fmt.Sprintf(
		"Step %q failed (%s) and all retry and replan budgets are exhausted. "+
			"The task cannot be completed.",
		step.Description, step.Error))
	run.SetNextAction(plan.ActionFail)

	c.logger.Error("escalation exhausted, failing run",
		zap.String("step_id", step.ID),
		zap.String("error", step.Error))
}

// fixHint asks the model for a one-line diagnosis. Analysis failures are
// logged and swallowed; a retry without a hint beats no retry.
func (c *Controller) fixHint(ctx context.Context, step *plan.Step) string {
	if c.client == nil {
		return ""
	}
	reqs := "- none"
	if len(step.Requirements) > 0 {
		reqs = "- " + strings.Join(step.Requirements, "\n- ")
	}
	hint, err := c.client.Complete(ctx, fmt.Sprintf(hintPromptTemplate, step.Description, reqs, step.Error))
	if err != nil {
		c.logger.Warn("failure analysis unavailable",
			zap.String("step_id", step.ID),
			zap.Error(err))
		return ""
	}
	return strings.TrimSpace(hint)
}
