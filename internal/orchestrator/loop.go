package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

// Options tunes a run.
type Options struct {
	// MaxPlanRetries bounds how many times a run may replan.
	MaxPlanRetries int
	// StepTimeout is the deadline applied to each dispatch. Zero disables
	// the per-step deadline.
	StepTimeout time.Duration
}

// Orchestrator runs tasks to completion.
type Orchestrator struct {
	planner    Planner
	classifier Classifier
	dispatcher Dispatcher
	reflector  Reflector
	opts       Options
	metrics    *Metrics
	logger     *zap.Logger
}

// New creates an orchestrator over the four collaborators.
func New(planner Planner, classifier Classifier, dispatcher Dispatcher, reflector Reflector, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		planner:    planner,
		classifier: classifier,
		dispatcher: dispatcher,
		reflector:  reflector,
		opts:       opts,
		metrics:    NewMetrics(logger),
		logger:     logger,
	}
}

// Run executes the task and returns its terminal result. The only error Run
// returns is context cancellation; every collaborator failure is absorbed
// into the result instead.
func (o *Orchestrator) Run(ctx context.Context, task string) (*Result, error) {
	start := time.Now()
	run := plan.NewRunState(plan.NewPlan(task, o.opts.MaxPlanRetries))
	run.AppendMessage(plan.RoleUser, task)

	var (
		current      *plan.Step
		execID       router.ExecutorID
		priorContext string
		failed       bool
	)

	state := phasePlanning
	for state != phaseDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case phasePlanning:
			steps, err := o.planner.Plan(ctx, task, priorContext)
			if err != nil {
				run.AppendMessage(plan.RoleSystem, fmt.Sprintf("Planning failed: %v. The task cannot proceed.", err))
				o.logger.Error("planning failed", zap.Error(err))
				failed = true
				state = phaseDone
				continue
			}
			if len(steps) == 0 {
				run.AppendMessage(plan.RoleSystem, "Planning produced no steps. The task cannot proceed.")
				failed = true
				state = phaseDone
				continue
			}
			next := plan.NewPlan(task, o.opts.MaxPlanRetries)
			next.Steps = steps
			run.InstallPlan(next)
			o.logger.Info("plan installed",
				zap.String("plan_id", next.ID),
				zap.Int("steps", len(steps)),
				zap.Int("plan_retry_count", next.PlanRetryCount))
			state = phaseClassifying

		case phaseClassifying:
			step, ok := run.CurrentStep()
			if !ok {
				state = phaseDone
				continue
			}
			current = step
			decision := o.classifier.Classify(ctx, step)
			step.SetCategory(decision.Category)
			if decision.SuggestedTool != "" {
				step.ToolName = decision.SuggestedTool
			}
			execID = router.Route(step.Category, run.Exhausted())
			if execID == router.ExecutorNone {
				state = phaseDone
				continue
			}
			o.logger.Debug("step classified",
				zap.String("step_id", step.ID),
				zap.String("category", string(step.Category)),
				zap.String("executor", string(execID)))
			state = phaseDispatching

		case phaseDispatching:
			stepCtx := ctx
			cancel := func() {}
			if o.opts.StepTimeout > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, o.opts.StepTimeout)
			}
			stepStart := time.Now()
			err := o.dispatcher.Dispatch(stepCtx, execID, run, current)
			cancel()
			o.metrics.RecordStep(ctx, string(execID), time.Since(stepStart), err)

			if current.Status == plan.StatusCompleted {
				run.AppendMessage(plan.RoleAssistant, current.Result)
				run.Advance()
				if run.Exhausted() {
					state = phaseDone
				} else {
					state = phaseClassifying
				}
				continue
			}
			// Cursor stays on the failed step.
			state = phaseReflecting

		case phaseReflecting:
			o.reflector.Reflect(ctx, run, current)
			action := run.TakeNextAction()
			o.metrics.RecordEscalation(ctx, string(action))
			switch action {
			case plan.ActionRetry:
				state = phaseClassifying
			case plan.ActionReplan:
				if msg, ok := run.LastMessage(); ok {
					priorContext = msg.Content
				}
				state = phasePlanning
			default:
				failed = true
				state = phaseDone
			}
		}
	}

	result := o.finalize(run, failed)
	o.metrics.RecordRun(ctx, result.Completed, time.Since(start))
	o.logger.Info("run finished",
		zap.Bool("completed", result.Completed),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// finalize stamps the terminal status on the plan and builds the result.
func (o *Orchestrator) finalize(run *plan.RunState, failed bool) *Result {
	p := run.Plan
	completed := !failed && run.Exhausted() && len(p.Steps) > 0

	if completed {
		p.Status = plan.StatusCompleted
		p.Summary = lastCompletedResult(p)
		run.AppendMessage(plan.RoleSystem, "All steps completed.")
	} else {
		p.Status = plan.StatusFailed
		if msg, ok := run.LastMessage(); ok {
			p.Summary = msg.Content
		}
	}

	return &Result{
		Plan:      p,
		Messages:  run.Messages(),
		Completed: completed,
		Summary:   p.Summary,
	}
}

func lastCompletedResult(p *plan.Plan) string {
	for i := len(p.Steps) - 1; i >= 0; i-- {
		if p.Steps[i].Status == plan.StatusCompleted {
			return p.Steps[i].Result
		}
	}
	return ""
}
