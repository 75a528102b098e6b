package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

var (
	// ErrNoAdapter indicates no adapter is registered for an executor ID.
	ErrNoAdapter = errors.New("executor: no adapter registered")
	// ErrEmptyOutput indicates an adapter returned a successful invocation
	// with no output.
	ErrEmptyOutput = errors.New("executor: empty output")
)

// Invocation is the successful result of running a step through an adapter.
type Invocation struct {
	// Output is the step result text.
	Output string
	// ToolName records the last tool or service used, when any was.
	ToolName string
	// ToolArgs records the arguments passed to that tool, JSON-encoded.
	ToolArgs string
}

// Adapter executes steps for one executor backend.
type Adapter interface {
	// ID reports which executor this adapter implements.
	ID() router.ExecutorID
	// Invoke runs the step and returns its result. Invoke must not change
	// step status; the dispatcher owns the lifecycle.
	Invoke(ctx context.Context, run *plan.RunState, step *plan.Step) (*Invocation, error)
}

// Dispatcher routes steps to adapters and applies status transitions.
type Dispatcher struct {
	adapters map[router.ExecutorID]Adapter
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given adapters.
func NewDispatcher(adapters []Adapter, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[router.ExecutorID]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ID()] = a
	}
	return &Dispatcher{adapters: m, logger: logger}
}

// Dispatch runs the step on the adapter registered for id. The step leaves
// in either the completed or failed state, never running. A missing adapter
// or an adapter panic counts as a step failure.
func (d *Dispatcher) Dispatch(ctx context.Context, id router.ExecutorID, run *plan.RunState, step *plan.Step) error {
	adapter, ok := d.adapters[id]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoAdapter, id)
		step.MarkFailed(err.Error())
		return err
	}

	if got := router.Route(step.Category, false); got != id {
		d.logger.Warn("executor does not match step category",
			zap.String("step_id", step.ID),
			zap.String("category", string(step.Category)),
			zap.String("executor", string(id)))
	}

	step.MarkRunning()
	d.logger.Info("dispatching step",
		zap.String("step_id", step.ID),
		zap.String("executor", string(id)),
		zap.Int("retry_count", step.RetryCount))

	inv, err := d.invoke(ctx, adapter, run, step)
	if err != nil {
		step.MarkFailed(err.Error())
		d.logger.Warn("step failed",
			zap.String("step_id", step.ID),
			zap.String("executor", string(id)),
			zap.Error(err))
		return err
	}
	if inv == nil || inv.Output == "" {
		err := ErrEmptyOutput
		step.MarkFailed(err.Error())
		return err
	}

	step.ToolName = inv.ToolName
	step.ToolArgs = inv.ToolArgs
	step.MarkCompleted(inv.Output)
	d.logger.Info("step completed",
		zap.String("step_id", step.ID),
		zap.String("executor", string(id)))
	return nil
}

// invoke isolates adapter panics so a crashing backend reads as a failure.
func (d *Dispatcher) invoke(ctx context.Context, adapter Adapter, run *plan.RunState, step *plan.Step) (inv *Invocation, err error) {
	defer func() {
		if r := recover(); r != nil {
			inv = nil
			err = fmt.Errorf("executor %s panicked: %v", adapter.ID(), r)
		}
	}()
	return adapter.Invoke(ctx, run, step)
}
