package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

const pureTextPromptTemplate = `You are completing one step of a larger task with reasoning and
writing alone. Produce the step's deliverable directly, with no preamble.

Overall task: %s

%s%s`

// PureTextAdapter completes steps that need no tools, feeding in the results
// of earlier completed steps as context.
type PureTextAdapter struct {
	client completionClient
	logger *zap.Logger
}

// NewPureTextAdapter creates a text-only adapter.
func NewPureTextAdapter(client completionClient, logger *zap.Logger) *PureTextAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PureTextAdapter{client: client, logger: logger}
}

func (a *PureTextAdapter) ID() router.ExecutorID {
	return router.ExecutorPureText
}

func (a *PureTextAdapter) Invoke(ctx context.Context, run *plan.RunState, step *plan.Step) (*Invocation, error) {
	prompt := fmt.Sprintf(pureTextPromptTemplate, run.Plan.Task, priorResults(run.Plan, step), stepPrompt(step))
	out, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("model returned an empty completion")
	}
	return &Invocation{Output: out}, nil
}

// priorResults renders the results of already completed steps, selected by
// status rather than position so replanned work is included.
func priorResults(p *plan.Plan, current *plan.Step) string {
	var b strings.Builder
	for _, s := range p.Steps {
		if s.ID == current.ID || s.Status != plan.StatusCompleted {
			continue
		}
		fmt.Fprintf(&b, "Result of %q: %s\n", s.Description, s.Result)
	}
	if b.Len() == 0 {
		return ""
	}
	return "Context from earlier steps:\n" + b.String() + "\n"
}
