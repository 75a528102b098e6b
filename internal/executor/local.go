package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/retrieval"
	"github.com/fyrsmithlabs/taskd/internal/router"
	"github.com/fyrsmithlabs/taskd/internal/tools"
)

const localSystemPrompt = `You are an execution agent completing one step of a larger task.
Use the available tools to carry out the step. When the step is done, reply
with a plain text summary of what was accomplished and any produced output.
Do not ask clarifying questions.`

// capabilitySearcher is the slice of the retrieval service adapters use.
type capabilitySearcher interface {
	Search(ctx context.Context, kind retrieval.Kind, query string, topK int) ([]retrieval.Result, error)
}

// LocalAdapter executes steps with tools from the in-process registry. Tool
// selection goes through the retrieval index so the model only sees tools
// relevant to the step.
type LocalAdapter struct {
	client   chatClient
	registry *tools.Registry
	search   capabilitySearcher
	topK     int
	maxTurns int
	logger   *zap.Logger
}

// NewLocalAdapter creates an adapter over the tool registry. topK bounds how
// many tools retrieval surfaces per step; maxTurns bounds the tool loop.
func NewLocalAdapter(client chatClient, registry *tools.Registry, search capabilitySearcher, topK, maxTurns int, logger *zap.Logger) *LocalAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = 5
	}
	return &LocalAdapter{
		client:   client,
		registry: registry,
		search:   search,
		topK:     topK,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

func (a *LocalAdapter) ID() router.ExecutorID {
	return router.ExecutorLocal
}

func (a *LocalAdapter) Invoke(ctx context.Context, run *plan.RunState, step *plan.Step) (*Invocation, error) {
	selected := a.selectTools(ctx, step)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no local tools available for step %s", step.ID)
	}

	descs := make([]toolDesc, 0, len(selected))
	for _, t := range selected {
		descs = append(descs, toolDesc{
			name:        t.Name(),
			description: t.Description(),
			parameters:  t.Parameters(),
		})
	}

	call := func(ctx context.Context, name, args string) (string, error) {
		tool := a.registry.Get(name)
		if tool == nil {
			return "", fmt.Errorf("tool %s not found", name)
		}
		return tool.Execute(ctx, args)
	}

	return toolLoop(ctx, a.client, localSystemPrompt, stepPrompt(step), toolDefs(descs), call, a.maxTurns, a.logger)
}

// selectTools resolves the step to registry tools via the index, falling
// back to the full registry when nothing is indexed.
func (a *LocalAdapter) selectTools(ctx context.Context, step *plan.Step) []tools.Tool {
	hits, err := a.search.Search(ctx, retrieval.KindLocalTool, stepQuery(step), a.topK)
	if err != nil {
		a.logger.Warn("tool retrieval failed, using full registry",
			zap.String("step_id", step.ID),
			zap.Error(err))
		return a.registry.All()
	}
	if len(hits) == 0 {
		return a.registry.All()
	}
	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.Capability.Name)
	}
	selected := a.registry.GetMany(names)
	if len(selected) == 0 {
		return a.registry.All()
	}
	return selected
}

// stepQuery builds the retrieval query for a step.
func stepQuery(step *plan.Step) string {
	if len(step.Requirements) == 0 {
		return step.Description
	}
	return step.Description + " " + strings.Join(step.Requirements, " ")
}

// stepPrompt renders a step as the user message for an execution loop.
func stepPrompt(step *plan.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\nStep: %s\n", step.Role, step.Description)
	if len(step.Requirements) > 0 {
		b.WriteString("Requirements:\n")
		for _, r := range step.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}
