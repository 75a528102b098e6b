package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

const codegenPromptTemplate = `Write a standalone script that accomplishes the step below.
The script runs once with no arguments and no network credentials. It must
print its result to stdout and exit nonzero on failure. Output ONLY the
script source, with no explanation and no markdown fences.

%s`

// completionClient is the slice of the LLM client used for one-shot prompts.
type completionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// scriptRunner executes a script and returns its output.
type scriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// CodegenAdapter asks the model to write a script for the step and runs it
// in the sandbox. The script output becomes the step result.
type CodegenAdapter struct {
	client  completionClient
	sandbox scriptRunner
	logger  *zap.Logger
}

// NewCodegenAdapter creates a code-generation adapter over the sandbox.
func NewCodegenAdapter(client completionClient, sandbox scriptRunner, logger *zap.Logger) *CodegenAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodegenAdapter{client: client, sandbox: sandbox, logger: logger}
}

func (a *CodegenAdapter) ID() router.ExecutorID {
	return router.ExecutorCodegen
}

func (a *CodegenAdapter) Invoke(ctx context.Context, run *plan.RunState, step *plan.Step) (*Invocation, error) {
	raw, err := a.client.Complete(ctx, fmt.Sprintf(codegenPromptTemplate, stepPrompt(step)))
	if err != nil {
		return nil, fmt.Errorf("generating script: %w", err)
	}
	script := stripFences(raw)
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("model returned an empty script")
	}

	a.logger.Debug("running generated script",
		zap.String("step_id", step.ID),
		zap.Int("script_bytes", len(script)))

	output, err := a.sandbox.Run(ctx, script)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(output) == "" {
		output = "script completed with no output"
	}
	return &Invocation{Output: output}, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, leaving other text untouched.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
