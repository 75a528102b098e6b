// Package planner turns a free-form task into an ordered step sequence by
// prompting a text-completion model for structured output.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/llm"
	"github.com/fyrsmithlabs/taskd/internal/plan"
)

const planPromptTemplate = `Decompose the task below into an ordered list of sub-tasks. Each
sub-task must be independently executable and small enough for a single
agent. Respond with ONLY a JSON array, where each element is an object with
the keys "role" (the persona executing the sub-task), "description" (what to
do), and "requirements" (an array of concrete constraints, possibly empty).

Task: %s%s`

var (
	// ErrNoSteps indicates the model produced a plan with no steps.
	ErrNoSteps = errors.New("planner: model returned no steps")
)

// completionClient is the slice of the LLM client the planner uses.
type completionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service produces plans for tasks.
type Service struct {
	client         completionClient
	stepMaxRetries int
	logger         *zap.Logger
}

// NewService creates a planner. stepMaxRetries is the retry budget assigned
// to every step it produces.
func NewService(client completionClient, stepMaxRetries int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, stepMaxRetries: stepMaxRetries, logger: logger}
}

type rawStep struct {
	Role         string   `json:"role"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

// Plan asks the model to decompose the task. priorContext carries replan
// feedback and is empty on the first attempt. An unparseable response or an
// empty step list is an error; the caller decides whether that is terminal.
func (s *Service) Plan(ctx context.Context, task, priorContext string) ([]*plan.Step, error) {
	extra := ""
	if priorContext != "" {
		extra = "\n\nContext from the previous attempt:\n" + priorContext
	}

	raw, err := s.client.Complete(ctx, fmt.Sprintf(planPromptTemplate, task, extra))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	var parsed []rawStep
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("planner: parsing model output: %w", err)
	}

	steps := make([]*plan.Step, 0, len(parsed))
	for _, r := range parsed {
		if strings.TrimSpace(r.Description) == "" {
			continue
		}
		role := r.Role
		if strings.TrimSpace(role) == "" {
			role = "generalist"
		}
		steps = append(steps, plan.NewStep(role, r.Description, r.Requirements, s.stepMaxRetries))
	}
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	s.logger.Info("plan produced",
		zap.String("task", task),
		zap.Int("steps", len(steps)),
		zap.Bool("replan", priorContext != ""))
	return steps, nil
}
