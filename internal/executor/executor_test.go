package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

type stubAdapter struct {
	id     router.ExecutorID
	inv    *Invocation
	err    error
	panics bool
}

func (s *stubAdapter) ID() router.ExecutorID { return s.id }

func (s *stubAdapter) Invoke(ctx context.Context, run *plan.RunState, step *plan.Step) (*Invocation, error) {
	if s.panics {
		panic("backend exploded")
	}
	return s.inv, s.err
}

func newRun(t *testing.T, category plan.Category) (*plan.RunState, *plan.Step) {
	t.Helper()
	p := plan.NewPlan("summarize the repo", 2)
	step := plan.NewStep("writer", "write a summary", nil, 3)
	step.SetCategory(category)
	p.Steps = append(p.Steps, step)
	return plan.NewRunState(p), step
}

func TestDispatcher_Success(t *testing.T) {
	run, step := newRun(t, plan.CategoryPureText)
	d := NewDispatcher([]Adapter{
		&stubAdapter{id: router.ExecutorPureText, inv: &Invocation{Output: "done", ToolName: "", ToolArgs: ""}},
	}, zap.NewNop())

	err := d.Dispatch(context.Background(), router.ExecutorPureText, run, step)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusCompleted, step.Status)
	assert.Equal(t, "done", step.Result)
	assert.Empty(t, step.Error)
}

func TestDispatcher_AdapterError(t *testing.T) {
	run, step := newRun(t, plan.CategoryLocal)
	d := NewDispatcher([]Adapter{
		&stubAdapter{id: router.ExecutorLocal, err: errors.New("tool unavailable")},
	}, zap.NewNop())

	err := d.Dispatch(context.Background(), router.ExecutorLocal, run, step)
	require.Error(t, err)
	assert.Equal(t, plan.StatusFailed, step.Status)
	assert.Contains(t, step.Error, "tool unavailable")
}

func TestDispatcher_MissingAdapter(t *testing.T) {
	run, step := newRun(t, plan.CategoryRemote)
	d := NewDispatcher(nil, zap.NewNop())

	err := d.Dispatch(context.Background(), router.ExecutorRemote, run, step)
	require.ErrorIs(t, err, ErrNoAdapter)
	assert.Equal(t, plan.StatusFailed, step.Status)
}

func TestDispatcher_PanicBecomesFailure(t *testing.T) {
	run, step := newRun(t, plan.CategoryLocal)
	d := NewDispatcher([]Adapter{
		&stubAdapter{id: router.ExecutorLocal, panics: true},
	}, zap.NewNop())

	err := d.Dispatch(context.Background(), router.ExecutorLocal, run, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, plan.StatusFailed, step.Status)
}

func TestDispatcher_EmptyOutputIsFailure(t *testing.T) {
	run, step := newRun(t, plan.CategoryPureText)
	d := NewDispatcher([]Adapter{
		&stubAdapter{id: router.ExecutorPureText, inv: &Invocation{}},
	}, zap.NewNop())

	err := d.Dispatch(context.Background(), router.ExecutorPureText, run, step)
	require.ErrorIs(t, err, ErrEmptyOutput)
	assert.Equal(t, plan.StatusFailed, step.Status)
}

// scriptedChat replays canned responses, one per Chat call.
type scriptedChat struct {
	responses []*llms.ContentResponse
	calls     int
}

func (s *scriptedChat) Chat(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("no scripted response left")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func textResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}
}

func toolCallResponse(name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:           "call-1",
				FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
			}},
		}},
	}
}

func TestToolLoop_DirectAnswer(t *testing.T) {
	chat := &scriptedChat{responses: []*llms.ContentResponse{textResponse("the answer")}}

	inv, err := toolLoop(context.Background(), chat, "sys", "user", nil, nil, 5, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "the answer", inv.Output)
	assert.Empty(t, inv.ToolName)
}

func TestToolLoop_OneToolCallThenAnswer(t *testing.T) {
	chat := &scriptedChat{responses: []*llms.ContentResponse{
		toolCallResponse("text_transform", `{"command":"upper","text":"hi"}`),
		textResponse("HI"),
	}}

	var gotName, gotArgs string
	call := func(ctx context.Context, name, args string) (string, error) {
		gotName, gotArgs = name, args
		return "HI", nil
	}

	inv, err := toolLoop(context.Background(), chat, "sys", "user", nil, call, 5, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "HI", inv.Output)
	assert.Equal(t, "text_transform", inv.ToolName)
	assert.Equal(t, "text_transform", gotName)
	assert.Contains(t, gotArgs, "upper")
}

func TestToolLoop_ToolErrorFedBack(t *testing.T) {
	chat := &scriptedChat{responses: []*llms.ContentResponse{
		toolCallResponse("broken", `{}`),
		textResponse("recovered without the tool"),
	}}

	call := func(ctx context.Context, name, args string) (string, error) {
		return "", errors.New("boom")
	}

	inv, err := toolLoop(context.Background(), chat, "sys", "user", nil, call, 5, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "recovered without the tool", inv.Output)
}

func TestToolLoop_MaxTurns(t *testing.T) {
	chat := &scriptedChat{responses: []*llms.ContentResponse{
		toolCallResponse("t", `{}`),
		toolCallResponse("t", `{}`),
	}}
	call := func(ctx context.Context, name, args string) (string, error) { return "ok", nil }

	_, err := toolLoop(context.Background(), chat, "sys", "user", nil, call, 2, zap.NewNop())
	require.ErrorIs(t, err, ErrMaxTurns)
}
