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
	"github.com/fyrsmithlabs/taskd/internal/retrieval"
	"github.com/fyrsmithlabs/taskd/internal/tools"
)

type stubSearcher struct {
	results []retrieval.Result
	err     error
	query   string
}

func (s *stubSearcher) Search(ctx context.Context, kind retrieval.Kind, query string, topK int) ([]retrieval.Result, error) {
	s.query = query
	return s.results, s.err
}

type stubCompletion struct {
	out string
	err error
}

func (s *stubCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	return s.out, s.err
}

type stubSandbox struct {
	out    string
	err    error
	script string
}

func (s *stubSandbox) Run(ctx context.Context, script string) (string, error) {
	s.script = script
	return s.out, s.err
}

func TestLocalAdapter_UsesRetrievedTools(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(tools.NewTextTool())
	reg.Register(tools.NewHTTPFetchTool())

	search := &stubSearcher{results: []retrieval.Result{
		{Capability: retrieval.Capability{Name: "text_transform"}, Score: 0.9},
	}}
	chat := &scriptedChat{responses: []*llms.ContentResponse{
		toolCallResponse("text_transform", `{"command":"upper","text":"ok"}`),
		textResponse("OK"),
	}}

	a := NewLocalAdapter(chat, reg, search, 5, 5, zap.NewNop())
	run, step := newRun(t, plan.CategoryLocal)

	inv, err := a.Invoke(context.Background(), run, step)
	require.NoError(t, err)
	assert.Equal(t, "OK", inv.Output)
	assert.Equal(t, "text_transform", inv.ToolName)
	assert.Contains(t, search.query, "write a summary")
}

func TestLocalAdapter_FallsBackToFullRegistry(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(tools.NewTextTool())

	search := &stubSearcher{err: errors.New("index offline")}
	chat := &scriptedChat{responses: []*llms.ContentResponse{textResponse("done")}}

	a := NewLocalAdapter(chat, reg, search, 5, 5, zap.NewNop())
	run, step := newRun(t, plan.CategoryLocal)

	inv, err := a.Invoke(context.Background(), run, step)
	require.NoError(t, err)
	assert.Equal(t, "done", inv.Output)
}

func TestLocalAdapter_EmptyRegistryFails(t *testing.T) {
	a := NewLocalAdapter(&scriptedChat{}, tools.NewRegistry(), &stubSearcher{}, 5, 5, zap.NewNop())
	run, step := newRun(t, plan.CategoryLocal)

	_, err := a.Invoke(context.Background(), run, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no local tools available")
}

func TestRemoteAdapter_NoServiceMatch(t *testing.T) {
	a := NewRemoteAdapter(&scriptedChat{}, &stubSearcher{}, 5, zap.NewNop())
	run, step := newRun(t, plan.CategoryRemote)

	_, err := a.Invoke(context.Background(), run, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no remote service matches")
}

func TestRemoteAdapter_DialFailure(t *testing.T) {
	search := &stubSearcher{results: []retrieval.Result{
		{Capability: retrieval.Capability{Name: "weather", Endpoint: "http://localhost:1"}},
	}}
	a := NewRemoteAdapter(&scriptedChat{}, search, 5, zap.NewNop())
	a.dial = func(ctx context.Context, endpoint string) (mcpSession, error) {
		return nil, errors.New("connection refused")
	}
	run, step := newRun(t, plan.CategoryRemote)

	_, err := a.Invoke(context.Background(), run, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to weather")
}

func TestCodegenAdapter_RunsScript(t *testing.T) {
	client := &stubCompletion{out: "```python\nprint(41 + 1)\n```"}
	sandbox := &stubSandbox{out: "42\n"}
	a := NewCodegenAdapter(client, sandbox, zap.NewNop())
	run, step := newRun(t, plan.CategoryGeneratedCode)

	inv, err := a.Invoke(context.Background(), run, step)
	require.NoError(t, err)
	assert.Equal(t, "42\n", inv.Output)
	assert.Equal(t, "print(41 + 1)", sandbox.script)
}

func TestCodegenAdapter_ScriptFailure(t *testing.T) {
	client := &stubCompletion{out: "print(x)"}
	sandbox := &stubSandbox{err: errors.New("script failed: exit status 1")}
	a := NewCodegenAdapter(client, sandbox, zap.NewNop())
	run, step := newRun(t, plan.CategoryGeneratedCode)

	_, err := a.Invoke(context.Background(), run, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script failed")
}

func TestCodegenAdapter_EmptyScript(t *testing.T) {
	a := NewCodegenAdapter(&stubCompletion{out: "```\n```"}, &stubSandbox{}, zap.NewNop())
	run, step := newRun(t, plan.CategoryGeneratedCode)

	_, err := a.Invoke(context.Background(), run, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty script")
}

func TestPureTextAdapter_IncludesPriorResults(t *testing.T) {
	client := &promptCapture{out: "final summary"}
	a := NewPureTextAdapter(client, zap.NewNop())

	p := plan.NewPlan("write a report", 2)
	done := plan.NewStep("researcher", "gather figures", nil, 3)
	done.MarkCompleted("revenue grew 12%")
	current := plan.NewStep("writer", "draft the report", nil, 3)
	p.Steps = append(p.Steps, done, current)
	run := plan.NewRunState(p)

	inv, err := a.Invoke(context.Background(), run, current)
	require.NoError(t, err)
	assert.Equal(t, "final summary", inv.Output)
	assert.Contains(t, client.prompt, "revenue grew 12%")
	assert.Contains(t, client.prompt, "write a report")
}

type promptCapture struct {
	out    string
	prompt string
}

func (p *promptCapture) Complete(ctx context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return p.out, nil
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "print(1)", "print(1)"},
		{"bare fence", "```\nprint(1)\n```", "print(1)"},
		{"language tag", "```python\nprint(1)\n```", "print(1)"},
		{"unclosed fence", "```python\nprint(1)", "print(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}
