package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/retrieval"
	"github.com/fyrsmithlabs/taskd/internal/router"
)

const remoteSystemPrompt = `You are an execution agent completing one step of a larger task.
The available tools are provided by a remote service. Call them to carry out
the step, then reply with a plain text summary of the outcome.`

// mcpSession is the slice of an MCP client session the adapter uses.
type mcpSession interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// sessionDialer opens an MCP session against a service endpoint.
type sessionDialer func(ctx context.Context, endpoint string) (mcpSession, error)

// RemoteAdapter executes steps against remote MCP services. The service is
// chosen per step through the retrieval index, connected over SSE, and its
// tools are exposed to the model for the duration of the step.
type RemoteAdapter struct {
	client   chatClient
	search   capabilitySearcher
	dial     sessionDialer
	maxTurns int
	logger   *zap.Logger
}

// NewRemoteAdapter creates an adapter that discovers services via search.
func NewRemoteAdapter(client chatClient, search capabilitySearcher, maxTurns int, logger *zap.Logger) *RemoteAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteAdapter{
		client:   client,
		search:   search,
		dial:     dialSSE,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

func (a *RemoteAdapter) ID() router.ExecutorID {
	return router.ExecutorRemote
}

func (a *RemoteAdapter) Invoke(ctx context.Context, run *plan.RunState, step *plan.Step) (*Invocation, error) {
	hits, err := a.search.Search(ctx, retrieval.KindRemoteService, stepQuery(step), 1)
	if err != nil {
		return nil, fmt.Errorf("service lookup: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("no remote service matches step %s", step.ID)
	}
	svc := hits[0].Capability

	session, err := a.dial(ctx, svc.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", svc.Name, err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("listing tools on %s: %w", svc.Name, err)
	}
	if len(listed.Tools) == 0 {
		return nil, fmt.Errorf("service %s exposes no tools", svc.Name)
	}

	descs := make([]toolDesc, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		descs = append(descs, toolDesc{
			name:        t.Name,
			description: t.Description,
			parameters:  schemaToMap(t.InputSchema),
		})
	}

	a.logger.Info("remote service resolved",
		zap.String("step_id", step.ID),
		zap.String("service", svc.Name),
		zap.Int("tools", len(listed.Tools)))

	call := func(ctx context.Context, name, args string) (string, error) {
		var parsed map[string]any
		if args != "" {
			if err := json.Unmarshal([]byte(args), &parsed); err != nil {
				return "", fmt.Errorf("invalid tool arguments: %w", err)
			}
		}
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      name,
			Arguments: parsed,
		})
		if err != nil {
			return "", err
		}
		text := contentText(result.Content)
		if result.IsError {
			return "", fmt.Errorf("tool %s reported an error: %s", name, text)
		}
		return text, nil
	}

	return toolLoop(ctx, a.client, remoteSystemPrompt, stepPrompt(step), toolDefs(descs), call, a.maxTurns, a.logger)
}

// dialSSE opens an SSE-transport MCP session.
func dialSSE(ctx context.Context, endpoint string) (mcpSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "taskd", Version: "dev"}, nil)
	session, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: endpoint}, nil)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// contentText flattens MCP content blocks to text.
func contentText(blocks []mcp.Content) string {
	var parts []string
	for _, b := range blocks {
		if tc, ok := b.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// schemaToMap converts a tool input schema to the generic map langchaingo
// expects for function parameters.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return map[string]any{"type": "object"}
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || len(m) == 0 {
		return map[string]any{"type": "object"}
	}
	return m
}
