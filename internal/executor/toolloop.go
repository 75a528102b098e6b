package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// ErrMaxTurns indicates the tool loop ran out of turns before the model
// returned a final answer.
var ErrMaxTurns = errors.New("executor: tool loop exceeded max turns")

// chatClient is the slice of the LLM client the tool loop needs.
type chatClient interface {
	Chat(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error)
}

// toolCallFn executes a named tool call and returns its textual result.
type toolCallFn func(ctx context.Context, name, args string) (string, error)

// toolLoop drives a model through repeated tool calls until it answers in
// plain text. A tool error is fed back as an observation rather than ending
// the loop, so the model can correct course. The returned Invocation records
// the last tool called.
func toolLoop(ctx context.Context, client chatClient, system, user string, defs []llms.Tool, call toolCallFn, maxTurns int, logger *zap.Logger) (*Invocation, error) {
	if maxTurns <= 0 {
		maxTurns = 10
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	inv := &Invocation{}
	for turn := 0; turn < maxTurns; turn++ {
		resp, err := client.Chat(ctx, messages, llms.WithTools(defs))
		if err != nil {
			return nil, fmt.Errorf("chat turn %d: %w", turn+1, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("chat turn %d: no choices returned", turn+1)
		}
		choice := resp.Choices[0]

		var assistantParts []llms.ContentPart
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: assistantParts,
		})

		if len(choice.ToolCalls) == 0 {
			inv.Output = choice.Content
			return inv, nil
		}

		for _, tc := range choice.ToolCalls {
			name := tc.FunctionCall.Name
			args := tc.FunctionCall.Arguments
			logger.Debug("tool call",
				zap.Int("turn", turn+1),
				zap.String("tool", name))

			result, err := call(ctx, name, args)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			inv.ToolName = name
			inv.ToolArgs = args

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       name,
						Content:    result,
					},
				},
			})
		}
	}

	return nil, ErrMaxTurns
}

// toolDefs converts descriptor triples into langchaingo tool definitions.
func toolDefs(descs []toolDesc) []llms.Tool {
	defs := make([]llms.Tool, 0, len(descs))
	for _, d := range descs {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.name,
				Description: d.description,
				Parameters:  d.parameters,
			},
		})
	}
	return defs
}

type toolDesc struct {
	name        string
	description string
	parameters  map[string]any
}
