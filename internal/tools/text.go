package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TextTool performs simple text transformations without leaving the process.
type TextTool struct{}

// NewTextTool creates a text transformation tool.
func NewTextTool() *TextTool {
	return &TextTool{}
}

func (t *TextTool) Name() string {
	return "text_transform"
}

func (t *TextTool) Description() string {
	return "Transform text: count words or lines, change case, trim whitespace."
}

func (t *TextTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"enum":        []string{"word_count", "line_count", "upper", "lower", "trim"},
				"description": "The transformation to apply",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "The input text",
			},
		},
		"required": []string{"command", "text"},
	}
}

func (t *TextTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Command string `json:"command"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	switch args.Command {
	case "word_count":
		return fmt.Sprintf("%d", len(strings.Fields(args.Text))), nil
	case "line_count":
		if args.Text == "" {
			return "0", nil
		}
		return fmt.Sprintf("%d", strings.Count(args.Text, "\n")+1), nil
	case "upper":
		return strings.ToUpper(args.Text), nil
	case "lower":
		return strings.ToLower(args.Text), nil
	case "trim":
		return strings.TrimSpace(args.Text), nil
	default:
		return "", fmt.Errorf("unknown command %q", args.Command)
	}
}
