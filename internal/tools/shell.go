package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ShellTool runs a command line through /bin/sh inside the workspace root.
// It is only registered when explicitly enabled in configuration.
type ShellTool struct {
	workDir string
	timeout time.Duration
}

// NewShellTool creates a shell tool that runs commands in workDir with a
// per-invocation timeout.
func NewShellTool(workDir string, timeout time.Duration) *ShellTool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShellTool{workDir: workDir, timeout: timeout}
}

func (s *ShellTool) Name() string {
	return "shell"
}

func (s *ShellTool) Description() string {
	return "Run a shell command in the workspace and return its combined output."
}

func (s *ShellTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to run",
			},
		},
		"required": []string{"command"},
	}
}

func (s *ShellTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(args.Command) == "" {
		return "", fmt.Errorf("empty command")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", args.Command)
	cmd.Dir = s.workDir
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %s", s.timeout)
	}
	if err != nil {
		return "", fmt.Errorf("command failed: %w\n%s", err, string(out))
	}
	return string(out), nil
}
