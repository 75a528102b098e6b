package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemTool manages files under a confined workspace root.
type FilesystemTool struct {
	root string
}

// NewFilesystemTool creates a filesystem tool rooted at root.
func NewFilesystemTool(root string) *FilesystemTool {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &FilesystemTool{root: abs}
}

func (f *FilesystemTool) Name() string {
	return "filesystem"
}

func (f *FilesystemTool) Description() string {
	return "Manage files in the local workspace: read, write, list, delete, and mkdir."
}

func (f *FilesystemTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"enum":        []string{"read", "write", "list", "delete", "mkdir"},
				"description": "The operation to perform",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "File or directory path relative to the workspace root",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to write (only for 'write')",
			},
		},
		"required": []string{"command", "path"},
	}
}

func (f *FilesystemTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Command string `json:"command"`
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	target, err := f.resolve(args.Path)
	if err != nil {
		return "", err
	}

	switch args.Command {
	case "read":
		data, err := os.ReadFile(target)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args.Path, err)
		}
		return string(data), nil

	case "write":
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("creating parent of %s: %w", args.Path, err)
		}
		if err := os.WriteFile(target, []byte(args.Content), 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", args.Path, err)
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.Path), nil

	case "list":
		entries, err := os.ReadDir(target)
		if err != nil {
			return "", fmt.Errorf("listing %s: %w", args.Path, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		return strings.Join(names, "\n"), nil

	case "delete":
		if err := os.Remove(target); err != nil {
			return "", fmt.Errorf("deleting %s: %w", args.Path, err)
		}
		return fmt.Sprintf("deleted %s", args.Path), nil

	case "mkdir":
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", args.Path, err)
		}
		return fmt.Sprintf("created %s", args.Path), nil

	default:
		return "", fmt.Errorf("unknown command %q", args.Command)
	}
}

// resolve joins path onto the root and rejects escapes.
func (f *FilesystemTool) resolve(path string) (string, error) {
	target := filepath.Join(f.root, path)
	rel, err := filepath.Rel(f.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace root: %s", path)
	}
	return target, nil
}
