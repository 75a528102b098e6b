package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const fetchBodyLimit = 1 << 20 // 1 MiB

// HTTPFetchTool retrieves the body of a URL over GET.
type HTTPFetchTool struct {
	client *http.Client
}

// NewHTTPFetchTool creates an HTTP fetch tool with a bounded client.
func NewHTTPFetchTool() *HTTPFetchTool {
	return &HTTPFetchTool{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (h *HTTPFetchTool) Name() string {
	return "http_fetch"
}

func (h *HTTPFetchTool) Description() string {
	return "Fetch the content of a URL with an HTTP GET request."
}

func (h *HTTPFetchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to fetch",
			},
		},
		"required": []string{"url"},
	}
}

func (h *HTTPFetchTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", args.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: status %d", args.URL, resp.StatusCode)
	}
	return string(body), nil
}
