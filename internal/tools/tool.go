// Package tools implements the local capability registry: the concrete tools
// the local executor can offer to the model for a step.
//
// Each tool describes its inputs as a JSON Schema and accepts a JSON-encoded
// argument payload, matching the function-calling convention of
// OpenAI-compatible APIs.
package tools

import (
	"context"
	"sort"
	"sync"
)

// Tool is one local capability.
type Tool interface {
	// Name uniquely identifies the tool.
	Name() string

	// Description is what the classifier and retrieval index see.
	Description() string

	// Parameters is the JSON Schema for the tool's inputs.
	Parameters() map[string]any

	// Execute runs the tool with a JSON-encoded argument payload.
	Execute(ctx context.Context, input string) (string, error)
}

// Registry manages the set of available tools. Safe for concurrent reads.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the named tool, or nil when absent.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// GetMany resolves names to tools, silently skipping unknown names.
func (r *Registry) GetMany(names []string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(names))
	for _, n := range names {
		if t, ok := r.tools[n]; ok {
			out = append(out, t)
		}
	}
	return out
}

// All returns every registered tool, sorted by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
