// Package router maps a step's classified category to an executor identifier.
//
// Routing is a total function: the four known categories map to their
// executors, and anything else falls back to the pure-text executor. Failing
// open guarantees forward progress when the classifier misbehaves; a
// misrouted step degrades to a text answer instead of killing the run.
package router

import "github.com/fyrsmithlabs/taskd/internal/plan"

// ExecutorID identifies one of the executor adapters.
type ExecutorID string

const (
	// ExecutorLocal runs steps against the local tool registry.
	ExecutorLocal ExecutorID = "local"

	// ExecutorRemote runs steps against a remote MCP service.
	ExecutorRemote ExecutorID = "remote"

	// ExecutorCodegen generates and executes code in a sandbox.
	ExecutorCodegen ExecutorID = "codegen"

	// ExecutorPureText generates a plain text answer. Default target for
	// unrecognized categories.
	ExecutorPureText ExecutorID = "puretext"

	// ExecutorNone is the terminal no-op identifier returned when the plan
	// is exhausted.
	ExecutorNone ExecutorID = "none"
)

// Route resolves the executor for a classified step. The caller passes
// exhausted=true when the cursor has moved past the last step; routing then
// yields ExecutorNone so the loop can terminate normally.
func Route(category plan.Category, exhausted bool) ExecutorID {
	if exhausted {
		return ExecutorNone
	}

	switch category {
	case plan.CategoryLocal:
		return ExecutorLocal
	case plan.CategoryRemote:
		return ExecutorRemote
	case plan.CategoryGeneratedCode:
		return ExecutorCodegen
	case plan.CategoryPureText:
		return ExecutorPureText
	default:
		// Fail open, never fail closed.
		return ExecutorPureText
	}
}
