// Package executor runs individual plan steps through category-specific
// backends. A Dispatcher owns the step lifecycle: it marks a step running,
// hands it to the adapter selected by the router, and records the outcome.
// Adapters never mutate step status themselves, so a step can never be left
// in the running state regardless of how an invocation ends.
//
// Four adapters ship with the package: local tools driven by an LLM
// tool-call loop, remote MCP services over SSE, sandboxed generated code,
// and plain text completion.
package executor
