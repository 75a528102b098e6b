// Package llm provides the completion client shared by the planner,
// classifier, executors, and escalation analysis.
//
// The client wraps an OpenAI-compatible endpoint via langchaingo and adds
// rate limiting and bounded retries with exponential backoff. Consumers
// depend on the narrow Completer or ChatModel interfaces they define
// themselves, so tests can substitute mocks without touching this package.
package llm
