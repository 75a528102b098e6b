// Package retrieval provides semantic search over capability descriptors.
//
// Two collections are maintained in an embedded chromem-go database: local
// tool descriptors and remote MCP service descriptors. The classifier uses
// both to build candidate lists; the local and remote executors use them to
// narrow the capability set offered to the model for a given step.
//
// The service is explicitly constructed and injected wherever it is needed.
// There is deliberately no package-level singleton.
package retrieval
