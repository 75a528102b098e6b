package retrieval

import "errors"

// Sentinel errors for retrieval operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyQuery indicates an empty search query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrUnknownKind indicates an unrecognized capability kind.
	ErrUnknownKind = errors.New("unknown capability kind")
)

// Kind partitions capability descriptors by backend type.
type Kind string

const (
	// KindLocalTool describes a tool in the local registry.
	KindLocalTool Kind = "local_tool"

	// KindRemoteService describes a remote MCP service.
	KindRemoteService Kind = "remote_service"
)

// collectionName maps a kind to its chromem collection.
func (k Kind) collectionName() (string, bool) {
	switch k {
	case KindLocalTool:
		return "taskd_local_tools", true
	case KindRemoteService:
		return "taskd_remote_services", true
	}
	return "", false
}

// Capability is one indexable descriptor: a local tool or a remote service.
type Capability struct {
	// Name uniquely identifies the capability within its kind.
	Name string `json:"name"`

	// Description is the text that gets embedded and searched.
	Description string `json:"description"`

	// Endpoint is the connection URL for remote services; empty for local
	// tools.
	Endpoint string `json:"endpoint,omitempty"`

	// Kind partitions the index.
	Kind Kind `json:"kind"`
}

// Result is one search hit with its similarity score.
type Result struct {
	Capability
	Score float32 `json:"score"`
}
