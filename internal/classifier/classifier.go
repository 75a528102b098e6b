// Package classifier assigns an execution category to each plan step. It is
// a collaborator of the orchestrator, not part of the routing table: the
// classifier proposes a category, the router maps it to an executor.
//
// Classification never fails the run. Any model error, unparseable output,
// or unknown category degrades to the pure-text category so a step is always
// executable somehow.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/llm"
	"github.com/fyrsmithlabs/taskd/internal/plan"
	"github.com/fyrsmithlabs/taskd/internal/retrieval"
)

const classifyPromptTemplate = `Classify the sub-task below into exactly one execution category:
- "local": it can be done with one of the local tools listed below
- "remote": it needs one of the remote services listed below
- "generated-code": it needs custom code, computation, or data processing
  that no listed tool covers
- "pure-text": it needs only reasoning and writing, no tools at all

Respond with ONLY a JSON object: {"category": "...", "tool": "..."} where
"tool" names the chosen local tool or remote service, or is "" for the other
categories.

Sub-task: %s
Requirements: %s

Local tools:
%s

Remote services:
%s`

// Decision is the classifier's verdict for one step.
type Decision struct {
	Category plan.Category
	// SuggestedTool names the local tool or remote service the model picked,
	// when the category has one.
	SuggestedTool string
}

// capabilitySearcher is the slice of the retrieval service used to gather
// classification candidates.
type capabilitySearcher interface {
	Search(ctx context.Context, kind retrieval.Kind, query string, topK int) ([]retrieval.Result, error)
}

// completionClient is the slice of the LLM client the classifier uses.
type completionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service classifies steps against the indexed capabilities.
type Service struct {
	client completionClient
	search capabilitySearcher
	topK   int
	logger *zap.Logger
}

// NewService creates a classifier. topK bounds how many candidates of each
// kind are shown to the model.
func NewService(client completionClient, search capabilitySearcher, topK int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = 5
	}
	return &Service{client: client, search: search, topK: topK, logger: logger}
}

// Classify assigns a category to the step. It always returns a usable
// decision; every failure path degrades to pure-text.
func (s *Service) Classify(ctx context.Context, step *plan.Step) Decision {
	query := step.Description
	localCands := s.candidates(ctx, retrieval.KindLocalTool, query)
	remoteCands := s.candidates(ctx, retrieval.KindRemoteService, query)

	prompt := fmt.Sprintf(classifyPromptTemplate,
		step.Description,
		strings.Join(step.Requirements, "; "),
		renderCandidates(localCands),
		renderCandidates(remoteCands))

	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("classification failed, defaulting to pure-text",
			zap.String("step_id", step.ID),
			zap.Error(err))
		return Decision{Category: plan.CategoryPureText}
	}

	var parsed struct {
		Category string `json:"category"`
		Tool     string `json:"tool"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &parsed); err != nil {
		s.logger.Warn("unparseable classification, defaulting to pure-text",
			zap.String("step_id", step.ID),
			zap.Error(err))
		return Decision{Category: plan.CategoryPureText}
	}

	category := plan.Category(strings.TrimSpace(parsed.Category))
	if !category.Known() {
		s.logger.Warn("unknown category, defaulting to pure-text",
			zap.String("step_id", step.ID),
			zap.String("category", parsed.Category))
		return Decision{Category: plan.CategoryPureText}
	}

	return Decision{Category: category, SuggestedTool: strings.TrimSpace(parsed.Tool)}
}

// candidates searches the index, treating lookup failures as an empty list.
func (s *Service) candidates(ctx context.Context, kind retrieval.Kind, query string) []retrieval.Result {
	if s.search == nil {
		return nil
	}
	hits, err := s.search.Search(ctx, kind, query, s.topK)
	if err != nil {
		s.logger.Warn("candidate lookup failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil
	}
	return hits
}

func renderCandidates(hits []retrieval.Result) string {
	if len(hits) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s: %s\n", h.Capability.Name, h.Capability.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
