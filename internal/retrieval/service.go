package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("taskd.retrieval")

// Embedder generates vector embeddings from text. langchaingo's
// embeddings.Embedder satisfies this interface.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds configuration for the embedded capability index.
type Config struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/taskd/index"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/taskd/index"
	}
}

// Service indexes and searches capability descriptors.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: pure Go, no external service, persistence to gob files.
type Service struct {
	db       *chromem.DB
	embedder Embedder
	logger   *zap.Logger
}

// NewService creates a capability index with the given configuration.
func NewService(cfg Config, embedder Embedder, logger *zap.Logger) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	path, err := expandPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	logger.Info("capability index initialized",
		zap.String("path", path),
		zap.Bool("compress", cfg.Compress),
	)

	return &Service{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc adapts the Embedder to chromem's callback.
func (s *Service) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// Index upserts capability descriptors into their kind's collection.
func (s *Service) Index(ctx context.Context, caps []Capability) error {
	ctx, span := tracer.Start(ctx, "retrieval.Index")
	defer span.End()
	span.SetAttributes(attribute.Int("capability_count", len(caps)))

	if len(caps) == 0 {
		return nil
	}

	byKind := make(map[Kind][]chromem.Document)
	for _, c := range caps {
		if _, ok := c.Kind.collectionName(); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
		}
		byKind[c.Kind] = append(byKind[c.Kind], chromem.Document{
			ID:      c.Name,
			Content: fmt.Sprintf("%s: %s", c.Name, c.Description),
			Metadata: map[string]string{
				"name":        c.Name,
				"description": c.Description,
				"endpoint":    c.Endpoint,
				"kind":        string(c.Kind),
			},
		})
	}

	for kind, docs := range byKind {
		name, _ := kind.collectionName()
		collection, err := s.db.GetOrCreateCollection(name, nil, s.embeddingFunc())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("opening collection %s: %w", name, err)
		}
		if err := collection.AddDocuments(ctx, docs, 1); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("indexing into %s: %w", name, err)
		}
		s.logger.Debug("indexed capabilities",
			zap.String("collection", name),
			zap.Int("count", len(docs)),
		)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Search returns up to topK capability descriptors of the given kind ranked
// by similarity to the query.
func (s *Service) Search(ctx context.Context, kind Kind, query string, topK int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "retrieval.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int("top_k", topK),
	)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	name, ok := kind.collectionName()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	collection := s.db.GetCollection(name, s.embeddingFunc())
	if collection == nil {
		// Nothing indexed yet for this kind.
		return []Result{}, nil
	}

	// chromem requires nResults <= document count.
	count := collection.Count()
	if count == 0 {
		return []Result{}, nil
	}
	if topK > count {
		topK = count
	}

	hits, err := collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", name, err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			Capability: Capability{
				Name:        h.Metadata["name"],
				Description: h.Metadata["description"],
				Endpoint:    h.Metadata["endpoint"],
				Kind:        kind,
			},
			Score: h.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched capabilities",
		zap.String("collection", name),
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}
