package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskd/internal/config"
	"github.com/fyrsmithlabs/taskd/internal/llm"
	"github.com/fyrsmithlabs/taskd/internal/logging"
	"github.com/fyrsmithlabs/taskd/internal/retrieval"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index local tool and remote service descriptors",
	Long: `Embed the descriptions of the built-in local tools and the remote MCP
services from configuration into the capability index. The classifier and
the local/remote executors match steps against this index, so it must be
populated before the first run and re-run after servers change.

Examples:
  taskd index
  taskd index --config ./taskd.yaml`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey.Value(),
	})
	if err != nil {
		return err
	}

	index, err := retrieval.NewService(retrieval.Config{
		Path:     cfg.Retrieval.Path,
		Compress: cfg.Retrieval.Compress,
	}, embedder, logger)
	if err != nil {
		return err
	}

	var caps []retrieval.Capability
	for _, tool := range buildRegistry(cfg, logger).All() {
		caps = append(caps, retrieval.Capability{
			Name:        tool.Name(),
			Description: tool.Description(),
			Kind:        retrieval.KindLocalTool,
		})
	}
	for _, srv := range cfg.Servers {
		caps = append(caps, retrieval.Capability{
			Name:        srv.Name,
			Description: srv.Description,
			Endpoint:    srv.Endpoint,
			Kind:        retrieval.KindRemoteService,
		})
	}

	if err := index.Index(ctx, caps); err != nil {
		return fmt.Errorf("indexing capabilities: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d capabilities (%d servers)\n", len(caps), len(cfg.Servers))
	return nil
}
