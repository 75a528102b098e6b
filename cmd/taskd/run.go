package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskd/internal/classifier"
	"github.com/fyrsmithlabs/taskd/internal/config"
	"github.com/fyrsmithlabs/taskd/internal/executor"
	"github.com/fyrsmithlabs/taskd/internal/llm"
	"github.com/fyrsmithlabs/taskd/internal/logging"
	"github.com/fyrsmithlabs/taskd/internal/orchestrator"
	"github.com/fyrsmithlabs/taskd/internal/planner"
	"github.com/fyrsmithlabs/taskd/internal/reflection"
	"github.com/fyrsmithlabs/taskd/internal/retrieval"
	"github.com/fyrsmithlabs/taskd/internal/tools"
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Execute a task end to end",
	Long: `Plan, classify, and execute a task, printing the final result.

Examples:
  # Run a task with the default configuration
  taskd run "summarize the README files under the current directory"

  # Run against a local OpenAI-compatible server
  TASKD_LLM_BASE_URL=http://localhost:8000/v1 taskd run "count the words in notes.txt"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func runTask(cmd *cobra.Command, args []string) error {
	task := strings.TrimSpace(strings.Join(args, " "))
	if task == "" {
		return fmt.Errorf("task must not be empty")
	}

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

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	result, err := orch.Run(ctx, task)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary)
	if !result.Completed {
		return fmt.Errorf("task did not complete")
	}
	return nil
}

// buildOrchestrator wires the whole stack from configuration.
func buildOrchestrator(cfg *config.Config, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	client, err := llm.NewClient(llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		APIKey:            cfg.LLM.APIKey.Value(),
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		MaxRetries:        cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey.Value(),
	})
	if err != nil {
		return nil, err
	}

	index, err := retrieval.NewService(retrieval.Config{
		Path:     cfg.Retrieval.Path,
		Compress: cfg.Retrieval.Compress,
	}, embedder, logger)
	if err != nil {
		return nil, err
	}

	registry := buildRegistry(cfg, logger)

	sandbox, err := executor.NewSandbox(
		cfg.Sandbox.Interpreter,
		time.Duration(cfg.Sandbox.Timeout),
		cfg.Sandbox.WorkDir,
		logger,
	)
	if err != nil {
		return nil, err
	}

	maxTurns := cfg.Orchestrator.MaxToolTurns
	topK := cfg.Retrieval.TopK
	dispatcher := executor.NewDispatcher([]executor.Adapter{
		executor.NewLocalAdapter(client, registry, index, topK, maxTurns, logger),
		executor.NewRemoteAdapter(client, index, maxTurns, logger),
		executor.NewCodegenAdapter(client, sandbox, logger),
		executor.NewPureTextAdapter(client, logger),
	}, logger)

	return orchestrator.New(
		planner.NewService(client, cfg.Orchestrator.MaxSubtaskRetries, logger),
		classifier.NewService(client, index, topK, logger),
		dispatcher,
		reflection.NewController(client, logger),
		orchestrator.Options{
			MaxPlanRetries: cfg.Orchestrator.MaxPlanRetries,
			StepTimeout:    time.Duration(cfg.Orchestrator.StepTimeout),
		},
		logger,
	), nil
}

// buildRegistry registers the built-in local tools.
func buildRegistry(cfg *config.Config, logger *zap.Logger) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.NewFilesystemTool(cfg.Tools.Root))
	registry.Register(tools.NewTextTool())
	registry.Register(tools.NewHTTPFetchTool())
	if cfg.Tools.EnableShell {
		registry.Register(tools.NewShellTool(cfg.Tools.Root, time.Duration(cfg.Sandbox.Timeout)))
		logger.Info("shell tool enabled", zap.String("root", cfg.Tools.Root))
	}
	return registry
}
