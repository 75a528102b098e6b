// Package config provides configuration loading for taskd.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (TASKD_LLM_BASE_URL, TASKD_ORCHESTRATOR_MAX_PLAN_RETRIES, ...)
//  2. YAML config file (~/.config/taskd/config.yaml by default)
//  3. Hardcoded defaults (DefaultConfig)
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/taskd/internal/logging"
)

// Config is the root configuration for taskd.
type Config struct {
	LLM          LLMConfig          `koanf:"llm"`
	Embeddings   EmbeddingsConfig   `koanf:"embeddings"`
	Retrieval    RetrievalConfig    `koanf:"retrieval"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Sandbox      SandboxConfig      `koanf:"sandbox"`
	Tools        ToolsConfig        `koanf:"tools"`
	Logging      logging.Config     `koanf:"logging"`

	// Servers are the known remote MCP services. Their descriptors are
	// indexed into retrieval and matched against steps at execution time.
	Servers []ServerConfig `koanf:"servers"`
}

// LLMConfig configures the completion client shared by the planner,
// classifier, executors, and escalation analysis.
type LLMConfig struct {
	// BaseURL is an OpenAI-compatible endpoint.
	BaseURL string `koanf:"base_url"`

	// Model is the completion model name.
	Model string `koanf:"model"`

	// APIKey authenticates against the endpoint.
	APIKey Secret `koanf:"api_key"`

	// RequestsPerSecond throttles outbound calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// MaxRetries bounds transport-level retries with exponential backoff.
	MaxRetries int `koanf:"max_retries"`
}

// EmbeddingsConfig configures embedding generation for retrieval. Any
// OpenAI-compatible endpoint works, including a local TEI server.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// RetrievalConfig configures the embedded capability index.
type RetrievalConfig struct {
	// Path is the directory for persistent vector storage.
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// TopK is the number of capability candidates retrieved per step.
	TopK int `koanf:"top_k"`
}

// OrchestratorConfig controls the run loop and escalation budgets.
type OrchestratorConfig struct {
	// MaxSubtaskRetries is the level-1 budget applied to each new step.
	MaxSubtaskRetries int `koanf:"max_subtask_retries"`

	// MaxPlanRetries is the level-2 replan budget for a whole run.
	MaxPlanRetries int `koanf:"max_plan_retries"`

	// StepTimeout is the deadline applied to each executor invocation.
	// Zero disables the deadline.
	StepTimeout Duration `koanf:"step_timeout"`

	// MaxToolTurns bounds the tool-calling loop inside the local and
	// remote executors.
	MaxToolTurns int `koanf:"max_tool_turns"`
}

// SandboxConfig controls generated-code execution.
type SandboxConfig struct {
	// Interpreter is the command used to run a generated script; the
	// script path is appended as the final argument.
	Interpreter []string `koanf:"interpreter"`

	// Timeout bounds a single script execution.
	Timeout Duration `koanf:"timeout"`

	// WorkDir is where scripts run. Empty means a fresh temp directory
	// per execution.
	WorkDir string `koanf:"work_dir"`
}

// ToolsConfig controls the local tool registry.
type ToolsConfig struct {
	// Root confines filesystem tool operations.
	Root string `koanf:"root"`

	// EnableShell registers the shell tool. Off by default.
	EnableShell bool `koanf:"enable_shell"`
}

// ServerConfig describes one remote MCP service.
type ServerConfig struct {
	Name        string `koanf:"name"`
	Endpoint    string `koanf:"endpoint"`
	Description string `koanf:"description"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o",
			RequestsPerSecond: 2,
			MaxRetries:        3,
		},
		Embeddings: EmbeddingsConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "text-embedding-3-small",
		},
		Retrieval: RetrievalConfig{
			Path: "~/.config/taskd/index",
			TopK: 5,
		},
		Orchestrator: OrchestratorConfig{
			MaxSubtaskRetries: 3,
			MaxPlanRetries:    2,
			StepTimeout:       Duration(0),
			MaxToolTurns:      10,
		},
		Sandbox: SandboxConfig{
			Interpreter: []string{"python3"},
			Timeout:     Duration(30_000_000_000), // 30s
		},
		Tools: ToolsConfig{
			Root: ".",
		},
		Logging: logging.NewDefaultConfig(),
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Orchestrator.MaxSubtaskRetries < 0 {
		return fmt.Errorf("orchestrator.max_subtask_retries cannot be negative")
	}
	if c.Orchestrator.MaxPlanRetries < 0 {
		return fmt.Errorf("orchestrator.max_plan_retries cannot be negative")
	}
	if c.Orchestrator.MaxToolTurns <= 0 {
		return fmt.Errorf("orchestrator.max_tool_turns must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if len(c.Sandbox.Interpreter) == 0 {
		return fmt.Errorf("sandbox.interpreter is required")
	}
	for i, s := range c.Servers {
		if s.Name == "" || s.Endpoint == "" {
			return fmt.Errorf("servers[%d]: name and endpoint are required", i)
		}
	}
	return c.Logging.Validate()
}
