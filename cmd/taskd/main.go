// Package main implements the taskd CLI.
//
// taskd decomposes a free-form task into steps, classifies each step into an
// execution strategy, and runs the steps through local tools, remote MCP
// services, sandboxed generated code, or plain text generation.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional path to a YAML config file.
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskd",
	Short: "Task orchestration over local tools, MCP services, and generated code",
	Long: `taskd plans, classifies, and executes free-form tasks.

A task is decomposed into ordered steps. Each step is classified into one
of four execution strategies (local tool, remote MCP service, generated
code, pure text) and dispatched to the matching backend. Failed steps are
retried with model-suggested fixes; persistently failing plans are
regenerated before the run gives up.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/taskd/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "taskd %s (%s, %s/%s)\n",
			version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
