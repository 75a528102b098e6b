package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const sandboxOutputLimit = 64 << 10 // 64 KiB

// Sandbox runs generated scripts in a subprocess with a hard timeout. Each
// run gets its own scratch directory under the work dir.
type Sandbox struct {
	interpreter []string
	timeout     time.Duration
	workDir     string
	logger      *zap.Logger
}

// NewSandbox creates a sandbox. interpreter is the command prefix the script
// path is appended to, e.g. ["python3"].
func NewSandbox(interpreter []string, timeout time.Duration, workDir string, logger *zap.Logger) (*Sandbox, error) {
	if len(interpreter) == 0 {
		return nil, fmt.Errorf("sandbox: interpreter must not be empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: creating work dir: %w", err)
	}
	return &Sandbox{
		interpreter: interpreter,
		timeout:     timeout,
		workDir:     workDir,
		logger:      logger,
	}, nil
}

// Run writes the script to a scratch file and executes it, returning the
// combined stdout and stderr. A nonzero exit or a timeout is an error, with
// the captured output attached for diagnosis.
func (s *Sandbox) Run(ctx context.Context, script string) (string, error) {
	scratch, err := os.MkdirTemp(s.workDir, "run-*")
	if err != nil {
		return "", fmt.Errorf("sandbox: creating scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	scriptPath := filepath.Join(scratch, "script")
	if err := os.WriteFile(scriptPath, []byte(script), 0o600); err != nil {
		return "", fmt.Errorf("sandbox: writing script: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string{}, s.interpreter[1:]...), scriptPath)
	cmd := exec.CommandContext(ctx, s.interpreter[0], args...)
	cmd.Dir = scratch

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	output := out.String()
	if len(output) > sandboxOutputLimit {
		output = output[:sandboxOutputLimit] + "\n[output truncated]"
	}

	s.logger.Debug("sandbox run finished",
		zap.Duration("elapsed", elapsed),
		zap.Bool("ok", err == nil))

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("sandbox: script timed out after %s\n%s", s.timeout, output)
	}
	if err != nil {
		return "", fmt.Errorf("sandbox: script failed: %w\n%s", err, output)
	}
	return output, nil
}
