/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fulmenhq/mappack/pkg/logger"
)

// LocalExecutor runs tools installed on the local system
type LocalExecutor struct{}

// NewLocalExecutor creates a new LocalExecutor
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

// Name returns the executor name
func (e *LocalExecutor) Name() string {
	return "local"
}

// IsAvailable checks if the tool is available locally
func (e *LocalExecutor) IsAvailable(tool string) bool {
	return e.FindToolPath(tool) != ""
}

// Execute runs the tool locally
func (e *LocalExecutor) Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error) {
	toolPath := e.FindToolPath(opts.Tool)
	if toolPath == "" {
		return nil, fmt.Errorf("tool %s not found: %w", opts.Tool, ErrToolNotFound)
	}

	// #nosec G204 - toolPath is validated via FindToolPath
	cmd := exec.CommandContext(ctx, toolPath, opts.Args...)
	return runCommand(cmd, opts, "local")
}

// FindToolPath returns opts.Tool itself when it names an existing file,
// otherwise looks it up on PATH.
func (e *LocalExecutor) FindToolPath(toolName string) string {
	if strings.ContainsAny(toolName, `/\`) {
		if st, err := os.Stat(toolName); err == nil && !st.IsDir() {
			return toolName
		}
		return ""
	}
	if path, err := exec.LookPath(toolName); err == nil {
		return path
	}
	return ""
}

func runCommand(cmd *exec.Cmd, opts ExecuteOptions, name string) (*ExecuteResult, error) {
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	cmd.Env = os.Environ()
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running external tool", logger.String("tool", opts.Tool), logger.String("executor", name), logger.String("args", strings.Join(opts.Args, " ")))
	err := cmd.Run()

	result := &ExecuteResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Executor: name,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			// The caller checks ExitCode to decide success
			return result, nil
		}
		return nil, fmt.Errorf("failed to execute %s: %w", opts.Tool, err)
	}

	return result, nil
}
