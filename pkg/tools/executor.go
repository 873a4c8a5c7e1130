/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ExecutionMode determines how tools are executed
type ExecutionMode string

const (
	// ModeAuto picks wine for Windows binaries on other platforms, local otherwise
	ModeAuto ExecutionMode = "auto"
	// ModeLocal runs the tool directly
	ModeLocal ExecutionMode = "local"
	// ModeWine runs the tool through wine
	ModeWine ExecutionMode = "wine"
)

// ModeEnvVar overrides the execution mode.
const ModeEnvVar = "MAPPACK_TOOL_MODE"

// ExecuteOptions configures tool execution
type ExecuteOptions struct {
	// Tool is a path or a name looked up on PATH (e.g. "bspzip.exe")
	Tool string

	// Args to pass to the tool
	Args []string

	// WorkDir is the working directory (defaults to current directory)
	WorkDir string

	// Stdin to pipe to the tool (optional)
	Stdin io.Reader

	// Env contains additional environment variables
	Env map[string]string
}

// ExecuteResult contains the output of tool execution
type ExecuteResult struct {
	// ExitCode from the tool
	ExitCode int

	// Stdout contains standard output
	Stdout []byte

	// Stderr contains standard error
	Stderr []byte

	// Executor indicates which executor was used ("local" or "wine")
	Executor string
}

// ToolExecutor executes external tools. A non-zero exit is reported through
// ExecuteResult.ExitCode, not as an error.
type ToolExecutor interface {
	// Execute runs a tool with the given options
	Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error)

	// IsAvailable checks if this executor can run the specified tool
	IsAvailable(tool string) bool

	// Name returns the executor name for logging
	Name() string
}

// NewExecutor creates a ToolExecutor based on the specified mode
// If mode is empty, it reads from MAPPACK_TOOL_MODE
func NewExecutor(mode ExecutionMode) ToolExecutor {
	if mode == "" {
		mode = getModeFromEnv()
	}

	switch mode {
	case ModeLocal:
		return NewLocalExecutor()
	case ModeWine:
		return NewWineExecutor()
	case ModeAuto:
		fallthrough
	default:
		return NewAutoExecutor()
	}
}

// getModeFromEnv reads execution mode from environment
func getModeFromEnv() ExecutionMode {
	mode := os.Getenv(ModeEnvVar)
	switch strings.ToLower(mode) {
	case "local":
		return ModeLocal
	case "wine":
		return ModeWine
	default:
		return ModeAuto
	}
}

// ToolError is a completed invocation that exited non-zero.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Run executes opts and converts a non-zero exit into a *ToolError. The
// result is returned in both cases so callers can log the streams.
func Run(ctx context.Context, exec ToolExecutor, opts ExecuteOptions) (*ExecuteResult, error) {
	res, err := exec.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, &ToolError{Tool: opts.Tool, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}
	return res, nil
}
