/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package tools

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// WineEnvVar overrides the wine binary.
const WineEnvVar = "MAPPACK_WINE"

// WineExecutor runs Windows tool binaries through wine. Absolute paths in
// arguments and environment values are mapped onto wine's Z: drive.
type WineExecutor struct {
	winePath string
	local    *LocalExecutor
}

// NewWineExecutor creates a new WineExecutor
func NewWineExecutor() *WineExecutor {
	wine := lookupEnv(WineEnvVar)
	if wine == "" {
		wine, _ = exec.LookPath("wine")
	}
	return &WineExecutor{winePath: wine, local: NewLocalExecutor()}
}

// Name returns the executor name
func (e *WineExecutor) Name() string {
	return "wine"
}

// WineAvailable reports whether a wine binary was found.
func (e *WineExecutor) WineAvailable() bool {
	return e.winePath != ""
}

// Path is the wine binary, or "" when none was found.
func (e *WineExecutor) Path() string {
	return e.winePath
}

// IsAvailable checks that wine and the tool binary both exist
func (e *WineExecutor) IsAvailable(tool string) bool {
	return e.WineAvailable() && e.local.FindToolPath(tool) != ""
}

// Execute runs the tool via wine
func (e *WineExecutor) Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error) {
	if !e.WineAvailable() {
		return nil, fmt.Errorf("wine not found (set %s): %w", WineEnvVar, ErrToolNotFound)
	}
	toolPath := e.local.FindToolPath(opts.Tool)
	if toolPath == "" {
		return nil, fmt.Errorf("tool %s not found: %w", opts.Tool, ErrToolNotFound)
	}

	args := make([]string, 0, len(opts.Args)+1)
	args = append(args, toolPath)
	for _, a := range opts.Args {
		args = append(args, WinePath(a))
	}
	env := make(map[string]string, len(opts.Env))
	for k, v := range opts.Env {
		env[k] = WinePath(v)
	}
	opts.Env = env

	// #nosec G204 - wine path comes from PATH or explicit configuration
	cmd := exec.CommandContext(ctx, e.winePath, args...)
	return runCommand(cmd, opts, "wine")
}

// WinePath maps an absolute Unix path (optionally "@"-prefixed, as used for
// response files) to its Z: drive form. Other values are returned unchanged.
func WinePath(v string) string {
	prefix := ""
	p := v
	if strings.HasPrefix(p, "@") {
		prefix, p = "@", p[1:]
	}
	if !strings.HasPrefix(p, "/") {
		return v
	}
	return prefix + "Z:" + strings.ReplaceAll(filepath.ToSlash(p), "/", `\`)
}
