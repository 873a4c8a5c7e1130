/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package tools

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/fulmenhq/mappack/pkg/logger"
)

// AutoExecutor selects local or wine execution per tool
type AutoExecutor struct {
	local *LocalExecutor
	wine  *WineExecutor
	goos  string
}

// NewAutoExecutor creates a new AutoExecutor
func NewAutoExecutor() *AutoExecutor {
	return &AutoExecutor{
		local: NewLocalExecutor(),
		wine:  NewWineExecutor(),
		goos:  runtime.GOOS,
	}
}

// Name returns the executor name
func (e *AutoExecutor) Name() string {
	return "auto"
}

// IsAvailable checks if either executor can run the tool
func (e *AutoExecutor) IsAvailable(tool string) bool {
	if e.needsWine(tool) {
		return e.wine.IsAvailable(tool)
	}
	return e.local.IsAvailable(tool)
}

// Execute runs the tool using the best available executor
//
// Selection logic:
// 1. A .exe tool on a non-Windows host runs through wine when wine exists
// 2. Everything else runs locally
func (e *AutoExecutor) Execute(ctx context.Context, opts ExecuteOptions) (*ExecuteResult, error) {
	if e.needsWine(opts.Tool) {
		if e.wine.WineAvailable() {
			logger.Debug(fmt.Sprintf("auto executor: using wine for %s", opts.Tool))
			return e.wine.Execute(ctx, opts)
		}
		logger.Debug(fmt.Sprintf("auto executor: wine not found, trying %s locally", opts.Tool))
	}
	return e.local.Execute(ctx, opts)
}

func (e *AutoExecutor) needsWine(tool string) bool {
	return e.goos != "windows" && strings.HasSuffix(strings.ToLower(tool), ".exe")
}

func lookupEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// PathMapper returns the rewrite to apply to file paths that exec hands to
// tool inside data files (listings, response files), or nil when the tool
// sees host paths.
func PathMapper(exec ToolExecutor, tool string) func(string) string {
	switch e := exec.(type) {
	case *WineExecutor:
		return WinePath
	case *AutoExecutor:
		if e.needsWine(tool) && e.wine.WineAvailable() {
			return WinePath
		}
	}
	return nil
}
