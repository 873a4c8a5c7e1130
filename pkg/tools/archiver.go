package tools

import (
	"context"
	"fmt"
)

// VProjectEnv names the content directory for Source tools.
const VProjectEnv = "VPROJECT"

// Bspzip drives the map archiver: extracting and appending the embedded pakfile.
type Bspzip struct {
	Path    string
	GameDir string
	Exec    ToolExecutor
}

func (b *Bspzip) env() map[string]string {
	if b.GameDir == "" {
		return nil
	}
	return map[string]string{VProjectEnv: b.GameDir}
}

// Extract unpacks the map's embedded archive into dir.
func (b *Bspzip) Extract(ctx context.Context, bspPath, dir string) (*ExecuteResult, error) {
	res, err := Run(ctx, b.Exec, ExecuteOptions{
		Tool: b.Path,
		Args: []string{"-extractfiles", bspPath, dir},
		Env:  b.env(),
	})
	if err != nil {
		return res, fmt.Errorf("extract pakfile from %s: %w", bspPath, err)
	}
	return res, nil
}

// AddList appends the files named by listPath to the map's pakfile in place.
// The listing alternates archive path and source path, one per line.
func (b *Bspzip) AddList(ctx context.Context, bspPath, listPath string) (*ExecuteResult, error) {
	res, err := Run(ctx, b.Exec, ExecuteOptions{
		Tool: b.Path,
		Args: []string{"-addlist", bspPath, listPath, bspPath},
		Env:  b.env(),
	})
	if err != nil {
		return res, fmt.Errorf("pack %s: %w", bspPath, err)
	}
	return res, nil
}

// VPK drives the standalone package builder.
type VPK struct {
	Path string
	Exec ToolExecutor
}

// Add appends the files listed in responseFile (paths relative to workDir)
// to the package at vpkPath, creating it when absent.
func (v *VPK) Add(ctx context.Context, vpkPath, responseFile, workDir string) (*ExecuteResult, error) {
	res, err := Run(ctx, v.Exec, ExecuteOptions{
		Tool:    v.Path,
		Args:    []string{"a", vpkPath, "@" + responseFile},
		WorkDir: workDir,
	})
	if err != nil {
		return res, fmt.Errorf("build %s from %s: %w", vpkPath, workDir, err)
	}
	return res, nil
}
