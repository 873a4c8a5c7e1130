/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModeFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     ExecutionMode
	}{
		{"empty defaults to auto", "", ModeAuto},
		{"local mode", "local", ModeLocal},
		{"wine mode", "wine", ModeWine},
		{"auto mode", "auto", ModeAuto},
		{"case insensitive", "LOCAL", ModeLocal},
		{"unknown defaults to auto", "unknown", ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ModeEnvVar, tt.envValue)
			if got := getModeFromEnv(); got != tt.want {
				t.Errorf("getModeFromEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	tests := []struct {
		name string
		mode ExecutionMode
		want string
	}{
		{"local mode", ModeLocal, "local"},
		{"wine mode", ModeWine, "wine"},
		{"auto mode", ModeAuto, "auto"},
		{"empty defaults to auto", "", "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ModeEnvVar, "")
			executor := NewExecutor(tt.mode)
			if executor.Name() != tt.want {
				t.Errorf("NewExecutor(%v).Name() = %v, want %v", tt.mode, executor.Name(), tt.want)
			}
		})
	}
}

func TestWinePath(t *testing.T) {
	assert.Equal(t, `Z:\games\tf\maps\a.bsp`, WinePath("/games/tf/maps/a.bsp"))
	assert.Equal(t, `@Z:\tmp\resp.txt`, WinePath("@/tmp/resp.txt"))
	assert.Equal(t, "-addlist", WinePath("-addlist"))
	assert.Equal(t, "relative/path", WinePath("relative/path"))
}

func TestAutoExecutorNeedsWine(t *testing.T) {
	e := &AutoExecutor{local: NewLocalExecutor(), wine: &WineExecutor{local: NewLocalExecutor()}, goos: "linux"}
	assert.True(t, e.needsWine("/opt/tf/bin/bspzip.exe"))
	assert.False(t, e.needsWine("/usr/bin/vpk_linux32"))

	e.goos = "windows"
	assert.False(t, e.needsWine(`C:\bin\bspzip.exe`))
}

func TestPathMapper(t *testing.T) {
	withWine := &AutoExecutor{local: NewLocalExecutor(), wine: &WineExecutor{winePath: "/usr/bin/wine", local: NewLocalExecutor()}, goos: "linux"}
	mapper := PathMapper(withWine, "/opt/tf/bin/bspzip.exe")
	require.NotNil(t, mapper)
	assert.Equal(t, `Z:\tmp\a.vmt`, mapper("/tmp/a.vmt"))

	assert.Nil(t, PathMapper(withWine, "/opt/tf/bin/bspzip"))
	assert.Nil(t, PathMapper(NewLocalExecutor(), "bspzip.exe"))
	assert.Nil(t, PathMapper(&Recorder{}, "bspzip.exe"))
	assert.NotNil(t, PathMapper(&WineExecutor{}, "bspzip.exe"))

	noWine := &AutoExecutor{local: NewLocalExecutor(), wine: &WineExecutor{local: NewLocalExecutor()}, goos: "linux"}
	assert.Nil(t, PathMapper(noWine, "/opt/tf/bin/bspzip.exe"))
}

func TestLocalExecutorFindToolPath(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "bspzip.exe")
	require.NoError(t, os.WriteFile(tool, []byte("x"), 0o755))

	e := NewLocalExecutor()
	assert.Equal(t, tool, e.FindToolPath(tool))
	assert.Empty(t, e.FindToolPath(filepath.Join(dir, "missing.exe")))
	assert.Empty(t, e.FindToolPath(dir))
}

func TestLocalExecutorMissingTool(t *testing.T) {
	_, err := NewLocalExecutor().Execute(context.Background(), ExecuteOptions{Tool: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolNotFound))
}

func TestLocalExecutorCapturesExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "tool.sh")
	body := "#!/bin/sh\necho \"out:$VPROJECT:$(pwd)\"\necho err >&2\nexit 3\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	res, err := NewLocalExecutor().Execute(context.Background(), ExecuteOptions{
		Tool:    script,
		WorkDir: dir,
		Env:     map[string]string{"VPROJECT": "/games/tf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, string(res.Stdout), "out:/games/tf:")
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, "local", res.Executor)
}

func TestRunConvertsExitCode(t *testing.T) {
	rec := &Recorder{Hook: func(ExecuteOptions) (*ExecuteResult, error) {
		return &ExecuteResult{ExitCode: 2, Stderr: []byte("bad lump\n")}, nil
	}}
	res, err := Run(context.Background(), rec, ExecuteOptions{Tool: "bspzip"})
	require.Error(t, err)
	require.NotNil(t, res)

	var te *ToolError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2, te.ExitCode)
	assert.Equal(t, "bspzip exited with code 2: bad lump", te.Error())
}

func TestRunPassesThroughExecutorError(t *testing.T) {
	boom := errors.New("boom")
	rec := &Recorder{Hook: func(ExecuteOptions) (*ExecuteResult, error) { return nil, boom }}
	_, err := Run(context.Background(), rec, ExecuteOptions{Tool: "vpk"})
	assert.ErrorIs(t, err, boom)
}
