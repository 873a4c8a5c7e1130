package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/mappack/pkg/exitcode"
)

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	game := filepath.Join(t.TempDir(), "tf")

	if _, err := execRoot(t, []string{"init", dir, "--game", game}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "mappack.yaml"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "folder: \""+filepath.ToSlash(game)+"\"") {
		t.Errorf("game folder not filled in:\n%s", data)
	}

	_, err = execRoot(t, []string{"init", dir})
	if err == nil {
		t.Fatal("second init without --force should fail")
	}
	if code := exitCodeFor(err); code != exitcode.FileSystemError {
		t.Errorf("exit code = %d, want %d", code, exitcode.FileSystemError)
	}
	if _, err := execRoot(t, []string{"init", dir, "--force"}); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
}

func TestInitIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	game := filepath.Join(t.TempDir(), "tf")
	if err := os.MkdirAll(game, 0o755); err != nil {
		t.Fatal(err)
	}
	ignorePath := filepath.Join(game, ".mappackignore")
	if err := os.WriteFile(ignorePath, []byte("# mine\nmaterials/dev/\n*.vmf\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execRoot(t, []string{"init", dir, "--game", game, "--ignore", "--merge"}); err != nil {
		t.Fatalf("init --ignore --merge failed: %v", err)
	}
	data, err := os.ReadFile(ignorePath)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# mine\nmaterials/dev/\n") {
		t.Errorf("existing patterns not kept:\n%s", content)
	}
	if strings.Count(content, "*.vmf") != 1 {
		t.Errorf("*.vmf should not be duplicated:\n%s", content)
	}
	for _, want := range []string{"# Added by mappack init", "scripts/population/", "*.vmx"} {
		if !strings.Contains(content, want) {
			t.Errorf("merged file missing %q:\n%s", want, content)
		}
	}
}

func TestInitDryRun(t *testing.T) {
	dir := t.TempDir()
	out, err := execRoot(t, []string{"init", dir, "--dry-run"})
	if err != nil {
		t.Fatalf("init --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "=== DRY RUN") || !strings.Contains(out, "ignore_file: .mappackignore") {
		t.Errorf("unexpected dry run output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "mappack.yaml")); !os.IsNotExist(err) {
		t.Error("dry run must not write the config")
	}
}

func TestDetectGames(t *testing.T) {
	tests := []struct {
		game string
		want string
	}{
		{filepath.Join("steam", "Team Fortress 2", "tf"), "tf"},
		{filepath.Join("steam", "csgo") + string(filepath.Separator), "csgo"},
		{filepath.Join("steam", "hl2mp"), ""},
		{"universal", ""},
	}
	for _, tt := range tests {
		got := strings.Join(detectGames(tt.game), ",")
		if got != tt.want {
			t.Errorf("detectGames(%q) = %q, want %q", tt.game, got, tt.want)
		}
	}
}
