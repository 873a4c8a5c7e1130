package cmd

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/fulmenhq/mappack/pkg/buildinfo"
)

func stampVersion(t *testing.T, v string) {
	t.Helper()
	prev := buildinfo.BinaryVersion
	buildinfo.BinaryVersion = v
	t.Cleanup(func() { buildinfo.BinaryVersion = prev })
}

func TestVersionText(t *testing.T) {
	stampVersion(t, "1.4.0-rc.2")

	out, err := execRoot(t, []string{"version"})
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "mappack 1.4.0-rc.2\n" {
		t.Errorf("unexpected version line: %q", out)
	}
}

func TestVersionJSONUsesStampedVersion(t *testing.T) {
	stampVersion(t, "1.4.0-rc.2")

	out, err := execRoot(t, []string{"version", "--json"})
	if err != nil {
		t.Fatalf("version --json failed: %v\n%s", err, out)
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("version output is not valid JSON: %s", out)
	}
	if v["version"] != "1.4.0-rc.2" {
		t.Errorf("version = %v, want the stamped 1.4.0-rc.2", v["version"])
	}
	if v["platform"] != runtime.GOOS || v["arch"] != runtime.GOARCH {
		t.Errorf("platform/arch = %v/%v", v["platform"], v["arch"])
	}
	if _, ok := v["gitCommit"]; ok {
		t.Error("gitCommit belongs to --extended only")
	}
}

func TestVersionExtended(t *testing.T) {
	stampVersion(t, "dev")

	out, err := execRoot(t, []string{"version", "--extended", "--json"})
	if err != nil {
		t.Fatalf("version --extended --json failed: %v\n%s", err, out)
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("version output is not valid JSON: %s", out)
	}
	commit, ok := v["gitCommit"].(string)
	if !ok || commit == "" || len(commit) > 8 {
		t.Errorf("gitCommit = %v, want a short revision or \"unknown\"", v["gitCommit"])
	}
	if _, ok := v["gitDirty"].(bool); !ok {
		t.Errorf("gitDirty should be a bool, got %T", v["gitDirty"])
	}
	if _, ok := v["module"]; !ok {
		t.Error("extended output should carry the module version")
	}

	text, err := execRoot(t, []string{"version", "--extended"})
	if err != nil {
		t.Fatalf("version --extended failed: %v", err)
	}
	for _, want := range []string{"mappack ", "Git commit: ", "Platform: " + runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(text, want) {
			t.Errorf("extended output missing %q:\n%s", want, text)
		}
	}
}
