package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetToolByName_Known(t *testing.T) {
	tool, ok := GetToolByName("BspZip")
	if !ok {
		t.Fatalf("expected to find known tool 'bspzip'")
	}
	if tool.Binary != "bspzip.exe" || tool.EnvOverride != "MAPPACK_BSPZIP" {
		t.Fatalf("unexpected bspzip entry: %+v", tool)
	}
}

func TestGetToolByName_Unknown(t *testing.T) {
	if _, ok := GetToolByName("studiomdl"); ok {
		t.Fatalf("expected unknown tool to return ok=false")
	}
}

// steamLayout creates <root>/game/tf with gameinfo.txt and, when withTools is
// set, bspzip.exe and vpk.exe in <root>/game/bin.
func steamLayout(t *testing.T, withTools bool) string {
	t.Helper()
	t.Setenv("MAPPACK_BSPZIP", "")
	t.Setenv("MAPPACK_VPK", "")
	t.Setenv("PATH", "")
	root := t.TempDir()
	game := filepath.Join(root, "game", "tf")
	if err := os.MkdirAll(game, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(game, "gameinfo.txt"), []byte(`"GameInfo" {}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if withTools {
		bin := filepath.Join(root, "game", "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"bspzip.exe", "vpk.exe"} {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("MZ"), 0o755); err != nil {
				t.Fatal(err)
			}
		}
	}
	return game
}

func byName(statuses []Status) map[string]Status {
	m := map[string]Status{}
	for _, s := range statuses {
		m[s.Name] = s
	}
	return m
}

func TestCheckFindsToolsNextToGame(t *testing.T) {
	game := steamLayout(t, true)
	got := byName(Check(Options{GameDir: game, GOOS: "windows"}))

	if !got["gameinfo"].Present {
		t.Errorf("gameinfo should be present: %+v", got["gameinfo"])
	}
	if !got["bspzip"].Present || !strings.HasSuffix(got["bspzip"].Path, "bspzip.exe") {
		t.Errorf("bspzip should resolve from the game bin dir: %+v", got["bspzip"])
	}
	if _, ok := got["wine"]; ok {
		t.Errorf("wine is not checked on windows")
	}
	if m := Missing(Check(Options{GameDir: game, GOOS: "windows"})); len(m) != 0 {
		t.Errorf("nothing should be missing: %+v", m)
	}
}

func TestCheckWineOnOtherPlatforms(t *testing.T) {
	game := steamLayout(t, true)
	got := byName(Check(Options{GameDir: game, GOOS: "linux"}))
	if _, ok := got["wine"]; !ok {
		t.Fatalf("wine must be checked when the tools are Windows binaries")
	}
}

func TestCheckMissingTools(t *testing.T) {
	game := steamLayout(t, false)
	statuses := Check(Options{GameDir: game, GOOS: "windows"})
	got := byName(statuses)

	if got["bspzip"].Present || got["bspzip"].Instructions == "" {
		t.Errorf("bspzip should be missing with instructions: %+v", got["bspzip"])
	}
	if got["vpk"].Required {
		t.Errorf("vpk is optional unless asked for")
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "bspzip" {
		t.Errorf("Missing() = %+v, want only bspzip", missing)
	}

	missing = Missing(Check(Options{GameDir: game, GOOS: "windows", NeedVPK: true}))
	if len(missing) != 2 {
		t.Errorf("with NeedVPK both archivers are required: %+v", missing)
	}
}

func TestCheckMissingGameInfo(t *testing.T) {
	game := steamLayout(t, true)
	if err := os.Remove(filepath.Join(game, "gameinfo.txt")); err != nil {
		t.Fatal(err)
	}
	got := byName(Check(Options{GameDir: game, GOOS: "windows"}))
	if got["gameinfo"].Present || got["gameinfo"].Error == nil {
		t.Errorf("gameinfo should be reported missing: %+v", got["gameinfo"])
	}
}
