package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/mappack/pkg/bsp/bsptest"
)

func inspectFixture(t *testing.T) string {
	t.Helper()
	b := bsptest.Builder{
		Entities: []map[string]string{
			bsptest.Entity("classname", "worldspawn"),
			bsptest.Entity("classname", "prop_dynamic", "model", "models/props/crate.mdl"),
			bsptest.Entity("classname", "prop_dynamic", "model", "models/props/barrel.mdl"),
		},
		TexData:     []string{"TOOLS/TOOLSNODRAW", "CUSTOM/WALL"},
		StaticProps: []string{"models/props/rock.mdl"},
		Pak:         map[string]string{"materials/custom/wall.vmt": "vmt"},
	}
	p := filepath.Join(t.TempDir(), "ctf_test.bsp")
	if err := b.Write(p); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestInspectJSON(t *testing.T) {
	out, err := execRoot(t, []string{"inspect", inspectFixture(t), "--format", "json"})
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	var info mapInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("inspect output is not valid JSON: %v\n%s", err, out)
	}
	if info.Entities != 3 {
		t.Errorf("entities = %d, want 3", info.Entities)
	}
	if info.Classes["prop_dynamic"] != 2 {
		t.Errorf("prop_dynamic count = %d, want 2", info.Classes["prop_dynamic"])
	}
	if len(info.Textures) != 2 || len(info.StaticProps) != 1 || len(info.Pakfile) != 1 {
		t.Errorf("unexpected lists: %+v", info)
	}
	names := map[string]bool{}
	for _, l := range info.Lumps {
		names[l.Name] = true
	}
	for _, want := range []string{"entities", "pakfile", "game", "texdata_string_data"} {
		if !names[want] {
			t.Errorf("lump %s missing from %v", want, info.Lumps)
		}
	}
}

func TestInspectText(t *testing.T) {
	out, err := execRoot(t, []string{"inspect", inspectFixture(t)})
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Entities: 3", "Static props: 1", "models/props/rock.mdl", "materials/custom/wall.vmt"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectMissingMap(t *testing.T) {
	_, err := execRoot(t, []string{"inspect", filepath.Join(t.TempDir(), "gone.bsp")})
	if err == nil {
		t.Fatal("expected an error for a missing map")
	}
}
