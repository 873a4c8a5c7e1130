package walker

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/bsp/bsptest"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/keys"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/pathfinder"
	"github.com/fulmenhq/mappack/pkg/pcf"
	"github.com/fulmenhq/mappack/pkg/studiomdl/mdltest"
)

func write(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func particle(strs ...string) []byte {
	data := []byte(pcf.HeaderPrefix + " 2 format pcf 1 -->\n")
	for _, s := range strs {
		data = append(data, s...)
		data = append(data, 0, 1)
	}
	return data
}

type fixture struct {
	root    string
	m       *bsp.Map
	diags   *diag.Collector
	log     *logger.Logger
	pakDir  string
	options Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	write(t, root, "materials/metal/plate01.vmt", []byte(`"LightmappedGeneric"
{
	"$basetexture" "metal/plate01"
	"$bumpmap" "metal/plate01_normal"
	"$envmap" "env_cubemap"
}`))
	write(t, root, "materials/metal/plate01.vtf", []byte("vtf"))
	write(t, root, "materials/metal/plate01_normal.vtf", []byte("vtf"))

	write(t, root, "models/props/crate.mdl", mdltest.Build("props/crate.mdl", []string{"crate_wood"}, []string{`models\shared\`, `models\props\`}, nil))
	write(t, root, "models/props/crate.vvd", []byte("vvd"))
	write(t, root, "models/props/crate.phy", []byte("phy"))
	write(t, root, "materials/models/props/crate_wood.vmt", []byte(`"VertexLitGeneric" { "$basetexture" "models/props/crate_wood" }`))
	write(t, root, "materials/models/props/crate_wood.vtf", []byte("vtf"))

	write(t, root, "sound/ambient/wind.wav", []byte("wav"))
	write(t, root, "sound/ambient/birds.wav", []byte("wav"))
	write(t, root, "particles/fire.pcf", particle("DmeElement", "effects/fire.vmt"))
	write(t, root, "materials/effects/fire.vmt", []byte(`"UnlitGeneric" { "$basetexture" "effects/fire" }`))
	write(t, root, "scripts/vscripts/ctf/logic.nut", []byte("// squirrel"))
	write(t, root, "materials/skybox/sky_testbk.vmt", []byte(`"Sky" { "$basetexture" "skybox/sky_testbk" }`))
	write(t, root, "materials/sprites/glow.vmt", []byte(`"Sprite" { "$basetexture" "sprites/glow" }`))

	scape := write(t, root, "scripts/soundscapes_ctf_test.txt", []byte(`"ctf_test.outside"
{
	"playrandom"
	{
		"rndwave"
		{
			"wave" "ambient/birds.wav"
		}
	}
}`))
	manifest := write(t, root, "maps/ctf_test_particles.txt", []byte(`particles_manifest { "file" "!particles/fire.pcf" }`))

	b := bsptest.Builder{
		Entities: []map[string]string{
			bsptest.Entity("classname", "worldspawn", "skyname", "sky_test"),
			bsptest.Entity("classname", "ambient_generic", "message", "#ambient/wind.wav"),
			bsptest.Entity("classname", "prop_dynamic", "model", "models/props/missing.mdl"),
			bsptest.Entity("classname", "logic_script", "vscripts", "ctf/logic"),
			bsptest.Entity("classname", "env_sprite", "model", "sprites/glow.vmt"),
			bsptest.Entity("classname", "func_brush", "model", "*3"),
		},
		TexData:     []string{"METAL/PLATE01"},
		StaticProps: []string{"models/props/crate.mdl"},
	}
	mapPath := filepath.Join(t.TempDir(), "ctf_test.bsp")
	require.NoError(t, b.Write(mapPath))
	m, err := bsp.Open(mapPath)
	require.NoError(t, err)
	m.SetSlot(bsp.SlotSoundscape, bsp.SlotFile{Source: scape, Archive: "scripts/soundscapes_ctf_test.txt"})
	m.SetSlot(bsp.SlotParticleManifest, bsp.SlotFile{Source: manifest, Archive: "maps/ctf_test_particles.txt"})

	pakDir := t.TempDir()
	write(t, pakDir, "materials/maps/ctf_test/water.vmt", []byte(`"Water"
{
	"$normalmap" "maps/ctf_test/water_normal"
	"$bottommaterial" "maps/ctf_test/water_bottom"
}`))
	write(t, pakDir, "materials/maps/ctf_test/water_normal.vtf", []byte("vtf"))
	write(t, pakDir, "materials/maps/ctf_test/water_bottom.vmt", []byte(`"LightmappedGeneric" { "$basetexture" "metal/plate01" }`))

	log := logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{})
	diags := diag.NewCollector(log)
	return &fixture{
		root:   root,
		m:      m,
		diags:  diags,
		log:    log,
		pakDir: pakDir,
		options: Options{
			Keys:     keys.Defaults(),
			Resolver: pathfinder.NewResolver(gameinfo.Roots{root}),
			Diags:    diags,
			Log:      log,
		},
	}
}

func TestWalkClosure(t *testing.T) {
	f := newFixture(t)
	set, err := Walk(f.m, f.pakDir, f.options)
	require.NoError(t, err)

	expectResolved := map[string]assets.Kind{
		"materials/metal/plate01.vmt":              assets.KindMaterial,
		"materials/metal/plate01.vtf":              assets.KindTexture,
		"materials/metal/plate01_normal.vtf":       assets.KindTexture,
		"models/props/crate.mdl":                   assets.KindModel,
		"models/props/crate.vvd":                   assets.KindModelAux,
		"models/props/crate.phy":                   assets.KindModelAux,
		"materials/models/props/crate_wood.vmt":    assets.KindMaterial,
		"materials/models/props/crate_wood.vtf":    assets.KindTexture,
		"sound/ambient/wind.wav":                   assets.KindSound,
		"sound/ambient/birds.wav":                  assets.KindSound,
		"particles/fire.pcf":                       assets.KindParticle,
		"materials/effects/fire.vmt":               assets.KindMaterial,
		"scripts/vscripts/ctf/logic.nut":           assets.KindVScript,
		"materials/skybox/sky_testbk.vmt":          assets.KindMaterial,
		"materials/sprites/glow.vmt":               assets.KindMaterial,
		"materials/maps/ctf_test/water.vmt":        assets.KindMaterial,
		"materials/maps/ctf_test/water_bottom.vmt": assets.KindMaterial,
		"materials/maps/ctf_test/water_normal.vtf": assets.KindTexture,
	}
	for p, kind := range expectResolved {
		e, ok := set.Get(p)
		if assert.True(t, ok, "missing %s", p) {
			assert.Equal(t, kind, e.Ref.Kind, p)
			assert.True(t, e.Resolved(), "%s should resolve", p)
		}
	}

	water, _ := set.Get("materials/maps/ctf_test/water.vmt")
	assert.True(t, water.Embedded)
	assert.Equal(t, -1, water.Root)

	crateMat, _ := set.Get("materials/models/props/crate_wood.vmt")
	assert.Equal(t, "models/props/crate.mdl", crateMat.Ref.From)

	missing, ok := set.Get("models/props/missing.mdl")
	require.True(t, ok, "unresolved references stay in the set")
	assert.False(t, missing.Resolved())

	assert.False(t, set.Has("models/props/crate.dx90.vtx"), "unresolved sidecars are skipped")
	assert.False(t, set.Has("materials/skybox/sky_test_hdrbk.vmt"), "unresolved hdr sky faces are skipped")
	assert.True(t, set.Has("materials/skybox/sky_testup.vmt"), "required sky faces are kept")
	assert.False(t, set.Has("materials/env_cubemap.vtf"))
	assert.False(t, set.Has("models/*3.mdl"))
	assert.Zero(t, f.diags.Count(diag.SeverityCaution))
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	w := New(f.options)
	require.NoError(t, w.SeedDir(f.pakDir))
	w.SeedMap(f.m)
	w.SeedSlots(f.m)
	first := w.Close()
	assert.Greater(t, first, 0)
	assert.Zero(t, w.Close(), "second closure adds nothing")

	// Re-running the closure from its own output reaches the same fixed point.
	again := New(f.options)
	for _, e := range w.Set().Entries() {
		if e.Embedded {
			again.AddEmbedded(e.Ref.Path, e.Source)
			continue
		}
		again.Add(e.Ref.Path, e.Ref.Kind, e.Ref.From, e.Optional)
	}
	again.Close()
	assert.Equal(t, w.Set().Len(), again.Set().Len())
}

func TestMaterialCycleTerminates(t *testing.T) {
	root := t.TempDir()
	write(t, root, "materials/a.vmt", []byte(`"x" { "$bottommaterial" "b" "$basetexture" "shared" }`))
	write(t, root, "materials/b.vmt", []byte(`"x" { "$bottommaterial" "a" "$basetexture" "shared" }`))
	write(t, root, "materials/shared.vtf", []byte("vtf"))

	w := New(Options{Resolver: pathfinder.NewResolver(gameinfo.Roots{root}), Log: logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{})})
	w.Add("materials/a.vmt", assets.KindMaterial, "test", false)
	w.Close()
	assert.Equal(t, 3, w.Set().Len())
}

func TestBackslashPathsResolve(t *testing.T) {
	root := t.TempDir()
	write(t, root, "materials/custom/floor.vmt", []byte(`"LightmappedGeneric"
{
	"$basetexture" "tools\toolsnodraw_custom"
	"$bumpmap" "nature\nuke_grass_normal"
	"$bottommaterial" "custom\floor_bottom"
}`))
	write(t, root, "materials/tools/toolsnodraw_custom.vtf", []byte("vtf"))
	write(t, root, "materials/nature/nuke_grass_normal.vtf", []byte("vtf"))
	write(t, root, "materials/custom/floor_bottom.vmt", []byte(`"UnlitGeneric" { "$basetexture" "tools\toolsnodraw_custom" }`))

	w := New(Options{Keys: keys.Defaults(), Resolver: pathfinder.NewResolver(gameinfo.Roots{root}), Log: logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{})})
	w.Add("materials/custom/floor.vmt", assets.KindMaterial, "test", false)
	w.Close()

	for _, p := range []string{
		"materials/custom/floor.vmt",
		"materials/tools/toolsnodraw_custom.vtf",
		"materials/nature/nuke_grass_normal.vtf",
		"materials/custom/floor_bottom.vmt",
	} {
		e, ok := w.Set().Get(p)
		if assert.True(t, ok, "missing %s", p) {
			assert.True(t, e.Resolved(), "%s should resolve", p)
		}
	}
	assert.Equal(t, 4, w.Set().Len())
}

func TestParseFailureIsRecoverable(t *testing.T) {
	root := t.TempDir()
	bad := write(t, root, "materials/broken.vmt", []byte(`"x" { "$basetexture" "unterminated`))
	write(t, root, "materials/good.vmt", []byte(`"x" { "$basetexture" "ok" }`))
	write(t, root, "materials/ok.vtf", []byte("vtf"))
	write(t, root, "models/trunc.mdl", []byte("IDST"))

	log := logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{})
	diags := diag.NewCollector(log)
	w := New(Options{Resolver: pathfinder.NewResolver(gameinfo.Roots{root}), Diags: diags, Log: log})
	w.Add("materials/broken.vmt", assets.KindMaterial, "test", false)
	w.Add("models/trunc.mdl", assets.KindModel, "test", false)
	w.Add("materials/good.vmt", assets.KindMaterial, "test", false)
	w.Close()

	assert.True(t, w.Set().Has("materials/ok.vtf"), "walk continued past failures")
	items := diags.Items()
	require.Len(t, items, 2)
	assert.Equal(t, diag.KindParse, items[0].Kind)
	assert.Equal(t, bad, items[0].Path)
	assert.Equal(t, diag.SeverityCaution, items[1].Severity)
}

func TestTextureKeyScenario(t *testing.T) {
	root := t.TempDir()
	write(t, root, "materials/test/wall.vmt", []byte(`"LightmappedGeneric" { "$basetexture" "metal/plate01" }`))

	w := New(Options{
		Keys:     mustKeys(t, `texture = ["$basetexture"]`),
		Resolver: pathfinder.NewResolver(gameinfo.Roots{root}),
		Log:      logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{}),
	})
	w.Add("materials/test/wall.vmt", assets.KindMaterial, "test", false)
	w.Close()

	e, ok := w.Set().Get("materials/metal/plate01.vtf")
	require.True(t, ok)
	assert.Equal(t, assets.KindTexture, e.Ref.Kind)
	assert.Equal(t, "materials/metal/plate01.vtf", e.Ref.Path)
}

func TestSeedResFile(t *testing.T) {
	root := t.TempDir()
	res := write(t, root, "maps/ctf_test.res", []byte(`"resources"
{
	"materials/custom/sign.vmt" "file"
	"sound/custom/horn.wav" "file"
}`))
	write(t, root, "materials/custom/sign.vmt", []byte(`"x" {}`))
	write(t, root, "sound/custom/horn.wav", []byte("wav"))
	radar := write(t, root, "resource/overviews/ctf_test.txt", []byte(`"ctf_test" { "material" "overviews/ctf_test" }`))

	m := &bsp.Map{Name: "ctf_test"}
	m.SetSlot(bsp.SlotRes, bsp.SlotFile{Source: res, Archive: "maps/ctf_test.res"})
	m.SetSlot(bsp.SlotRadar, bsp.SlotFile{Source: radar, Archive: "resource/overviews/ctf_test.txt"})

	w := New(Options{Resolver: pathfinder.NewResolver(gameinfo.Roots{root}), Log: logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{})})
	w.SeedSlots(m)
	w.Close()

	sign, ok := w.Set().Get("materials/custom/sign.vmt")
	require.True(t, ok)
	assert.Equal(t, assets.KindMaterial, sign.Ref.Kind)
	horn, ok := w.Set().Get("sound/custom/horn.wav")
	require.True(t, ok)
	assert.Equal(t, assets.KindSound, horn.Ref.Kind)
	assert.True(t, w.Set().Has("materials/overviews/ctf_test_radar.vmt"))
}

func mustKeys(t *testing.T, doc string) *keys.Tables {
	t.Helper()
	ts, err := keys.ParseTOML([]byte(doc))
	require.NoError(t, err)
	return ts
}
