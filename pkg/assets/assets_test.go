package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		want string
	}{
		{"texture gets dir and ext", "metal/plate01", KindTexture, "materials/metal/plate01.vtf"},
		{"texture keeps existing prefix", "materials/metal/plate01.vtf", KindTexture, "materials/metal/plate01.vtf"},
		{"material backslashes", `concrete\wall01`, KindMaterial, "materials/concrete/wall01.vmt"},
		{"texture backslashes", `nature\nuke_grass_normal`, KindTexture, "materials/nature/nuke_grass_normal.vtf"},
		{"material uppercase ext", "tools/TOOLSNODRAW.VMT", KindMaterial, "materials/tools/TOOLSNODRAW.VMT"},
		{"model without prefix", "props/crate.mdl", KindModel, "models/props/crate.mdl"},
		{"model prefixed", "models/props/crate.mdl", KindModel, "models/props/crate.mdl"},
		{"brush model skipped", "*12", KindModel, ""},
		{"sound with control chars", "#)ambient/wind.wav", KindSound, "sound/ambient/wind.wav"},
		{"soundscript name skipped", "Ambient.Wind", KindSound, ""},
		{"sound ogg", "sound/music/theme.ogg", KindSound, "sound/music/theme.ogg"},
		{"particle bang", "!particles/fire.pcf", KindParticle, "particles/fire.pcf"},
		{"vscript default ext", "mymap/logic", KindVScript, "scripts/vscripts/mymap/logic.nut"},
		{"vscript keeps ext", "mymap/logic.nut", KindVScript, "scripts/vscripts/mymap/logic.nut"},
		{"generic as-is", "scripts/vehicles/jeep.txt", KindVehicleScript, "scripts/vehicles/jeep.txt"},
		{"empty", "  ", KindMaterial, ""},
		{"leading slash and dot", "./materials//a/b", KindMaterial, "materials/a/b.vmt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.kind))
		})
	}
}

func TestKindForPath(t *testing.T) {
	assert.Equal(t, KindMaterial, KindForPath("materials/a.VMT"))
	assert.Equal(t, KindTexture, KindForPath("materials/a.vtf"))
	assert.Equal(t, KindModel, KindForPath("models/a.mdl"))
	assert.Equal(t, KindModelAux, KindForPath("models/a.dx90.vtx"))
	assert.Equal(t, KindSound, KindForPath("sound/a.mp3"))
	assert.Equal(t, KindParticle, KindForPath("particles/a.pcf"))
	assert.Equal(t, KindVScript, KindForPath("scripts/vscripts/a.nut"))
	assert.Equal(t, KindVehicleScript, KindForPath("scripts/vehicles/jeep.txt"))
	assert.Equal(t, KindEffectScript, KindForPath("scripts/effects/fx.txt"))
	assert.Equal(t, KindGeneric, KindForPath("maps/a.nav"))
}

func TestSetDeduplicatesCaseInsensitively(t *testing.T) {
	s := NewSet()
	first, added := s.Add(Entry{Ref: Reference{Path: "materials/Metal/Plate01.vtf", Kind: KindTexture}, Root: -1})
	require.True(t, added)

	again, added := s.Add(Entry{Ref: Reference{Path: `materials\metal\plate01.VTF`, Kind: KindTexture}, Root: -1})
	assert.False(t, added)
	assert.Same(t, first, again)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Has("MATERIALS/METAL/PLATE01.VTF"))
}

func TestSetPreservesInsertionOrder(t *testing.T) {
	s := NewSet()
	for _, p := range []string{"c.vmt", "a.vmt", "b.vmt", "a.vmt"} {
		s.Add(Entry{Ref: Reference{Path: "materials/" + p, Kind: KindMaterial}})
	}
	s.Add(Entry{Ref: Reference{Path: "models/x.mdl", Kind: KindModel}})

	var got []string
	for _, e := range s.Entries() {
		got = append(got, e.Ref.Path)
	}
	assert.Equal(t, []string{"materials/c.vmt", "materials/a.vmt", "materials/b.vmt", "models/x.mdl"}, got)
	assert.Len(t, s.OfKind(KindMaterial), 3)
	assert.Len(t, s.OfKind(KindModel), 1)
}

func TestSetOptionalUpgrade(t *testing.T) {
	s := NewSet()
	s.Add(Entry{Ref: Reference{Path: "models/a.phy", Kind: KindModelAux}, Optional: true})
	e, added := s.Add(Entry{Ref: Reference{Path: "models/a.phy", Kind: KindModelAux}})
	assert.False(t, added)
	assert.False(t, e.Optional)
}

func TestSetRejectsEmptyPath(t *testing.T) {
	s := NewSet()
	_, added := s.Add(Entry{Ref: Reference{Path: "", Kind: KindGeneric}})
	assert.False(t, added)
	assert.Equal(t, 0, s.Len())
}
