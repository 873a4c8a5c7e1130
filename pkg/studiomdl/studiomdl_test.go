package studiomdl

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/mappack/pkg/studiomdl/mdltest"
)

func buildModel(name string, textures, dirs, includes []string) []byte {
	data := mdltest.Build(name, textures, dirs, includes)
	binary.LittleEndian.PutUint32(data[offNumSkinFamilies:], 2)
	binary.LittleEndian.PutUint32(data[offNumBodyParts:], 1)
	return data
}

func TestParse(t *testing.T) {
	data := buildModel("props/crate.mdl",
		[]string{"crate_wood", "crate_metal"},
		[]string{`models\props\`, `models\shared\`},
		[]string{"models/props/crate_anims.mdl"})

	m, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, int32(48), m.Version)
	assert.Equal(t, "props/crate.mdl", m.Name)
	assert.Equal(t, []string{"crate_wood", "crate_metal"}, m.Textures)
	assert.Equal(t, []string{`models\props\`, `models\shared\`}, m.TextureDirs)
	assert.Equal(t, []string{"models/props/crate_anims.mdl"}, m.IncludeModels)
	assert.Equal(t, 2, m.SkinFamilies)
	assert.Equal(t, 1, m.BodyParts)

	assert.Equal(t, [][]string{
		{"models/props/crate_wood", "models/shared/crate_wood"},
		{"models/props/crate_metal", "models/shared/crate_metal"},
	}, m.MaterialCandidates())
}

func TestMaterialCandidatesWithoutDirs(t *testing.T) {
	m := &Model{Textures: []string{`models\props\crate`}}
	assert.Equal(t, [][]string{{"models/props/crate"}}, m.MaterialCandidates())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("IDPO"))
	assert.ErrorIs(t, err, ErrNotModel)

	_, err = Parse([]byte("IDST\x30\x00\x00\x00"))
	assert.Error(t, err)

	data := buildModel("x", []string{"a"}, nil, nil)
	binary.LittleEndian.PutUint32(data[offNumTextures:], 100000)
	_, err = Parse(data)
	assert.Error(t, err)

	data = buildModel("x", []string{"a"}, nil, nil)
	binary.LittleEndian.PutUint32(data[offCDTextureIndex:], uint32(len(data)))
	binary.LittleEndian.PutUint32(data[offNumCDTextures:], 1)
	_, err = Parse(data)
	assert.Error(t, err)

	// truncate inside the string pool: last string loses its terminator
	data = buildModel("x", []string{"abc"}, nil, nil)
	_, err = Parse(data[:len(data)-1])
	assert.Error(t, err)
}

func TestSidecars(t *testing.T) {
	got := Sidecars("models/props/crate.mdl")
	assert.Equal(t, []string{
		"models/props/crate.vvd",
		"models/props/crate.ani",
		"models/props/crate.phy",
		"models/props/crate.vtx",
		"models/props/crate.dx90.vtx",
		"models/props/crate.dx80.vtx",
		"models/props/crate.sw.vtx",
		"models/props/crate.xbox.vtx",
	}, got)
}
