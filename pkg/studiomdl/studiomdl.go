// Package studiomdl reads the parts of a compiled model header (.mdl) that
// name other files: materials, material search directories and included
// animation models.
package studiomdl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Ident is the studio header magic.
const Ident = "IDST"

// Header field offsets within studiohdr_t.
const (
	offVersion          = 4
	offName             = 12
	offNumTextures      = 204
	offTextureIndex     = 208
	offNumCDTextures    = 212
	offCDTextureIndex   = 216
	offNumSkinRef       = 220
	offNumSkinFamilies  = 224
	offNumBodyParts     = 232
	offNumIncludeModels = 336
	offIncludeModelIdx  = 340

	headerMin      = offIncludeModelIdx + 4
	textureSize    = 64
	includeSize    = 8
	maxNameLen     = 260
	maxReasonableN = 1 << 14
)

// ErrNotModel is returned when the magic does not match.
var ErrNotModel = errors.New("not a studio model")

// Model is the decoded subset of a model header.
type Model struct {
	Version       int32
	Name          string
	Textures      []string
	TextureDirs   []string
	IncludeModels []string
	SkinRefs      int
	SkinFamilies  int
	BodyParts     int
}

// SidecarExts are the companion files that travel with a model.
var SidecarExts = []string{
	".vvd", ".ani", ".phy", ".vtx", ".dx90.vtx", ".dx80.vtx", ".sw.vtx", ".xbox.vtx",
}

// Sidecars returns the companion paths of a model path ending in .mdl.
func Sidecars(modelPath string) []string {
	base := strings.TrimSuffix(modelPath, path.Ext(modelPath))
	out := make([]string, 0, len(SidecarExts))
	for _, ext := range SidecarExts {
		out = append(out, base+ext)
	}
	return out
}

// Parse decodes data, a whole .mdl file.
func Parse(data []byte) (*Model, error) {
	if len(data) < 4 || string(data[:4]) != Ident {
		return nil, ErrNotModel
	}
	if len(data) < headerMin {
		return nil, fmt.Errorf("header truncated at %d bytes", len(data))
	}
	r := reader(data)

	m := &Model{
		Version:      r.i32(offVersion),
		Name:         cString(data[offName : offName+64]),
		SkinRefs:     int(r.i32(offNumSkinRef)),
		SkinFamilies: int(r.i32(offNumSkinFamilies)),
		BodyParts:    int(r.i32(offNumBodyParts)),
	}

	numTex, texIdx := int(r.i32(offNumTextures)), int(r.i32(offTextureIndex))
	if err := r.checkTable("texture", numTex, texIdx, textureSize); err != nil {
		return nil, err
	}
	for i := 0; i < numTex; i++ {
		base := texIdx + i*textureSize
		name, err := r.str(base + int(r.i32(base)))
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		m.Textures = append(m.Textures, name)
	}

	numCD, cdIdx := int(r.i32(offNumCDTextures)), int(r.i32(offCDTextureIndex))
	if err := r.checkTable("cdtexture", numCD, cdIdx, 4); err != nil {
		return nil, err
	}
	for i := 0; i < numCD; i++ {
		dir, err := r.str(int(r.i32(cdIdx + i*4)))
		if err != nil {
			return nil, fmt.Errorf("cdtexture %d: %w", i, err)
		}
		m.TextureDirs = append(m.TextureDirs, dir)
	}

	numInc, incIdx := int(r.i32(offNumIncludeModels)), int(r.i32(offIncludeModelIdx))
	if err := r.checkTable("includemodel", numInc, incIdx, includeSize); err != nil {
		return nil, err
	}
	for i := 0; i < numInc; i++ {
		base := incIdx + i*includeSize
		name, err := r.str(base + int(r.i32(base+4)))
		if err != nil {
			return nil, fmt.Errorf("includemodel %d: %w", i, err)
		}
		if name != "" {
			m.IncludeModels = append(m.IncludeModels, name)
		}
	}
	return m, nil
}

// MaterialCandidates returns, per texture, the material paths the engine
// would try in search-directory order (relative to materials/, no extension).
func (m *Model) MaterialCandidates() [][]string {
	out := make([][]string, 0, len(m.Textures))
	for _, tex := range m.Textures {
		tex = slash(tex)
		if len(m.TextureDirs) == 0 {
			out = append(out, []string{tex})
			continue
		}
		cands := make([]string, 0, len(m.TextureDirs))
		for _, dir := range m.TextureDirs {
			cands = append(cands, path.Clean(slash(dir)+"/"+tex))
		}
		out = append(out, cands)
	}
	return out
}

func slash(p string) string {
	return strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")
}

type reader []byte

func (r reader) i32(off int) int32 {
	if off < 0 || off+4 > len(r) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(r[off:]))
}

func (r reader) checkTable(what string, n, off, size int) error {
	if n == 0 {
		return nil
	}
	if n < 0 || n > maxReasonableN || off < 0 || off+n*size > len(r) {
		return fmt.Errorf("%s table (%d x %d at %d) outside %d-byte file", what, n, size, off, len(r))
	}
	return nil
}

func (r reader) str(off int) (string, error) {
	if off < 0 || off >= len(r) {
		return "", fmt.Errorf("string offset %d outside file", off)
	}
	end := bytes.IndexByte(r[off:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at %d", off)
	}
	if end > maxNameLen {
		return "", fmt.Errorf("string at %d longer than %d bytes", off, maxNameLen)
	}
	return string(r[off : off+end]), nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
