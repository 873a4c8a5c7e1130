package bsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// StaticPropLumpID is the game-lump id of the static-prop lump ('sprp').
const StaticPropLumpID = 0x73707270

const (
	gameLumpEntrySize   = 16
	staticPropNameBytes = 128
)

// GameLump is one game-lump directory entry.
type GameLump struct {
	ID      int32  `json:"id" yaml:"id"`
	Flags   uint16 `json:"flags" yaml:"flags"`
	Version uint16 `json:"version" yaml:"version"`
	Offset  int32  `json:"offset" yaml:"offset"`
	Length  int32  `json:"length" yaml:"length"`
}

// GameLumps decodes the game-lump directory.
func (m *Map) GameLumps() ([]GameLump, error) {
	data, err := m.ReadLump(LumpGame)
	if err != nil {
		return nil, fmt.Errorf("game lump: %w", err)
	}
	return parseGameLumps(data)
}

func parseGameLumps(data []byte) ([]GameLump, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("game lump truncated")
	}
	n := int(int32(binary.LittleEndian.Uint32(data)))
	if n < 0 || 4+n*gameLumpEntrySize > len(data) {
		return nil, fmt.Errorf("game lump directory claims %d entries in %d bytes", n, len(data))
	}
	out := make([]GameLump, n)
	r := bytes.NewReader(data[4:])
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("game lump directory: %w", err)
	}
	return out, nil
}

// StaticPropModels returns the model dictionary of the static-prop game lump.
// A map without static props yields nil.
func (m *Map) StaticPropModels() ([]string, error) {
	lumps, err := m.GameLumps()
	if err != nil {
		return nil, err
	}
	for _, gl := range lumps {
		if gl.ID != StaticPropLumpID {
			continue
		}
		data, err := m.readAt(int64(gl.Offset), int64(gl.Length))
		if err != nil {
			return nil, fmt.Errorf("static prop lump: %w", err)
		}
		return parseStaticPropDict(data)
	}
	return nil, nil
}

func parseStaticPropDict(data []byte) ([]string, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("static prop lump truncated")
	}
	n := int(int32(binary.LittleEndian.Uint32(data)))
	if n < 0 || 4+n*staticPropNameBytes > len(data) {
		return nil, fmt.Errorf("static prop dictionary claims %d names in %d bytes", n, len(data))
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		raw := data[4+i*staticPropNameBytes : 4+(i+1)*staticPropNameBytes]
		if j := bytes.IndexByte(raw, 0); j >= 0 {
			raw = raw[:j]
		}
		if len(raw) > 0 {
			out = append(out, string(raw))
		}
	}
	return out, nil
}
