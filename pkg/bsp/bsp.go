// Package bsp reads compiled Source-engine map files: the lump directory, the
// entity lump, texture-data strings, the static-prop dictionary and the
// embedded pakfile.
package bsp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/mappack/pkg/diag"
)

const (
	// Ident is the magic at the start of every VBSP file.
	Ident = "VBSP"
	// LumpCount is the fixed size of the lump directory.
	LumpCount = 64
	// HeaderSize is ident + version + lump directory + map revision.
	HeaderSize = 4 + 4 + LumpCount*16 + 4
)

// Lump indices used by the packer.
const (
	LumpEntities          = 0
	LumpGame              = 35
	LumpPakfile           = 40
	LumpTexDataStringData = 43
)

// Lump is one directory entry.
type Lump struct {
	Offset  int32   `json:"offset" yaml:"offset"`
	Length  int32   `json:"length" yaml:"length"`
	Version int32   `json:"version" yaml:"version"`
	FourCC  [4]byte `json:"-" yaml:"-"`
}

// Header is the fixed file header.
type Header struct {
	Version  int32           `json:"version" yaml:"version"`
	Lumps    [LumpCount]Lump `json:"-" yaml:"-"`
	Revision int32           `json:"revision" yaml:"revision"`
	// Reordered is set for the Left 4 Dead 2 layout, whose lump entries
	// store the version first.
	Reordered bool `json:"reordered,omitempty" yaml:"reordered,omitempty"`
}

// ErrNotBSP is returned when the magic does not match.
var ErrNotBSP = errors.New("not a VBSP file")

// ReadHeader decodes the header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	if string(raw[:4]) != Ident {
		return Header{}, ErrNotBSP
	}

	h := Header{Version: int32(binary.LittleEndian.Uint32(raw[4:8]))}
	entries := make([][4]int32, LumpCount)
	for i := range entries {
		base := 8 + i*16
		for j := 0; j < 3; j++ {
			entries[i][j] = int32(binary.LittleEndian.Uint32(raw[base+j*4:]))
		}
		copy(h.Lumps[i].FourCC[:], raw[base+12:base+16])
	}
	h.Revision = int32(binary.LittleEndian.Uint32(raw[HeaderSize-4:]))

	// The entity lump always follows the header, so an "offset" smaller
	// than the header means the fields are in (version, offset, length) order.
	first := entries[LumpEntities]
	h.Reordered = h.Version == 21 && first[0] < HeaderSize && first[1] >= HeaderSize
	for i, e := range entries {
		if h.Reordered {
			h.Lumps[i].Version, h.Lumps[i].Offset, h.Lumps[i].Length = e[0], e[1], e[2]
		} else {
			h.Lumps[i].Offset, h.Lumps[i].Length, h.Lumps[i].Version = e[0], e[1], e[2]
		}
	}
	return h, nil
}

// Map is one compiled map file. Lump data is read on demand.
type Map struct {
	Path   string
	Name   string
	Header Header
	Size   int64

	// Slots holds located utility files; absent slots are not in the map.
	Slots map[Slot]SlotFile
}

// Open reads the header of the map at path. A missing file is the fatal
// missing-input condition.
func Open(path string) (*Map, error) {
	f, err := os.Open(path) // #nosec G304 -- map path supplied by the caller
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, diag.Fatal(diag.KindMissingInput, path, diag.ErrMissingInput, "Could not find %s", path)
		}
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat map: %w", err)
	}
	if st.IsDir() {
		return nil, diag.Fatal(diag.KindMissingInput, path, diag.ErrMissingInput, "%s is a directory", path)
	}
	h, err := ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Base(path)
	return &Map{
		Path:   path,
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		Header: h,
		Size:   st.Size(),
		Slots:  make(map[Slot]SlotFile),
	}, nil
}

// Lump returns directory entry i.
func (m *Map) Lump(i int) Lump { return m.Header.Lumps[i] }

// ReadLump returns the bytes of lump i.
func (m *Map) ReadLump(i int) ([]byte, error) {
	if i < 0 || i >= LumpCount {
		return nil, fmt.Errorf("lump %d out of range", i)
	}
	l := m.Header.Lumps[i]
	return m.readAt(int64(l.Offset), int64(l.Length))
}

func (m *Map) readAt(off, n int64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if off < 0 || n < 0 || off+n > m.Size {
		return nil, fmt.Errorf("range %d+%d outside %s (%d bytes)", off, n, m.Name, m.Size)
	}
	f, err := os.Open(m.Path) // #nosec G304 -- path validated in Open
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("read %s at %d: %w", m.Name, off, err)
	}
	return buf, nil
}

// TexDataStrings returns the brush material names from the texture-data
// string table.
func (m *Map) TexDataStrings() ([]string, error) {
	data, err := m.ReadLump(LumpTexDataStringData)
	if err != nil {
		return nil, fmt.Errorf("texdata strings: %w", err)
	}
	var out []string
	for _, s := range strings.Split(string(data), "\x00") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
