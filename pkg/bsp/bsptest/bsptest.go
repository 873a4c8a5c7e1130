// Package bsptest synthesizes small VBSP files for tests.
package bsptest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	headerSize = 4 + 4 + 64*16 + 4
	sprpID     = 0x73707270
)

// Builder describes the lumps of a synthetic map.
type Builder struct {
	// Version defaults to 20.
	Version int32
	// Reordered writes the Left 4 Dead 2 lump layout (forces version 21).
	Reordered   bool
	Entities    []map[string]string
	TexData     []string
	StaticProps []string
	Pak         map[string]string
}

// Entity is shorthand for one entity's key/values.
func Entity(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

// Bytes renders the map.
func (b Builder) Bytes() []byte {
	version := b.Version
	if version == 0 {
		version = 20
	}
	if b.Reordered {
		version = 21
	}

	var body bytes.Buffer
	var lumps [64][2]int32
	put := func(idx int, data []byte) {
		lumps[idx] = [2]int32{int32(headerSize + body.Len()), int32(len(data))}
		body.Write(data)
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}

	put(0, []byte(renderEntities(b.Entities)+"\x00"))

	if len(b.TexData) > 0 {
		put(43, []byte(strings.Join(b.TexData, "\x00")+"\x00"))
	}

	if len(b.StaticProps) > 0 {
		var sprp bytes.Buffer
		_ = binary.Write(&sprp, binary.LittleEndian, int32(len(b.StaticProps)))
		for _, name := range b.StaticProps {
			var fixed [128]byte
			copy(fixed[:], name)
			sprp.Write(fixed[:])
		}
		_ = binary.Write(&sprp, binary.LittleEndian, int32(0)) // leaf entries
		_ = binary.Write(&sprp, binary.LittleEndian, int32(0)) // props

		dirOff := int32(headerSize + body.Len())
		var game bytes.Buffer
		_ = binary.Write(&game, binary.LittleEndian, int32(1))
		_ = binary.Write(&game, binary.LittleEndian, int32(sprpID))
		_ = binary.Write(&game, binary.LittleEndian, uint16(0))
		_ = binary.Write(&game, binary.LittleEndian, uint16(10))
		_ = binary.Write(&game, binary.LittleEndian, dirOff+20)
		_ = binary.Write(&game, binary.LittleEndian, int32(sprp.Len()))
		game.Write(sprp.Bytes())
		put(35, game.Bytes())
	}

	if len(b.Pak) > 0 {
		put(40, Zip(b.Pak))
	}

	var out bytes.Buffer
	out.WriteString("VBSP")
	_ = binary.Write(&out, binary.LittleEndian, version)
	for _, l := range lumps {
		fields := []int32{l[0], l[1], 0}
		if b.Reordered {
			fields = []int32{0, l[0], l[1]}
		}
		_ = binary.Write(&out, binary.LittleEndian, fields)
		out.Write([]byte{0, 0, 0, 0})
	}
	_ = binary.Write(&out, binary.LittleEndian, int32(1))
	out.Write(body.Bytes())
	return out.Bytes()
}

// Write renders the map to path, creating parent directories.
func (b Builder) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b.Bytes(), 0o644)
}

// Zip builds an archive of name -> content, names in sorted order.
func Zip(files map[string]string) []byte {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: n, Method: zip.Store})
		if err != nil {
			panic(err)
		}
		_, _ = w.Write([]byte(files[n]))
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func renderEntities(ents []map[string]string) string {
	var b strings.Builder
	for _, e := range ents {
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		// classname first, the way the compiler writes it
		sort.SliceStable(keys, func(i, j int) bool { return keys[i] == "classname" && keys[j] != "classname" })
		b.WriteString("{\n")
		for _, k := range keys {
			b.WriteString(`"` + k + `" "` + e[k] + "\"\n")
		}
		b.WriteString("}\n")
	}
	return b.String()
}
