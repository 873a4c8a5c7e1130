// Package mdltest builds minimal studio model headers for tests.
package mdltest

import "encoding/binary"

const (
	header      = 408
	textureSize = 64
	includeSize = 8
)

// Build lays out a studiohdr_t with texture, cdtexture and includemodel
// tables followed by a string pool.
func Build(name string, textures, dirs, includes []string) []byte {
	texOff := header
	cdOff := texOff + len(textures)*textureSize
	incOff := cdOff + len(dirs)*4
	pool := incOff + len(includes)*includeSize

	buf := make([]byte, pool)
	copy(buf, "IDST")
	put := func(off int, v int) { binary.LittleEndian.PutUint32(buf[off:], uint32(int32(v))) }
	put(4, 48)
	copy(buf[12:76], name)

	addString := func(s string) int {
		off := len(buf)
		buf = append(buf, []byte(s)...)
		buf = append(buf, 0)
		return off
	}

	put(204, len(textures))
	put(208, texOff)
	for i, tex := range textures {
		base := texOff + i*textureSize
		put(base, addString(tex)-base)
	}
	put(212, len(dirs))
	put(216, cdOff)
	for i, d := range dirs {
		put(cdOff+i*4, addString(d))
	}
	put(336, len(includes))
	put(340, incOff)
	for i, inc := range includes {
		base := incOff + i*includeSize
		put(base, addString("")-base)
		put(base+4, addString(inc)-base)
	}
	return buf
}
