// Package pcf extracts file references from binary DMX particle files.
package pcf

import (
	"bytes"
	"errors"
	"strings"
)

// HeaderPrefix starts every binary DMX file.
const HeaderPrefix = "<!-- dmx encoding binary"

// ErrNotBinaryDMX is returned for text DMX or foreign files.
var ErrNotBinaryDMX = errors.New("not a binary DMX particle file")

// Refs are the file names found in a particle file.
type Refs struct {
	Materials []string
	Models    []string
}

// Scan walks the NUL-terminated strings of a binary DMX file and collects
// values that name materials (.vmt) or models (.mdl). Duplicates are dropped;
// order of first appearance is kept.
func Scan(data []byte) (Refs, error) {
	var refs Refs
	if !bytes.HasPrefix(data, []byte(HeaderPrefix)) {
		return refs, ErrNotBinaryDMX
	}
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		return refs, ErrNotBinaryDMX
	}

	seen := map[string]bool{}
	for _, s := range printableStrings(data[end+1:]) {
		lower := strings.ToLower(s)
		if seen[lower] {
			continue
		}
		switch {
		case strings.HasSuffix(lower, ".vmt"):
			refs.Materials = append(refs.Materials, s)
		case strings.HasSuffix(lower, ".mdl"):
			refs.Models = append(refs.Models, s)
		default:
			continue
		}
		seen[lower] = true
	}
	return refs, nil
}

// printableStrings returns runs of printable ASCII terminated by NUL.
func printableStrings(data []byte) []string {
	var out []string
	start := -1
	for i, c := range data {
		switch {
		case c == 0:
			if start >= 0 && i-start >= 5 {
				out = append(out, string(data[start:i]))
			}
			start = -1
		case c >= 0x20 && c < 0x7f:
			if start < 0 {
				start = i
			}
		default:
			start = -1
		}
	}
	return out
}
