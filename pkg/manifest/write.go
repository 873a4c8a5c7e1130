package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/mappack/pkg/safeio"
)

// WriteListing writes the bspzip add list: archive path and source path on
// alternating lines. sourcePath, when set, rewrites each source path for the
// process that reads the list.
func (m *Manifest) WriteListing(w io.Writer, sourcePath func(string) string) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.entries {
		src := e.Source
		if sourcePath != nil {
			src = sourcePath(src)
		}
		if _, err := fmt.Fprintf(bw, "%s\n%s\n", e.Archive, src); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Listing returns the add list as bytes.
func (m *Manifest) Listing(sourcePath func(string) string) []byte {
	var buf bytes.Buffer
	_ = m.WriteListing(&buf, sourcePath)
	return buf.Bytes()
}

// WriteResponse writes a vpk response file, one archive path per line.
func WriteResponse(path string, archives []string) error {
	var buf bytes.Buffer
	for _, a := range archives {
		buf.WriteString(a)
		buf.WriteByte('\n')
	}
	if err := safeio.WriteFilePreservePerms(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write response file %s: %w", path, err)
	}
	return nil
}

// Digest is the hex xxh3-128 of the sorted archive/source lines. Two runs
// that pack the same files from the same places share a digest.
func (m *Manifest) Digest() string {
	data := strings.Join(m.sortedLines(), "\n")
	return fmt.Sprintf("%x", xxh3.Hash128([]byte(data)).Bytes())
}

// Export is the document written by WriteFile.
type Export struct {
	Map     string  `json:"map" yaml:"map"`
	Digest  string  `json:"digest" yaml:"digest"`
	Counts  Counts  `json:"counts" yaml:"counts"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// WriteFile exports the manifest as YAML when path ends in .yaml or .yml and
// as JSON otherwise.
func (m *Manifest) WriteFile(path, mapName string) error {
	doc := Export{Map: mapName, Digest: m.Digest(), Counts: m.Counts(), Entries: m.Entries()}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(doc)
	default:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := safeio.WriteFilePreservePerms(path, data); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
