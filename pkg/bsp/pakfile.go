package bsp

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fulmenhq/mappack/pkg/safeio"
)

// PakEntries lists the file names inside the embedded pakfile.
func (m *Map) PakEntries() ([]string, error) {
	var names []string
	err := m.withPak(func(zr *zip.Reader) error {
		for _, f := range zr.File {
			if !f.FileInfo().IsDir() {
				names = append(names, f.Name)
			}
		}
		return nil
	})
	return names, err
}

// ExtractPak unpacks the embedded pakfile into dir without external tools.
// Entry names that would escape dir are rejected.
func (m *Map) ExtractPak(dir string) (int, error) {
	n := 0
	err := m.withPak(func(zr *zip.Reader) error {
		for _, f := range zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			rel, err := safeio.CleanArchivePath(f.Name)
			if err != nil {
				return fmt.Errorf("pak entry %q: %w", f.Name, err)
			}
			if err := extractEntry(f, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func extractEntry(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open pak entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) // #nosec G304 -- dst cleaned by CleanArchivePath
	if err != nil {
		return err
	}
	// #nosec G110 -- entries come from the user's own compiled map
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}

func (m *Map) withPak(fn func(*zip.Reader) error) error {
	l := m.Header.Lumps[LumpPakfile]
	if l.Length == 0 {
		return nil
	}
	if l.Offset < 0 || int64(l.Offset)+int64(l.Length) > m.Size {
		return fmt.Errorf("pakfile lump outside %s", m.Name)
	}
	f, err := os.Open(m.Path) // #nosec G304 -- path validated in Open
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	zr, err := zip.NewReader(io.NewSectionReader(f, int64(l.Offset), int64(l.Length)), int64(l.Length))
	if err != nil {
		return fmt.Errorf("pakfile: %w", err)
	}
	return fn(zr)
}
