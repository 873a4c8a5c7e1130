package safeio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a content-relative path tries to leave its root.
var ErrTraversal = errors.New("path traversal detected")

// CleanArchivePath normalizes a content-relative path for use inside an archive:
// forward slashes, no drive letter, no leading slash, no "." segments.
// Paths that climb out of the root with ".." are rejected.
func CleanArchivePath(p string) (string, error) {
	s := strings.ReplaceAll(p, "\\", "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", ErrTraversal
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, part)
		}
	}
	if len(stack) == 0 {
		return "", errors.New("empty path")
	}
	return strings.Join(stack, "/"), nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
// This prevents path traversal attacks by ensuring the file path resolves
// to a location within the specified base directory.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	if !IsContained(baseDir, filePath) {
		return nil, errors.New("file path is outside base directory")
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.New("failed to resolve file path")
	}
	// #nosec G304 -- abs has been verified to be contained within baseDir
	return os.ReadFile(abs)
}

// IsContained reports whether path lies at or below baseDir.
func IsContained(baseDir, path string) bool {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, pathAbs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}

// CopyFile copies src to dst, replacing dst when it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- caller-supplied map/addon paths
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.Create(dst) // #nosec G304 -- destination chosen by caller
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return out.Close()
}
