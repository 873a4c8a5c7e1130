// Package ignore provides gitignore-style filtering of archive paths using go-git
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/fulmenhq/mappack/pkg/config"
)

// DefaultFileName is the ignore file looked up in the game folder.
const DefaultFileName = ".mappackignore"

// Matcher decides whether an archive path is kept out of the package.
// Matching ignores case, as the engine's filesystem does.
type Matcher struct {
	matcher  gitignore.Matcher
	patterns int
}

// NewMatcher creates a matcher with layered ignore files:
// 1. <gameDir>/<fileName> (per game overrides)
// 2. $MAPPACK_HOME/.mappackignore, default ~/.mappack (user overrides)
// 3. extra patterns passed by the caller (flags/config)
// A missing file is not an error.
func NewMatcher(gameDir, fileName string, extra []string) (*Matcher, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	var lines []string

	if gameDir != "" {
		gamePatterns, err := readIgnoreFile(osfs.New(gameDir), fileName)
		if err != nil {
			return nil, err
		}
		lines = append(lines, gamePatterns...)
	}

	if homeDir, err := config.GetMappackHome(); err == nil {
		userPatterns, err := readIgnoreFile(osfs.New(homeDir), DefaultFileName)
		if err == nil {
			lines = append(lines, userPatterns...)
		}
	}

	lines = append(lines, extra...)
	return FromPatterns(lines), nil
}

// FromPatterns builds a matcher from gitignore lines.
func FromPatterns(lines []string) *Matcher {
	var patterns []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(strings.ToLower(line), nil))
	}
	return &Matcher{matcher: gitignore.NewMatcher(patterns), patterns: len(patterns)}
}

// readIgnoreFile reads patterns from name inside fsys. A missing file yields
// no patterns.
func readIgnoreFile(fsys billy.Filesystem, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", fsys.Join(fsys.Root(), name), err)
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return patterns, nil
}

// Len returns the number of active patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return m.patterns
}

// IsIgnored reports whether the archive path, or any directory above it,
// matches the ignore patterns.
func (m *Matcher) IsIgnored(archivePath string) bool {
	if m.Len() == 0 {
		return false
	}
	parts := splitPath(strings.ToLower(filepath.ToSlash(archivePath)))
	if len(parts) == 0 {
		return false
	}
	for i := 1; i < len(parts); i++ {
		if m.matcher.Match(parts[:i], true) {
			return true
		}
	}
	return m.matcher.Match(parts, false)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}

	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}

	return result
}
