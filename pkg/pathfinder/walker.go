package pathfinder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SafeWalker traverses a directory tree sequentially in lexical order,
// without following symlinked directories.
type SafeWalker struct {
	maxDepth int
}

// NewSafeWalker creates a new safe directory walker
func NewSafeWalker() *SafeWalker {
	return &SafeWalker{maxDepth: 32}
}

// WalkDirectory calls walkFunc for every regular file under basePath.
func (w *SafeWalker) WalkDirectory(basePath string, walkFunc WalkFunc, opts WalkOptions) error {
	st, err := os.Stat(basePath)
	if err != nil {
		return fmt.Errorf("walk %s: %w", basePath, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("walk %s: not a directory", basePath)
	}
	for _, p := range opts.SkipPatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid skip pattern %q", p)
		}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = w.maxDepth
	}

	return filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if opts.ErrorHandler == nil {
				return err
			}
			herr := opts.ErrorHandler(path, err)
			if errors.Is(herr, ErrSkip) {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			return herr
		}
		if path == basePath {
			return nil
		}

		rel, relErr := filepath.Rel(basePath, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.Count(rel, "/")+1 > opts.MaxDepth {
				return filepath.SkipDir
			}
			for _, skip := range opts.SkipDirs {
				if strings.EqualFold(d.Name(), skip) {
					return filepath.SkipDir
				}
			}
			if matchAny(opts.SkipPatterns, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchAny(opts.SkipPatterns, rel) {
			return nil
		}
		return walkFunc(path, rel, d)
	})
}

// Files returns every regular file under basePath as absolute paths.
func (w *SafeWalker) Files(basePath string, opts WalkOptions) ([]string, error) {
	var out []string
	err := w.WalkDirectory(basePath, func(path, _ string, _ fs.DirEntry) error {
		out = append(out, path)
		return nil
	}, opts)
	return out, err
}

func matchAny(patterns []string, rel string) bool {
	lower := strings.ToLower(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}

// ErrSkip can be returned by an ErrorHandler to ignore an unreadable entry.
var ErrSkip = errors.New("skip entry")
