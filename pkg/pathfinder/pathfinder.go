// Package pathfinder finds content files: it resolves content-relative asset
// paths against ordered search roots and walks directory trees for files to
// pack.
package pathfinder

import (
	"io/fs"
)

// WalkOptions configures directory walking
type WalkOptions struct {
	// MaxDepth limits recursion below the base directory (0 = unlimited)
	MaxDepth int
	// SkipDirs are directory base names that are never entered
	SkipDirs []string
	// SkipPatterns are doublestar globs matched against the slash-separated
	// path relative to the base directory
	SkipPatterns []string
	// ErrorHandler decides what to do with an unreadable entry; nil aborts
	ErrorHandler ErrorHandlerFunc
}

// WalkFunc receives each regular file: its absolute path and its path
// relative to the walked base, with forward slashes.
type WalkFunc func(path, rel string, d fs.DirEntry) error

// ErrorHandlerFunc handles errors during directory walking
type ErrorHandlerFunc func(path string, err error) error
