// Package listing writes the dry-run file listing and reports how it changed
// since the previous run.
package listing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/fulmenhq/mappack/pkg/safeio"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 2

// Write replaces the listing at path with data and returns a unified diff
// from the previous listing. The diff is empty when there was no previous
// listing or nothing changed.
func Write(path string, data []byte) (string, error) {
	old, err := os.ReadFile(path) // #nosec G304 -- listing path chosen by the user
	hadOld := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read previous listing: %w", err)
	}
	if err := safeio.WriteFilePreservePerms(path, data); err != nil {
		return "", fmt.Errorf("write listing %s: %w", path, err)
	}
	if !hadOld {
		return "", nil
	}
	return Diff(path+" (previous)", path, old, data)
}

// Diff returns a unified diff of a to b, or "" when they are equal.
func Diff(aName, bName string, a, b []byte) (string, error) {
	if string(a) == string(b) {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        splitLines(string(a)),
		B:        splitLines(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  DefaultContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", fmt.Errorf("diff listing: %w", err)
	}
	return s, nil
}

// Stat counts added and removed lines in a unified diff body.
func Stat(diff string) (added, removed int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
