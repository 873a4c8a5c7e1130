package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/ignore"
	"github.com/fulmenhq/mappack/pkg/logger"
)

// Rules are the user's explicit include and exclude selections.
//
// Include paths are files or directories on disk. Exclude paths are either
// absolute, compared against entry sources, or content-relative, compared
// against archive paths. Both comparisons ignore case and separator style.
type Rules struct {
	Includes     []string
	IncludeDirs  []string
	Excludes     []string
	ExcludeDirs  []string
	ExcludeGlobs []string
	Ignore       *ignore.Matcher
}

// Check drops include and exclude paths that do not exist, recording a
// caution for each. Relative excludes exist when any root has them.
func (r Rules) Check(roots gameinfo.Roots, diags *diag.Collector) Rules {
	if diags == nil {
		diags = diag.NewCollector(logger.Default())
	}
	out := Rules{ExcludeGlobs: r.ExcludeGlobs, Ignore: r.Ignore}
	for _, p := range r.Includes {
		if isFile(p) {
			out.Includes = append(out.Includes, p)
			continue
		}
		diags.Caution(diag.KindMissingInclude, p, "Could not find file: %s", p)
	}
	for _, p := range r.IncludeDirs {
		if isDir(p) {
			out.IncludeDirs = append(out.IncludeDirs, p)
			continue
		}
		diags.Caution(diag.KindMissingInclude, p, "Could not find folder: %s", p)
	}
	for _, p := range r.Excludes {
		if existsUnder(p, roots, isFile) {
			out.Excludes = append(out.Excludes, p)
			continue
		}
		diags.Caution(diag.KindMissingExclude, p, "Could not find file: %s", p)
	}
	for _, p := range r.ExcludeDirs {
		if existsUnder(p, roots, isDir) {
			out.ExcludeDirs = append(out.ExcludeDirs, p)
			continue
		}
		diags.Caution(diag.KindMissingExclude, p, "Could not find folder: %s", p)
	}
	return out
}

func existsUnder(p string, roots gameinfo.Roots, test func(string) bool) bool {
	if filepath.IsAbs(p) {
		return test(p)
	}
	for _, root := range roots {
		if test(filepath.Join(root, filepath.FromSlash(p))) {
			return true
		}
	}
	return false
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

// excluder answers whether an entry is removed by the exclude rules.
type excluder struct {
	absFiles map[string]bool
	relFiles map[string]bool
	absDirs  []string
	relDirs  []string
	globs    []string
	ignore   *ignore.Matcher
}

func newExcluder(r Rules) *excluder {
	x := &excluder{absFiles: map[string]bool{}, relFiles: map[string]bool{}, ignore: r.Ignore}
	for _, p := range r.Excludes {
		if filepath.IsAbs(p) {
			x.absFiles[normAbs(p)] = true
		} else {
			x.relFiles[assets.Key(p)] = true
		}
	}
	for _, p := range r.ExcludeDirs {
		if filepath.IsAbs(p) {
			x.absDirs = append(x.absDirs, normAbs(p))
		} else {
			x.relDirs = append(x.relDirs, strings.TrimSuffix(assets.Key(p), "/"))
		}
	}
	for _, g := range r.ExcludeGlobs {
		x.globs = append(x.globs, strings.ToLower(filepath.ToSlash(g)))
	}
	return x
}

// reason returns a short description of the rule excluding e, or "".
func (x *excluder) reason(e Entry) string {
	src := normAbs(e.Source)
	archive := assets.Key(e.Archive)
	if x.absFiles[src] || x.relFiles[archive] {
		return "exclude"
	}
	for _, d := range x.absDirs {
		if underDir(src, d) {
			return "excludedir " + d
		}
	}
	for _, d := range x.relDirs {
		if underDir(archive, d) {
			return "excludedir " + d
		}
	}
	for _, g := range x.globs {
		if ok, _ := doublestar.Match(g, archive); ok {
			return "glob " + g
		}
	}
	if x.ignore != nil && x.ignore.IsIgnored(archive) {
		return "ignore file"
	}
	return ""
}

func normAbs(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
}

func underDir(p, dir string) bool {
	dir = strings.TrimSuffix(dir, "/")
	return strings.HasPrefix(p, dir+"/")
}
