package pathfinder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/safeio"
)

// Resolver maps content-relative paths to files under ordered search roots.
// Lookups ignore case, the way the engine does, so a material referenced as
// "Metal/Plate01" resolves to metal/plate01.vtf on case-sensitive filesystems.
// A Resolver belongs to one run and is not safe for concurrent use.
type Resolver struct {
	roots gameinfo.Roots
	dirs  map[string]map[string]string
	memo  map[string]Resolution
}

// Resolution is the outcome of resolving one path.
type Resolution struct {
	Path string
	Root int
}

// Found reports whether the path resolved.
func (r Resolution) Found() bool { return r.Path != "" }

// NewResolver creates a resolver over roots.
func NewResolver(roots gameinfo.Roots) *Resolver {
	return &Resolver{
		roots: roots,
		dirs:  make(map[string]map[string]string),
		memo:  make(map[string]Resolution),
	}
}

// Roots returns the search roots.
func (r *Resolver) Roots() gameinfo.Roots { return r.roots }

// Resolve returns the file for rel under the first root that has it.
func (r *Resolver) Resolve(rel string) Resolution {
	clean, err := safeio.CleanArchivePath(rel)
	if err != nil {
		return Resolution{Root: -1}
	}
	key := strings.ToLower(clean)
	if res, ok := r.memo[key]; ok {
		return res
	}
	res := Resolution{Root: -1}
	for i, root := range r.roots {
		if p, ok := r.lookup(root, clean); ok {
			res = Resolution{Path: p, Root: i}
			break
		}
	}
	r.memo[key] = res
	return res
}

// ResolveIn looks for rel under a single root.
func (r *Resolver) ResolveIn(root int, rel string) (string, bool) {
	if root < 0 || root >= len(r.roots) {
		return "", false
	}
	clean, err := safeio.CleanArchivePath(rel)
	if err != nil {
		return "", false
	}
	return r.lookup(r.roots[root], clean)
}

func (r *Resolver) lookup(root, rel string) (string, bool) {
	exact := filepath.Join(root, filepath.FromSlash(rel))
	if isRegular(exact) {
		return exact, true
	}

	cur := root
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		name, ok := r.child(cur, part)
		if !ok {
			return "", false
		}
		cur = filepath.Join(cur, name)
		if i == len(parts)-1 {
			return cur, isRegular(cur)
		}
	}
	return "", false
}

// child finds name in dir ignoring case. Listings are cached per run.
func (r *Resolver) child(dir, name string) (string, bool) {
	listing, ok := r.dirs[dir]
	if !ok {
		listing = map[string]string{}
		if entries, err := os.ReadDir(dir); err == nil {
			for _, e := range entries {
				lower := strings.ToLower(e.Name())
				if _, dup := listing[lower]; !dup {
					listing[lower] = e.Name()
				}
			}
		}
		r.dirs[dir] = listing
	}
	actual, ok := listing[strings.ToLower(name)]
	return actual, ok
}

func isRegular(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
