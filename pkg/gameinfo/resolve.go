package gameinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/logger"
)

// Roots is the ordered list of content search roots. Earlier roots override
// later ones for assets with the same content-relative path.
type Roots []string

// FS is the directory capability the resolver needs.
type FS interface {
	IsDir(path string) bool
	SubDirs(path string) ([]string, error)
}

// OSFS answers FS questions from the local filesystem.
type OSFS struct{}

func (OSFS) IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// SubDirs returns the immediate subdirectories of path in name order.
func (OSFS) SubDirs(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(path, e.Name()))
		}
	}
	return dirs, nil
}

// Options controls resolution.
type Options struct {
	FS      FS
	Log     *logger.Logger
	Verbose bool
}

// Resolve maps parsed entries to absolute search roots. contentDir is the
// directory holding the descriptor. Order is preserved, nothing is deduplicated.
func Resolve(contentDir string, entries []Entry, opts Options) Roots {
	fsys := opts.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	log := opts.Log
	if log == nil {
		log = logger.Default()
	}
	note := log.Debug
	if opts.Verbose {
		note = log.Info
	}

	contentDir = filepath.Clean(contentDir)
	parent := filepath.Dir(contentDir)

	var roots Roots
	for _, e := range entries {
		value := normalizeSeparators(e.Value)
		if value == "" {
			continue
		}
		if strings.Contains(value, "|") && !strings.Contains(value, GameInfoToken) {
			continue
		}
		if strings.Contains(strings.ToLower(value), ".vpk") {
			continue
		}

		switch {
		case strings.Contains(value, "*"):
			dir := wildcardBase(contentDir, parent, value)
			note("Found wildcard path", logger.String("path", dir))
			subdirs, err := fsys.SubDirs(dir)
			if err != nil {
				log.Debug("Wildcard path not listable", logger.String("path", dir), logger.Err(err))
				continue
			}
			roots = append(roots, subdirs...)

		case strings.Contains(value, GameInfoToken):
			rest := strings.ReplaceAll(value, GameInfoToken, "")
			dir := filepath.Clean(filepath.Join(contentDir, rest))
			note("Found search path", logger.String("path", dir))
			roots = append(roots, dir)

		case filepath.IsAbs(value) && fsys.IsDir(value):
			note("Found search path", logger.String("path", value))
			roots = append(roots, filepath.Clean(value))

		default:
			dir := filepath.Clean(filepath.Join(parent, value))
			note("Found search path", logger.String("path", dir))
			roots = append(roots, dir)
		}
	}
	return roots
}

// wildcardBase strips the wildcard and returns the directory whose children
// become roots. Every branch yields a directory.
func wildcardBase(contentDir, parent, value string) string {
	stripped := strings.ReplaceAll(value, "*", "")
	if strings.Contains(stripped, GameInfoToken) {
		rest := strings.ReplaceAll(stripped, GameInfoToken, "")
		return filepath.Clean(filepath.Join(contentDir, rest))
	}
	if filepath.IsAbs(stripped) {
		return filepath.Clean(stripped)
	}
	return filepath.Clean(filepath.Join(parent, stripped))
}

func normalizeSeparators(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, `"`, ""))
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}

// Load reads <contentDir>/gameinfo.txt and resolves its search paths. A missing
// descriptor is recorded as a caution and yields no roots.
func Load(contentDir string, opts Options, diags *diag.Collector) (Roots, error) {
	path := filepath.Join(contentDir, DescriptorName)
	f, err := os.Open(path) // #nosec G304 -- descriptor inside the configured game folder
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if diags != nil {
				diags.Caution(diag.KindMissingRoot, path, "Couldn't find %s", DescriptorName)
			}
			return Roots{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Resolve(contentDir, entries, opts), nil
}

// Owner returns the index of the deepest root containing path, or -1. Of
// equally deep roots the earlier one wins.
func (r Roots) Owner(path string) int {
	norm := foldPath(path)
	owner, depth := -1, -1
	for i, root := range r {
		rn := foldPath(root)
		if (norm == rn || strings.HasPrefix(norm, rn+"/")) && len(rn) > depth {
			owner, depth = i, len(rn)
		}
	}
	return owner
}

// Rel returns path relative to root i with forward slashes. The comparison
// ignores case, matching Owner.
func (r Roots) Rel(i int, path string) (string, bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	p := filepath.ToSlash(filepath.Clean(path))
	root := strings.TrimRight(filepath.ToSlash(filepath.Clean(r[i])), "/")
	if len(p) <= len(root)+1 || !strings.EqualFold(p[:len(root)], root) || p[len(root)] != '/' {
		return "", false
	}
	return p[len(root)+1:], true
}

func foldPath(p string) string {
	return strings.TrimRight(strings.ToLower(filepath.ToSlash(filepath.Clean(p))), "/")
}
