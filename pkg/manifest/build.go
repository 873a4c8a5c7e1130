package manifest

import (
	"path/filepath"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/pathfinder"
)

// Options configures Build.
type Options struct {
	Roots gameinfo.Roots
	// Rules should already have passed Rules.Check.
	Rules Rules
	// Slots are the located utility files, packed under their archive names.
	Slots   []bsp.SlotFile
	Diags   *diag.Collector
	Log     *logger.Logger
	Verbose bool
}

// Build produces the manifest for set.
//
// Resolved dependencies come first, then utility files, explicit include
// files and include directories. Exclude rules run last and remove entries
// whatever their origin, so an excluded explicit include is dropped with a
// caution. Entries already embedded in the map are not repacked.
func Build(set *assets.Set, opts Options) (*Manifest, Counts) {
	if opts.Log == nil {
		opts.Log = logger.Default()
	}
	if opts.Diags == nil {
		opts.Diags = diag.NewCollector(opts.Log)
	}
	note := opts.Log.Debug
	if opts.Verbose {
		note = opts.Log.Info
	}

	m := New()
	for _, e := range set.Entries() {
		if e.Embedded {
			continue
		}
		if !e.Resolved() {
			unresolved(opts, e)
			continue
		}
		m.Add(Entry{
			Archive: archivePath(opts.Roots, e.Root, e.Source, e.Ref.Path),
			Source:  e.Source,
			Root:    e.Root,
			Kind:    e.Ref.Kind,
			Origin:  OriginDependency,
		})
	}

	for _, s := range opts.Slots {
		if !s.Present() {
			continue
		}
		m.Add(Entry{Archive: s.Archive, Source: s.Source, Root: s.Root, Kind: assets.KindForPath(s.Archive), Origin: OriginUtility})
	}

	for _, p := range opts.Rules.Includes {
		p = absPath(p)
		if !isFile(p) {
			opts.Diags.Error(diag.KindMissingInclude, p, "Included file is missing: %s", p)
			continue
		}
		root := opts.Roots.Owner(p)
		if root < 0 {
			opts.Diags.Caution(diag.KindMissingInclude, p, "Included file is not under any content root: %s", p)
			continue
		}
		archive := archivePath(opts.Roots, root, p, "")
		m.Add(Entry{Archive: archive, Source: p, Root: root, Kind: assets.KindForPath(archive), Origin: OriginInclude})
	}

	for _, dir := range opts.Rules.IncludeDirs {
		dir = absPath(dir)
		root := opts.Roots.Owner(dir)
		if root < 0 {
			opts.Diags.Caution(diag.KindMissingInclude, dir, "Included folder is not under any content root: %s", dir)
			continue
		}
		files, err := pathfinder.NewSafeWalker().Files(dir, pathfinder.WalkOptions{})
		if err != nil {
			opts.Diags.Error(diag.KindMissingInclude, dir, "Could not read folder %s: %v", dir, err)
			continue
		}
		for _, f := range files {
			// A root nested inside dir owns the files below it.
			fr := opts.Roots.Owner(f)
			if fr < 0 {
				fr = root
			}
			archive := archivePath(opts.Roots, fr, f, "")
			m.Add(Entry{Archive: archive, Source: f, Root: fr, Kind: assets.KindForPath(archive), Origin: OriginIncludeDir})
		}
		note("Included folder", logger.String("dir", dir), logger.Int("files", len(files)))
	}

	x := newExcluder(opts.Rules)
	m.filter(func(e Entry) bool {
		why := x.reason(e)
		if why == "" {
			return true
		}
		if e.Origin == OriginInclude {
			opts.Diags.Caution(diag.KindMissingInclude, e.Source, "Included file removed by %s: %s", why, e.Archive)
		}
		note("Excluded", logger.String("archive", e.Archive), logger.String("rule", why))
		return false
	})

	return m, m.Counts()
}

func unresolved(opts Options, e *assets.Entry) {
	if len(opts.Roots) == 0 {
		opts.Diags.Error(diag.KindUnresolved, e.Ref.Path, "Could not resolve %s (no content roots)", e.Ref.Path)
		return
	}
	opts.Diags.Caution(diag.KindUnresolved, e.Ref.Path, "Could not find %s referenced by %s", e.Ref.Path, e.Ref.From)
}

// archivePath is source relative to its owning root, falling back to the
// logical path when the source is not below that root.
func archivePath(roots gameinfo.Roots, root int, source, logical string) string {
	if rel, ok := roots.Rel(root, source); ok {
		return rel
	}
	if logical != "" {
		return logical
	}
	return filepath.ToSlash(filepath.Base(source))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
