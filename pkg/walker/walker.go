// Package walker computes the transitive closure of a map's asset
// dependencies: materials to textures, models to materials and sidecars,
// particle systems to materials, seeded from the map's pakfile, entities and
// companion files.
package walker

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/keys"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/pathfinder"
)

// Options configures a walk.
type Options struct {
	Keys     *keys.Tables
	Resolver *pathfinder.Resolver
	Diags    *diag.Collector
	Log      *logger.Logger
	Verbose  bool
}

// Walker owns one dependency set and its frontier.
type Walker struct {
	opts     Options
	set      *assets.Set
	frontier []*assets.Entry
	expanded map[string]bool
}

// New returns a walker with an empty set.
func New(opts Options) *Walker {
	if opts.Keys == nil {
		opts.Keys = keys.Defaults()
	}
	if opts.Resolver == nil {
		opts.Resolver = pathfinder.NewResolver(nil)
	}
	if opts.Log == nil {
		opts.Log = logger.Default()
	}
	if opts.Diags == nil {
		opts.Diags = diag.NewCollector(opts.Log)
	}
	return &Walker{
		opts:     opts,
		set:      assets.NewSet(),
		expanded: make(map[string]bool),
	}
}

// Set returns the dependency set built so far.
func (w *Walker) Set() *assets.Set { return w.set }

// Add records a content-relative path of the given kind. New entries are
// resolved against the content roots and queued for expansion. Optional
// entries are only added when they resolve.
func (w *Walker) Add(p string, kind assets.Kind, from string, optional bool) {
	if p == "" {
		return
	}
	if w.set.Has(p) {
		w.set.Add(assets.Entry{Ref: assets.Reference{Path: p, Kind: kind}, Optional: optional})
		return
	}
	res := w.opts.Resolver.Resolve(p)
	if optional && !res.Found() {
		return
	}
	e, added := w.set.Add(assets.Entry{
		Ref:      assets.Reference{Path: p, Kind: kind, From: from},
		Source:   res.Path,
		Root:     res.Root,
		Optional: optional,
	})
	if added {
		w.frontier = append(w.frontier, e)
	}
}

// AddEmbedded records a file already inside the map's pakfile; source is its
// extracted copy.
func (w *Walker) AddEmbedded(rel, source string) {
	e, added := w.set.Add(assets.Entry{
		Ref:      assets.Reference{Path: rel, Kind: assets.KindForPath(rel), From: "pakfile"},
		Source:   source,
		Root:     -1,
		Embedded: true,
	})
	if added {
		w.frontier = append(w.frontier, e)
	}
}

// exists reports whether rel is in the pakfile or under a content root.
func (w *Walker) exists(rel string) bool {
	if e, ok := w.set.Get(rel); ok && e.Resolved() {
		return true
	}
	return w.opts.Resolver.Resolve(rel).Found()
}

// Close expands queued entries until no new entry appears and returns how
// many entries were added during the call. A second call returns zero.
func (w *Walker) Close() int {
	before := w.set.Len()
	for len(w.frontier) > 0 {
		e := w.frontier[0]
		w.frontier = w.frontier[1:]

		key := e.Ref.Key()
		if w.expanded[key] {
			continue
		}
		w.expanded[key] = true
		if !e.Resolved() {
			continue
		}
		w.expand(e)
	}
	added := w.set.Len() - before
	w.opts.Log.Debug("Dependency closure complete", logger.Int("entries", w.set.Len()), logger.Int("added", added))
	return added
}

func (w *Walker) expand(e *assets.Entry) {
	var err error
	switch e.Ref.Kind {
	case assets.KindMaterial:
		err = w.expandMaterial(e)
	case assets.KindModel:
		err = w.expandModel(e)
	case assets.KindParticle:
		err = w.expandParticle(e)
	case assets.KindEffectScript:
		err = w.expandEffectScript(e)
	}
	if err != nil {
		w.opts.Diags.Caution(diag.KindParse, e.Source, "Failed to parse %s: %v", e.Ref.Path, err)
	}
}

func (w *Walker) read(e *assets.Entry) ([]byte, error) {
	data, err := os.ReadFile(e.Source) // #nosec G304 -- resolved under a content root or scratch dir
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}

func (w *Walker) note(msg string, fields ...logger.Field) {
	if w.opts.Verbose {
		w.opts.Log.Info(msg, fields...)
		return
	}
	w.opts.Log.Trace(msg, fields...)
}

// skipValue filters engine placeholders that are not files.
func skipValue(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	return lower == "" || lower == "env_cubemap" || strings.HasPrefix(lower, "_rt_") || strings.HasPrefix(lower, "[")
}
