// Package pack runs one packaging job: resolve content roots, read the map,
// locate its utility files, walk its dependencies, build the manifest and hand
// it to the archive tools.
package pack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/keys"
	"github.com/fulmenhq/mappack/pkg/locator"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/manifest"
	"github.com/fulmenhq/mappack/pkg/pathfinder"
	"github.com/fulmenhq/mappack/pkg/tools"
	"github.com/fulmenhq/mappack/pkg/walker"
)

// ErrNoArchiver is returned when packing needs a tool that was not configured.
var ErrNoArchiver = errors.New("archive tool not configured")

// MapPlaceholder in output paths is replaced by the map name.
const MapPlaceholder = "{map}"

// Options are the inputs of one run.
type Options struct {
	MapPath string
	GameDir string
	Bspzip  string
	VPKTool string
	Exec    tools.ToolExecutor
	Keys    *keys.Tables
	Rules   manifest.Rules

	DryRun                   bool
	Verbose                  bool
	RenameNav                bool
	VPK                      bool
	GenerateParticleManifest bool
	AddonInfo                string

	// ListingPath receives the add list; defaults to files.txt.
	ListingPath string
	ManifestOut string
	CopyTo      string
	// ScratchRoot is where the per-run scratch directory is created.
	ScratchRoot string
}

// RunContext is everything one run owns. Nothing in it is shared with other
// runs, so maps can be packed concurrently.
type RunContext struct {
	Options
	Log   *logger.Logger
	Diags *diag.Collector
}

// NewRunContext tags log with the map name and gives the run its own
// diagnostics collector.
func NewRunContext(opts Options, log *logger.Logger) *RunContext {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.String("map", MapName(opts.MapPath)))
	if opts.Exec == nil {
		opts.Exec = tools.NewExecutor(tools.ModeAuto)
	}
	if opts.Keys == nil {
		opts.Keys = keys.Defaults()
	}
	if opts.ListingPath == "" {
		opts.ListingPath = "files.txt"
	}
	return &RunContext{Options: opts, Log: log, Diags: diag.NewCollector(log)}
}

// Result describes a finished run.
type Result struct {
	Map          string
	Roots        gameinfo.Roots
	Found        []bsp.Slot
	Embedded     int
	Manifest     *manifest.Manifest
	Counts       manifest.Counts
	Digest       string
	ListingPath  string
	ListingDiff  string
	VPKPath      string
	ArchiveCalls int
	DryRun       bool
	Diagnostics  []diag.Diagnostic
}

// MapName is the map file's base name without extension.
func MapName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run executes one packaging job. A missing map and any panic inside the run
// come back as *diag.FatalError; other failures are returned as plain errors
// after being recorded. The result is never nil.
func Run(ctx context.Context, rc *RunContext) (res *Result, err error) {
	res = &Result{Map: MapName(rc.MapPath), DryRun: rc.DryRun}
	defer func() {
		if r := recover(); r != nil {
			fe := diag.Fatal(diag.KindInternal, rc.MapPath, fmt.Errorf("panic: %v", r), "Internal error while packing %s", res.Map)
			rc.Diags.Add(fe.Diagnostic)
			rc.Log.Debug("Panic stack", logger.String("stack", string(debug.Stack())))
			err = fe
		}
		res.Diagnostics = rc.Diags.Items()
	}()
	err = run(ctx, rc, res)
	return res, err
}

func run(ctx context.Context, rc *RunContext, res *Result) error {
	log := rc.Log
	if abs, err := filepath.Abs(rc.MapPath); err == nil {
		rc.MapPath = abs
	}
	log.Info("Reading map", logger.String("path", rc.MapPath))
	m, err := bsp.Open(rc.MapPath)
	if err != nil {
		var fe *diag.FatalError
		if errors.As(err, &fe) {
			rc.Diags.Add(fe.Diagnostic)
		}
		return err
	}

	log.Info("Finding sources of game content")
	roots, err := gameinfo.Load(rc.GameDir, gameinfo.Options{Log: log, Verbose: rc.Verbose}, rc.Diags)
	if err != nil {
		rc.Diags.Error(diag.KindMissingRoot, rc.GameDir, "Could not read content roots: %v", err)
		return err
	}
	res.Roots = roots
	resolver := pathfinder.NewResolver(roots)

	scratch, err := os.MkdirTemp(rc.ScratchRoot, "mappack-"+res.Map+"-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Warn("Failed to remove scratch directory", logger.String("dir", scratch), logger.Err(err))
		}
	}()

	pakDir := filepath.Join(scratch, "pak")
	res.Embedded = rc.extract(ctx, m, pakDir)

	detail := ""
	if ents, err := m.Entities(); err == nil {
		if world, ok := bsp.Worldspawn(ents); ok {
			detail, _ = world.Get("detailvbsp")
		}
	}
	loc := locator.Locate(m, resolver, locator.Options{
		RenameNav:                rc.RenameNav,
		GenerateParticleManifest: rc.GenerateParticleManifest,
		DetailFile:               detail,
		Verbose:                  rc.Verbose,
	}, rc.Diags, log)

	log.Info("Walking dependencies")
	set, err := walker.Walk(m, pakDir, walker.Options{
		Keys:     rc.Keys,
		Resolver: resolver,
		Diags:    rc.Diags,
		Log:      log,
		Verbose:  rc.Verbose,
	})
	if err != nil {
		return err
	}

	if loc.GenerateParticleManifest {
		if err := generateParticleManifest(m, set, filepath.Join(scratch, "generated"), log); err != nil {
			rc.Diags.Error(diag.KindInternal, "", "Failed to generate particle manifest: %v", err)
		}
	}
	for _, s := range bsp.Slots {
		if m.Slot(s).Present() {
			res.Found = append(res.Found, s)
		}
	}

	log.Info("Building manifest")
	var slots []bsp.SlotFile
	for _, s := range bsp.Slots {
		slots = append(slots, m.Slot(s))
	}
	man, counts := manifest.Build(set, manifest.Options{
		Roots:   roots,
		Rules:   rc.Rules.Check(roots, rc.Diags),
		Slots:   slots,
		Diags:   rc.Diags,
		Log:     log,
		Verbose: rc.Verbose,
	})
	res.Manifest, res.Counts = man, counts

	if rc.VPK {
		err = rc.packVPK(ctx, m, man, scratch, res)
	} else {
		err = rc.packInPlace(ctx, m, man, res)
	}
	if err != nil {
		return err
	}
	res.Counts = man.Counts()
	res.Digest = man.Digest()

	if rc.ManifestOut != "" {
		out := expand(rc.ManifestOut, res.Map)
		if err := man.WriteFile(out, res.Map); err != nil {
			rc.Diags.Error(diag.KindInternal, out, "%v", err)
			return err
		}
		log.Info("Manifest written", logger.String("path", out))
	}
	return nil
}

// extract unpacks the embedded pakfile. Failure is not fatal: the pakfile
// may simply be empty.
func (rc *RunContext) extract(ctx context.Context, m *bsp.Map, dir string) int {
	if rc.Bspzip == "" {
		n, err := m.ExtractPak(dir)
		if err != nil {
			rc.Diags.Caution(diag.KindExternalTool, m.Path, "Failed to read pakfile: %v", err)
		}
		return n
	}
	n, out, err := m.Extract(ctx, &tools.Bspzip{Path: rc.Bspzip, GameDir: rc.GameDir, Exec: rc.Exec}, dir)
	rc.toolOutput(out)
	if err != nil {
		rc.Diags.Caution(diag.KindExternalTool, m.Path, "Pakfile extraction failed, continuing with %d recovered files: %v", n, err)
	}
	return n
}

func (rc *RunContext) toolOutput(out *tools.ExecuteResult) {
	if out == nil || len(out.Stdout) == 0 {
		return
	}
	if rc.Verbose {
		rc.Log.Info(strings.TrimSpace(string(out.Stdout)))
		return
	}
	rc.Log.Debug(strings.TrimSpace(string(out.Stdout)))
}

// generateParticleManifest writes <dir>/maps/<map>_particles.txt listing every
// particle file in set and installs it in the particle manifest slot.
func generateParticleManifest(m *bsp.Map, set *assets.Set, dir string, log *logger.Logger) error {
	var files []string
	for _, e := range set.OfKind(assets.KindParticle) {
		if e.Resolved() {
			files = append(files, e.Ref.Path)
		}
	}
	if len(files) == 0 {
		log.Debug("No particle files found, no manifest generated")
		return nil
	}

	var b strings.Builder
	b.WriteString("particles_manifest\n{\n")
	for _, f := range files {
		fmt.Fprintf(&b, "\t\"file\"\t\"!%s\"\n", f)
	}
	b.WriteString("}\n")

	archive := locator.GeneratedManifestPath(m.Name)
	path := filepath.Join(dir, filepath.FromSlash(archive))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil { // #nosec G306 -- packed game content
		return err
	}
	m.SetSlot(bsp.SlotParticleManifest, bsp.SlotFile{Source: path, Archive: archive, Root: -1, Generated: true})
	log.Info("Generated particle manifest", logger.Int("particles", len(files)))
	return nil
}

func expand(p, mapName string) string {
	return strings.ReplaceAll(p, MapPlaceholder, mapName)
}
