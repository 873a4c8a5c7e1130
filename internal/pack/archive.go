package pack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/listing"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/manifest"
	"github.com/fulmenhq/mappack/pkg/safeio"
	"github.com/fulmenhq/mappack/pkg/tools"
)

// UnpackedSuffix is appended to a copy destination that already existed.
const UnpackedSuffix = ".unpacked"

// writeListing writes the add list and logs how it changed since the last run.
func (rc *RunContext) writeListing(man *manifest.Manifest, mapper func(string) string, res *Result) (string, error) {
	path, err := filepath.Abs(expand(rc.ListingPath, res.Map))
	if err != nil {
		return "", err
	}
	diff, err := listing.Write(path, man.Listing(mapper))
	if err != nil {
		rc.Diags.Error(diag.KindInternal, path, "%v", err)
		return "", err
	}
	res.ListingPath, res.ListingDiff = path, diff
	if diff != "" {
		added, removed := listing.Stat(diff)
		note := rc.Log.Debug
		if rc.Verbose {
			note = rc.Log.Info
		}
		note("Listing changed since last run", logger.Int("added", added), logger.Int("removed", removed))
		note(diff)
	}
	rc.Log.Info("File list saved", logger.String("path", path))
	return path, nil
}

// packInPlace appends the manifest to the map's pakfile with bspzip.
func (rc *RunContext) packInPlace(ctx context.Context, m *bsp.Map, man *manifest.Manifest, res *Result) error {
	var mapper func(string) string
	if !rc.DryRun {
		mapper = tools.PathMapper(rc.Exec, rc.Bspzip)
	}
	path, err := rc.writeListing(man, mapper, res)
	if err != nil {
		return err
	}
	if rc.DryRun {
		rc.Log.Info("Dry run, skipping packing")
		return nil
	}
	if rc.Bspzip == "" {
		rc.Diags.Error(diag.KindMissingUtility, "bspzip", "No bspzip configured, cannot pack %s", m.Path)
		return fmt.Errorf("bspzip: %w", ErrNoArchiver)
	}

	rc.Log.Info("Running bspzip")
	out, err := (&tools.Bspzip{Path: rc.Bspzip, GameDir: rc.GameDir, Exec: rc.Exec}).AddList(ctx, m.Path, path)
	res.ArchiveCalls++
	rc.toolOutput(out)
	if err != nil {
		rc.Diags.Error(diag.KindExternalTool, m.Path, "%v", err)
		return err
	}

	if rc.CopyTo != "" {
		dest, err := copyBack(m.Path, rc.CopyTo, rc.Log)
		if err != nil {
			rc.Diags.Error(diag.KindInternal, rc.CopyTo, "Failed to copy packed map: %v", err)
			return err
		}
		rc.Log.Info("Copied packed map", logger.String("dest", dest))
	}
	return nil
}

// packVPK writes <map>.vpk next to the map, running the package builder once
// per directory the manifest entries are relative to.
func (rc *RunContext) packVPK(ctx context.Context, m *bsp.Map, man *manifest.Manifest, scratch string, res *Result) error {
	res.VPKPath = strings.TrimSuffix(m.Path, filepath.Ext(m.Path)) + ".vpk"

	mapArchive := "maps/" + filepath.Base(m.Path)
	if rel, ok := res.Roots.Rel(res.Roots.Owner(m.Path), m.Path); ok {
		mapArchive = rel
	} else if rel, err := filepath.Rel(rc.GameDir, m.Path); err == nil && !strings.HasPrefix(rel, "..") {
		mapArchive = filepath.ToSlash(rel)
	}
	man.Add(manifest.Entry{Archive: mapArchive, Source: m.Path, Root: res.Roots.Owner(m.Path), Kind: assets.KindGeneric, Origin: manifest.OriginExtra})

	if rc.AddonInfo != "" {
		info, cleanup, err := rc.stageAddonInfo()
		if err != nil {
			rc.Diags.Caution(diag.KindMissingInclude, rc.AddonInfo, "Could not add addon info: %v", err)
		} else {
			defer cleanup()
			man.Add(manifest.Entry{Archive: "addoninfo.txt", Source: info, Root: -1, Kind: assets.KindGeneric, Origin: manifest.OriginExtra})
		}
	}

	if _, err := rc.writeListing(man, nil, res); err != nil {
		return err
	}
	if rc.DryRun {
		rc.Log.Info("Dry run, skipping packing")
		return nil
	}
	if rc.VPKTool == "" {
		rc.Diags.Error(diag.KindMissingUtility, "vpk", "No vpk tool configured, cannot pack %s", m.Path)
		return fmt.Errorf("vpk: %w", ErrNoArchiver)
	}

	if err := os.Remove(res.VPKPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove old package: %w", err)
	}

	groups, loose := man.Groups()
	if len(loose) > 0 {
		stage := filepath.Join(scratch, "stage")
		g := manifest.Group{Dir: stage}
		for _, e := range loose {
			dst := filepath.Join(stage, filepath.FromSlash(e.Archive))
			if err := safeio.CopyFile(e.Source, dst); err != nil {
				rc.Diags.Error(diag.KindInternal, e.Source, "Failed to stage %s: %v", e.Archive, err)
				continue
			}
			g.Archives = append(g.Archives, e.Archive)
		}
		if len(g.Archives) > 0 {
			groups = append(groups, g)
		}
	}

	vpk := &tools.VPK{Path: rc.VPKTool, Exec: rc.Exec}
	for i, g := range groups {
		resp := filepath.Join(scratch, fmt.Sprintf("response_%d.txt", i))
		if err := manifest.WriteResponse(resp, g.Archives); err != nil {
			return err
		}
		rc.Log.Info("Running vpk", logger.String("dir", g.Dir), logger.Int("files", len(g.Archives)))
		out, err := vpk.Add(ctx, res.VPKPath, resp, g.Dir)
		res.ArchiveCalls++
		rc.toolOutput(out)
		if err != nil {
			rc.Diags.Error(diag.KindExternalTool, g.Dir, "%v", err)
			return err
		}
	}
	rc.Log.Info("Package written", logger.String("path", res.VPKPath))
	return nil
}

// stageAddonInfo copies the addon info file to <game>/addoninfo.txt. A dry
// run packs it from where it is and leaves the game folder alone.
func (rc *RunContext) stageAddonInfo() (string, func(), error) {
	st, err := os.Stat(rc.AddonInfo)
	if err != nil {
		return "", nil, err
	}
	if !st.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%s is not a file", rc.AddonInfo)
	}
	if rc.DryRun || rc.GameDir == "" {
		return rc.AddonInfo, func() {}, nil
	}
	dst := filepath.Join(rc.GameDir, "addoninfo.txt")
	if err := safeio.CopyFile(rc.AddonInfo, dst); err != nil {
		return "", nil, err
	}
	return dst, func() {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			rc.Log.Warn("Failed to remove staged addon info", logger.String("path", dst), logger.Err(err))
		}
	}, nil
}

// copyBack copies the packed map to dest, renaming a file already there to
// dest + ".unpacked". A directory destination receives the map's base name.
func copyBack(src, dest string, log *logger.Logger) (string, error) {
	if st, err := os.Stat(dest); err == nil && st.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}
	if same(src, dest) {
		return dest, nil
	}
	if _, err := os.Stat(dest); err == nil {
		old := dest + UnpackedSuffix
		if err := os.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if err := os.Rename(dest, old); err != nil {
			return "", err
		}
		log.Debug("Kept previous map", logger.String("path", old))
	}
	return dest, safeio.CopyFile(src, dest)
}

func same(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
