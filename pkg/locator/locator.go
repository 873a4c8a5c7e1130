// Package locator finds a map's companion utility files (navigation mesh,
// soundscapes, detail sprites, particle manifest, radar, loading screen and
// resource sidecars) across the content roots.
package locator

import (
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/pathfinder"
)

// EmbeddedNavPath is where a renamed navigation mesh is packed.
const EmbeddedNavPath = "maps/embed.nav"

// Options carries the locator flags.
type Options struct {
	// RenameNav packs the navigation mesh as maps/embed.nav.
	RenameNav bool
	// GenerateParticleManifest marks a missing particle manifest for
	// synthesis after the walk instead of reporting it absent.
	GenerateParticleManifest bool
	// DetailFile is the worldspawn detailvbsp value, if any.
	DetailFile string
	Verbose    bool
}

// Candidates returns, per slot, the content-relative names tried in order.
func Candidates(mapName, detailFile string) map[bsp.Slot][]string {
	c := map[bsp.Slot][]string{
		bsp.SlotNav:              {"maps/" + mapName + ".nav"},
		bsp.SlotSoundscape:       {"scripts/soundscapes_" + mapName + ".txt"},
		bsp.SlotSoundscript:      {"maps/" + mapName + "_level_sounds.txt"},
		bsp.SlotParticleManifest: {"maps/" + mapName + "_particles.txt", "particles/" + mapName + "_manifest.txt"},
		bsp.SlotRadar:            {"resource/overviews/" + mapName + ".txt"},
		bsp.SlotRadarImage:       {"resource/overviews/" + mapName + "_radar.dds"},
		bsp.SlotLoadingText:      {"maps/" + mapName + ".txt"},
		bsp.SlotLoadingImage:     {"maps/" + mapName + ".jpg"},
		bsp.SlotKV:               {"maps/" + mapName + ".kv"},
		bsp.SlotRes:              {"maps/" + mapName + ".res"},
	}
	// without a detailvbsp key the engine uses the stock detail file
	if detailFile != "" {
		c[bsp.SlotDetail] = []string{detailFile}
	}
	return c
}

// Result summarizes one locate pass.
type Result struct {
	Found   []bsp.Slot
	Missing []bsp.Slot
	// GenerateParticleManifest is set when the manifest is to be synthesized.
	GenerateParticleManifest bool
}

// Locate fills m.Slots for every slot found under the resolver's roots, in
// root order. Absent slots stay at the zero value and produce a caution.
func Locate(m *bsp.Map, res *pathfinder.Resolver, opts Options, diags *diag.Collector, log *logger.Logger) Result {
	if log == nil {
		log = logger.Default()
	}
	note := log.Debug
	if opts.Verbose {
		note = log.Info
	}

	cands := Candidates(m.Name, opts.DetailFile)
	var out Result
	for _, slot := range bsp.Slots {
		found := false
		for _, rel := range cands[slot] {
			r := res.Resolve(rel)
			if !r.Found() {
				continue
			}
			archive := rel
			if slot == bsp.SlotNav && opts.RenameNav {
				archive = EmbeddedNavPath
			}
			m.SetSlot(slot, bsp.SlotFile{Source: r.Path, Archive: archive, Root: r.Root})
			note("Found utility file", logger.String("slot", string(slot)), logger.String("path", r.Path))
			found = true
			break
		}
		if found {
			out.Found = append(out.Found, slot)
			continue
		}

		out.Missing = append(out.Missing, slot)
		if len(cands[slot]) == 0 {
			continue
		}
		if slot == bsp.SlotParticleManifest && opts.GenerateParticleManifest {
			out.GenerateParticleManifest = true
			note("No particle manifest found, one will be generated")
			continue
		}
		if diags != nil {
			diags.Caution(diag.KindMissingUtility, cands[slot][0], "No %s file found", slot)
		}
	}
	return out
}

// GeneratedManifestPath is the archive path of a synthesized particle manifest.
func GeneratedManifestPath(mapName string) string {
	return "maps/" + mapName + "_particles.txt"
}
