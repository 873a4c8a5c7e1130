package walker

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/keyvalues"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/pathfinder"
)

// skyFaces are the six skybox material suffixes.
var skyFaces = []string{"up", "dn", "lf", "rt", "ft", "bk"}

// Walk seeds a walker from the extracted pakfile directory, the map's own
// data and its located utility files, then closes over the dependencies.
func Walk(m *bsp.Map, extractedDir string, opts Options) (*assets.Set, error) {
	w := New(opts)
	if extractedDir != "" {
		if err := w.SeedDir(extractedDir); err != nil {
			return nil, err
		}
	}
	w.SeedMap(m)
	w.SeedSlots(m)
	w.Close()
	return w.Set(), nil
}

// SeedDir adds every file under dir as an embedded entry.
func (w *Walker) SeedDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		// an empty pakfile extracts nothing
		w.opts.Log.Debug("No extracted pakfile directory", logger.String("dir", dir))
		return nil
	}
	n := 0
	err := pathfinder.NewSafeWalker().WalkDirectory(dir, func(path, rel string, _ fs.DirEntry) error {
		w.AddEmbedded(rel, path)
		n++
		return nil
	}, pathfinder.WalkOptions{})
	if err != nil {
		return fmt.Errorf("scan extracted pakfile: %w", err)
	}
	w.note("Seeded from pakfile", logger.Int("files", n))
	return nil
}

// SeedMap adds references from the entity lump, texture-data strings and the
// static-prop dictionary. Unreadable lumps are recorded as parse cautions.
func (w *Walker) SeedMap(m *bsp.Map) {
	from := m.Name + ".bsp"

	if tex, err := m.TexDataStrings(); err != nil {
		w.opts.Diags.Caution(diag.KindParse, m.Path, "Failed to read texture data: %v", err)
	} else {
		for _, t := range tex {
			w.Add(assets.Normalize(t, assets.KindMaterial), assets.KindMaterial, from, false)
		}
	}

	if props, err := m.StaticPropModels(); err != nil {
		w.opts.Diags.Caution(diag.KindParse, m.Path, "Failed to read static props: %v", err)
	} else {
		for _, p := range props {
			w.Add(assets.Normalize(p, assets.KindModel), assets.KindModel, from, false)
		}
	}

	ents, err := m.Entities()
	if err != nil {
		w.opts.Diags.Caution(diag.KindParse, m.Path, "Failed to read entities: %v", err)
		return
	}
	for _, e := range ents {
		w.seedEntity(e, from)
	}
	if world, ok := bsp.Worldspawn(ents); ok {
		w.seedWorldspawn(world, from)
	}
}

func (w *Walker) seedEntity(e bsp.Entity, from string) {
	k := w.opts.Keys
	class := strings.ToLower(e.ClassName())
	for _, kv := range e.Pairs {
		if skipValue(kv.Value) {
			continue
		}
		key := strings.ToLower(kv.Key)
		switch {
		case key == "vscripts":
			for _, s := range strings.Fields(kv.Value) {
				w.Add(assets.Normalize(s, assets.KindVScript), assets.KindVScript, from, false)
			}
		case key == "vehiclescript":
			w.Add(assets.Normalize(kv.Value, assets.KindVehicleScript), assets.KindVehicleScript, from, false)
		case key == "scriptfile" && class == "env_effectscript":
			w.Add(assets.Normalize(kv.Value, assets.KindEffectScript), assets.KindEffectScript, from, false)
		case k.EntityModel().Has(key):
			w.addEntityModel(kv.Value, from)
		case k.EntityMaterial().Has(key):
			w.Add(assets.Normalize(kv.Value, assets.KindMaterial), assets.KindMaterial, from, false)
		case k.EntitySound().Has(key):
			w.Add(assets.Normalize(kv.Value, assets.KindSound), assets.KindSound, from, false)
		}
	}
}

func (w *Walker) seedWorldspawn(world bsp.Entity, from string) {
	if sky, ok := world.Get("skyname"); ok && sky != "" {
		for _, face := range skyFaces {
			w.Add(assets.Normalize("skybox/"+sky+face, assets.KindMaterial), assets.KindMaterial, from, false)
			w.Add(assets.Normalize("skybox/"+sky+"_hdr"+face, assets.KindMaterial), assets.KindMaterial, from, true)
		}
	}
	if dm, ok := world.Get("detailmaterial"); ok && dm != "" {
		w.Add(assets.Normalize(dm, assets.KindMaterial), assets.KindMaterial, from, false)
	}
}

// SeedSlots expands located companion files: sound waves from soundscapes
// and soundscripts, particle files from the manifest, resources from the res
// file and the radar material.
func (w *Walker) SeedSlots(m *bsp.Map) {
	for _, slot := range []bsp.Slot{bsp.SlotSoundscape, bsp.SlotSoundscript} {
		if f := m.Slot(slot); f.Present() {
			w.seedKV(f, func(n *keyvalues.Node) {
				if strings.EqualFold(n.Key, "wave") {
					w.Add(assets.Normalize(n.Value, assets.KindSound), assets.KindSound, f.Archive, false)
				}
			})
		}
	}

	if f := m.Slot(bsp.SlotParticleManifest); f.Present() {
		w.seedKV(f, func(n *keyvalues.Node) {
			if strings.EqualFold(n.Key, "file") {
				w.Add(assets.Normalize(n.Value, assets.KindParticle), assets.KindParticle, f.Archive, false)
			}
		})
	}

	if f := m.Slot(bsp.SlotRes); f.Present() {
		w.seedKV(f, func(n *keyvalues.Node) {
			if n.IsBlock() {
				return
			}
			p := assets.Normalize(n.Key, assets.KindGeneric)
			w.Add(p, assets.KindForPath(p), f.Archive, false)
		})
	}

	if m.Slot(bsp.SlotRadar).Present() {
		w.Add(assets.Normalize("overviews/"+m.Name+"_radar", assets.KindMaterial), assets.KindMaterial, m.Slot(bsp.SlotRadar).Archive, false)
	}
}

func (w *Walker) seedKV(f bsp.SlotFile, fn func(n *keyvalues.Node)) {
	data, err := os.ReadFile(f.Source) // #nosec G304 -- located under a content root
	if err != nil {
		w.opts.Diags.Caution(diag.KindParse, f.Source, "Failed to read %s: %v", f.Archive, err)
		return
	}
	nodes, err := keyvalues.ParseBytes(data)
	if err != nil {
		w.opts.Diags.Caution(diag.KindParse, f.Source, "Failed to parse %s: %v", f.Archive, err)
		return
	}
	keyvalues.Walk(nodes, func(n *keyvalues.Node, _ int) {
		if !n.IsBlock() && skipValue(n.Value) {
			return
		}
		fn(n)
	})
}
