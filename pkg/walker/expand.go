package walker

import (
	"path"
	"strings"

	"github.com/fulmenhq/mappack/pkg/assets"
	"github.com/fulmenhq/mappack/pkg/keyvalues"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/pcf"
	"github.com/fulmenhq/mappack/pkg/studiomdl"
)

// expandMaterial follows texture and material parameters of a .vmt.
func (w *Walker) expandMaterial(e *assets.Entry) error {
	data, err := w.read(e)
	if err != nil {
		return err
	}
	nodes, err := keyvalues.ParseBytes(data)
	if err != nil {
		return err
	}
	textures, materials := w.opts.Keys.Texture(), w.opts.Keys.Material()
	keyvalues.Walk(nodes, func(n *keyvalues.Node, _ int) {
		if n.IsBlock() || skipValue(n.Value) {
			return
		}
		switch {
		case textures.Has(n.Key):
			w.Add(assets.Normalize(n.Value, assets.KindTexture), assets.KindTexture, e.Ref.Path, false)
		case materials.Has(n.Key):
			w.Add(assets.Normalize(n.Value, assets.KindMaterial), assets.KindMaterial, e.Ref.Path, false)
		}
	})
	return nil
}

// expandModel follows a model's materials, included models and sidecars.
func (w *Walker) expandModel(e *assets.Entry) error {
	data, err := w.read(e)
	if err != nil {
		return err
	}
	mdl, err := studiomdl.Parse(data)
	if err != nil {
		return err
	}

	for _, cands := range mdl.MaterialCandidates() {
		chosen := ""
		for _, c := range cands {
			p := assets.Normalize(c, assets.KindMaterial)
			if w.exists(p) {
				chosen = p
				break
			}
		}
		if chosen == "" && len(cands) > 0 {
			chosen = assets.Normalize(cands[0], assets.KindMaterial)
		}
		w.Add(chosen, assets.KindMaterial, e.Ref.Path, false)
	}
	for _, inc := range mdl.IncludeModels {
		w.Add(assets.Normalize(inc, assets.KindModel), assets.KindModel, e.Ref.Path, false)
	}
	for _, side := range studiomdl.Sidecars(e.Ref.Path) {
		w.Add(side, assets.KindModelAux, e.Ref.Path, true)
	}
	w.note("Expanded model", logger.String("model", e.Ref.Path), logger.Int("textures", len(mdl.Textures)))
	return nil
}

// expandParticle follows materials and models named in a particle file.
func (w *Walker) expandParticle(e *assets.Entry) error {
	data, err := w.read(e)
	if err != nil {
		return err
	}
	refs, err := pcf.Scan(data)
	if err != nil {
		return err
	}
	for _, m := range refs.Materials {
		w.Add(assets.Normalize(m, assets.KindMaterial), assets.KindMaterial, e.Ref.Path, false)
	}
	for _, m := range refs.Models {
		w.Add(assets.Normalize(m, assets.KindModel), assets.KindModel, e.Ref.Path, false)
	}
	return nil
}

// expandEffectScript follows model and material keys of an effect script.
func (w *Walker) expandEffectScript(e *assets.Entry) error {
	data, err := w.read(e)
	if err != nil {
		return err
	}
	nodes, err := keyvalues.ParseBytes(data)
	if err != nil {
		return err
	}
	keyvalues.Walk(nodes, func(n *keyvalues.Node, _ int) {
		if n.IsBlock() || skipValue(n.Value) {
			return
		}
		switch strings.ToLower(n.Key) {
		case "model":
			w.addEntityModel(n.Value, e.Ref.Path)
		case "material":
			w.Add(assets.Normalize(n.Value, assets.KindMaterial), assets.KindMaterial, e.Ref.Path, false)
		}
	})
	return nil
}

// addEntityModel handles model-valued keys, which also name sprites.
func (w *Walker) addEntityModel(v, from string) {
	switch strings.ToLower(path.Ext(v)) {
	case ".vmt", ".spr":
		w.Add(assets.Normalize(strings.TrimSuffix(v, path.Ext(v)), assets.KindMaterial), assets.KindMaterial, from, false)
	case ".mdl":
		w.Add(assets.Normalize(v, assets.KindModel), assets.KindModel, from, false)
	}
}
