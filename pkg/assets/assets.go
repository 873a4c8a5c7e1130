// Package assets defines asset references and the deduplicated dependency set
// built while walking a map.
package assets

import (
	"path"
	"strings"
)

// Kind is the category of a discovered dependency.
type Kind string

const (
	KindMaterial      Kind = "material"
	KindTexture       Kind = "texture"
	KindModel         Kind = "model"
	KindModelAux      Kind = "model-aux"
	KindSound         Kind = "sound"
	KindParticle      Kind = "particle"
	KindVehicleScript Kind = "vehicle-script"
	KindEffectScript  Kind = "effect-script"
	KindVScript       Kind = "vscript"
	KindGeneric       Kind = "generic"
)

// KindForPath infers the kind from a content-relative path's extension.
func KindForPath(p string) Kind {
	lower := strings.ToLower(p)
	switch path.Ext(lower) {
	case ".vmt":
		return KindMaterial
	case ".vtf":
		return KindTexture
	case ".mdl":
		return KindModel
	case ".vvd", ".ani", ".phy", ".vtx":
		return KindModelAux
	case ".wav", ".mp3", ".ogg":
		return KindSound
	case ".pcf":
		return KindParticle
	case ".nut", ".gnut":
		return KindVScript
	}
	switch {
	case strings.HasPrefix(lower, "scripts/vehicles/"):
		return KindVehicleScript
	case strings.HasPrefix(lower, "scripts/effects/"), strings.HasPrefix(lower, "scenes/"):
		return KindEffectScript
	}
	return KindGeneric
}

// Reference is a content-relative path plus its kind. From names what
// referenced it, for diagnostics.
type Reference struct {
	Path string `json:"path" yaml:"path"`
	Kind Kind   `json:"kind" yaml:"kind"`
	From string `json:"from,omitempty" yaml:"from,omitempty"`
}

// Key is the identity of a reference: lower-case, forward slashes.
func (r Reference) Key() string { return Key(r.Path) }

// Key folds a content-relative path to its set key.
func Key(p string) string {
	return strings.ToLower(cleanSlashes(p))
}

// soundPrefixes are Source sound-control characters that may lead a sound name.
const soundPrefixes = "*#@><^)}$!?&~+%`("

var audioExts = map[string]bool{".wav": true, ".mp3": true, ".ogg": true}

// Normalize turns a raw reference value into a content-relative path for kind,
// appending the kind's conventional directory and extension. It returns "" when
// the value cannot name a file of that kind.
func Normalize(raw string, kind Kind) string {
	p := cleanSlashes(strings.Trim(strings.TrimSpace(raw), `"`))
	if p == "" {
		return ""
	}
	switch kind {
	case KindMaterial:
		return withDirExt(p, "materials/", ".vmt")
	case KindTexture:
		return withDirExt(p, "materials/", ".vtf")
	case KindModel:
		if strings.HasPrefix(p, "*") {
			return "" // brush entity index
		}
		return withDirExt(p, "models/", ".mdl")
	case KindSound:
		p = strings.TrimLeft(p, soundPrefixes)
		p = cleanSlashes(p)
		if !audioExts[strings.ToLower(path.Ext(p))] {
			return "" // soundscript entry name, not a file
		}
		if !hasPrefixFold(p, "sound/") {
			p = "sound/" + p
		}
		return p
	case KindParticle:
		p = strings.TrimPrefix(p, "!")
		return withDirExt(p, "particles/", ".pcf")
	case KindVScript:
		if !hasPrefixFold(p, "scripts/vscripts/") {
			p = "scripts/vscripts/" + p
		}
		if path.Ext(p) == "" {
			p += ".nut"
		}
		return p
	default:
		return p
	}
}

func withDirExt(p, dir, ext string) string {
	if !hasPrefixFold(p, dir) {
		p = dir + p
	}
	if !strings.EqualFold(path.Ext(p), ext) {
		p += ext
	}
	return p
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func cleanSlashes(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

// Entry is one member of a Set.
type Entry struct {
	Ref Reference `json:"ref" yaml:"ref"`
	// Source is the resolved absolute path, or "" when unresolved.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Root is the index of the content root Source came from, -1 otherwise.
	Root int `json:"root" yaml:"root"`
	// Embedded entries already live inside the map's pakfile; they are
	// expanded for dependencies but never packed again.
	Embedded bool `json:"embedded,omitempty" yaml:"embedded,omitempty"`
	// Optional entries are not reported when unresolved (model sidecars).
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Resolved reports whether the entry has a source path.
func (e Entry) Resolved() bool { return e.Source != "" }

// Set is an insertion-ordered collection of entries unique by Key.
type Set struct {
	order []string
	byKey map[string]*Entry
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{byKey: make(map[string]*Entry)}
}

// Add inserts e unless its key is present. It returns the stored entry and
// whether it was newly added.
func (s *Set) Add(e Entry) (*Entry, bool) {
	k := e.Ref.Key()
	if k == "" {
		return nil, false
	}
	if existing, ok := s.byKey[k]; ok {
		// A non-optional reference upgrades an optional one.
		if existing.Optional && !e.Optional {
			existing.Optional = false
		}
		return existing, false
	}
	stored := e
	s.byKey[k] = &stored
	s.order = append(s.order, k)
	return &stored, true
}

// Get returns the entry for a path, if any.
func (s *Set) Get(p string) (*Entry, bool) {
	e, ok := s.byKey[Key(p)]
	return e, ok
}

// Has reports whether p is in the set.
func (s *Set) Has(p string) bool {
	_, ok := s.byKey[Key(p)]
	return ok
}

// Len returns the number of entries.
func (s *Set) Len() int { return len(s.order) }

// Entries returns the entries in insertion order.
func (s *Set) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}

// OfKind returns the entries of kind k in insertion order.
func (s *Set) OfKind(k Kind) []*Entry {
	var out []*Entry
	for _, key := range s.order {
		if e := s.byKey[key]; e.Ref.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
