// Package manifest turns a dependency set into the final mapping of archive
// paths to source files, applying the user's include and exclude rules, and
// writes that mapping in the formats the archive tools consume.
package manifest

import (
	"sort"
	"strings"

	"github.com/fulmenhq/mappack/pkg/assets"
)

// Origin records how an entry reached the manifest.
type Origin string

const (
	OriginDependency Origin = "dependency"
	OriginUtility    Origin = "utility"
	OriginInclude    Origin = "include"
	OriginIncludeDir Origin = "include-dir"
	OriginExtra      Origin = "extra"
)

// Entry is one file to pack.
type Entry struct {
	Archive string      `json:"archive" yaml:"archive"`
	Source  string      `json:"source" yaml:"source"`
	Root    int         `json:"root" yaml:"root"`
	Kind    assets.Kind `json:"kind" yaml:"kind"`
	Origin  Origin      `json:"origin" yaml:"origin"`
}

// Manifest is insertion ordered and unique by case-insensitive archive path.
type Manifest struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{index: make(map[string]int)}
}

// Add inserts e. When the archive path is already taken, the entry from the
// earlier content root replaces the existing one in place; otherwise the
// first insertion is kept. Add reports whether e is now in the manifest.
func (m *Manifest) Add(e Entry) bool {
	key := assets.Key(e.Archive)
	if key == "" {
		return false
	}
	if i, ok := m.index[key]; ok {
		cur := m.entries[i]
		if e.Root >= 0 && (cur.Root < 0 || e.Root < cur.Root) {
			m.entries[i] = e
			return true
		}
		return false
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, e)
	return true
}

// Get looks up an entry by archive path.
func (m *Manifest) Get(archive string) (Entry, bool) {
	i, ok := m.index[assets.Key(archive)]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.entries) }

// Entries returns a copy of the entries in insertion order.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// filter keeps the entries for which keep returns true.
func (m *Manifest) filter(keep func(Entry) bool) {
	kept := m.entries[:0]
	m.index = make(map[string]int, len(m.entries))
	for _, e := range m.entries {
		if !keep(e) {
			continue
		}
		m.index[assets.Key(e.Archive)] = len(kept)
		kept = append(kept, e)
	}
	m.entries = kept
}

// Counts tallies manifest entries per asset kind.
type Counts struct {
	Materials      int `json:"materials" yaml:"materials"`
	Textures       int `json:"textures" yaml:"textures"`
	Models         int `json:"models" yaml:"models"`
	Particles      int `json:"particles" yaml:"particles"`
	Sounds         int `json:"sounds" yaml:"sounds"`
	VehicleScripts int `json:"vehicle_scripts" yaml:"vehicle_scripts"`
	EffectScripts  int `json:"effect_scripts" yaml:"effect_scripts"`
	VScripts       int `json:"vscripts" yaml:"vscripts"`
	Other          int `json:"other" yaml:"other"`
	Total          int `json:"total" yaml:"total"`
}

// Counts derives per-kind counts from the current entries.
func (m *Manifest) Counts() Counts {
	var c Counts
	for _, e := range m.entries {
		switch e.Kind {
		case assets.KindMaterial:
			c.Materials++
		case assets.KindTexture:
			c.Textures++
		case assets.KindModel:
			c.Models++
		case assets.KindParticle:
			c.Particles++
		case assets.KindSound:
			c.Sounds++
		case assets.KindVehicleScript:
			c.VehicleScripts++
		case assets.KindEffectScript:
			c.EffectScripts++
		case assets.KindVScript:
			c.VScripts++
		default:
			c.Other++
		}
		c.Total++
	}
	return c
}

// Group is the part of a manifest packed from one working directory.
type Group struct {
	Dir      string
	Archives []string
}

// Groups partitions entries by the directory their archive path is relative
// to, in first-seen order. Entries whose source path does not end in their
// archive path (a renamed nav file, a generated manifest) are returned as
// loose; they have to be staged under a common directory before packing.
func (m *Manifest) Groups() (groups []Group, loose []Entry) {
	at := map[string]int{}
	for _, e := range m.entries {
		dir, ok := baseDir(e.Source, e.Archive)
		if !ok {
			loose = append(loose, e)
			continue
		}
		key := strings.ToLower(dir)
		i, seen := at[key]
		if !seen {
			i = len(groups)
			at[key] = i
			groups = append(groups, Group{Dir: dir})
		}
		groups[i].Archives = append(groups[i].Archives, e.Archive)
	}
	return groups, loose
}

// baseDir strips archive from the end of source, ignoring case and
// separator style.
func baseDir(source, archive string) (string, bool) {
	src := strings.ReplaceAll(source, "\\", "/")
	suffix := "/" + strings.Trim(strings.ReplaceAll(archive, "\\", "/"), "/")
	if len(src) <= len(suffix) || !strings.EqualFold(src[len(src)-len(suffix):], suffix) {
		return "", false
	}
	return source[:len(source)-len(suffix)], true
}

// sortedLines renders archive\tsource lines in archive order.
func (m *Manifest) sortedLines() []string {
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, e.Archive+"\t"+e.Source)
	}
	sort.Strings(lines)
	return lines
}
