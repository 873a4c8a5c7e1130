// Package params parses the packer's single-string parameter form, e.g.
//
//	-verbose -include "C:/maps/extra-file.txt" -excludedir models/dev -vpk
//
// A dash starts a new parameter only at the beginning of a word outside
// double quotes, so dashes inside paths and quoted values are kept.
package params

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnterminatedQuote is returned for a parameter string with an odd number
// of double quotes.
var ErrUnterminatedQuote = errors.New("unterminated quote in parameter string")

// Params is the parsed parameter string.
type Params struct {
	Verbose                  bool
	DryRun                   bool
	RenameNav                bool
	VPK                      bool
	GenerateParticleManifest bool
	Includes                 []string
	IncludeDirs              []string
	Excludes                 []string
	ExcludeDirs              []string
	AddonInfo                string
	// Unknown holds parameters that were not recognized, verbatim.
	Unknown []string
}

// Param is one "-name value" group.
type Param struct {
	Name  string
	Value string
}

// Split breaks s into parameters. Quotes group words and are removed.
func Split(s string) ([]Param, error) {
	var (
		out     []Param
		cur     strings.Builder
		inQuote bool
		started bool
		prev    = ' '
	)
	flush := func() {
		if started {
			out = append(out, newParam(cur.String()))
		}
		cur.Reset()
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '-' && !inQuote && unicode.IsSpace(prev):
			flush()
			started = true
		default:
			if started {
				cur.WriteRune(r)
			}
		}
		prev = r
	}
	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	flush()
	return out, nil
}

func newParam(raw string) Param {
	raw = strings.TrimSpace(raw)
	name, value, _ := strings.Cut(raw, " ")
	return Param{Name: strings.ToLower(name), Value: strings.TrimSpace(value)}
}

// Parse parses a full parameter string.
func Parse(s string) (Params, error) {
	var p Params
	list, err := Split(s)
	if err != nil {
		return p, err
	}
	for _, prm := range list {
		switch prm.Name {
		case "verbose":
			p.Verbose = true
		case "dryrun":
			p.DryRun = true
		case "renamenav":
			p.RenameNav = true
		case "vpk":
			p.VPK = true
		case "genparticlemanifest":
			p.GenerateParticleManifest = true
		case "include", "includedir", "exclude", "excludedir", "ainfo":
			if prm.Value == "" {
				return p, fmt.Errorf("-%s requires a path", prm.Name)
			}
			p.add(prm)
		default:
			p.Unknown = append(p.Unknown, "-"+strings.TrimSpace(prm.Name+" "+prm.Value))
		}
	}
	return p, nil
}

func (p *Params) add(prm Param) {
	switch prm.Name {
	case "include":
		p.Includes = append(p.Includes, prm.Value)
	case "includedir":
		p.IncludeDirs = append(p.IncludeDirs, prm.Value)
	case "exclude":
		p.Excludes = append(p.Excludes, prm.Value)
	case "excludedir":
		p.ExcludeDirs = append(p.ExcludeDirs, prm.Value)
	case "ainfo":
		p.AddonInfo = prm.Value
	}
}
