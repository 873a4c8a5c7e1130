// Package report renders the end-of-run summary of one or more packaging runs
// as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/mappack/internal/assets"
	"github.com/fulmenhq/mappack/internal/pack"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/manifest"
)

// Format selects the summary encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Status values of a Document.
const (
	StatusOK      = "ok"
	StatusCaution = "caution"
	StatusError   = "error"
	StatusFatal   = "fatal"
)

// Document is the summary of one run.
type Document struct {
	Map          string            `json:"map" yaml:"map"`
	Status       string            `json:"status" yaml:"status"`
	DryRun       bool              `json:"dry_run" yaml:"dry_run"`
	Counts       manifest.Counts   `json:"counts" yaml:"counts"`
	Found        []bsp.Slot        `json:"found,omitempty" yaml:"found,omitempty"`
	Listing      string            `json:"listing,omitempty" yaml:"listing,omitempty"`
	VPK          string            `json:"vpk,omitempty" yaml:"vpk,omitempty"`
	Digest       string            `json:"digest,omitempty" yaml:"digest,omitempty"`
	ArchiveCalls int               `json:"archive_calls" yaml:"archive_calls"`
	Diagnostics  []diag.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewDocument summarizes res.
func NewDocument(res *pack.Result) Document {
	return Document{
		Map:          res.Map,
		Status:       Status(diag.MaxSeverity(res.Diagnostics), len(res.Diagnostics) > 0),
		DryRun:       res.DryRun,
		Counts:       res.Counts,
		Found:        res.Found,
		Listing:      res.ListingPath,
		VPK:          res.VPKPath,
		Digest:       res.Digest,
		ArchiveCalls: res.ArchiveCalls,
		Diagnostics:  res.Diagnostics,
	}
}

// Status names the worst severity; hasItems reports whether there were any diagnostics.
func Status(worst diag.Severity, hasItems bool) string {
	if !hasItems {
		return StatusOK
	}
	switch worst {
	case diag.SeverityFatal:
		return StatusFatal
	case diag.SeverityError:
		return StatusError
	case diag.SeverityCaution:
		return StatusCaution
	}
	return StatusOK
}

// Write encodes docs to w. Text renders one block per document; JSON and
// YAML always emit a list.
func Write(w io.Writer, format Format, docs []Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	}
	for i, d := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		out, err := Text(d)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return nil
}

// Text renders d with the embedded summary template.
func Text(d Document) (string, error) {
	src, err := assets.GetEmbeddedAsset("report/summary.hbs")
	if err != nil {
		return "", fmt.Errorf("load summary template: %w", err)
	}
	tpl, err := raymond.Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("parse summary template: %w", err)
	}
	out, err := tpl.Exec(templateData(d))
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return out, nil
}

type countLine struct {
	label string
	value int
	// always lines are printed even when zero
	always bool
}

func templateData(d Document) map[string]interface{} {
	c := d.Counts
	lines := []countLine{
		{"Materials", c.Materials, true},
		{"Textures", c.Textures, true},
		{"Models", c.Models, true},
		{"Particle files", c.Particles, true},
		{"Sounds", c.Sounds, true},
		{"Vehicle scripts", c.VehicleScripts, false},
		{"Effect scripts", c.EffectScripts, false},
		{"VScripts", c.VScripts, false},
		{"Other files", c.Other, false},
		{"Total", c.Total, true},
	}
	width := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l.label) + 1; w > width {
			width = w
		}
	}
	var counts []map[string]interface{}
	for _, l := range lines {
		if l.value == 0 && !l.always {
			continue
		}
		counts = append(counts, map[string]interface{}{
			"label": runewidth.FillRight(l.label+":", width),
			"value": l.value,
		})
	}

	var diags []map[string]interface{}
	for _, g := range diag.Summarize(d.Diagnostics) {
		diags = append(diags, map[string]interface{}{
			"count":    g.Count,
			"severity": g.Diagnostic.Severity.String(),
			"message":  g.Diagnostic.Message,
			"path":     g.Diagnostic.Path,
		})
	}

	return map[string]interface{}{
		"map":         d.Map,
		"headline":    headline(d),
		"counts":      counts,
		"found":       SlotNames(d.Found),
		"listing":     d.Listing,
		"vpk":         d.VPK,
		"digest":      d.Digest,
		"status":      statusLine(d),
		"diagnostics": diags,
	}
}

// headline names the outcome; failed runs never claim the map was packed.
func headline(d Document) string {
	switch {
	case d.Status == StatusFatal:
		return fmt.Sprintf("Packing %s failed", d.Map)
	case d.Status == StatusError && d.DryRun:
		return fmt.Sprintf("Dry run of %s finished with errors", d.Map)
	case d.Status == StatusError:
		return fmt.Sprintf("Packing %s finished with errors", d.Map)
	case d.DryRun:
		return fmt.Sprintf("Dry run of %s: nothing was packed", d.Map)
	}
	return fmt.Sprintf("Packed %s", d.Map)
}

func statusLine(d Document) string {
	cautions, errs := 0, 0
	for _, x := range d.Diagnostics {
		switch {
		case x.Severity >= diag.SeverityError:
			errs++
		case x.Severity == diag.SeverityCaution:
			cautions++
		}
	}
	return fmt.Sprintf("%d caution(s), %d error(s)", cautions, errs)
}

// SlotNames renders slots as a comma separated, title-cased list.
func SlotNames(slots []bsp.Slot) string {
	title := cases.Title(language.English)
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, title.String(strings.ReplaceAll(string(s), "-", " ")))
	}
	return strings.Join(names, ", ")
}
