package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fulmenhq/mappack/internal/report"
	"github.com/fulmenhq/mappack/pkg/bsp"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var lumpNames = map[int]string{
	bsp.LumpEntities:          "entities",
	bsp.LumpGame:              "game",
	bsp.LumpPakfile:           "pakfile",
	bsp.LumpTexDataStringData: "texdata_string_data",
}

type lumpInfo struct {
	Index   int    `json:"index" yaml:"index"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Offset  int32  `json:"offset" yaml:"offset"`
	Length  int32  `json:"length" yaml:"length"`
	Version int32  `json:"version" yaml:"version"`
}

// mapInfo is what inspect reports about one map file.
type mapInfo struct {
	Path        string         `json:"path" yaml:"path"`
	Header      bsp.Header     `json:"header" yaml:"header"`
	Lumps       []lumpInfo     `json:"lumps" yaml:"lumps"`
	Entities    int            `json:"entities" yaml:"entities"`
	Classes     map[string]int `json:"classes,omitempty" yaml:"classes,omitempty"`
	Textures    []string       `json:"textures,omitempty" yaml:"textures,omitempty"`
	StaticProps []string       `json:"static_props,omitempty" yaml:"static_props,omitempty"`
	Pakfile     []string       `json:"pakfile,omitempty" yaml:"pakfile,omitempty"`
	Problems    []string       `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <map.bsp>",
		Short: "Show the lumps, entities and pakfile of a map",
		Long: `Inspect reads a compiled map and prints its header, the non-empty lumps, entity
classes, texture names, static prop models and the files already embedded in its
pakfile. Nothing is resolved or written.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
	cmd.Flags().String("format", "text", "Output format (text|json|yaml)")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}

	m, err := bsp.Open(args[0])
	if err != nil {
		return err
	}
	info := inspectMap(m)

	out := cmd.OutOrStdout()
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case report.FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	}
	writeMapInfo(out, info)
	return nil
}

// inspectMap gathers everything it can; a lump that fails to decode is noted
// and the rest is still reported.
func inspectMap(m *bsp.Map) mapInfo {
	info := mapInfo{Path: m.Path, Header: m.Header}
	for i, l := range m.Header.Lumps {
		if l.Length == 0 {
			continue
		}
		info.Lumps = append(info.Lumps, lumpInfo{Index: i, Name: lumpNames[i], Offset: l.Offset, Length: l.Length, Version: l.Version})
	}

	if ents, err := m.Entities(); err != nil {
		info.Problems = append(info.Problems, err.Error())
	} else {
		info.Entities = len(ents)
		info.Classes = map[string]int{}
		for _, e := range ents {
			info.Classes[e.ClassName()]++
		}
	}
	var err error
	if info.Textures, err = m.TexDataStrings(); err != nil {
		info.Problems = append(info.Problems, err.Error())
	}
	if info.StaticProps, err = m.StaticPropModels(); err != nil {
		info.Problems = append(info.Problems, err.Error())
	}
	if info.Pakfile, err = m.PakEntries(); err != nil {
		info.Problems = append(info.Problems, err.Error())
	}
	return info
}

func writeMapInfo(w io.Writer, info mapInfo) {
	_, _ = fmt.Fprintf(w, "%s\n", info.Path)
	_, _ = fmt.Fprintf(w, "  version %d, revision %d", info.Header.Version, info.Header.Revision)
	if info.Header.Reordered {
		_, _ = fmt.Fprint(w, ", reordered lumps")
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "\nLumps (%d non-empty):\n", len(info.Lumps))
	for _, l := range info.Lumps {
		_, _ = fmt.Fprintf(w, "  %2d %-20s offset %-10d length %-10d v%d\n", l.Index, l.Name, l.Offset, l.Length, l.Version)
	}

	_, _ = fmt.Fprintf(w, "\nEntities: %d\n", info.Entities)
	classes := make([]string, 0, len(info.Classes))
	for c := range info.Classes {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		_, _ = fmt.Fprintf(w, "  %-32s %d\n", c, info.Classes[c])
	}

	writeList(w, "Textures", info.Textures)
	writeList(w, "Static props", info.StaticProps)
	writeList(w, "Pakfile", info.Pakfile)

	if len(info.Problems) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, p := range info.Problems {
			_, _ = fmt.Fprintf(w, "%s: %s\n", diag.SeverityCaution, p)
		}
	}
}

func writeList(w io.Writer, title string, items []string) {
	_, _ = fmt.Fprintf(w, "\n%s: %d\n", title, len(items))
	for _, it := range items {
		_, _ = fmt.Fprintf(w, "  %s\n", it)
	}
}
