package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/mappack/internal/report"
	"github.com/fulmenhq/mappack/pkg/config"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootInfo struct {
	Index  int    `json:"index" yaml:"index"`
	Path   string `json:"path" yaml:"path"`
	Exists bool   `json:"exists" yaml:"exists"`
}

type rootsInfo struct {
	Game  string     `json:"game" yaml:"game"`
	Roots []rootInfo `json:"roots" yaml:"roots"`
}

func newRootsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List the content roots of a game in search order",
		Long: `Roots reads the game's gameinfo.txt and prints the directories assets are looked
up in, in the order the packer searches them. Wildcard entries are expanded and
vpk-backed entries are listed by their directory.`,
		Args: cobra.NoArgs,
		RunE: runRoots,
	}
	cmd.Flags().String("game", "", "Game content directory holding gameinfo.txt")
	cmd.Flags().String("format", "text", "Output format (text|json|yaml)")
	return cmd
}

func runRoots(cmd *cobra.Command, _ []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}

	game, _ := cmd.Flags().GetString("game")
	if game == "" {
		configFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return withCode(exitcode.ConfigError, err)
		}
		game = cfg.Game.Folder
	}
	if game == "" {
		return withCode(exitcode.ConfigError, errors.New("no game directory: pass --game or set game.folder"))
	}
	if abs, err := filepath.Abs(game); err == nil {
		game = abs
	}

	diags := diag.NewCollector(logger.Default())
	roots, err := gameinfo.Load(game, gameinfo.Options{Log: logger.Default()}, diags)
	if err != nil {
		return withCode(exitcode.ValidationError, err)
	}
	if diags.Count(diag.SeverityCaution) > 0 {
		return withCode(exitcode.MissingInput, fmt.Errorf("no %s in %s: %w", gameinfo.DescriptorName, game, diag.ErrMissingInput))
	}

	info := rootsInfo{Game: game, Roots: []rootInfo{}}
	for i, r := range roots {
		st, err := os.Stat(r)
		info.Roots = append(info.Roots, rootInfo{Index: i, Path: r, Exists: err == nil && st.IsDir()})
	}

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
	for _, r := range info.Roots {
		missing := ""
		if !r.Exists {
			missing = "  (missing)"
		}
		_, _ = fmt.Fprintf(out, "%3d  %s%s\n", r.Index, r.Path, missing)
	}
	return nil
}
