/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/mappack/internal/pack"
	"github.com/fulmenhq/mappack/internal/report"
	"github.com/fulmenhq/mappack/pkg/config"
	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/fulmenhq/mappack/pkg/ignore"
	"github.com/fulmenhq/mappack/pkg/keys"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/fulmenhq/mappack/pkg/manifest"
	"github.com/fulmenhq/mappack/pkg/params"
	"github.com/fulmenhq/mappack/pkg/tools"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	bspzipEnv = "MAPPACK_BSPZIP"
	vpkEnv    = "MAPPACK_VPK"
)

func newPackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <map.bsp>...",
		Short: "Pack a map's custom content into its pakfile or a vpk",
		Long: `Pack resolves every asset the given maps reference against the game's content
roots and packs what is not shipped with the game into each map's pakfile.

Stock content (anything under a vpk-backed or excluded root) is left out. The
add list is written to --listing in every mode, so --dry-run shows exactly what
would be packed. With --vpk the files go into <map>.vpk next to the map instead.

Packing flags may also be given in the compile-tool style with --params, e.g.
  --params "-renamenav -include materials/custom/sky.vmt -exclude sound/big.wav"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPack,
	}

	cmd.Flags().Bool("dry-run", false, "Write the file list without packing")
	cmd.Flags().Bool("verbose", false, "Log every resolved asset and tool output")
	cmd.Flags().Bool("rename-nav", false, "Pack <map>.nav as maps/embed.nav")
	cmd.Flags().Bool("vpk", false, "Pack into <map>.vpk instead of the map")
	cmd.Flags().Bool("gen-particle-manifest", false, "Generate maps/<map>_particles.txt from the particles found")
	cmd.Flags().StringArray("include", nil, "Extra file to pack (repeatable)")
	cmd.Flags().StringArray("include-dir", nil, "Extra directory to pack recursively (repeatable)")
	cmd.Flags().StringArray("exclude", nil, "File to keep out of the package (repeatable)")
	cmd.Flags().StringArray("exclude-dir", nil, "Directory to keep out of the package (repeatable)")
	cmd.Flags().StringArray("exclude-glob", nil, "Archive path pattern to keep out, doublestar syntax (repeatable)")
	cmd.Flags().String("addon-info", "", "addoninfo.txt to place in the vpk")
	cmd.Flags().String("params", "", "Packing parameters in -name value form")
	cmd.Flags().String("game", "", "Game content directory holding gameinfo.txt")
	cmd.Flags().String("bspzip", "", "Path to bspzip")
	cmd.Flags().String("vpk-tool", "", "Path to the vpk tool")
	cmd.Flags().String("tool-mode", "", "How tools are run (auto|local|wine)")
	cmd.Flags().String("keys-dir", "", "Directory of key-table text files")
	cmd.Flags().String("keys-file", "", "TOML file of key tables")
	cmd.Flags().String("ignore-file", "", "Ignore file name inside the game directory")
	cmd.Flags().String("listing", "", "Where to write the add list ({map} is replaced by the map name)")
	cmd.Flags().String("manifest-out", "", "Also write the resolved manifest as JSON")
	cmd.Flags().String("copy-to", "", "Copy each packed map here afterwards")
	cmd.Flags().String("format", "text", "Summary format (text|json|yaml)")
	cmd.Flags().Int("jobs", 1, "Maps packed at once (default from config)")

	return cmd
}

func runPack(cmd *cobra.Command, maps []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}

	paramStr, _ := cmd.Flags().GetString("params")
	p, err := params.Parse(strings.TrimSpace(cfg.Pack.Params + " " + paramStr))
	if err != nil {
		return withCode(exitcode.ValidationError, fmt.Errorf("invalid parameters: %w", err))
	}
	for _, u := range p.Unknown {
		logger.Warn("Ignoring unknown parameter", logger.String("param", u))
	}

	base, err := packOptions(cmd.Flags(), cfg, p)
	if err != nil {
		return err
	}

	if len(maps) > 1 {
		base.ListingPath = perMapPath(base.ListingPath)
		base.ManifestOut = perMapPath(base.ManifestOut)
	}

	jobs := cfg.Pack.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if jobs < 1 {
		jobs = 1
	}
	logger.Debug("Packing maps", logger.Int("maps", len(maps)), logger.Int("jobs", jobs), logger.Bool("dry_run", base.DryRun))

	results := make([]*pack.Result, len(maps))
	errs := make([]error, len(maps))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, m := range maps {
		g.Go(func() error {
			opts := base
			opts.MapPath = m
			results[i], errs[i] = pack.Run(cmd.Context(), pack.NewRunContext(opts, logger.Default()))
			return nil
		})
	}
	_ = g.Wait()

	docs := make([]report.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, report.NewDocument(res))
	}
	if err := report.Write(cmd.OutOrStdout(), format, docs); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return packOutcome(maps, results, errs)
}

// packOptions merges config, --params and flags. Flags win over config; the
// boolean switches of --params and flags are combined.
func packOptions(flags *pflag.FlagSet, cfg *config.Config, p params.Params) (pack.Options, error) {
	dryRun, _ := flags.GetBool("dry-run")
	noOp, _ := flags.GetBool("no-op")
	verbose, _ := flags.GetBool("verbose")
	renameNav, _ := flags.GetBool("rename-nav")
	useVPK, _ := flags.GetBool("vpk")
	genParticles, _ := flags.GetBool("gen-particle-manifest")
	includes, _ := flags.GetStringArray("include")
	includeDirs, _ := flags.GetStringArray("include-dir")
	excludes, _ := flags.GetStringArray("exclude")
	excludeDirs, _ := flags.GetStringArray("exclude-dir")
	excludeGlobs, _ := flags.GetStringArray("exclude-glob")
	addonInfo, _ := flags.GetString("addon-info")
	game, _ := flags.GetString("game")
	bspzipPath, _ := flags.GetString("bspzip")
	vpkPath, _ := flags.GetString("vpk-tool")
	toolMode, _ := flags.GetString("tool-mode")
	keysDir, _ := flags.GetString("keys-dir")
	keysFile, _ := flags.GetString("keys-file")
	ignoreFile, _ := flags.GetString("ignore-file")
	listing, _ := flags.GetString("listing")
	manifestOut, _ := flags.GetString("manifest-out")
	copyTo, _ := flags.GetString("copy-to")

	opts := pack.Options{
		GameDir:                  firstNonEmpty(game, cfg.Game.Folder),
		DryRun:                   dryRun || noOp || p.DryRun,
		Verbose:                  verbose || p.Verbose,
		RenameNav:                renameNav || p.RenameNav,
		VPK:                      useVPK || p.VPK,
		GenerateParticleManifest: genParticles || p.GenerateParticleManifest,
		AddonInfo:                firstNonEmpty(addonInfo, p.AddonInfo),
		ListingPath:              firstNonEmpty(listing, cfg.Output.Listing),
		ManifestOut:              firstNonEmpty(manifestOut, cfg.Output.Manifest),
		CopyTo:                   copyTo,
	}
	if opts.GameDir == "" {
		return opts, withCode(exitcode.ConfigError, errors.New("no game directory: pass --game or set game.folder"))
	}

	tables, err := keys.Load(firstNonEmpty(keysDir, cfg.Keys.Dir), firstNonEmpty(keysFile, cfg.Keys.File))
	if err != nil {
		return opts, withCode(exitcode.ConfigError, fmt.Errorf("load key tables: %w", err))
	}
	opts.Keys = tables
	opts.Exec = tools.NewExecutor(tools.ExecutionMode(firstNonEmpty(toolMode, cfg.Tools.Mode)))

	opts.Bspzip, err = resolveTool("bspzip.exe", firstNonEmpty(bspzipPath, cfg.Tools.Bspzip), bspzipEnv, opts.GameDir)
	if err != nil {
		// Without bspzip the pakfile is still read directly; only packing in
		// place needs it.
		if !opts.DryRun && !opts.VPK {
			return opts, withCode(exitcode.ToolNotFound, err)
		}
		logger.Warn("bspzip not found, reading pakfiles directly", logger.Err(err))
	}
	if opts.VPK {
		opts.VPKTool, err = resolveTool("vpk.exe", firstNonEmpty(vpkPath, cfg.Tools.VPK), vpkEnv, opts.GameDir)
		if err != nil {
			if !opts.DryRun {
				return opts, withCode(exitcode.ToolNotFound, err)
			}
			logger.Warn("vpk tool not found", logger.Err(err))
		}
	}

	matcher, err := ignore.NewMatcher(opts.GameDir, firstNonEmpty(ignoreFile, cfg.Pack.IgnoreFile), nil)
	if err != nil {
		return opts, withCode(exitcode.ConfigError, fmt.Errorf("read ignore file: %w", err))
	}
	opts.Rules = manifest.Rules{
		Includes:     append(includes, p.Includes...),
		IncludeDirs:  append(includeDirs, p.IncludeDirs...),
		Excludes:     append(excludes, p.Excludes...),
		ExcludeDirs:  append(excludeDirs, p.ExcludeDirs...),
		ExcludeGlobs: append(append([]string{}, cfg.Pack.ExcludeGlobs...), excludeGlobs...),
		Ignore:       matcher,
	}
	return opts, nil
}

func resolveTool(name, configured, env, gameDir string) (string, error) {
	return tools.ResolveBinary(name, tools.ResolveOptions{
		Configured:  configured,
		EnvOverride: env,
		GameDir:     gameDir,
		AllowPath:   true,
	})
}

// packOutcome picks the command error once every map has been reported.
func packOutcome(maps []string, results []*pack.Result, errs []error) error {
	var missing, failed int
	for i, err := range errs {
		switch {
		case err == nil:
			if diag.MaxSeverity(results[i].Diagnostics) >= diag.SeverityError {
				failed++
			}
			continue
		case errors.Is(err, diag.ErrMissingInput):
			missing++
		default:
			failed++
		}
		logger.Error("Packing failed", logger.String("map", maps[i]), logger.Err(err))
	}
	switch {
	case failed > 0:
		return withCode(exitcode.PackError, fmt.Errorf("%d of %d maps finished with errors", failed+missing, len(maps)))
	case missing > 0:
		return withCode(exitcode.MissingInput, fmt.Errorf("%d of %d maps not found: %w", missing, len(maps), diag.ErrMissingInput))
	}
	return nil
}

// perMapPath keeps the outputs of several maps apart by prefixing the file
// name with the map placeholder.
func perMapPath(p string) string {
	if p == "" || strings.Contains(p, pack.MapPlaceholder) {
		return p
	}
	dir, file := filepath.Split(p)
	return filepath.Join(dir, pack.MapPlaceholder+"_"+file)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
