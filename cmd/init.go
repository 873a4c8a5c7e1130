/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/mappack/internal/assets"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/fulmenhq/mappack/pkg/ignore"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/spf13/cobra"
)

const configFileName = "mappack.yaml"

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter mappack.yaml and .mappackignore",
		Long: `Init writes a commented mappack.yaml into dir (default: the current directory).
With --game the game folder is filled in, and with --ignore a .mappackignore is
written into the game folder holding patterns for files that should never be
packed. Game-specific patterns are picked from the game folder's name
(tf, csgo, garrysmod).

KEY BEHAVIORS:
• An existing file is left alone unless --force (replace) or --merge (ignore file only) is given
• .mappackignore uses gitignore syntax and matches archive paths such as materials/foo.vmt
• Patterns in $MAPPACK_HOME/.mappackignore apply to every game

Examples:
  mappack init --game ~/tf2/tf                 # Create mappack.yaml
  mappack init --game ~/tf2/tf --ignore        # Also create tf/.mappackignore
  mappack init --game ~/tf2/tf --ignore --merge  # Add missing patterns to it
  mappack init --dry-run                       # Show what would be written`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	cmd.Flags().String("game", "", "Game content directory holding gameinfo.txt")
	cmd.Flags().String("output", configFileName, "Config file name inside dir")
	cmd.Flags().Bool("ignore", false, "Also write .mappackignore into the game directory")
	cmd.Flags().Bool("force", false, "Replace existing files")
	cmd.Flags().Bool("merge", false, "Add missing patterns to an existing .mappackignore")
	cmd.Flags().Bool("dry-run", false, "Show what would be written without writing")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}
	game, _ := cmd.Flags().GetString("game")
	output, _ := cmd.Flags().GetString("output")
	withIgnore, _ := cmd.Flags().GetBool("ignore")
	force, _ := cmd.Flags().GetBool("force")
	merge, _ := cmd.Flags().GetBool("merge")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noOp, _ := cmd.Flags().GetBool("no-op")
	dryRun = dryRun || noOp

	if strings.Contains(output, "..") {
		return withCode(exitcode.ValidationError, fmt.Errorf("output path cannot contain directory traversal: %s", output))
	}
	if withIgnore && game == "" {
		return withCode(exitcode.ConfigError, errors.New("--ignore needs --game"))
	}

	content, err := configContent(game)
	if err != nil {
		return err
	}
	configPath := filepath.Clean(filepath.Join(targetDir, output))
	if err := writeInitFile(cmd, configPath, content, force, dryRun); err != nil {
		return err
	}

	if !withIgnore {
		return nil
	}
	games := detectGames(game)
	patterns, err := generatePatterns(games)
	if err != nil {
		return err
	}
	ignorePath := filepath.Join(game, ignore.DefaultFileName)
	final := generateFileContent(patterns, games)
	if merge {
		if existing, err := os.ReadFile(ignorePath); err == nil { // #nosec G304 -- ignore file inside the chosen game folder
			final = mergePatterns(string(existing), patterns)
			force = true
		}
	}
	return writeInitFile(cmd, ignorePath, final, force, dryRun)
}

func writeInitFile(cmd *cobra.Command, path, content string, force, dryRun bool) error {
	out := cmd.OutOrStdout()
	if dryRun {
		_, _ = fmt.Fprintf(out, "=== DRY RUN: %s ===\n%s\n", path, content)
		return nil
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() && !force {
		return withCode(exitcode.FileSystemError, fmt.Errorf("%s already exists. Use --force to replace it", path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return withCode(exitcode.FileSystemError, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return withCode(exitcode.FileSystemError, fmt.Errorf("failed to write %s: %w", path, err))
	}
	logger.Info("Wrote file", logger.String("path", path))
	_, _ = fmt.Fprintf(out, "✅ Wrote %s\n", path)
	return nil
}

// configContent is the embedded starter config with the game folder filled in.
func configContent(game string) (string, error) {
	data, err := assets.GetEmbeddedAsset("config/" + configFileName)
	if err != nil {
		return "", fmt.Errorf("failed to load config template: %w", err)
	}
	content := string(data)
	if game != "" {
		if abs, err := filepath.Abs(game); err == nil {
			game = abs
		}
		content = strings.Replace(content, `folder: ""`, fmt.Sprintf("folder: %q", filepath.ToSlash(game)), 1)
	}
	return content, nil
}

// detectGames names the ignore templates that apply to the game folder.
func detectGames(game string) []string {
	name := strings.ToLower(filepath.Base(filepath.Clean(game)))
	if _, err := fs.Stat(assets.GetTemplatesFS(), "ignore/"+name+".txt"); err == nil && name != "universal" {
		return []string{name}
	}
	return nil
}

func generatePatterns(games []string) ([]string, error) {
	templatesFS := assets.GetTemplatesFS()
	universal, err := fs.ReadFile(templatesFS, "ignore/universal.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to load universal template: %w", err)
	}
	lines := strings.Split(string(universal), "\n")

	for _, g := range games {
		content, err := fs.ReadFile(templatesFS, "ignore/"+g+".txt")
		if err != nil {
			logger.Warn(fmt.Sprintf("Template not found for game %s: %v", g, err))
			continue
		}
		lines = append(lines, strings.Split(string(content), "\n")...)
	}

	seen := make(map[string]bool)
	unique := []string{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !seen[line] && !strings.HasPrefix(line, "#") {
			seen[line] = true
			unique = append(unique, line)
		}
	}
	sort.Strings(unique)
	return unique, nil
}

func generateFileContent(patterns []string, games []string) string {
	var b strings.Builder
	b.WriteString("# .mappackignore\n")
	b.WriteString("# Generated by mappack init\n")
	if len(games) > 0 {
		b.WriteString(fmt.Sprintf("# Game: %s\n", strings.Join(games, ", ")))
	}
	b.WriteString("\n")
	for _, p := range patterns {
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

func mergePatterns(existingContent string, newPatterns []string) string {
	existingLines := strings.Split(strings.TrimRight(existingContent, "\n"), "\n")
	existing := make(map[string]bool)
	for _, line := range existingLines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			existing[line] = true
		}
	}

	merged := existingLines
	added := false
	for _, p := range newPatterns {
		if existing[p] {
			continue
		}
		if !added {
			merged = append(merged, "", "# Added by mappack init")
			added = true
		}
		merged = append(merged, p)
	}
	return strings.Join(merged, "\n") + "\n"
}
