package cmd

import (
	"fmt"

	"github.com/fulmenhq/mappack/internal/doctor"
	"github.com/fulmenhq/mappack/pkg/config"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/spf13/cobra"
)

func newDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that bspzip, vpk and the game folder can be found",
		Long: `Doctor resolves the external tools the same way pack does and checks the game
folder, printing how to fix anything missing. On non-Windows hosts it also checks
for wine when the tools are Windows binaries.`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
	cmd.Flags().String("game", "", "Game content directory holding gameinfo.txt")
	cmd.Flags().Bool("vpk", false, "Also require the vpk tool")
	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return withCode(exitcode.ConfigError, err)
	}
	game, _ := cmd.Flags().GetString("game")
	needVPK, _ := cmd.Flags().GetBool("vpk")

	statuses := doctor.Check(doctor.Options{
		GameDir: firstNonEmpty(game, cfg.Game.Folder),
		Bspzip:  cfg.Tools.Bspzip,
		VPK:     cfg.Tools.VPK,
		NeedVPK: needVPK,
	})

	out := cmd.OutOrStdout()
	for _, s := range statuses {
		switch {
		case s.Present:
			_, _ = fmt.Fprintf(out, "✅ %-9s %s\n", s.Name, s.Path)
		case s.Required:
			_, _ = fmt.Fprintf(out, "❌ %-9s %v\n   %s\n", s.Name, s.Error, s.Instructions)
		default:
			_, _ = fmt.Fprintf(out, "⚠️  %-9s not found (optional)\n   %s\n", s.Name, s.Instructions)
		}
	}

	missing := doctor.Missing(statuses)
	if len(missing) == 0 {
		return nil
	}
	code := exitcode.ToolNotFound
	for _, m := range missing {
		if m.Kind == "game" {
			code = exitcode.ConfigError
		}
	}
	return withCode(code, fmt.Errorf("%d required check(s) failed", len(missing)))
}
