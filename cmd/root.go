/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fulmenhq/mappack/internal/ops"
	"github.com/fulmenhq/mappack/pkg/buildinfo"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/spf13/cobra"
)

// commandGroups classifies every subcommand for grouped help.
var commandGroups = map[string]ops.CommandGroup{
	"pack":    ops.GroupPack,
	"inspect": ops.GroupInspect,
	"roots":   ops.GroupInspect,
	"init":    ops.GroupSupport,
	"doctor":  ops.GroupSupport,
	"version": ops.GroupSupport,
}

var groupTitles = map[ops.CommandGroup]string{
	ops.GroupPack:    "Packing Commands:",
	ops.GroupInspect: "Inspection Commands:",
	ops.GroupSupport: "Support Commands:",
}

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappack",
		Short: "Pack the custom content a Source map depends on into the map",
		Long: `Mappack finds every material, model, sound, particle system and script a compiled
Source-engine map references, resolves them against the game's content roots and
packs them into the map's embedded pakfile (bspzip) or a standalone vpk.

Examples:
   mappack pack maps/ctf_test.bsp --game ~/tf2/tf        # Pack in place
   mappack pack maps/ctf_test.bsp --game ~/tf2/tf --dry-run
   mappack pack maps/*.bsp --jobs 4 --vpk                 # Several maps into vpks
   mappack roots --game ~/tf2/tf                          # Show content search roots
   mappack inspect maps/ctf_test.bsp                      # Show what a map contains
   mappack doctor --game ~/tf2/tf                         # Check that bspzip can be found`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Run without packing anything (same as --dry-run)")
	cmd.PersistentFlags().String("config", "", "Config file (default: mappack.yaml in ., $HOME or $MAPPACK_HOME/config)")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("mappack {{.Version}}\n")

	// Grouped help by command group (Pack → Inspect → Support)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if c.HasParent() {
			c.Println(c.Long)
			c.Println()
			c.Print(c.UsageString())
			return
		}
		reg := ops.GetRegistry()
		c.Println(c.Long)
		c.Println()
		for _, group := range ops.Groups {
			c.Println(groupTitles[group])
			for _, r := range reg.GetCommandsByGroup(group) {
				c.Printf("  %-12s %s\n", r.Name, r.Description)
			}
			c.Println()
		}
		c.Println("Flags:")
		c.Print(c.UsageString())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// Each call builds fresh subcommands, so test trees do not share flag state.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newPackCommand())
	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newRootsCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newDoctorCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with a code derived from the error.
// An interrupt cancels the command context, which stops running tools.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	registerSubcommands(rootCmd)
	for _, c := range rootCmd.Commands() {
		group, ok := commandGroups[c.Name()]
		if !ok {
			continue
		}
		if err := ops.RegisterCommand(c.Name(), group, c, c.Short); err != nil {
			panic(fmt.Sprintf("Failed to register %s command: %v", c.Name(), err))
		}
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	config := logger.Config{
		Level:     logger.ParseLevel(strings.ToLower(logLevelStr)),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "mappack",
		NoOp:      noOp,
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
	logger.SetOutput(cmd.ErrOrStderr())
}
