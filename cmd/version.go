/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/fulmenhq/mappack/pkg/buildinfo"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the mappack version",
		Long:  `Show the mappack version. --extended adds the VCS information embedded at build time.`,
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build information")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	// --json is also the root's log-format flag; the local one shadows it here.
	jsonOutput, _ := cmd.Flags().GetBool("json")

	out := cmd.OutOrStdout()
	version := buildinfo.Version()
	commit, commitTime, dirty := vcsInfo()

	if jsonOutput {
		versionInfo := map[string]interface{}{
			"version":   version,
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		if extended {
			versionInfo["module"] = buildinfo.ModuleVersion()
			versionInfo["gitCommit"] = commit
			versionInfo["commitTime"] = commitTime
			versionInfo["gitDirty"] = dirty
		}
		jsonData, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		_, _ = fmt.Fprintln(out, string(jsonData))
		return nil
	}

	_, _ = fmt.Fprintf(out, "mappack %s\n", version)
	if !extended {
		return nil
	}
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", commit)
	if commitTime != "" {
		_, _ = fmt.Fprintf(out, "Commit time: %s\n", commitTime)
	}
	if dirty {
		_, _ = fmt.Fprintf(out, "Git status: dirty (uncommitted changes)\n")
	}
	_, _ = fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(out, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

// vcsInfo reads the revision the toolchain stamped into the binary.
func vcsInfo() (commit, commitTime string, dirty bool) {
	commit = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
			if len(commit) > 8 {
				commit = commit[:8]
			}
		case "vcs.time":
			commitTime = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return commit, commitTime, dirty
}
