// Package doctor checks that the external tools and game files a packaging run
// depends on can be found, and says how to fix what is missing.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/mappack/pkg/gameinfo"
	"github.com/fulmenhq/mappack/pkg/tools"
)

// Tool is something doctor checks.
type Tool struct {
	Name string // canonical name, e.g., "bspzip"
	Kind string // "archiver" | "runtime" | "game"
	// Binary is the file name looked up for archivers
	Binary string
	// EnvOverride holds an explicit path, e.g. MAPPACK_BSPZIP
	EnvOverride string
}

// Status represents the result of a check
type Status struct {
	Name         string
	Kind         string
	Present      bool
	Required     bool
	Path         string
	Instructions string
	Error        error
}

// Options select what is checked and where.
type Options struct {
	GameDir string
	// Bspzip and VPK are configured tool paths; empty means search
	Bspzip string
	VPK    string
	// NeedVPK makes the vpk tool required
	NeedVPK bool
	// GOOS overrides the host platform in tests
	GOOS string
}

// KnownTools returns the archivers a run may invoke.
func KnownTools() []Tool {
	return []Tool{
		{Name: "bspzip", Kind: "archiver", Binary: "bspzip.exe", EnvOverride: "MAPPACK_BSPZIP"},
		{Name: "vpk", Kind: "archiver", Binary: "vpk.exe", EnvOverride: "MAPPACK_VPK"},
	}
}

// GetToolByName finds a known tool, ignoring case.
func GetToolByName(name string) (Tool, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, t := range KnownTools() {
		if t.Name == n {
			return t, true
		}
	}
	return Tool{}, false
}

// Check runs every check. The game check comes first because the archivers
// are also searched for next to the game.
func Check(opts Options) []Status {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	var out []Status
	if opts.GameDir != "" {
		out = append(out, checkGame(opts.GameDir))
	}

	needsWine := false
	for _, t := range KnownTools() {
		configured := opts.Bspzip
		required := true
		if t.Name == "vpk" {
			configured = opts.VPK
			required = opts.NeedVPK
		}
		st := CheckTool(t, configured, opts.GameDir)
		st.Required = required
		out = append(out, st)
		if st.Present && goos != "windows" && strings.HasSuffix(strings.ToLower(st.Path), ".exe") {
			needsWine = true
		}
	}

	if needsWine {
		out = append(out, checkWine())
	}
	return out
}

// CheckTool resolves t the same way a packaging run does.
func CheckTool(t Tool, configured, gameDir string) Status {
	st := Status{Name: t.Name, Kind: t.Kind}
	path, err := tools.ResolveBinary(t.Binary, tools.ResolveOptions{
		Configured:  configured,
		EnvOverride: t.EnvOverride,
		GameDir:     gameDir,
		AllowPath:   true,
	})
	if err != nil {
		st.Error = err
		st.Instructions = installInstruction(t, gameDir)
		return st
	}
	st.Present, st.Path = true, path
	return st
}

func checkGame(gameDir string) Status {
	st := Status{Name: "gameinfo", Kind: "game", Required: true}
	path := filepath.Join(gameDir, gameinfo.DescriptorName)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		st.Error = fmt.Errorf("%s not found in %s", gameinfo.DescriptorName, gameDir)
		st.Instructions = "Point --game (or game.folder) at the directory holding gameinfo.txt, e.g. .../Team Fortress 2/tf"
		return st
	}
	st.Present, st.Path = true, path
	return st
}

func checkWine() Status {
	st := Status{Name: "wine", Kind: "runtime", Required: true}
	w := tools.NewWineExecutor()
	if !w.WineAvailable() {
		st.Error = fmt.Errorf("wine not found")
		st.Instructions = fmt.Sprintf("Install wine, or set %s to its path, to run the Windows tools", tools.WineEnvVar)
		return st
	}
	st.Present = true
	st.Path = w.Path()
	return st
}

func installInstruction(t Tool, gameDir string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Set tools.%s in mappack.yaml or %s to the %s binary", t.Name, t.EnvOverride, t.Binary)
	if gameDir != "" {
		fmt.Fprintf(&b, "; it ships in %s", filepath.Join(filepath.Dir(filepath.Clean(gameDir)), "bin"))
	}
	return b.String()
}

// Missing returns the required checks that failed.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Required && !s.Present {
			out = append(out, s)
		}
	}
	return out
}
