package tools

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/mappack/pkg/logger"
)

// ErrToolNotFound is returned when no candidate binary exists.
var ErrToolNotFound = errors.New("tool not found")

// ResolveOptions configures how binary resolution works
type ResolveOptions struct {
	// Configured is an explicit path from flags or config; it is checked first
	Configured string
	// EnvOverride names an environment variable holding an explicit path,
	// e.g. "MAPPACK_BSPZIP"
	EnvOverride string
	// GameDir enables the game installation's bin directories as candidates
	GameDir string
	// AllowPath determines if PATH fallback is allowed
	AllowPath bool
}

// ResolveBinary finds the path to a tool binary following the resolution order:
// 1. Configured path
// 2. Environment variable override
// 3. <game>/../bin/<tool> and <game>/../bin/x64/<tool>
// 4. PATH fallback (if AllowPath is true)
func ResolveBinary(toolName string, opts ResolveOptions) (string, error) {
	logger.Debug("starting binary resolution", logger.String("tool", toolName), logger.String("env_override", opts.EnvOverride), logger.Bool("allow_path", opts.AllowPath))

	if opts.Configured != "" {
		if isFile(opts.Configured) {
			logger.Debug("resolution successful: configured path", logger.String("path", opts.Configured))
			return opts.Configured, nil
		}
		return "", fmt.Errorf("configured %s path %s does not exist: %w", toolName, opts.Configured, ErrToolNotFound)
	}

	if opts.EnvOverride != "" {
		if overridePath := lookupEnv(opts.EnvOverride); overridePath != "" {
			if isFile(overridePath) {
				logger.Debug("resolution successful: env override", logger.String("path", overridePath))
				return overridePath, nil
			}
			logger.Debug("env override path invalid", logger.String("path", overridePath))
		}
	}

	if opts.GameDir != "" {
		for _, candidate := range GameBinCandidates(opts.GameDir, toolName) {
			logger.Debug("checking game bin candidate", logger.String("candidate", candidate))
			if isFile(candidate) {
				logger.Debug("resolution successful: game bin", logger.String("path", candidate))
				return candidate, nil
			}
		}
	}

	if opts.AllowPath {
		for _, name := range []string{toolName, strings.TrimSuffix(toolName, ".exe")} {
			if pathBinary, err := exec.LookPath(name); err == nil {
				logger.Debug("resolution successful: PATH fallback", logger.String("path", pathBinary))
				return pathBinary, nil
			}
		}
	}

	var suggestions []string
	if opts.EnvOverride != "" {
		suggestions = append(suggestions, fmt.Sprintf("set %s=/path/to/%s", opts.EnvOverride, toolName))
	}
	suggestions = append(suggestions, fmt.Sprintf("pass the --%s flag", strings.TrimSuffix(toolName, ".exe")))
	if opts.AllowPath {
		suggestions = append(suggestions, fmt.Sprintf("ensure %s is on your PATH", toolName))
	}

	return "", fmt.Errorf("%s: %w (%s)", toolName, ErrToolNotFound, strings.Join(suggestions, " or "))
}

// GameBinCandidates lists where a Source installation keeps its tools,
// relative to the content directory (e.g. <install>/tf -> <install>/bin).
func GameBinCandidates(gameDir, toolName string) []string {
	bin := filepath.Join(filepath.Dir(filepath.Clean(gameDir)), "bin")
	return []string{
		filepath.Join(bin, toolName),
		filepath.Join(bin, "x64", toolName),
		filepath.Join(bin, "win64", toolName),
	}
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
