package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MAPPACK_TOOLS_BSPZIP.
const EnvPrefix = "MAPPACK"

// Config holds all configuration for mappack
type Config struct {
	Game   GameConfig   `mapstructure:"game" json:"game"`
	Tools  ToolsConfig  `mapstructure:"tools" json:"tools"`
	Keys   KeysConfig   `mapstructure:"keys" json:"keys"`
	Output OutputConfig `mapstructure:"output" json:"output"`
	Pack   PackConfig   `mapstructure:"pack" json:"pack"`
}

// GameConfig locates the game installation
type GameConfig struct {
	// Folder is the content directory holding gameinfo.txt
	Folder string `mapstructure:"folder" json:"folder"`
}

// ToolsConfig holds external tool locations
type ToolsConfig struct {
	Bspzip string `mapstructure:"bspzip" json:"bspzip"`
	VPK    string `mapstructure:"vpk" json:"vpk"`
	Mode   string `mapstructure:"mode" json:"mode"` // "auto", "local", "wine"
}

// KeysConfig points at key-table overrides
type KeysConfig struct {
	Dir  string `mapstructure:"dir" json:"dir"`
	File string `mapstructure:"file" json:"file"`
}

// OutputConfig holds output file locations
type OutputConfig struct {
	Listing  string `mapstructure:"listing" json:"listing"`
	Manifest string `mapstructure:"manifest" json:"manifest"`
}

// PackConfig holds packaging defaults
type PackConfig struct {
	Jobs         int      `mapstructure:"jobs" json:"jobs"`
	IgnoreFile   string   `mapstructure:"ignore_file" json:"ignore_file"`
	ExcludeGlobs []string `mapstructure:"exclude_globs" json:"exclude_globs"`
	Params       string   `mapstructure:"params" json:"params"`
}

var defaultConfig = Config{
	Tools: ToolsConfig{
		Mode: "auto",
	},
	Output: OutputConfig{
		Listing: "files.txt",
	},
	Pack: PackConfig{
		Jobs:         1,
		IgnoreFile:   ".mappackignore",
		ExcludeGlobs: []string{},
	},
}

// Default returns a copy of the built-in defaults
func Default() Config {
	c := defaultConfig
	c.Pack.ExcludeGlobs = append([]string{}, defaultConfig.Pack.ExcludeGlobs...)
	return c
}

// LoadConfig loads configuration from defaults, mappack.yaml and the
// environment. A non-empty file is read instead of searching; it must exist.
// The file and the merged result are both checked against the config schema.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("game.folder", defaultConfig.Game.Folder)
	v.SetDefault("tools.bspzip", defaultConfig.Tools.Bspzip)
	v.SetDefault("tools.vpk", defaultConfig.Tools.VPK)
	v.SetDefault("tools.mode", defaultConfig.Tools.Mode)
	v.SetDefault("keys.dir", defaultConfig.Keys.Dir)
	v.SetDefault("keys.file", defaultConfig.Keys.File)
	v.SetDefault("output.listing", defaultConfig.Output.Listing)
	v.SetDefault("output.manifest", defaultConfig.Output.Manifest)
	v.SetDefault("pack.jobs", defaultConfig.Pack.Jobs)
	v.SetDefault("pack.ignore_file", defaultConfig.Pack.IgnoreFile)
	v.SetDefault("pack.exclude_globs", defaultConfig.Pack.ExcludeGlobs)
	v.SetDefault("pack.params", defaultConfig.Pack.Params)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("mappack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")     // Current directory
		v.AddConfigPath("$HOME") // Home directory
		if configDir, err := GetConfigDir(); err == nil {
			v.AddConfigPath(configDir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		doc, err := readDocument(used)
		if err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		if err := ValidateConfig(doc); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", used, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// Environment overrides bypass the file check above.
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &config, nil
}

// GetMappackHome returns the mappack home directory
func GetMappackHome() (string, error) {
	if home := os.Getenv("MAPPACK_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".mappack"), nil
}

// GetConfigDir returns the config directory. It is not created.
func GetConfigDir() (string, error) {
	homeDir, err := GetMappackHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "config"), nil
}
