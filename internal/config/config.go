package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g. DRAGON_CONFIG.
const EnvPrefix = "DRAGON"

// Settings holds tool-level configuration. The environment store itself is
// a separate document; Settings only says where to find it and how to reach
// the external tools.
type Settings struct {
	// ConfigPath is the environment store document.
	ConfigPath string `mapstructure:"config"`

	// TerminalSettings is the Windows Terminal settings.json to register profiles in.
	TerminalSettings string `mapstructure:"terminal_settings"`

	// AzPath is the Azure CLI executable used for ACR version resolution.
	AzPath string `mapstructure:"az_path"`

	// WSLPath is the WSL executable.
	WSLPath string `mapstructure:"wsl_path"`

	// DockerHost overrides DOCKER_HOST for the image client (empty = environment default).
	DockerHost string `mapstructure:"docker_host"`

	// TempDir is where image exports are staged.
	TempDir string `mapstructure:"temp_dir"`

	// LogLevel forces a log level (debug, info, warn, error); empty = derived from -v.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultSettings returns Settings with platform defaults.
func DefaultSettings() *Settings {
	paths, err := GetPaths()
	if err != nil {
		// Fallback if we can't determine home directory
		paths = &Paths{
			ConfigDir: ".",
			DataDir:   filepath.Join(".", ".dragon"),
			StoreFile: "environments.yaml",
		}
	}

	return &Settings{
		ConfigPath:       paths.StoreFile,
		TerminalSettings: paths.TerminalSettings,
		AzPath:           "az",
		WSLPath:          "wsl.exe",
		DockerHost:       "",
		TempDir:          paths.ExportDir(),
		LogLevel:         "",
	}
}

// Load reads settings from defaults, an optional settings.yaml, environment
// variables and whatever flags were bound to v.
func Load(v *viper.Viper) (*Settings, error) {
	defaults := DefaultSettings()
	v.SetDefault("config", defaults.ConfigPath)
	v.SetDefault("terminal_settings", defaults.TerminalSettings)
	v.SetDefault("az_path", defaults.AzPath)
	v.SetDefault("wsl_path", defaults.WSLPath)
	v.SetDefault("docker_host", defaults.DockerHost)
	v.SetDefault("temp_dir", defaults.TempDir)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	if paths, err := GetPaths(); err == nil {
		v.AddConfigPath(paths.ConfigDir)
	}

	// Environment variable support: DRAGON_CONFIG, DRAGON_AZ_PATH, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Settings file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return s, nil
}
