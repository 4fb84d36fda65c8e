// Package config provides tool settings and the durable environment store.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// windowsTerminalPackage is the package family of the Store build of Windows Terminal.
const windowsTerminalPackage = "Microsoft.WindowsTerminal_8wekyb3d8bbwe"

// Paths holds platform-specific locations used by dragon.
type Paths struct {
	// ConfigDir holds settings.yaml and the default environment store.
	// Windows: %APPDATA%\dragon
	// Others:  $XDG_CONFIG_HOME/dragon or ~/.config/dragon
	ConfigDir string

	// DataDir is the default scratch area for image exports.
	// All platforms: ~/.dragon
	DataDir string

	// StoreFile is the default environment store document.
	StoreFile string

	// TerminalSettings is the default Windows Terminal settings.json.
	// Empty when not running on Windows.
	TerminalSettings string
}

// GetPaths returns platform-aware paths for dragon.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	p := &Paths{
		DataDir: filepath.Join(home, ".dragon"),
	}

	switch runtime.GOOS {
	case "windows":
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		p.ConfigDir = filepath.Join(dir, "dragon")
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			p.TerminalSettings = filepath.Join(local, "Packages", windowsTerminalPackage, "LocalState", "settings.json")
		}
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			p.ConfigDir = filepath.Join(xdgConfig, "dragon")
		} else {
			p.ConfigDir = filepath.Join(home, ".config", "dragon")
		}
	}

	p.StoreFile = filepath.Join(p.ConfigDir, "environments.yaml")

	return p, nil
}

// ExportDir is where per-provision scratch directories are created.
func (p *Paths) ExportDir() string {
	return filepath.Join(p.DataDir, "exports")
}
