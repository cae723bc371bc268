// Package paths resolves the configuration, data, and download directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory name used under the platform config and data
// roots.
const AppDirName = "megakanban"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "MEGAKANBAN_CONFIG_DIR"
	EnvDataDir   = "MEGAKANBAN_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/megakanban (fallback ~/.config/megakanban)
// macOS:   ~/Library/Application Support/megakanban
// Windows: %APPDATA%/megakanban
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDirName), nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/megakanban (fallback ~/.local/share/megakanban)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDirName), nil
}

// DefaultDownloadDir returns the directory the fallback backup exporter
// writes to: $XDG_DOWNLOAD_DIR on Linux when set, otherwise ~/Downloads.
func DefaultDownloadDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DOWNLOAD_DIR"); xdg != "" {
			return xdg, nil
		}
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppDirName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > MEGAKANBAN_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > MEGAKANBAN_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// ResolveDownloadDir returns configValue made absolute, or the default
// download directory when it is empty.
func ResolveDownloadDir(configValue string) (string, error) {
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	return DefaultDownloadDir()
}
