package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

const appName = "open-interpreter"

// DefaultHistoryPath returns the directory conversation records are written
// to.
func DefaultHistoryPath() string {
	return filepath.Join(xdg.DataHome, appName, "conversations")
}

// DatabasePath returns the SQLite file used by the sqlite store for a
// history directory.
func DatabasePath(historyPath string) string {
	return filepath.Join(historyPath, "conversations.db")
}

// UserConfigPath returns the per-user configuration file.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.json")
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	systemConfigPath := filepath.Join("/etc", appName, "config.json")
	if runtime.GOOS == "windows" {
		systemConfigPath = filepath.Join(os.Getenv("PROGRAMDATA"), appName, "config.json")
	}

	return ConfigPrecedence{
		SystemConfig:      systemConfigPath,
		UserConfig:        UserConfigPath(),
		ProjectConfig:     ".interpreter.json",
		DotEnv:            ".env",
		EnvironmentPrefix: "INTERPRETER",
	}
}
