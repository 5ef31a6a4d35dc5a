package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "CIRCUITMAP_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "circuitmap.yaml"
	// ConfigDirName is the directory under XDG and /etc
	ConfigDirName = "circuitmap"
)

// configCandidates lists config locations in priority order. Empty entries
// (unset variables) are skipped.
func configCandidates() []string {
	candidates := []string{os.Getenv(EnvConfigPath), ConfigFileName}
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(candidates, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing config file, or "" when there is
// none and defaults apply
func FindConfigPath() string {
	for _, path := range configCandidates() {
		if path == "" || !fileExists(path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// ResolveInventoryPaths anchors relative inventory paths at the directory of
// the config file that names them, so a config and its inventory can move
// together. Absolute paths and paths without a config file are unchanged.
func ResolveInventoryPaths(configPath string, paths []string) []string {
	if configPath == "" || len(paths) == 0 {
		return paths
	}
	dir := filepath.Dir(configPath)
	resolved := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			resolved[i] = p
			continue
		}
		resolved[i] = filepath.Join(dir, p)
	}
	return resolved
}

// EnsureConfigDir creates the directory of configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
