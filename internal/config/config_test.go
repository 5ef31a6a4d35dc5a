package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"circuitmap/internal/domain"
	"circuitmap/internal/viewport"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Server.Addr = %s, want :3000", cfg.Server.Addr)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should not be empty")
	}
	if cfg.DefaultMode() != domain.ModeCategorical {
		t.Errorf("DefaultMode = %s, want categorical", cfg.DefaultMode())
	}
	if cfg.Layout.Bands.HyperscalerY != 100 || cfg.Layout.Bands.FacilityY != 300 || cfg.Layout.Bands.SiteY != 500 {
		t.Errorf("Bands = %+v, want 100/300/500", cfg.Layout.Bands)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestViewportOptions(t *testing.T) {
	opts := DefaultConfig().ViewportOptions()

	if opts.CommitMin != 0.05 || opts.CommitMax != 0.95 {
		t.Errorf("commit range = [%v, %v], want [0.05, 0.95]", opts.CommitMin, opts.CommitMax)
	}
	if len(opts.Remeasure) != len(viewport.DefaultRemeasureSchedule) {
		t.Fatalf("remeasure schedule has %d steps, want %d", len(opts.Remeasure), len(viewport.DefaultRemeasureSchedule))
	}
	for i, d := range viewport.DefaultRemeasureSchedule {
		if opts.Remeasure[i] != d {
			t.Errorf("remeasure[%d] = %v, want %v", i, opts.Remeasure[i], d)
		}
	}
}

func TestParsePartial(t *testing.T) {
	data := []byte(`
server:
  addr: ":8080"
  log_level: DEBUG
layout:
  mode: geographic
viewport:
  padding: 12
  remeasure: ["0s", "10ms", "2s"]
inventory:
  paths: ["./inventory.yaml"]
  debounce: 1s
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("Server.LogLevel = %s, want debug", cfg.Server.LogLevel)
	}
	if cfg.DefaultMode() != domain.ModeGeographic {
		t.Errorf("DefaultMode = %s, want geographic", cfg.DefaultMode())
	}
	if cfg.Layout.Bands.Spacing != 180 {
		t.Errorf("Bands.Spacing = %v, want default 180", cfg.Layout.Bands.Spacing)
	}
	if cfg.Routing.FanStep != 0.2 {
		t.Errorf("Routing.FanStep = %v, want default 0.2", cfg.Routing.FanStep)
	}
	if cfg.Viewport.Padding != 12 {
		t.Errorf("Viewport.Padding = %v, want 12", cfg.Viewport.Padding)
	}
	if len(cfg.Viewport.Remeasure) != 3 || cfg.Viewport.Remeasure[2].Duration() != 2*time.Second {
		t.Errorf("Viewport.Remeasure = %v, want [0s 10ms 2s]", cfg.Viewport.Remeasure)
	}
	if cfg.Inventory.Debounce.Duration() != time.Second {
		t.Errorf("Inventory.Debounce = %v, want 1s", cfg.Inventory.Debounce.Duration())
	}
	if len(cfg.Inventory.Paths) != 1 {
		t.Errorf("Inventory.Paths = %v, want one path", cfg.Inventory.Paths)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown mode", "layout:\n  mode: circular\n"},
		{"unknown log level", "server:\n  log_level: loud\n"},
		{"inverted bands", "layout:\n  bands:\n    hyperscaler_y: 500\n    facility_y: 300\n    site_y: 100\n    spacing: 180\n"},
		{"inverted commit range", "viewport:\n  commit_min: 0.9\n  commit_max: 0.1\n"},
		{"commit range wider than persisted clamp", "viewport:\n  commit_min: 0.01\n  commit_max: 0.99\n"},
		{"bad duration", "inventory:\n  debounce: soon\n"},
		{"negative padding", "viewport:\n  padding: -1\n"},
		{"not yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Database.Path = "/var/lib/circuitmap/test.db"
	cfg.Inventory.Paths = []string{"/srv/inventory.yaml"}
	cfg.Viewport.Padding = 24

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Database.Path != cfg.Database.Path {
		t.Errorf("Database.Path = %s, want %s", loaded.Database.Path, cfg.Database.Path)
	}
	if loaded.Viewport.Padding != 24 {
		t.Errorf("Viewport.Padding = %v, want 24", loaded.Viewport.Padding)
	}
	if loaded.Viewport.SessionTTL != cfg.Viewport.SessionTTL {
		t.Errorf("Viewport.SessionTTL = %v, want %v", loaded.Viewport.SessionTTL, cfg.Viewport.SessionTTL)
	}
	if len(loaded.Viewport.Remeasure) != len(cfg.Viewport.Remeasure) {
		t.Errorf("Viewport.Remeasure has %d steps, want %d", len(loaded.Viewport.Remeasure), len(cfg.Viewport.Remeasure))
	}
}

func TestLoadFromPathResolvesInventory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	data := "inventory:\n  paths: [\"sites.yaml\", \"/srv/facilities.yaml\"]\n"
	if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	want := []string{filepath.Join(tmpDir, "sites.yaml"), "/srv/facilities.yaml"}
	if len(cfg.Inventory.Paths) != len(want) {
		t.Fatalf("Inventory.Paths = %v, want %v", cfg.Inventory.Paths, want)
	}
	for i := range want {
		if cfg.Inventory.Paths[i] != want[i] {
			t.Errorf("Inventory.Paths[%d] = %s, want %s", i, cfg.Inventory.Paths[i], want[i])
		}
	}
}

func TestResolveInventoryPathsWithoutConfig(t *testing.T) {
	paths := []string{"sites.yaml"}
	if got := ResolveInventoryPaths("", paths); got[0] != "sites.yaml" {
		t.Errorf("ResolveInventoryPaths() = %v, want unchanged", got)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestFindConfigPathEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("version: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvConfigPath, configPath)

	if got := FindConfigPath(); got != configPath {
		t.Errorf("FindConfigPath() = %s, want %s", got, configPath)
	}
}

func TestFindConfigPathXDG(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigDirName, "config.yaml")
	if err := EnsureConfigDir(configPath); err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}
	if err := os.WriteFile(configPath, []byte("version: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if got := FindConfigPath(); got != configPath {
		t.Errorf("FindConfigPath() = %s, want %s", got, configPath)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Inventory.Paths = []string{"a.yaml", "b.yaml"}

	summary := cfg.Summary()
	for _, want := range []string{":3000", "categorical", "Inventory files (2): a.yaml b.yaml"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
}
