package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"circuitmap/internal/domain"
)

const testInventory = `
sites:
  - id: nyc
    name: New York
    location: {lat: 40.71, lon: -74.0}
    connections:
      - type: MPLS
      - type: AWS Direct Connect
  - id: chi
    name: Chicago
    location: {lat: 41.88, lon: -87.63}
    connections:
      - type: Internet
      - type: Point to Point
        endpoint: New York
facilities:
  - {id: ash, name: Ashburn, lat: 39.04, lon: -77.49}
  - {id: ord, name: Chicago POP, lat: 41.85, lon: -87.65}
`

func writeInventory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	if err := os.WriteFile(path, []byte(testInventory), 0644); err != nil {
		t.Fatalf("write inventory: %v", err)
	}
	return path
}

func TestRunNormalized(t *testing.T) {
	var buf bytes.Buffer
	err := run(&buf, zerolog.Nop(), options{
		inventory: writeInventory(t),
		format:    "json",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var scene domain.Scene
	if err := json.Unmarshal(buf.Bytes(), &scene); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if scene.Mode != domain.ModeCategorical || scene.Frame != domain.FrameNormalized {
		t.Errorf("expected categorical normalized scene, got %s %s", scene.Mode, scene.Frame)
	}
	for _, n := range scene.Nodes {
		if n.Position.X < 0 || n.Position.X > 1 || n.Position.Y < 0 || n.Position.Y > 1 {
			t.Errorf("node %s outside the unit square: %v", n.ID, n.Position)
		}
	}
}

func TestRunGeographicPixels(t *testing.T) {
	var buf bytes.Buffer
	err := run(&buf, zerolog.Nop(), options{
		inventory: writeInventory(t),
		mode:      "geographic",
		format:    "json",
		dims:      domain.Dimensions{Width: 1200, Height: 800},
		selected:  "nyc",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var scene domain.Scene
	if err := json.Unmarshal(buf.Bytes(), &scene); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if scene.Frame != domain.FramePixel {
		t.Errorf("expected pixel frame, got %s", scene.Frame)
	}
	if _, ok := scene.Node("facility:ord"); !ok {
		t.Error("expected the Chicago facility node")
	}
	selected := false
	for _, e := range scene.Edges {
		selected = selected || e.SelectedEndpoint
	}
	if !selected {
		t.Error("expected edges of nyc to be marked selected")
	}
}

func TestRunYAMLAndErrors(t *testing.T) {
	path := writeInventory(t)

	var buf bytes.Buffer
	if err := run(&buf, zerolog.Nop(), options{inventory: path, format: "yaml"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "mode: categorical") {
		t.Errorf("expected YAML scene, got:\n%s", buf.String())
	}

	if err := run(&buf, zerolog.Nop(), options{inventory: path, format: "toml"}); err == nil {
		t.Error("expected unsupported output format to fail")
	}
	if err := run(&buf, zerolog.Nop(), options{inventory: path, format: "json", mode: "radial"}); err == nil {
		t.Error("expected unknown mode to fail")
	}
	if err := run(&buf, zerolog.Nop(), options{inventory: filepath.Join(t.TempDir(), "none.yaml"), format: "json"}); err == nil {
		t.Error("expected missing inventory to fail")
	}
}
