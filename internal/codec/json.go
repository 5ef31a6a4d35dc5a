package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"circuitmap/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports an inventory from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Inventory, error) {
	var inv domain.Inventory
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	normalize(&inv)
	return &inv, nil
}

// Export exports a scene to JSON
func (c *JSONCodec) Export(scene *domain.Scene, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(scene); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// normalize replaces nil slices so that encoded output never carries null
func normalize(inv *domain.Inventory) {
	if inv.Sites == nil {
		inv.Sites = make([]domain.Site, 0)
	}
	if inv.Facilities == nil {
		inv.Facilities = make([]domain.Facility, 0)
	}
	for i := range inv.Sites {
		if inv.Sites[i].Connections == nil {
			inv.Sites[i].Connections = make([]domain.Connection, 0)
		}
	}
}
