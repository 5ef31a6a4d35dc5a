package codec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"circuitmap/internal/domain"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlInventory is the inventory file layout. Endpoint is accepted as a
// shorter spelling of point_to_point_endpoint.
type yamlInventory struct {
	Version    int               `yaml:"version,omitempty"`
	Sites      []yamlSite        `yaml:"sites"`
	Facilities []domain.Facility `yaml:"facilities"`
}

type yamlSite struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Category    string           `yaml:"category,omitempty"`
	Location    *domain.GeoPoint `yaml:"location,omitempty"`
	Coordinates *domain.Point2D  `yaml:"coordinates,omitempty"`
	Connections []yamlConnection `yaml:"connections"`
}

type yamlConnection struct {
	Type                 string `yaml:"type"`
	Bandwidth            string `yaml:"bandwidth,omitempty"`
	Provider             string `yaml:"provider,omitempty"`
	PointToPointEndpoint string `yaml:"point_to_point_endpoint,omitempty"`
	Endpoint             string `yaml:"endpoint,omitempty"`
	CustomProvider       string `yaml:"custom_provider,omitempty"`
}

// Parse imports an inventory from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Inventory, error) {
	var doc yamlInventory
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	inv := &domain.Inventory{
		Sites:      make([]domain.Site, 0, len(doc.Sites)),
		Facilities: doc.Facilities,
	}

	for _, ys := range doc.Sites {
		site := domain.Site{
			ID:          ys.ID,
			Name:        ys.Name,
			Category:    ys.Category,
			Location:    ys.Location,
			Coordinates: ys.Coordinates,
			Connections: make([]domain.Connection, 0, len(ys.Connections)),
		}
		for _, yc := range ys.Connections {
			endpoint := yc.PointToPointEndpoint
			if endpoint == "" {
				endpoint = yc.Endpoint
			}
			site.Connections = append(site.Connections, domain.Connection{
				Type:                 yc.Type,
				Bandwidth:            yc.Bandwidth,
				Provider:             yc.Provider,
				PointToPointEndpoint: endpoint,
				CustomProvider:       yc.CustomProvider,
			})
		}
		inv.Sites = append(inv.Sites, site)
	}

	normalize(inv)
	return inv, nil
}

// Export exports a scene to YAML
func (c *YAMLCodec) Export(scene *domain.Scene, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(scene); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
