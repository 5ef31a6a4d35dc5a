// Package codec converts inventories and scenes to and from wire formats.
package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"circuitmap/internal/domain"
)

// ErrUnsupportedFormat is returned for format names no codec handles
var ErrUnsupportedFormat = errors.New("unsupported format")

// Importer parses an inventory document
type Importer interface {
	Parse(r io.Reader) (*domain.Inventory, error)
	Format() string
}

// Exporter writes a scene
type Exporter interface {
	Export(scene *domain.Scene, w io.Writer) error
	Format() string
}

// Codec both imports inventories and exports scenes
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name such as "json" or "yaml"
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	return ForFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
