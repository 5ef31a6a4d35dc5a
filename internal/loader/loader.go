// Package loader reads inventory files and checks them before they reach the
// repository.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"circuitmap/internal/codec"
	"circuitmap/internal/domain"
)

var validate = validator.New()

// ErrInvalidInventory is wrapped by every validation failure
var ErrInvalidInventory = errors.New("invalid inventory")

// LoadFile reads and validates an inventory file. The format follows the
// file extension.
func LoadFile(path string) (*domain.Inventory, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	inv, err := Parse(data, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return inv, nil
}

// LoadFiles reads several inventory files and merges them in order. Later
// files may not redefine ids from earlier ones.
func LoadFiles(paths []string) (*domain.Inventory, error) {
	merged := &domain.Inventory{
		Sites:      make([]domain.Site, 0),
		Facilities: make([]domain.Facility, 0),
	}
	for _, path := range paths {
		inv, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		merged.Sites = append(merged.Sites, inv.Sites...)
		merged.Facilities = append(merged.Facilities, inv.Facilities...)
	}

	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Parse decodes data with the importer and validates the result
func Parse(data []byte, importer codec.Importer) (*domain.Inventory, error) {
	inv, err := importer.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}
	if err := Validate(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Validate checks field constraints and id uniqueness
func Validate(inv *domain.Inventory) error {
	if err := validate.Struct(inv); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidInventory, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInventory, err)
	}

	siteIDs := make(map[string]struct{}, len(inv.Sites))
	for _, s := range inv.Sites {
		if _, dup := siteIDs[s.ID]; dup {
			return fmt.Errorf("%w: duplicate site id %q", ErrInvalidInventory, s.ID)
		}
		siteIDs[s.ID] = struct{}{}
	}

	facilityIDs := make(map[string]struct{}, len(inv.Facilities))
	for _, f := range inv.Facilities {
		if _, dup := facilityIDs[f.ID]; dup {
			return fmt.Errorf("%w: duplicate facility id %q", ErrInvalidInventory, f.ID)
		}
		facilityIDs[f.ID] = struct{}{}
	}

	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Inventory.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s fails %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
