package repository

import (
	"context"
	"errors"

	"circuitmap/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for inventory data access
type Repository interface {
	// Sites, in inventory order
	ListSites(ctx context.Context) ([]domain.Site, error)
	GetSite(ctx context.Context, id string) (*domain.Site, error)
	UpsertSite(ctx context.Context, site *domain.Site) error
	DeleteSite(ctx context.Context, id string) error

	// Facility catalog, in inventory order
	ListFacilities(ctx context.Context) ([]domain.Facility, error)
	UpsertFacility(ctx context.Context, facility *domain.Facility) error
	DeleteFacility(ctx context.Context, id string) error

	// ReplaceInventory swaps the whole inventory in one transaction. Sites
	// that survive the import keep their committed coordinates unless the
	// import carries new ones.
	ReplaceInventory(ctx context.Context, sites []domain.Site, facilities []domain.Facility) error

	// UpdateSiteCoordinates persists a committed normalized position
	UpdateSiteCoordinates(ctx context.Context, siteID string, p domain.Point2D) error

	// Close releases resources
	Close() error
}
