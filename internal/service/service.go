package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"circuitmap/internal/codec"
	"circuitmap/internal/domain"
	"circuitmap/internal/layout"
	"circuitmap/internal/loader"
	"circuitmap/internal/repository"
	"circuitmap/internal/topology"
)

// SceneService runs layout passes over the stored inventory
type SceneService struct {
	repo        repository.Repository
	engine      *topology.Engine
	eventBus    *EventBus
	defaultMode domain.Mode
	logger      zerolog.Logger
}

// NewSceneService creates a new scene service
func NewSceneService(repo repository.Repository, engine *topology.Engine, eventBus *EventBus, defaultMode domain.Mode, logger zerolog.Logger) *SceneService {
	if defaultMode == "" {
		defaultMode = domain.ModeCategorical
	}
	return &SceneService{
		repo:        repo,
		engine:      engine,
		eventBus:    eventBus,
		defaultMode: defaultMode,
		logger:      logger.With().Str("component", "scene_service").Logger(),
	}
}

// Engine returns the layout engine
func (s *SceneService) Engine() *topology.Engine {
	return s.engine
}

// DefaultMode returns the mode used when a caller names none
func (s *SceneService) DefaultMode() domain.Mode {
	return s.defaultMode
}

// Layout runs one layout pass over the current inventory
func (s *SceneService) Layout(ctx context.Context, mode domain.Mode) (*topology.Result, error) {
	if mode == "" {
		mode = s.defaultMode
	}

	sites, err := s.repo.ListSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	facilities, err := s.repo.ListFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}

	return s.engine.Build(topology.Input{
		Mode:       mode,
		Sites:      sites,
		Facilities: facilities,
	})
}

// SceneSummary is the payload of scene_updated events
type SceneSummary struct {
	Mode    domain.Mode `json:"mode"`
	Nodes   int         `json:"nodes"`
	Edges   int         `json:"edges"`
	Dropped int         `json:"dropped"`
}

// Refresh runs a pass in the default mode and tells subscribers the scene
// changed
func (s *SceneService) Refresh(ctx context.Context) (*topology.Result, error) {
	result, err := s.Layout(ctx, s.defaultMode)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type: EventSceneUpdated,
		Payload: SceneSummary{
			Mode:    result.Scene.Mode,
			Nodes:   len(result.Scene.Nodes),
			Edges:   len(result.Scene.Edges),
			Dropped: result.Stats.DroppedTotal(),
		},
	})
	return result, nil
}

// ListSites returns all sites in inventory order
func (s *SceneService) ListSites(ctx context.Context) ([]domain.Site, error) {
	return s.repo.ListSites(ctx)
}

// GetSite retrieves a single site by ID
func (s *SceneService) GetSite(ctx context.Context, id string) (*domain.Site, error) {
	return s.repo.GetSite(ctx, id)
}

// ListFacilities returns the facility catalog
func (s *SceneService) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	return s.repo.ListFacilities(ctx)
}

// UpsertSite validates and stores a site with its connections
func (s *SceneService) UpsertSite(ctx context.Context, site *domain.Site) error {
	if err := loader.Validate(&domain.Inventory{Sites: []domain.Site{*site}}); err != nil {
		return err
	}
	if err := s.repo.UpsertSite(ctx, site); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventSitesChanged,
		Payload: map[string]string{"site_id": site.ID, "action": "upserted"},
	})
	return nil
}

// DeleteSite removes a site and its connections
func (s *SceneService) DeleteSite(ctx context.Context, id string) error {
	if err := s.repo.DeleteSite(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventSitesChanged,
		Payload: map[string]string{"site_id": id, "action": "deleted"},
	})
	return nil
}

// CommittedCoordinates is the payload of coordinates_committed events
type CommittedCoordinates struct {
	SiteID string  `json:"site_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// UpdateSiteCoordinates clamps p into the commit range and persists it. It
// satisfies viewport.PositionSink.
func (s *SceneService) UpdateSiteCoordinates(ctx context.Context, siteID string, p domain.Point2D) error {
	p = layout.ClampCommitted(p)
	if err := s.repo.UpdateSiteCoordinates(ctx, siteID, p); err != nil {
		return err
	}

	s.logger.Debug().Str("site_id", siteID).Float64("x", p.X).Float64("y", p.Y).Msg("coordinates committed")
	s.eventBus.Publish(Event{
		Type:    EventCoordinatesCommitted,
		Payload: CommittedCoordinates{SiteID: siteID, X: p.X, Y: p.Y},
	})
	return nil
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Sites      int    `json:"sites"`
	Facilities int    `json:"facilities"`
	Source     string `json:"source,omitempty"`
}

// ImportInventory validates inv and replaces the stored inventory with it.
// Sites that survive keep their committed coordinates.
func (s *SceneService) ImportInventory(ctx context.Context, inv *domain.Inventory, source string) (*ImportResult, error) {
	if err := loader.Validate(inv); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceInventory(ctx, inv.Sites, inv.Facilities); err != nil {
		return nil, fmt.Errorf("replace inventory: %w", err)
	}

	result := &ImportResult{
		Sites:      len(inv.Sites),
		Facilities: len(inv.Facilities),
		Source:     source,
	}

	s.logger.Info().
		Int("sites", result.Sites).
		Int("facilities", result.Facilities).
		Str("source", source).
		Msg("inventory imported")

	s.eventBus.Publish(Event{
		Type:    EventInventoryReloaded,
		Payload: result,
	})
	return result, nil
}

// ImportData parses an inventory document in the given format and imports it
func (s *SceneService) ImportData(ctx context.Context, data []byte, format string) (*ImportResult, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	inv, err := loader.Parse(data, c)
	if err != nil {
		return nil, err
	}
	return s.ImportInventory(ctx, inv, "upload")
}

// Export writes a freshly laid out scene in the given format
func (s *SceneService) Export(ctx context.Context, mode domain.Mode, format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	result, err := s.Layout(ctx, mode)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := c.Export(result.Scene, &buf); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
