// Package topology runs layout passes: a placement strategy positions the
// nodes and the router turns site connections into shaped edges.
package topology

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"circuitmap/internal/domain"
	"circuitmap/internal/layout"
	"circuitmap/internal/metrics"
	"circuitmap/internal/routing"
)

// ErrUnknownMode is returned by Build when no strategy serves the mode
var ErrUnknownMode = errors.New("unknown layout mode")

// Input is the inventory one layout pass runs on
type Input struct {
	Mode       domain.Mode
	Sites      []domain.Site
	Facilities []domain.Facility
}

// Result is the output of one layout pass
type Result struct {
	Scene *domain.Scene
	// Links are the resolved edges, kept so that a viewport can re-shape
	// them as positions change
	Links      []routing.Link
	Assignment *layout.Assignment
	Stats      routing.Stats
	// DuplicateSites counts sites dropped for a missing or repeated ID
	DuplicateSites int
}

// Option configures an Engine
type Option func(*Engine)

// WithStrategy registers a strategy under its mode, replacing any earlier one
func WithStrategy(s layout.Strategy) Option {
	return func(e *Engine) {
		e.strategies[s.Mode()] = s
	}
}

// WithMetrics records every pass in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine runs layout passes. It holds no per-pass state and is safe for
// concurrent use.
type Engine struct {
	strategies map[domain.Mode]layout.Strategy
	router     *routing.Router
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New creates an engine. Without WithStrategy options the stock categorical
// and geographic strategies are registered.
func New(router *routing.Router, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		strategies: make(map[domain.Mode]layout.Strategy),
		router:     router,
		logger:     logger.With().Str("component", "topology").Logger(),
	}
	for _, o := range opts {
		o(e)
	}
	if len(e.strategies) == 0 {
		WithStrategy(layout.NewCategorical(layout.DefaultBandConfig(), layout.DefaultMargin))(e)
		WithStrategy(layout.NewGeographic(layout.DefaultGeoConfig()))(e)
	}
	return e
}

// Router returns the router the engine shapes edges with
func (e *Engine) Router() *routing.Router {
	return e.router
}

// Modes lists the registered modes in name order
func (e *Engine) Modes() []domain.Mode {
	modes := make([]domain.Mode, 0, len(e.strategies))
	for m := range e.strategies {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Build runs one layout pass. An empty mode selects the categorical
// layout. Bad inventory never fails the pass: duplicate sites and
// unroutable connections are dropped and counted in the result.
func (e *Engine) Build(in Input) (*Result, error) {
	mode := in.Mode
	if mode == "" {
		mode = domain.ModeCategorical
	}
	strategy, ok := e.strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	start := time.Now()

	sites, duplicates := layout.UniqueSites(in.Sites)
	if duplicates > 0 {
		e.logger.Debug().Int("count", duplicates).Msg("dropped sites with missing or repeated id")
	}

	placement := strategy.Place(sites, in.Facilities)
	edges, links, stats := e.router.Route(sites, placement.Nodes, placement.Resolver, placement.Uplinks, routing.Emphasis{})

	scene := domain.NewScene(mode, domain.FrameNormalized)
	scene.Nodes = placement.Nodes
	scene.Edges = edges

	elapsed := time.Since(start)
	e.metrics.ObserveLayoutPass(string(mode), len(scene.Nodes), len(scene.Edges), elapsed)
	for reason, n := range stats.Dropped {
		e.metrics.AddDroppedConnections(string(reason), n)
	}

	e.logger.Debug().
		Str("mode", string(mode)).
		Int("sites", len(sites)).
		Int("nodes", len(scene.Nodes)).
		Int("edges", len(scene.Edges)).
		Int("dropped", stats.DroppedTotal()).
		Dur("duration", elapsed).
		Msg("layout pass")

	return &Result{
		Scene:          scene,
		Links:          links,
		Assignment:     placement.Assignment,
		Stats:          stats,
		DuplicateSites: duplicates,
	}, nil
}
