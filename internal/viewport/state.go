package viewport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"circuitmap/internal/domain"
	"circuitmap/internal/layout"
	"circuitmap/internal/routing"
)

var (
	ErrUnknownNode    = errors.New("unknown site node")
	ErrDragInProgress = errors.New("another site is being dragged")
	ErrNotDragging    = errors.New("site is not being dragged")
	ErrLayoutNotReady = errors.New("viewport has no size or scene yet")
)

// PositionSink receives committed site positions in the normalized frame.
// It is called exactly once per completed drag.
type PositionSink interface {
	UpdateSiteCoordinates(ctx context.Context, siteID string, p domain.Point2D) error
}

// SinkFunc adapts a function to the PositionSink interface
type SinkFunc func(ctx context.Context, siteID string, p domain.Point2D) error

// UpdateSiteCoordinates calls f
func (f SinkFunc) UpdateSiteCoordinates(ctx context.Context, siteID string, p domain.Point2D) error {
	return f(ctx, siteID, p)
}

// Options configures a State
type Options struct {
	// Padding keeps dragged nodes this many pixels inside the viewport
	Padding float64 `yaml:"padding" validate:"gte=0"`
	// CommitMin and CommitMax bound committed normalized coordinates. They may
	// narrow the persisted range [0.05, 0.95] but never widen it.
	CommitMin float64 `yaml:"commit_min" validate:"gte=0.05,lt=0.95"`
	CommitMax float64 `yaml:"commit_max" validate:"gtfield=CommitMin,lte=0.95"`
	// Remeasure is the backoff schedule of ScheduleRemeasure
	Remeasure []time.Duration `yaml:"remeasure"`
}

// DefaultOptions returns the stock viewport settings
func DefaultOptions() Options {
	return Options{
		Padding:   40,
		CommitMin: layout.CommitMin,
		CommitMax: layout.CommitMax,
		Remeasure: append([]time.Duration(nil), DefaultRemeasureSchedule...),
	}
}

// Option customizes a State
type Option func(*State)

// WithSink sets the collaborator committed positions are sent to
func WithSink(sink PositionSink) Option {
	return func(s *State) {
		s.sink = sink
	}
}

// WithScheduler replaces the runtime timer used by ScheduleRemeasure
func WithScheduler(sched Scheduler) Option {
	return func(s *State) {
		s.scheduler = sched
	}
}

// State owns live node positions for one viewer. Normalized positions are
// the source of truth; pixel positions are derived from them and the current
// dimensions, except for the site being dragged.
type State struct {
	mu sync.Mutex

	opts      Options
	router    *routing.Router
	sink      PositionSink
	scheduler Scheduler
	logger    zerolog.Logger

	dims       domain.Dimensions
	scene      *domain.Scene
	links      []routing.Link
	normalized map[string]domain.Point2D
	pixels     map[string]domain.Point2D
	committed  map[string]domain.Point2D
	dragging   string
}

// New creates a State. Edges are re-shaped with router whenever positions
// change.
func New(router *routing.Router, opts Options, logger zerolog.Logger, options ...Option) *State {
	opts.CommitMin = math.Max(opts.CommitMin, layout.CommitMin)
	if opts.CommitMax == 0 || opts.CommitMax > layout.CommitMax {
		opts.CommitMax = layout.CommitMax
	}
	if opts.CommitMax <= opts.CommitMin {
		opts.CommitMin, opts.CommitMax = layout.CommitMin, layout.CommitMax
	}
	if opts.Remeasure == nil {
		opts.Remeasure = append([]time.Duration(nil), DefaultRemeasureSchedule...)
	}

	s := &State{
		opts:       opts,
		router:     router,
		scheduler:  TimerScheduler{},
		logger:     logger.With().Str("component", "viewport").Logger(),
		normalized: make(map[string]domain.Point2D),
		pixels:     make(map[string]domain.Point2D),
		committed:  make(map[string]domain.Point2D),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// SetScene installs the result of a layout pass. Positions committed through
// this State override unpinned sites, so a relayout never throws away a drag
// the host has not persisted yet. A drag in progress survives when its site
// is still present.
func (s *State) SetScene(scene *domain.Scene, links []routing.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := scene.Clone()
	next.Frame = domain.FrameNormalized
	for i := range next.Nodes {
		n := &next.Nodes[i]
		if !n.IsSite() || n.Pinned {
			continue
		}
		if p, ok := s.committed[n.ID]; ok {
			n.Position = p
			n.Pinned = true
		}
	}

	live, hasLive := s.pixels[s.dragging]

	s.scene = next
	s.links = append([]routing.Link(nil), links...)
	s.normalized = next.Positions()

	if s.dragging != "" {
		if n, ok := s.scene.Node(s.dragging); !ok || !n.IsSite() {
			s.logger.Debug().Str("site_id", s.dragging).Msg("drag cancelled, site left the scene")
			s.dragging = ""
		}
	}

	s.recomputePixelsLocked()
	if s.dragging != "" && hasLive {
		s.pixels[s.dragging] = live
	}
}

// Resize applies new viewport dimensions and recomputes every pixel position
// from its normalized position. It returns false, leaving the state
// untouched, when dims has a zero or negative side.
func (s *State) Resize(dims domain.Dimensions) bool {
	if !dims.Positive() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dims == s.dims {
		return true
	}
	s.dims = dims

	var live domain.Point2D
	if s.dragging != "" {
		live = s.pixels[s.dragging]
	}
	s.recomputePixelsLocked()
	if s.dragging != "" {
		s.pixels[s.dragging] = ClampPixel(live, dims, s.opts.Padding)
	}
	return true
}

// Dimensions returns the current viewport size
func (s *State) Dimensions() domain.Dimensions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dims
}

// Dragging returns the ID of the site being dragged, if any
func (s *State) Dragging() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// PixelPosition returns the current pixel position of a node
func (s *State) PixelPosition(id string) (domain.Point2D, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dims.Positive() {
		return domain.Point2D{}, false
	}
	p, ok := s.pixels[id]
	return p, ok
}

// NormalizedPosition returns the last committed or placed normalized
// position of a node
func (s *State) NormalizedPosition(id string) (domain.Point2D, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.normalized[id]
	return p, ok
}

// ToPixel converts p at the current dimensions
func (s *State) ToPixel(p domain.Point2D) (domain.Point2D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dims.Positive() {
		return domain.Point2D{}, ErrLayoutNotReady
	}
	return ToPixel(p, s.dims), nil
}

// ToNormalized converts px at the current dimensions
func (s *State) ToNormalized(px domain.Point2D) (domain.Point2D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := ToNormalized(px, s.dims)
	if !ok {
		return domain.Point2D{}, ErrLayoutNotReady
	}
	return p, nil
}

// Scene returns the scene in the normalized frame with edges shaped from the
// latest committed positions
func (s *State) Scene(emphasis routing.Emphasis) (*domain.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scene == nil {
		return nil, ErrLayoutNotReady
	}
	out := s.scene.Clone()
	out.Edges = s.router.Shape(s.links, s.normalized, emphasis)
	return out, nil
}

// PixelScene returns the scene in the pixel frame. Edges follow live
// positions, including the site being dragged.
func (s *State) PixelScene(emphasis routing.Emphasis) (*domain.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scene == nil || !s.dims.Positive() {
		return nil, ErrLayoutNotReady
	}

	out := s.scene.Clone()
	out.Frame = domain.FramePixel
	for i := range out.Nodes {
		out.Nodes[i].Position = s.pixels[out.Nodes[i].ID]
	}
	out.Edges = s.router.Shape(s.links, s.pixels, emphasis)
	return out, nil
}

// DragStart marks a site as live. Only one site may be live at a time.
func (s *State) DragStart(siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scene == nil || !s.dims.Positive() {
		return s.noop(siteID, ErrLayoutNotReady)
	}
	if n, ok := s.scene.Node(siteID); !ok || !n.IsSite() {
		return s.noop(siteID, ErrUnknownNode)
	}
	if s.dragging != "" {
		return s.noop(siteID, ErrDragInProgress)
	}

	s.dragging = siteID
	return nil
}

// DragMove clamps the pointer to the padded viewport and moves the live site
// there. Nothing is committed. It returns the applied pixel position.
func (s *State) DragMove(siteID string, px domain.Point2D) (domain.Point2D, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dragging == "" || s.dragging != siteID {
		return domain.Point2D{}, s.noop(siteID, ErrNotDragging)
	}

	clamped := ClampPixel(px, s.dims, s.opts.Padding)
	s.pixels[siteID] = clamped
	return clamped, nil
}

// DragEnd finishes the drag at the pointer position and commits the site's
// new normalized position to the sink. The commit happens exactly once per
// drag whatever the number of moves. The returned position is the committed
// one; an error from the sink is returned after the local state has already
// moved on.
func (s *State) DragEnd(ctx context.Context, siteID string, px domain.Point2D) (domain.Point2D, error) {
	s.mu.Lock()

	if s.dragging == "" || s.dragging != siteID {
		s.mu.Unlock()
		return domain.Point2D{}, s.noop(siteID, ErrNotDragging)
	}

	clamped := ClampPixel(px, s.dims, s.opts.Padding)
	p, _ := ToNormalized(clamped, s.dims)
	p = p.Clamp(s.opts.CommitMin, s.opts.CommitMax)

	s.normalized[siteID] = p
	s.committed[siteID] = p
	s.pixels[siteID] = ToPixel(p, s.dims)
	for i := range s.scene.Nodes {
		if s.scene.Nodes[i].ID == siteID {
			s.scene.Nodes[i].Position = p
			s.scene.Nodes[i].Pinned = true
		}
	}
	s.dragging = ""
	sink := s.sink

	s.mu.Unlock()

	if sink == nil {
		return p, nil
	}
	if err := sink.UpdateSiteCoordinates(ctx, siteID, p); err != nil {
		return p, fmt.Errorf("commit site %s coordinates: %w", siteID, err)
	}
	return p, nil
}

func (s *State) recomputePixelsLocked() {
	s.pixels = make(map[string]domain.Point2D, len(s.normalized))
	if !s.dims.Positive() {
		return
	}
	for id, p := range s.normalized {
		s.pixels[id] = ToPixel(p, s.dims)
	}
}

func (s *State) noop(siteID string, err error) error {
	s.logger.Debug().Str("site_id", siteID).Err(err).Msg("drag event ignored")
	return err
}
