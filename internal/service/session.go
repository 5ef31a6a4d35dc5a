package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"circuitmap/internal/domain"
	"circuitmap/internal/metrics"
	"circuitmap/internal/topology"
	"circuitmap/internal/viewport"
)

// ErrSessionNotFound is returned for unknown or reaped session IDs
var ErrSessionNotFound = errors.New("session not found")

// Session is one interactive viewer
type Session struct {
	ID    string
	Mode  domain.Mode
	State *viewport.State

	lastSeen time.Time

	resizeMu sync.Mutex
	mu       sync.Mutex
	reported domain.Dimensions
	stop     func()
}

// Resize records the container size the viewer measured and applies it.
// Browsers report sizes while their own layout is still settling, so the
// latest report is re-read along the remeasure schedule until the next
// report replaces it. It returns false while the size is not positive.
func (sess *Session) Resize(dims domain.Dimensions) bool {
	sess.resizeMu.Lock()
	defer sess.resizeMu.Unlock()

	sess.mu.Lock()
	sess.reported = dims
	prev := sess.stop
	sess.stop = nil
	sess.mu.Unlock()
	if prev != nil {
		prev()
	}

	ready := sess.State.Resize(dims)
	stop := sess.State.ScheduleRemeasure(sess.measured)

	sess.mu.Lock()
	sess.stop = stop
	sess.mu.Unlock()
	return ready
}

func (sess *Session) measured() domain.Dimensions {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.reported
}

func (sess *Session) close() {
	sess.mu.Lock()
	stop := sess.stop
	sess.stop = nil
	sess.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// SessionService keeps a viewport.State per viewer and writes drag commits
// back to the repository
type SessionService struct {
	scenes   *SceneService
	opts     viewport.Options
	ttl      time.Duration
	metrics  *metrics.Metrics
	eventBus *EventBus
	logger   zerolog.Logger
	now      func() time.Time
	sched    viewport.Scheduler

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionService creates a session service. Sessions idle for longer
// than ttl are closed by Reap; a zero ttl keeps them forever.
func NewSessionService(scenes *SceneService, opts viewport.Options, ttl time.Duration, m *metrics.Metrics, eventBus *EventBus, logger zerolog.Logger) *SessionService {
	return &SessionService{
		scenes:   scenes,
		opts:     opts,
		ttl:      ttl,
		metrics:  m,
		eventBus: eventBus,
		logger:   logger.With().Str("component", "session_service").Logger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// WithScheduler replaces the timer sessions use to remeasure
func (s *SessionService) WithScheduler(sched viewport.Scheduler) *SessionService {
	s.sched = sched
	return s
}

// Create lays out the inventory in mode and opens a session on it. Dims may
// be zero when the viewer has not measured its container yet.
func (s *SessionService) Create(ctx context.Context, mode domain.Mode, dims domain.Dimensions) (*Session, error) {
	if mode == "" {
		mode = s.scenes.DefaultMode()
	}
	result, err := s.scenes.Layout(ctx, mode)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	options := []viewport.Option{viewport.WithSink(s.sink())}
	if s.sched != nil {
		options = append(options, viewport.WithScheduler(s.sched))
	}
	state := viewport.New(s.scenes.Engine().Router(), s.opts, s.logger.With().Str("session_id", id).Logger(), options...)
	state.SetScene(result.Scene, result.Links)

	sess := &Session{
		ID:       id,
		Mode:     mode,
		State:    state,
		lastSeen: s.now(),
	}
	sess.Resize(dims)

	s.mu.Lock()
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	s.logger.Debug().Str("session_id", id).Str("mode", string(mode)).Msg("session opened")
	return sess, nil
}

// Get returns a session and marks it as seen
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Close removes a session
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.close()
	s.metrics.SetActiveSessions(count)
	return nil
}

// Count returns the number of open sessions
func (s *SessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reap closes sessions idle since before now-ttl and returns how many
func (s *SessionService) Reap() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	reaped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			sess.close()
			reaped++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if reaped > 0 {
		s.metrics.SetActiveSessions(count)
		s.logger.Debug().Int("reaped", reaped).Msg("closed idle sessions")
	}
	return reaped
}

// Relayout re-runs the layout of every session so that inventory changes
// reach open viewers. Positions committed in a session survive.
func (s *SessionService) Relayout(ctx context.Context) error {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	results := make(map[domain.Mode]*topology.Result)
	for _, sess := range open {
		result, ok := results[sess.Mode]
		if !ok {
			var err error
			result, err = s.scenes.Layout(ctx, sess.Mode)
			if err != nil {
				return fmt.Errorf("relayout session %s: %w", sess.ID, err)
			}
			results[sess.Mode] = result
		}
		sess.State.SetScene(result.Scene, result.Links)
	}
	return nil
}

// Run reaps idle sessions and relays out open ones whenever the inventory
// changes, until ctx is cancelled
func (s *SessionService) Run(ctx context.Context) error {
	events := make(chan Event, 16)
	s.eventBus.Subscribe(events)
	defer s.eventBus.Unsubscribe(events)

	interval := s.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Reap()
		case ev := <-events:
			if ev.Type != EventInventoryReloaded && ev.Type != EventSitesChanged {
				continue
			}
			if err := s.Relayout(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("relayout after inventory change failed")
			}
		}
	}
}

func (s *SessionService) sink() viewport.PositionSink {
	return viewport.SinkFunc(func(ctx context.Context, siteID string, p domain.Point2D) error {
		err := s.scenes.UpdateSiteCoordinates(ctx, siteID, p)
		s.metrics.IncCommit(err == nil)
		return err
	})
}
