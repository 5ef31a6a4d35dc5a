package viewport

import (
	"time"

	"circuitmap/internal/domain"
)

// DefaultRemeasureSchedule lists the delays, measured from the call, at
// which ScheduleRemeasure re-reads the viewport size
var DefaultRemeasureSchedule = []time.Duration{
	0,
	16 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// Scheduler runs f once after d. The returned function cancels a pending run.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// TimerScheduler schedules on the runtime timer
type TimerScheduler struct{}

// AfterFunc implements Scheduler
func (TimerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// ScheduleRemeasure re-reads the viewport size at every step of the
// remeasure schedule and applies it with Resize. Hosts may report a
// zero-sized container before their own layout settles, so a single read is
// not enough. Hosts call it after every size report; service.Session does so
// for HTTP viewers. The returned function cancels the remaining checks.
func (s *State) ScheduleRemeasure(measure func() domain.Dimensions) (stop func()) {
	s.mu.Lock()
	sched := s.scheduler
	delays := append([]time.Duration(nil), s.opts.Remeasure...)
	s.mu.Unlock()

	stops := make([]func() bool, 0, len(delays))
	for _, d := range delays {
		stops = append(stops, sched.AfterFunc(d, func() {
			if s.Resize(measure()) {
				return
			}
			s.logger.Debug().Dur("after", d).Msg("viewport not measured yet")
		}))
	}

	return func() {
		for _, cancel := range stops {
			cancel()
		}
	}
}
