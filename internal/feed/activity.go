package feed

import (
	"sync"
	"time"
)

// ActivityState is a snapshot of the user-activity signals for one session.
type ActivityState struct {
	// UserActive is true while a qualifying interaction happened within
	// the inactivity threshold.
	UserActive bool

	// Scrolling is true while scroll deltas keep exceeding the scroll
	// threshold, and for a short debounce window after they stop.
	Scrolling bool

	// ViewingVideo is set explicitly by the video-playback collaborator.
	ViewingVideo bool
}

// AllowAutoRefresh reports whether it is safe to disturb the visible feed.
func (s ActivityState) AllowAutoRefresh() bool {
	return s.UserActive && !s.Scrolling && !s.ViewingVideo
}

// ActivityMonitor derives activity state from interaction reports. The
// hosting client calls ReportInteraction/ReportScroll/SetVideoViewing; the
// monitor owns the debounce timers.
//
// Close must be called to release the timers.
type ActivityMonitor struct {
	clock           Clock
	inactivityAfter time.Duration
	scrollThreshold float64
	scrollStopDelay time.Duration

	mu             sync.Mutex
	userActive     bool
	scrolling      bool
	viewingVideo   bool
	lastScrollPos  float64
	inactivityTmer Timer
	scrollStopTmr  Timer
	closed         bool
}

// NewActivityMonitor creates a monitor with the given tuning. The user starts
// out inactive until the first interaction is reported.
func NewActivityMonitor(opts Options, clock Clock) *ActivityMonitor {
	opts = opts.withDefaults()
	return &ActivityMonitor{
		clock:           clock,
		inactivityAfter: opts.InactivityThreshold,
		scrollThreshold: opts.ScrollThreshold,
		scrollStopDelay: opts.ScrollStopDelay,
	}
}

// ReportInteraction marks the user active and restarts the inactivity timer.
// Any qualifying input (pointer, key, touch) should be reported here.
func (m *ActivityMonitor) ReportInteraction() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markActiveLocked()
}

// ReportScroll records an absolute scroll position. If the delta from the
// previous position exceeds the scroll threshold the scrolling flag is set
// and a debounce timer is armed to clear it once scrolling stops.
func (m *ActivityMonitor) ReportScroll(position float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	delta := position - m.lastScrollPos
	if delta < 0 {
		delta = -delta
	}
	m.lastScrollPos = position

	if delta <= m.scrollThreshold {
		return
	}

	m.scrolling = true
	m.markActiveLocked()

	if m.scrollStopTmr != nil {
		m.scrollStopTmr.Reset(m.scrollStopDelay)
		return
	}
	m.scrollStopTmr = m.clock.AfterFunc(m.scrollStopDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.scrolling = false
	})
}

// SetVideoViewing updates the video-viewing flag. Starting a video counts as
// engagement and refreshes activity.
func (m *ActivityMonitor) SetVideoViewing(viewing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.viewingVideo = viewing
	if viewing {
		m.markActiveLocked()
	}
}

// State returns the current activity snapshot.
func (m *ActivityMonitor) State() ActivityState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ActivityState{
		UserActive:   m.userActive,
		Scrolling:    m.scrolling,
		ViewingVideo: m.viewingVideo,
	}
}

// Close stops the monitor's timers. The monitor must not be used afterwards.
func (m *ActivityMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.inactivityTmer != nil {
		m.inactivityTmer.Stop()
		m.inactivityTmer = nil
	}
	if m.scrollStopTmr != nil {
		m.scrollStopTmr.Stop()
		m.scrollStopTmr = nil
	}
}

func (m *ActivityMonitor) markActiveLocked() {
	if m.closed {
		return
	}
	m.userActive = true
	if m.inactivityTmer != nil {
		m.inactivityTmer.Reset(m.inactivityAfter)
		return
	}
	m.inactivityTmer = m.clock.AfterFunc(m.inactivityAfter, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.userActive = false
	})
}
