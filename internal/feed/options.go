package feed

import "time"

// Options holds the tunables for the scoring engine, ranking mixer, update
// queue, activity monitor and orchestrator. Zero-value fields are filled in
// from Defaults by the constructors.
type Options struct {
	// RecencyWeight is the recency component weight in the total score.
	RecencyWeight float64

	// EngagementWeight is the engagement component weight.
	EngagementWeight float64

	// DiversityWeight is the diversity component weight.
	DiversityWeight float64

	// ActorActivityWeight is the actor-activity component weight.
	ActorActivityWeight float64

	// AdminBoostMultiplier multiplies the total score of privileged
	// content. Must be >= 1.
	AdminBoostMultiplier float64

	// FreshContentWindow is the age below which content gets the maximum
	// recency score.
	FreshContentWindow time.Duration

	// InactivityThreshold is how long without an interaction before the
	// user counts as inactive.
	InactivityThreshold time.Duration

	// ScrollThreshold is the minimum scroll delta, in pixels, that counts
	// as scrolling.
	ScrollThreshold float64

	// ScrollStopDelay is how long after the last qualifying scroll delta
	// the scrolling flag is cleared.
	ScrollStopDelay time.Duration

	// AutoRefreshInterval is the background re-rank period.
	AutoRefreshInterval time.Duration

	// MaxQueueSize bounds the number of update-queue entries; oldest
	// entries are evicted first.
	MaxQueueSize int

	// BatchDelay is the coalescing window used when logging bursts of
	// queue additions. It does not merge entries.
	BatchDelay time.Duration

	// MaxFeedSize bounds how many raw items a ranking pass loads.
	MaxFeedSize int

	// MaxSeen caps the seen set, evicting the oldest identifiers first.
	// Zero means unbounded, matching the observed behavior of never
	// re-surfacing content within a session.
	MaxSeen int
}

// Defaults returns the standard feed tuning.
func Defaults() Options {
	return Options{
		RecencyWeight:        0.30,
		EngagementWeight:     0.40,
		DiversityWeight:      0.15,
		ActorActivityWeight:  0.15,
		AdminBoostMultiplier: 2.5,
		FreshContentWindow:   6 * time.Hour,
		InactivityThreshold:  30 * time.Second,
		ScrollThreshold:      50,
		ScrollStopDelay:      150 * time.Millisecond,
		AutoRefreshInterval:  3 * time.Minute,
		MaxQueueSize:         50,
		BatchDelay:           2 * time.Second,
		MaxFeedSize:          200,
		MaxSeen:              0,
	}
}

// withDefaults fills zero-valued fields from Defaults.
func (o Options) withDefaults() Options {
	d := Defaults()
	if o.RecencyWeight == 0 && o.EngagementWeight == 0 && o.DiversityWeight == 0 && o.ActorActivityWeight == 0 {
		o.RecencyWeight = d.RecencyWeight
		o.EngagementWeight = d.EngagementWeight
		o.DiversityWeight = d.DiversityWeight
		o.ActorActivityWeight = d.ActorActivityWeight
	}
	if o.AdminBoostMultiplier == 0 {
		o.AdminBoostMultiplier = d.AdminBoostMultiplier
	}
	if o.FreshContentWindow == 0 {
		o.FreshContentWindow = d.FreshContentWindow
	}
	if o.InactivityThreshold == 0 {
		o.InactivityThreshold = d.InactivityThreshold
	}
	if o.ScrollThreshold == 0 {
		o.ScrollThreshold = d.ScrollThreshold
	}
	if o.ScrollStopDelay == 0 {
		o.ScrollStopDelay = d.ScrollStopDelay
	}
	if o.AutoRefreshInterval == 0 {
		o.AutoRefreshInterval = d.AutoRefreshInterval
	}
	if o.MaxQueueSize == 0 {
		o.MaxQueueSize = d.MaxQueueSize
	}
	if o.BatchDelay == 0 {
		o.BatchDelay = d.BatchDelay
	}
	if o.MaxFeedSize == 0 {
		o.MaxFeedSize = d.MaxFeedSize
	}
	return o
}
