package feed

import (
	"log/slog"
	"math"
	"time"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

const (
	// recencyDecayHours controls the exponential decay of the recency
	// score outside the freshness window.
	recencyDecayHours = 24

	// recencyFloor keeps old content from vanishing entirely.
	recencyFloor = 0.1

	// engagementSaturation is the weighted engagement count that maps to
	// a full engagement score. Beyond it the log scale flattens out.
	engagementSaturation = 500

	// privilegedEngagementBoost lifts the engagement score of official
	// content before the cap.
	privilegedEngagementBoost = 1.5

	// diversityPenalty is subtracted per recent occurrence of the same
	// content kind.
	diversityPenalty = 0.2

	// diversityFloor is the minimum diversity score.
	diversityFloor = 0.2

	// minBioLength is the bio length above which an actor counts as
	// filled-in for the activity score.
	minBioLength = 10
)

// Scorer computes per-item content scores. It is a pure function of its
// inputs plus the session's kind history, which it reads but never mutates
// (the mixer mutates history as items are surfaced).
type Scorer struct {
	opts   Options
	clock  Clock
	logger *slog.Logger
}

// NewScorer creates a scorer with the given tuning.
func NewScorer(opts Options, clock Clock, logger *slog.Logger) *Scorer {
	return &Scorer{
		opts:   opts.withDefaults(),
		clock:  clock,
		logger: logger,
	}
}

// ScoreContent returns the valid items annotated with a ContentScore.
// Malformed items are dropped with a log line rather than failing the batch.
func (s *Scorer) ScoreContent(items []domain.ContentItem, session *SessionState) []domain.ContentItem {
	now := s.clock.Now()
	recent := session.RecentKinds(diversityLookback)

	scored := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			s.logger.Warn("skipping malformed content item", "error", err)
			continue
		}

		score := &domain.ContentScore{
			Recency:       s.recencyScore(item.CreatedAt, now),
			Engagement:    s.engagementScore(&item),
			Diversity:     diversityScore(item.Kind, recent),
			ActorActivity: actorActivityScore(&item.Actor),
		}

		total := s.opts.RecencyWeight*score.Recency +
			s.opts.EngagementWeight*score.Engagement +
			s.opts.DiversityWeight*score.Diversity +
			s.opts.ActorActivityWeight*score.ActorActivity
		if item.Actor.Privileged {
			total *= s.opts.AdminBoostMultiplier
		}
		score.Total = total

		item.Score = score
		scored = append(scored, item)
	}
	return scored
}

// recencyScore is 1.0 inside the freshness window, then decays exponentially
// with content age, floored so old content never fully vanishes.
func (s *Scorer) recencyScore(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age <= s.opts.FreshContentWindow {
		return 1.0
	}
	decayed := math.Exp(-age.Hours() / recencyDecayHours)
	return math.Max(recencyFloor, decayed)
}

// engagementScore maps raw engagement counters onto [0,1] with a log scale so
// a handful of likes still registers while viral content saturates. Comments
// and shares weigh more than likes.
func (s *Scorer) engagementScore(item *domain.ContentItem) float64 {
	e := item.Engagement
	weighted := float64(e.Likes) + 2*float64(e.Comments) + 3*float64(e.Shares)

	score := math.Log1p(weighted) / math.Log1p(engagementSaturation)
	if item.Actor.Privileged {
		score *= privilegedEngagementBoost
	}
	return math.Min(1.0, score)
}

// diversityScore rewards kinds underrepresented in the recent history.
func diversityScore(kind domain.ContentKind, recent []domain.ContentKind) float64 {
	score := 1.0
	for _, k := range recent {
		if k == kind {
			score -= diversityPenalty
		}
	}
	return math.Max(diversityFloor, score)
}

// actorActivityScore estimates how complete and reachable the owning account
// is.
func actorActivityScore(actor *domain.Actor) float64 {
	score := 0.5
	if actor.ContactHandle != "" {
		score += 0.2
	}
	if len(actor.Bio) > minBioLength {
		score += 0.2
	}
	if actor.Privileged {
		score += 0.1
	}
	return math.Min(1.0, score)
}
