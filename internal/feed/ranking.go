package feed

import (
	"sort"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

// Mixer orders scored content for display: it drops identifiers the session
// has already surfaced, sorts by total score, and interleaves content kinds
// so the feed never degenerates into a long run of one kind.
type Mixer struct{}

// NewMixer creates a mixer.
func NewMixer() *Mixer {
	return &Mixer{}
}

// RankContent produces the display order for one ranking pass and records
// every emitted item in the session state. Items the session has already
// surfaced are filtered out first, whatever their score.
//
// Ties keep their relative input order; nothing is randomized.
func (m *Mixer) RankContent(scored []domain.ContentItem, session *SessionState) []domain.ContentItem {
	fresh := make([]domain.ContentItem, 0, len(scored))
	for _, item := range scored {
		if item.Score == nil || session.Seen(item.ID) {
			continue
		}
		fresh = append(fresh, item)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Score.Total > fresh[j].Score.Total
	})

	var posts, profiles []domain.ContentItem
	for _, item := range fresh {
		if item.Kind == domain.KindPost {
			posts = append(posts, item)
		} else {
			profiles = append(profiles, item)
		}
	}

	out := interleave(posts, profiles)
	for _, item := range out {
		session.AppendKind(item.Kind)
		session.MarkSeen(item.ID)
	}
	return out
}

// interleave alternates one post and one profile, preserving each partition's
// order, and runs out the longer partition once the shorter is exhausted.
func interleave(posts, profiles []domain.ContentItem) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(posts)+len(profiles))
	for i := 0; i < len(posts) || i < len(profiles); i++ {
		if i < len(posts) {
			out = append(out, posts[i])
		}
		if i < len(profiles) {
			out = append(out, profiles[i])
		}
	}
	return out
}
