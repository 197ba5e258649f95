package feed

import "github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"

const (
	// historyHighWater is the history length that triggers trimming.
	historyHighWater = 20

	// historyLowWater is the history length kept after a trim.
	historyLowWater = 10

	// diversityLookback is how many recent history entries the diversity
	// score considers.
	diversityLookback = 5
)

// SessionState is the mutable per-session memory threaded through scoring and
// ranking: the set of identifiers already surfaced to the user and the recent
// history of surfaced content kinds.
//
// Each feed session owns exactly one SessionState; two concurrent feed views
// must not share one.
type SessionState struct {
	seen      map[string]struct{}
	seenOrder []string
	maxSeen   int
	history   []domain.ContentKind
}

// NewSessionState creates empty session state. maxSeen bounds the seen set
// with oldest-first eviction; zero means unbounded.
func NewSessionState(maxSeen int) *SessionState {
	return &SessionState{
		seen:    make(map[string]struct{}),
		maxSeen: maxSeen,
	}
}

// Seen reports whether the identifier was already surfaced this session.
func (s *SessionState) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// MarkSeen records that the identifier was surfaced. Once marked, the
// identifier is never re-surfaced in this session regardless of later score
// changes.
func (s *SessionState) MarkSeen(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.seenOrder = append(s.seenOrder, id)

	if s.maxSeen > 0 {
		for len(s.seenOrder) > s.maxSeen {
			oldest := s.seenOrder[0]
			s.seenOrder = s.seenOrder[1:]
			delete(s.seen, oldest)
		}
	}
}

// SeenCount returns the number of identifiers currently remembered.
func (s *SessionState) SeenCount() int {
	return len(s.seen)
}

// RecentKinds returns up to n of the most recent surfaced kinds, oldest
// first.
func (s *SessionState) RecentKinds(n int) []domain.ContentKind {
	if n >= len(s.history) {
		return s.history
	}
	return s.history[len(s.history)-n:]
}

// AppendKind records a surfaced content kind, trimming the history to the
// most recent entries once it grows past the high-water mark.
func (s *SessionState) AppendKind(kind domain.ContentKind) {
	s.history = append(s.history, kind)
	if len(s.history) > historyHighWater {
		s.history = append([]domain.ContentKind(nil), s.history[len(s.history)-historyLowWater:]...)
	}
}

// Reset clears all session memory. Only an explicit full refresh does this.
func (s *SessionState) Reset() {
	s.seen = make(map[string]struct{})
	s.seenOrder = nil
	s.history = nil
}
