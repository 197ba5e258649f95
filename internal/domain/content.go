package domain

import (
	"fmt"
	"time"
)

// ContentKind discriminates the two kinds of feed content.
type ContentKind string

const (
	// KindPost is a media post published by a user.
	KindPost ContentKind = "post"

	// KindProfile is a browsable user profile surfaced in the feed.
	KindProfile ContentKind = "profile"
)

// ChangeType tags a batch of content changes arriving from the upstream stream.
type ChangeType string

const (
	ChangeNewPost       ChangeType = "new_post"
	ChangeNewProfile    ChangeType = "new_profile"
	ChangeProfileUpdate ChangeType = "profile_update"
)

// Actor describes the account that owns a piece of content.
type Actor struct {
	// ID is the account identifier.
	ID string

	// DisplayName is the account's public name.
	DisplayName string

	// Privileged marks official/admin accounts whose content is boosted.
	Privileged bool

	// ContactHandle is the account's messaging handle, empty if none.
	ContactHandle string

	// Bio is the account's profile text.
	Bio string
}

// Engagement carries the raw engagement counters for a content item.
// These feed the engagement score component.
type Engagement struct {
	Likes    int
	Comments int
	Shares   int
}

// ContentItem is one feed-displayable unit: a post or a profile.
//
// Items are immutable once scored for a ranking pass. When newer data arrives
// for the same ID the old item is replaced wholesale; the ID keeps whatever
// seen/unseen status it already had in the session.
type ContentItem struct {
	// ID uniquely identifies the item across both kinds.
	ID string

	// Kind is the content discriminant.
	Kind ContentKind

	// Actor is the owning account.
	Actor Actor

	// MediaURL points at the item's primary media.
	MediaURL string

	// Caption is the post caption or profile tagline.
	Caption string

	// CreatedAt is the post creation time, or the profile join date for
	// profiles.
	CreatedAt time.Time

	// Engagement holds raw engagement counters.
	Engagement Engagement

	// Score is populated by the scoring engine for the current ranking
	// pass. Never persisted.
	Score *ContentScore
}

// Validate reports whether the item carries the fields scoring depends on.
// Malformed items are excluded from a batch rather than failing it.
func (c *ContentItem) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("content item missing id")
	}
	if c.Kind != KindPost && c.Kind != KindProfile {
		return fmt.Errorf("content item %s: unknown kind %q", c.ID, c.Kind)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("content item %s: missing created_at", c.ID)
	}
	if c.Engagement.Likes < 0 || c.Engagement.Comments < 0 || c.Engagement.Shares < 0 {
		return fmt.Errorf("content item %s: negative engagement counters", c.ID)
	}
	return nil
}

// ContentScore is the per-item scoring breakdown for one ranking pass.
// All components are in [0,1]; Total is their weighted sum times the
// privileged-content multiplier.
type ContentScore struct {
	Recency       float64
	Engagement    float64
	Diversity     float64
	ActorActivity float64
	Total         float64
}

// ChangeEvent is one content-change notification from the upstream stream.
type ChangeEvent struct {
	// Type tags what changed.
	Type ChangeType

	// Items are the content items affected by the change.
	Items []ContentItem

	// ReceivedAt is when the event arrived.
	ReceivedAt time.Time
}
