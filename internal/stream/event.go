package stream

import (
	"fmt"
	"time"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/domain"
)

// wireEvent is the raw JSON structure delivered by the upstream change feed.
type wireEvent struct {
	TimeUS int64       `json:"time_us"`
	Kind   string      `json:"kind"`
	Change *wireChange `json:"change,omitempty"`
}

// wireChange is the raw change payload.
type wireChange struct {
	Operation string      `json:"operation"`
	Type      string      `json:"type"`
	Record    *wireRecord `json:"record,omitempty"`
}

// wireRecord is one content record on the wire.
type wireRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Actor     wireActor `json:"actor"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Shares    int       `json:"shares"`
}

// wireActor is the owning-account descriptor on the wire.
type wireActor struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Role          string `json:"role"`
	ContactHandle string `json:"contact_handle"`
	Bio           string `json:"bio"`
}

// toContentItem converts a wire record into the domain model. The role field
// collapses to a privilege flag: admin and service accounts are boosted.
func (r *wireRecord) toContentItem() domain.ContentItem {
	return domain.ContentItem{
		ID:   r.ID,
		Kind: domain.ContentKind(r.Kind),
		Actor: domain.Actor{
			ID:            r.Actor.ID,
			DisplayName:   r.Actor.DisplayName,
			Privileged:    r.Actor.Role == "admin" || r.Actor.Role == "service",
			ContactHandle: r.Actor.ContactHandle,
			Bio:           r.Actor.Bio,
		},
		MediaURL:  r.MediaURL,
		Caption:   r.Caption,
		CreatedAt: r.CreatedAt,
		Engagement: domain.Engagement{
			Likes:    r.Likes,
			Comments: r.Comments,
			Shares:   r.Shares,
		},
	}
}

// changeType maps a wire change onto the domain change type.
func (c *wireChange) changeType() (domain.ChangeType, error) {
	switch c.Type {
	case string(domain.ChangeNewPost):
		return domain.ChangeNewPost, nil
	case string(domain.ChangeNewProfile):
		return domain.ChangeNewProfile, nil
	case string(domain.ChangeProfileUpdate):
		return domain.ChangeProfileUpdate, nil
	default:
		return "", fmt.Errorf("unknown change type %q", c.Type)
	}
}
