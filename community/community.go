package community

import (
	"time"
)

// A written community rule, shown to members. Distinct from moderation
// filters: rules are prose, filters are enforced.
type Rule struct {
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

type Community struct {
	ID                string            `json:"id,omitempty" bson:"_id,omitempty"`
	Name              string            `json:"name" bson:"name"`
	Description       string            `json:"description,omitempty" bson:"description,omitempty"`
	OwnerID           string            `json:"ownerId" bson:"ownerId"`
	CoverPicture      *MediaRef         `json:"coverPicture,omitempty" bson:"coverPicture,omitempty"`
	Members           []Member          `json:"members" bson:"members"`
	Rules             []Rule            `json:"rules,omitempty" bson:"rules,omitempty"`
	ModerationFilters ModerationFilters `json:"moderationFilters" bson:"moderationFilters"`
	CreatedAt         time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Membership looks up the member record for a user, or nil if the user has
// not joined.
func (c *Community) Membership(userID string) *Member {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return &c.Members[i]
		}
	}
	return nil
}
