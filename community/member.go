package community

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
	RoleSpammer Role = "spammer"
	RoleBanned  Role = "banned"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleMember, RoleSpammer, RoleBanned:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown member role: %q", raw)
	}
}

// Active moderation penalty state for a member. EndTime, when set and in the
// future, denies posting and reacting; once it passes the restriction is
// logically expired and must be cleared before evaluating new permissions.
type Restriction struct {
	ViolationsCount int        `json:"violationsCount" bson:"violationsCount"`
	Violations      []string   `json:"violations" bson:"violations"`
	EndTime         *time.Time `json:"endTime,omitempty" bson:"endTime,omitempty"`
}

func (r *Restriction) Expired(now time.Time) bool {
	if r == nil || r.EndTime == nil {
		return false
	}
	return now.After(*r.EndTime)
}

// Active reports whether the restriction currently denies actions.
func (r *Restriction) Active(now time.Time) bool {
	if r == nil || r.EndTime == nil {
		return false
	}
	return r.EndTime.After(now)
}

type Member struct {
	UserID      string       `json:"userId" bson:"userId"`
	Role        Role         `json:"role" bson:"role"`
	Restriction *Restriction `json:"restriction,omitempty" bson:"restriction,omitempty"`
	JoinedAt    time.Time    `json:"joinedAt" bson:"joinedAt"`
}

// CanAct reports whether the member may post or react right now. Banned
// members are always denied; an expired restriction does not deny (the caller
// should clear it via the store before proceeding).
func (m *Member) CanAct(now time.Time) bool {
	if m.Role == RoleBanned {
		return false
	}
	return !m.Restriction.Active(now)
}
