package invite

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Invitation statuses
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Invitation is a principal's offer to admit a teacher or student into a
// school. Accepting it writes the school onto the invitee's record; both
// terminal states are final.
type Invitation struct {
	ID            string    `json:"id"`
	SchoolID      string    `json:"school_id"`
	InvitedByID   string    `json:"invited_by_id"`
	InvitedUserID string    `json:"invited_user_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     null.Time `json:"updated_at"`
}

func (inv Invitation) IsPending() bool { return inv.Status == StatusPending }

// IsExpired reports whether a pending invitation sat undecided for longer
// than the application's invitation timeout.
func (inv Invitation) IsExpired(now time.Time) bool {
	return inv.IsPending() && now.Sub(inv.CreatedAt) > core.InvitationTimeoutDelta
}

// QueryFilter narrows an invitation listing.
type QueryFilter struct {
	SchoolID      string `query:"school_id"`
	InvitedUserID string `query:"invited_user_id"`
	Status        string `query:"status"`
}
