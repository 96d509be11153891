package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Presence statuses
const (
	StatusAbsent  = "absent"
	StatusPresent = "present"
	StatusExcused = "excused"
	StatusLate    = "late"
)

var AllStatuses = []string{StatusAbsent, StatusPresent, StatusExcused, StatusLate}

// Record is the presence of one student at one dated occurrence of a timetable
// slot. Records are keyed by (slot, student, CreatedOn): a weekly slot gets a
// fresh row each calendar day it is read or marked.
type Record struct {
	ID        string      `json:"id"`
	SlotID    string      `json:"slot_id"`
	StudentID string      `json:"student_id"`
	Status    string      `json:"status"`
	MarkedBy  null.String `json:"marked_by"`
	CreatedOn time.Time   `json:"created_on"` // UTC calendar date
	UpdatedAt null.Time   `json:"updated_at"`
}

// SlotRef is the minimal view of a timetable slot the ledger needs for
// ownership checks.
type SlotRef struct {
	ID       string
	SchoolID string
	GroupID  string
}

// Date truncates t to its UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// QueryFilter narrows an attendance listing.
type QueryFilter struct {
	SchoolID  string `query:"school_id"`
	GroupID   string `query:"group_id"`
	StudentID string `query:"student_id"`
	MarkedBy  string `query:"teacher_id"`
	Status    string `query:"status"`
	CreatedOn time.Time
}
