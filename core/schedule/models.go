package schedule

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Weekdays, as stored on slots.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf returns the stored weekday name for t.
func WeekdayOf(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// Slot is a recurring weekly timetable entry for a group: a weekday, a time
// range, a subject and optionally the teacher giving it. A slot always belongs
// to the same school as its group.
type Slot struct {
	ID        string      `json:"id"`
	GroupID   string      `json:"group_id"`
	SchoolID  string      `json:"school_id"`
	SubjectID null.String `json:"subject_id"` // null once the subject is deleted
	TeacherID null.String `json:"teacher_id"`
	Weekday   string      `json:"day_of_week"`
	StartAt   string      `json:"start_time"` // "15:04"
	EndAt     string      `json:"end_time"`   // "15:04"
	CreatedAt time.Time   `json:"created_at"` // UTC
	EndedAt   null.Time   `json:"ended_at"`
}

// NewSlot contains information needed to create a new Slot. SchoolID may be
// left empty by school-scoped actors; it then defaults to their own school.
type NewSlot struct {
	Weekday   string `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartAt   string `json:"start_time" validate:"required,datetime=15:04"`
	EndAt     string `json:"end_time" validate:"required,datetime=15:04"`
	GroupID   string `json:"group_id" validate:"required"`
	SchoolID  string `json:"school_id"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id"`
}

func (ns *NewSlot) Validate() error {
	ns.Weekday = core.CleanString(ns.Weekday, true /* lower */)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	// "HH:MM" compares lexically
	if ns.EndAt <= ns.StartAt {
		return core.InvalidInputError("end time must be after start time")
	}
	return nil
}

// UpdateSlot defines what information may be provided to modify a Slot. The
// owning school and group cannot be changed.
type UpdateSlot struct {
	Weekday   string `json:"day_of_week" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartAt   string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndAt     string `json:"end_time" validate:"omitempty,datetime=15:04"`
	SubjectID string `json:"subject_id"`
	TeacherID string `json:"teacher_id"`
}

func (us *UpdateSlot) Validate() error {
	us.Weekday = core.CleanString(us.Weekday, true /* lower */)
	return core.Validate.Struct(us)
}

// QueryFilter narrows a timetable read. Non-admin callers may not point
// SchoolID outside their own scope.
type QueryFilter struct {
	Weekday   string `query:"day_of_week"`
	SchoolID  string `query:"school_id"`
	GroupID   string `query:"group_id"`
	TeacherID string `query:"teacher_id"`
}
