package group

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Group is a cohort of students within a single school, e.g. "10th grade,
// section B".
type Group struct {
	ID           string    `json:"id"`
	Grade        int       `json:"grade"`
	GradeSection string    `json:"grade_section"`
	SchoolID     string    `json:"school_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewGroup contains information needed to create a new Group. SchoolID may be
// left empty by school-scoped actors; it then defaults to their own school.
type NewGroup struct {
	Grade        int    `json:"grade" validate:"required,gte=1,lte=12"`
	GradeSection string `json:"grade_section" validate:"required"`
	SchoolID     string `json:"school_id"`
}

func (ng *NewGroup) Validate() error {
	ng.GradeSection = core.CleanString(ng.GradeSection)
	ng.SchoolID = core.CleanString(ng.SchoolID)
	return core.Validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify a Group.
// The owning school cannot be changed.
type UpdateGroup struct {
	Grade        int    `json:"grade" validate:"omitempty,gte=1,lte=12"`
	GradeSection string `json:"grade_section"`
}

func (ug *UpdateGroup) Validate(orig Group) error {
	if ug.Grade == 0 {
		ug.Grade = orig.Grade
	}
	if section := core.CleanString(ug.GradeSection); section != "" {
		ug.GradeSection = section
	} else {
		ug.GradeSection = orig.GradeSection
	}
	return core.Validate.Struct(ug)
}
