package school

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// School is the tenant root: every group, subject, timetable slot, attendance
// row and grade row belongs to exactly one school and is removed with it.
type School struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ShortName string      `json:"short_name"`
	Country   string      `json:"country"`
	Address   string      `json:"address"`
	IsActive  bool        `json:"is_active"`
	// GradingSystem is the default grade encoding suggested to teachers;
	// individual grade rows still carry their own system tag.
	GradingSystem null.String `json:"grading_system"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	Name          string `json:"name" validate:"required"`
	ShortName     string `json:"short_name"`
	Country       string `json:"country"`
	Address       string `json:"address"`
	GradingSystem string `json:"grading_system" validate:"omitempty,oneof=letter GPA percent pass/fail 5numerical"`
}

func (ns *NewSchool) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.ShortName = core.CleanString(ns.ShortName)
	ns.Country = core.CleanString(ns.Country)
	ns.Address = core.CleanString(ns.Address)
	return core.Validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify a School.
type UpdateSchool struct {
	Name          string `json:"name"`
	ShortName     string `json:"short_name"`
	Country       string `json:"country"`
	Address       string `json:"address"`
	IsActive      *bool  `json:"is_active"`
	GradingSystem string `json:"grading_system" validate:"omitempty,oneof=letter GPA percent pass/fail 5numerical"`
}

func (us *UpdateSchool) Validate(orig School) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	return core.Validate.Struct(us)
}

type QueryFilter struct {
	Country  string `query:"country"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Country = core.CleanString(qf.Country)
}
