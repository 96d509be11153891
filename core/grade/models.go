package grade

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Grading systems
const (
	SystemLetter      = "letter"
	SystemGPA         = "GPA"
	SystemPercent     = "percent"
	SystemPassFail    = "pass/fail"
	SystemFiveNumeric = "5numerical"
)

var AllSystems = []string{SystemLetter, SystemGPA, SystemPercent, SystemPassFail, SystemFiveNumeric}

// Record is one grade for one student on one timetable slot. Exactly one of
// the Value fields is set, the one matching System. A (slot, student) pair can
// carry at most one record.
type Record struct {
	ID               string       `json:"id"`
	SlotID           string       `json:"slot_id"`
	StudentID        string       `json:"student_id"`
	System           string       `json:"system"`
	ValueLetter      null.String  `json:"value_letter"`
	ValueGPA         null.Float64 `json:"value_gpa"`
	ValuePercent     null.Float64 `json:"value_percent"`
	ValueFiveNumeric null.Int     `json:"value_five_numeric"`
	ValuePassing     null.Bool    `json:"value_passing"`
	MarkedBy         null.String  `json:"marked_by"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        null.Time    `json:"updated_at"`
}

// AssignGrade is the payload for assigning a grade. The field matching System
// must be supplied, the others left nil.
type AssignGrade struct {
	System  string   `json:"system" validate:"required,oneof=letter GPA percent pass/fail 5numerical"`
	Numeric *float64 `json:"numeric"`
	Letter  *string  `json:"letter"`
	Passing *bool    `json:"passing"`
}

func (ag *AssignGrade) Validate() error {
	ag.Letter = cleanPtr(ag.Letter)
	return core.Validate.Struct(ag)
}

// Resolve maps the supplied value onto the stored field the declared system
// requires. A value of the wrong shape, a missing value or more than one value
// fails before anything is written.
func (ag AssignGrade) Resolve() (Record, error) {
	supplied := 0
	if ag.Numeric != nil {
		supplied++
	}
	if ag.Letter != nil {
		supplied++
	}
	if ag.Passing != nil {
		supplied++
	}
	if supplied != 1 {
		return Record{}, ErrNoData
	}

	rec := Record{System: ag.System}
	switch ag.System {
	case SystemLetter:
		if ag.Letter == nil {
			return Record{}, ErrNoData
		}
		rec.ValueLetter = null.StringFrom(*ag.Letter)
	case SystemGPA:
		if ag.Numeric == nil {
			return Record{}, ErrNoData
		}
		rec.ValueGPA = null.Float64From(*ag.Numeric)
	case SystemPercent:
		if ag.Numeric == nil {
			return Record{}, ErrNoData
		}
		rec.ValuePercent = null.Float64From(*ag.Numeric)
	case SystemFiveNumeric:
		if ag.Numeric == nil {
			return Record{}, ErrNoData
		}
		rec.ValueFiveNumeric = null.IntFrom(int(*ag.Numeric))
	case SystemPassFail:
		if ag.Passing == nil {
			return Record{}, ErrNoData
		}
		rec.ValuePassing = null.BoolFrom(*ag.Passing)
	default:
		return Record{}, ErrNoData
	}
	return rec, nil
}

// Averages are per-system means over a student's grades. Letter and pass/fail
// records carry no numeric value and are skipped.
type Averages struct {
	GPA         null.Float64 `json:"gpa"`
	Percent     null.Float64 `json:"percent"`
	FiveNumeric null.Float64 `json:"five_numeric"`
}

// SlotRef is the minimal view of a timetable slot needed for ownership checks.
type SlotRef struct {
	ID       string
	SchoolID string
}

// QueryFilter narrows a grade listing.
type QueryFilter struct {
	SchoolID  string `query:"school_id"`
	SlotID    string `query:"slot_id"`
	StudentID string `query:"student_id"`
	System    string `query:"system"`
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := core.CleanString(*s)
	if c == "" {
		return nil
	}
	return &c
}
