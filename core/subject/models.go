package subject

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Subject is a taught discipline within a single school; teachers of the same
// school can be linked to it (many-to-many).
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SchoolID  string    `json:"school_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject. SchoolID may
// be left empty by school-scoped actors; it then defaults to their own school.
type NewSubject struct {
	Name     string `json:"name" validate:"required"`
	SchoolID string `json:"school_id"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.SchoolID = core.CleanString(ns.SchoolID)
	return core.Validate.Struct(ns)
}

// UpdateSubject defines what information may be provided to modify a Subject.
type UpdateSubject struct {
	Name string `json:"name" validate:"required"`
}

func (us *UpdateSubject) Validate() error {
	us.Name = core.CleanString(us.Name)
	return core.Validate.Struct(us)
}
