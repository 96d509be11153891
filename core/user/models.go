package user

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Actor kinds
const (
	KindAdmin     = "admin"
	KindPrincipal = "principal"
	KindTeacher   = "teacher"
	KindStudent   = "student"
)

var AllKinds = []string{KindAdmin, KindPrincipal, KindTeacher, KindStudent}

// User is an authenticated actor: a single identity record tagged with its kind.
// Principals, teachers and students carry the school they were admitted into
// (null until an invitation is accepted); students additionally carry a group.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Kind         string      `json:"kind"`
	SchoolID     null.String `json:"school_id"`
	GroupID      null.String `json:"group_id"` // students only
	IsActive     bool        `json:"is_active"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool     { return u.Kind == KindAdmin }
func (u *User) IsPrincipal() bool { return u.Kind == KindPrincipal }
func (u *User) IsTeacher() bool   { return u.Kind == KindTeacher }
func (u *User) IsStudent() bool   { return u.Kind == KindStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=6,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Kind            string `json:"kind" validate:"required,actorkind"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Username, nu.Email)
}

type QueryFilter struct {
	Username string `query:"username"`
	Kind     string `query:"kind"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Username = core.CleanString(qf.Username, true /* lower */)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 {
		qf.Limit = 50
	}
}
