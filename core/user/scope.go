package user

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	// ErrNotAssigned is returned when a scoped actor has no school yet; any
	// school-scoped operation fails until an invitation is accepted.
	ErrNotAssigned = core.NotAllowedError("actor is not assigned to any school")

	// ErrScopeMismatch is returned for any cross-school access attempt.
	ErrScopeMismatch = core.NotAllowedError("cannot access other schools")
)

// Scope is the tenant boundary resolved for an actor: a single school, or
// unrestricted for admins. All school-scoped operations consume a Scope instead
// of inspecting the actor kind themselves.
type Scope struct {
	schoolID     string
	unrestricted bool
}

func UnrestrictedScope() Scope { return Scope{unrestricted: true} }
func SchoolScope(schoolID string) Scope { return Scope{schoolID: schoolID} }

// ResolveScope derives the tenant boundary for usr. This is the only place the
// actor kind is switched on. The caller must pass a freshly loaded actor: the
// school assignment is re-read on every call, never cached across requests.
func ResolveScope(usr User) (Scope, error) {
	switch usr.Kind {
	case KindAdmin:
		return UnrestrictedScope(), nil
	case KindPrincipal, KindTeacher, KindStudent:
		if !usr.SchoolID.Valid {
			return Scope{}, ErrNotAssigned
		}
		return SchoolScope(usr.SchoolID.String), nil
	}
	return Scope{}, core.NotAllowedError("unknown actor kind: " + usr.Kind)
}

func (s Scope) Unrestricted() bool { return s.unrestricted }

// SchoolID returns the scoped school id; empty for an unrestricted scope.
func (s Scope) SchoolID() string { return s.schoolID }

// EffectiveSchool applies the uniform filter rule: an explicit school filter
// must equal the scoped school (ErrScopeMismatch otherwise); when no explicit
// value is given, the scoped school becomes the implicit filter. Unrestricted
// scopes pass the explicit value through, absent or not.
func (s Scope) EffectiveSchool(explicit null.String) (null.String, error) {
	if s.unrestricted {
		return explicit, nil
	}
	if explicit.Valid && explicit.String != s.schoolID {
		return null.String{}, ErrScopeMismatch
	}
	return null.StringFrom(s.schoolID), nil
}

// AllowSchool is the single-resource rule: load the resource, then compare its
// school id against the scope.
func (s Scope) AllowSchool(schoolID string) error {
	if s.unrestricted {
		return nil
	}
	if schoolID != s.schoolID {
		return ErrScopeMismatch
	}
	return nil
}
