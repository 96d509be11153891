package subject

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = core.NotFoundError("subject not found")
	ErrTeacherAssigned = core.ConflictError("teacher is already assigned to this subject", "subject_teacher_pkey")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		QuerySubjectsBySchool(ctx context.Context, schoolID string) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...string) error
		// AssignTeacher links a teacher to a subject; a duplicate link fails
		// with ErrTeacherAssigned.
		AssignTeacher(ctx context.Context, subjectID, teacherID string) error
		QueryTeacherIDs(ctx context.Context, subjectID string) ([]string, error)
	}

	Service struct {
		repo    Repository
		schools school.Repository
		users   user.Repository
		log     core.Logger
	}
)

func NewService(repo Repository, schools school.Repository, users user.Repository, log core.Logger) *Service {
	return &Service{repo: repo, schools: schools, users: users, log: log}
}

func (svc *Service) Create(ctx context.Context, actor user.User, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Subject{}, err
	}
	schoolID, err := scope.EffectiveSchool(null.NewString(ns.SchoolID, ns.SchoolID != ""))
	if err != nil {
		svc.log.Warn("subject creation denied", "actor", actor.ID, "school", ns.SchoolID)
		return Subject{}, err
	}
	if !schoolID.Valid {
		return Subject{}, core.InvalidInputError("school is required")
	}
	if _, err := svc.schools.GetSchoolByID(ctx, schoolID.String); err != nil {
		return Subject{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateSubject(ctx, Subject{
		Name:      ns.Name,
		SchoolID:  schoolID.String,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Subject, error) {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Subject{}, err
	}
	if err := scope.AllowSchool(sub.SchoolID); err != nil {
		return Subject{}, err
	}
	return sub, nil
}

func (svc *Service) Query(ctx context.Context, actor user.User, schoolID string) ([]Subject, error) {
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return nil, err
	}
	effective, err := scope.EffectiveSchool(null.NewString(schoolID, schoolID != ""))
	if err != nil {
		return nil, err
	}
	if !effective.Valid {
		return nil, core.InvalidInputError("school is required")
	}
	return svc.repo.QuerySubjectsBySchool(ctx, effective.String)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Subject{}, err
	}
	if err := scope.AllowSchool(sub.SchoolID); err != nil {
		return Subject{}, err
	}
	if err := us.Validate(); err != nil {
		return Subject{}, err
	}
	sub.Name = us.Name
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	if err := scope.AllowSchool(sub.SchoolID); err != nil {
		svc.log.Warn("subject deletion denied", "actor", actor.ID, "subject", id)
		return err
	}
	return svc.repo.DeleteSubjectsByID(ctx, id)
}

// AssignTeacher links a teacher to a subject. Both must belong to the acting
// principal's school.
func (svc *Service) AssignTeacher(ctx context.Context, actor user.User, subjectID, teacherID string) error {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return core.NotAllowedError("only principals can assign teachers to subjects")
	}
	sub, err := svc.repo.GetSubjectByID(ctx, subjectID)
	if err != nil {
		return err
	}
	teacher, err := svc.users.GetUserByID(ctx, teacherID)
	if err != nil {
		return err
	}
	if !teacher.IsTeacher() {
		return core.NotFoundError("this user is a " + teacher.Kind + ", not a teacher")
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	if err := scope.AllowSchool(sub.SchoolID); err != nil {
		return err
	}
	if !teacher.SchoolID.Valid || teacher.SchoolID.String != sub.SchoolID {
		svc.log.Warn("cross-school teacher assignment denied", "actor", actor.ID, "teacher", teacherID)
		return user.ErrScopeMismatch
	}
	return svc.repo.AssignTeacher(ctx, subjectID, teacherID)
}

// QueryTeachers lists the ids of the teachers linked to a subject.
func (svc *Service) QueryTeachers(ctx context.Context, actor user.User, subjectID string) ([]string, error) {
	sub, err := svc.repo.GetSubjectByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return nil, err
	}
	if err := scope.AllowSchool(sub.SchoolID); err != nil {
		return nil, err
	}
	return svc.repo.QueryTeacherIDs(ctx, subjectID)
}
