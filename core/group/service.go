package group

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
	ErrNotFound = core.NotFoundError("group not found")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		QueryGroupsBySchool(ctx context.Context, schoolID string) ([]Group, error)
		UpdateGroup(ctx context.Context, grp Group) (Group, error)
		DeleteGroupsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		schools school.Repository
		log     core.Logger
	}
)

func NewService(repo Repository, schools school.Repository, log core.Logger) *Service {
	return &Service{repo: repo, schools: schools, log: log}
}

func (svc *Service) Create(ctx context.Context, actor user.User, ng NewGroup) (Group, error) {
	if err := ng.Validate(); err != nil {
		return Group{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Group{}, err
	}
	schoolID, err := scope.EffectiveSchool(null.NewString(ng.SchoolID, ng.SchoolID != ""))
	if err != nil {
		svc.log.Warn("group creation denied", "actor", actor.ID, "school", ng.SchoolID)
		return Group{}, err
	}
	if !schoolID.Valid {
		return Group{}, core.InvalidInputError("school is required")
	}
	if _, err := svc.schools.GetSchoolByID(ctx, schoolID.String); err != nil {
		return Group{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateGroup(ctx, Group{
		Grade:        ng.Grade,
		GradeSection: ng.GradeSection,
		SchoolID:     schoolID.String,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Group{}, err
	}
	if err := scope.AllowSchool(grp.SchoolID); err != nil {
		return Group{}, err
	}
	return grp, nil
}

func (svc *Service) Query(ctx context.Context, actor user.User, schoolID string) ([]Group, error) {
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
	return svc.repo.QueryGroupsBySchool(ctx, effective.String)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ug UpdateGroup) (Group, error) {
	orig, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Group{}, err
	}
	if err := scope.AllowSchool(orig.SchoolID); err != nil {
		svc.log.Warn("group update denied", "actor", actor.ID, "group", id)
		return Group{}, err
	}
	if err := ug.Validate(orig); err != nil {
		return Group{}, err
	}
	orig.Grade = ug.Grade
	orig.GradeSection = ug.GradeSection
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	if err := scope.AllowSchool(grp.SchoolID); err != nil {
		svc.log.Warn("group deletion denied", "actor", actor.ID, "group", id)
		return err
	}
	return svc.repo.DeleteGroupsByID(ctx, id)
}
