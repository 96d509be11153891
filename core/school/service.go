package school

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound   = core.NotFoundError("school not found")
	ErrNameExists = core.ConflictError("a school with this name already exists", "schools_name_key")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		// FilterSchools applies AND operation on available QueryFilter fields.
		FilterSchools(ctx context.Context, filter QueryFilter) ([]School, error)
		UpdateSchool(ctx context.Context, sch School, isActive *bool) (School, error)
		DeleteSchoolsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (svc *Service) Create(ctx context.Context, actor user.User, ns NewSchool) (School, error) {
	if !actor.IsAdmin() {
		return School{}, core.NotAllowedError("only admins can register schools")
	}
	now := time.Now().UTC()
	sch := School{
		Name:      ns.Name,
		ShortName: ns.ShortName,
		Country:   ns.Country,
		Address:   ns.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.GradingSystem != "" {
		sch.GradingSystem.SetValid(ns.GradingSystem)
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return School{}, err
	}
	if err := scope.AllowSchool(sch.ID); err != nil {
		svc.log.Warn("cross-school access denied", "actor", actor.ID, "school", id)
		return School{}, err
	}
	return sch, nil
}

// Filter lists schools; non-admin actors only ever see their own school.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]School, error) {
	filter.Clean()
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return nil, err
	}
	if scope.Unrestricted() {
		return svc.repo.FilterSchools(ctx, filter)
	}
	sch, err := svc.repo.GetSchoolByID(ctx, scope.SchoolID())
	if err != nil {
		return nil, err
	}
	return []School{sch}, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, us UpdateSchool) (School, error) {
	orig, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if err := svc.allowManage(actor, orig.ID); err != nil {
		return School{}, err
	}
	if err := us.Validate(orig); err != nil {
		return School{}, err
	}
	sch := School{
		ID:        id,
		Name:      us.Name,
		ShortName: us.ShortName,
		Country:   us.Country,
		Address:   us.Address,
		UpdatedAt: time.Now().UTC(),
	}
	if us.GradingSystem != "" {
		sch.GradingSystem.SetValid(us.GradingSystem)
	}
	return svc.repo.UpdateSchool(ctx, sch, us.IsActive)
}

// Delete removes a school and everything it owns. Admins may delete any school;
// a principal only the school they are assigned to.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.allowManage(actor, sch.ID); err != nil {
		svc.log.Warn("school deletion denied", "actor", actor.ID, "school", id)
		return err
	}
	return svc.repo.DeleteSchoolsByID(ctx, id)
}

func (svc *Service) allowManage(actor user.User, schoolID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsPrincipal() {
		return core.NotAllowedError("only admins or assigned principals can manage schools")
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	return scope.AllowSchool(schoolID)
}
