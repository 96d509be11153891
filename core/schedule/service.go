package schedule

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = core.NotFoundError("schedule slot not found")
	ErrGroupMismatch = core.InvalidInputError("group does not belong to this school")
)

type (
	Repository interface {
		CreateSlot(ctx context.Context, slot Slot) (Slot, error)
		GetSlotByID(ctx context.Context, id string) (Slot, error)
		// QuerySlots applies AND operation on available QueryFilter fields.
		QuerySlots(ctx context.Context, filter QueryFilter) ([]Slot, error)
		UpdateSlot(ctx context.Context, slot Slot) (Slot, error)
		DeleteSlotsByID(ctx context.Context, ids ...string) error
	}

	// Materializer lazily creates today's attendance rows for the given slots;
	// it must be idempotent per calendar day.
	Materializer interface {
		Materialize(ctx context.Context, slotIDs []string, schoolID, groupID null.String) error
	}

	Service struct {
		repo     Repository
		users    user.Repository
		groups   group.Repository
		subjects subject.Repository
		schools  school.Repository
		mat      Materializer
		log      core.Logger
	}
)

func NewService(
	repo Repository,
	users user.Repository,
	groups group.Repository,
	subjects subject.Repository,
	schools school.Repository,
	mat Materializer,
	log core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		groups:   groups,
		subjects: subjects,
		schools:  schools,
		mat:      mat,
		log:      log,
	}
}

// Create validates every referenced resource, checks the actor's scope against
// the target school and persists the slot.
func (svc *Service) Create(ctx context.Context, actor user.User, ns NewSlot) (Slot, error) {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return Slot{}, core.NotAllowedError("only principals can manage the timetable")
	}
	if err := ns.Validate(); err != nil {
		return Slot{}, err
	}

	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Slot{}, err
	}
	schoolID, err := scope.EffectiveSchool(null.NewString(ns.SchoolID, ns.SchoolID != ""))
	if err != nil {
		svc.log.Warn("timetable write denied", "actor", actor.ID, "school", ns.SchoolID)
		return Slot{}, err
	}
	if !schoolID.Valid {
		return Slot{}, core.InvalidInputError("school is required")
	}

	if _, err := svc.schools.GetSchoolByID(ctx, schoolID.String); err != nil {
		return Slot{}, err
	}
	if _, err := svc.subjects.GetSubjectByID(ctx, ns.SubjectID); err != nil {
		return Slot{}, err
	}
	grp, err := svc.groups.GetGroupByID(ctx, ns.GroupID)
	if err != nil {
		return Slot{}, err
	}
	// a slot must live in the same school as its group
	if grp.SchoolID != schoolID.String {
		return Slot{}, ErrGroupMismatch
	}

	slot := Slot{
		GroupID:   ns.GroupID,
		SchoolID:  schoolID.String,
		SubjectID: null.StringFrom(ns.SubjectID),
		Weekday:   ns.Weekday,
		StartAt:   ns.StartAt,
		EndAt:     ns.EndAt,
		CreatedAt: NowFunc().UTC(),
	}
	if ns.TeacherID != "" {
		teacher, err := svc.users.GetUserByID(ctx, ns.TeacherID)
		if err != nil {
			return Slot{}, err
		}
		if !teacher.IsTeacher() {
			return Slot{}, core.NotFoundError("this user is a " + teacher.Kind + ", not a teacher")
		}
		slot.TeacherID = null.StringFrom(ns.TeacherID)
	}
	return svc.repo.CreateSlot(ctx, slot)
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Slot, error) {
	slot, err := svc.repo.GetSlotByID(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Slot{}, err
	}
	if err := scope.AllowSchool(slot.SchoolID); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

// Today resolves the timetable for the current weekday; see ByWeekday.
func (svc *Service) Today(ctx context.Context, actor user.User, filter QueryFilter) ([]Slot, error) {
	return svc.ByWeekday(ctx, actor, WeekdayOf(NowFunc()), filter)
}

// ByWeekday selects all slots for the given weekday within the actor's scope,
// optionally narrowed by group and/or teacher, then materializes today's
// attendance rows for the selection before returning it.
func (svc *Service) ByWeekday(ctx context.Context, actor user.User, weekday string, filter QueryFilter) ([]Slot, error) {
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return nil, err
	}
	schoolID, err := scope.EffectiveSchool(null.NewString(filter.SchoolID, filter.SchoolID != ""))
	if err != nil {
		svc.log.Warn("timetable read denied", "actor", actor.ID, "school", filter.SchoolID)
		return nil, err
	}

	filter.Weekday = weekday
	filter.SchoolID = schoolID.String
	slots, err := svc.repo.QuerySlots(ctx, filter)
	if err != nil {
		return nil, err
	}

	slotIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		slotIDs = append(slotIDs, slot.ID)
	}
	groupID := null.NewString(filter.GroupID, filter.GroupID != "")
	if err := svc.mat.Materialize(ctx, slotIDs, schoolID, groupID); err != nil {
		svc.log.Error("attendance materialization failed", err, "actor", actor.ID, "weekday", weekday)
		return nil, err
	}
	return slots, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, us UpdateSlot) (Slot, error) {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return Slot{}, core.NotAllowedError("only principals can manage the timetable")
	}
	slot, err := svc.repo.GetSlotByID(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return Slot{}, err
	}
	if err := scope.AllowSchool(slot.SchoolID); err != nil {
		svc.log.Warn("timetable write denied", "actor", actor.ID, "slot", id)
		return Slot{}, err
	}
	if err := us.Validate(); err != nil {
		return Slot{}, err
	}

	if us.Weekday != "" {
		slot.Weekday = us.Weekday
	}
	if us.StartAt != "" {
		slot.StartAt = us.StartAt
	}
	if us.EndAt != "" {
		slot.EndAt = us.EndAt
	}
	if slot.EndAt <= slot.StartAt {
		return Slot{}, core.InvalidInputError("end time must be after start time")
	}
	if us.SubjectID != "" {
		if _, err := svc.subjects.GetSubjectByID(ctx, us.SubjectID); err != nil {
			return Slot{}, err
		}
		slot.SubjectID = null.StringFrom(us.SubjectID)
	}
	if us.TeacherID != "" {
		teacher, err := svc.users.GetUserByID(ctx, us.TeacherID)
		if err != nil {
			return Slot{}, err
		}
		if !teacher.IsTeacher() {
			return Slot{}, core.NotFoundError("this user is a " + teacher.Kind + ", not a teacher")
		}
		slot.TeacherID = null.StringFrom(us.TeacherID)
	}
	return svc.repo.UpdateSlot(ctx, slot)
}

// Delete removes a slot. Attendance or grade rows referencing it block the
// deletion and surface as a Conflict.
func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return core.NotAllowedError("only principals can manage the timetable")
	}
	slot, err := svc.repo.GetSlotByID(ctx, id)
	if err != nil {
		return err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	if err := scope.AllowSchool(slot.SchoolID); err != nil {
		svc.log.Warn("timetable deletion denied", "actor", actor.ID, "slot", id)
		return err
	}
	return svc.repo.DeleteSlotsByID(ctx, id)
}
