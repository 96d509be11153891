package grade

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrNotFound        = core.NotFoundError("grade record not found")
	ErrSlotNotFound    = core.NotFoundError("schedule slot not found")
	ErrStudentNotFound = core.NotFoundError("student not found")
	ErrAlreadyGraded   = core.ConflictError("student is already graded for this slot", "grades_schedule_id_student_id_key")
	ErrNoData          = core.InvalidInputError("no data")
)

type Repository interface {
	GetSlotRef(ctx context.Context, slotID string) (SlotRef, error)
	CreateRecord(ctx context.Context, rec *Record) error
	GetRecordByID(ctx context.Context, id string) (Record, error)
	FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
	DeleteRecordsByID(ctx context.Context, ids ...string) error
}

type Service struct {
	repo  Repository
	users user.Repository
	log   core.Logger
}

func NewService(repo Repository, users user.Repository, log core.Logger) *Service {
	return &Service{repo: repo, users: users, log: log}
}

// Assign grades a student on a slot. The declared system and the supplied
// value must agree, and the (slot, student) pair must not be graded yet.
func (svc *Service) Assign(ctx context.Context, actor user.User, slotID, studentID string, ag AssignGrade) (Record, error) {
	if actor.IsStudent() {
		return Record{}, core.NotAllowedError("students cannot assign grades")
	}
	if err := ag.Validate(); err != nil {
		return Record{}, err
	}
	rec, err := ag.Resolve()
	if err != nil {
		return Record{}, err
	}

	slot, err := svc.repo.GetSlotRef(ctx, slotID)
	if err != nil {
		if core.IsNotFound(err) {
			return Record{}, ErrSlotNotFound
		}
		return Record{}, err
	}
	student, err := svc.users.GetUserByID(ctx, studentID)
	if err != nil || !student.IsStudent() {
		if err == nil || core.IsNotFound(err) {
			return Record{}, ErrStudentNotFound
		}
		return Record{}, err
	}
	if !actor.IsAdmin() {
		if !actor.SchoolID.Valid || actor.SchoolID.String != slot.SchoolID ||
			!student.SchoolID.Valid || student.SchoolID.String != slot.SchoolID {
			return Record{}, user.ErrScopeMismatch
		}
	}

	rec.SlotID = slotID
	rec.StudentID = studentID
	if actor.IsTeacher() {
		rec.MarkedBy = null.StringFrom(actor.ID)
	}
	if err = svc.repo.CreateRecord(ctx, &rec); err != nil {
		if core.IsConflict(err) {
			switch core.ConflictConstraint(err) {
			case "grades_schedule_id_student_id_key":
				return Record{}, ErrAlreadyGraded
			case "grades_schedule_id_fkey":
				return Record{}, ErrSlotNotFound
			case "grades_student_id_fkey":
				return Record{}, ErrStudentNotFound
			}
		}
		return Record{}, err
	}
	return rec, nil
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err = svc.allowRead(ctx, actor, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByStudent lists a student's grades. Students only see their own,
// everyone else is held to their school.
func (svc *Service) ListByStudent(ctx context.Context, actor user.User, studentID string) ([]Record, error) {
	if err := svc.allowStudent(ctx, actor, studentID); err != nil {
		return nil, err
	}
	return svc.repo.FilterRecords(ctx, QueryFilter{StudentID: studentID})
}

// Averages computes per-system means over a student's grades. Letter and
// pass/fail grades carry no numeric value and are skipped.
func (svc *Service) Averages(ctx context.Context, actor user.User, studentID string) (Averages, error) {
	recs, err := svc.ListByStudent(ctx, actor, studentID)
	if err != nil {
		return Averages{}, err
	}
	if len(recs) == 0 {
		return Averages{}, ErrNoData
	}

	var avgs Averages
	var gpaSum, pctSum, fiveSum float64
	var gpaN, pctN, fiveN int
	for _, rec := range recs {
		switch {
		case rec.ValueGPA.Valid:
			gpaSum += rec.ValueGPA.Float64
			gpaN++
		case rec.ValuePercent.Valid:
			pctSum += rec.ValuePercent.Float64
			pctN++
		case rec.ValueFiveNumeric.Valid:
			fiveSum += float64(rec.ValueFiveNumeric.Int)
			fiveN++
		}
	}
	if gpaN > 0 {
		avgs.GPA = null.Float64From(gpaSum / float64(gpaN))
	}
	if pctN > 0 {
		avgs.Percent = null.Float64From(pctSum / float64(pctN))
	}
	if fiveN > 0 {
		avgs.FiveNumeric = null.Float64From(fiveSum / float64(fiveN))
	}
	return avgs, nil
}

func (svc *Service) Delete(ctx context.Context, actor user.User, ids ...string) error {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return core.NotAllowedError("not allowed to delete grade records")
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	for _, id := range ids {
		rec, err := svc.repo.GetRecordByID(ctx, id)
		if err != nil {
			return err
		}
		slot, err := svc.repo.GetSlotRef(ctx, rec.SlotID)
		if err != nil {
			return err
		}
		if err = scope.AllowSchool(slot.SchoolID); err != nil {
			return err
		}
	}
	return svc.repo.DeleteRecordsByID(ctx, ids...)
}

func (svc *Service) allowRead(ctx context.Context, actor user.User, rec Record) error {
	if actor.IsStudent() {
		if rec.StudentID != actor.ID {
			return ErrNotFound
		}
		return nil
	}
	if actor.IsAdmin() {
		return nil
	}
	slot, err := svc.repo.GetSlotRef(ctx, rec.SlotID)
	if err != nil {
		return err
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	return scope.AllowSchool(slot.SchoolID)
}

func (svc *Service) allowStudent(ctx context.Context, actor user.User, studentID string) error {
	if actor.IsStudent() {
		if actor.ID != studentID {
			return core.NotAllowedError("not allowed to view another student's grades")
		}
		return nil
	}
	if actor.IsAdmin() {
		return nil
	}
	student, err := svc.users.GetUserByID(ctx, studentID)
	if err != nil || !student.IsStudent() {
		if err == nil || core.IsNotFound(err) {
			return ErrStudentNotFound
		}
		return err
	}
	if !student.SchoolID.Valid {
		return user.ErrScopeMismatch
	}
	scope, err := user.ResolveScope(actor)
	if err != nil {
		return err
	}
	return scope.AllowSchool(student.SchoolID.String)
}
