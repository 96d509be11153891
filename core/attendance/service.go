package attendance

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// NowFunc returns the current time. Swapped out in tests.
var NowFunc = time.Now

var (
	ErrNotFound        = core.NotFoundError("attendance record not found")
	ErrSlotNotFound    = core.NotFoundError("schedule slot not found")
	ErrStudentNotFound = core.NotFoundError("student not found")
	ErrInvalidStatus   = core.InvalidInputError("invalid attendance status")
)

type Repository interface {
	// GetSlotRef resolves the owning school and group of a timetable slot.
	GetSlotRef(ctx context.Context, slotID string) (SlotRef, error)
	// QueryEnrolledStudentIDs returns the active students of a group, or of
	// a whole school when groupID is null. GroupID takes precedence.
	QueryEnrolledStudentIDs(ctx context.Context, schoolID, groupID null.String) ([]string, error)
	// MaterializeRecords inserts recs in one unit of work, skipping any row
	// whose (slot, student, date) key already exists.
	MaterializeRecords(ctx context.Context, recs []Record) error
	CreateRecord(ctx context.Context, rec *Record) error
	GetRecordByID(ctx context.Context, id string) (Record, error)
	GetRecordForDate(ctx context.Context, slotID, studentID string, on time.Time) (Record, error)
	FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
	UpdateRecord(ctx context.Context, rec *Record) error
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

// Materialize lazily creates today's absent-by-default records for the given
// slots. It is idempotent per calendar day: occurrences that already exist,
// whether found up front or raced in by a concurrent reader, are left alone.
func (svc *Service) Materialize(ctx context.Context, slotIDs []string, schoolID, groupID null.String) error {
	if len(slotIDs) == 0 {
		return nil
	}
	if !schoolID.Valid && !groupID.Valid {
		return nil
	}

	studentIDs, err := svc.repo.QueryEnrolledStudentIDs(ctx, schoolID, groupID)
	if err != nil {
		return err
	}
	if len(studentIDs) == 0 {
		return nil
	}

	today := Date(NowFunc())
	recs := make([]Record, 0, len(slotIDs)*len(studentIDs))
	for _, slotID := range slotIDs {
		for _, studentID := range studentIDs {
			recs = append(recs, Record{
				SlotID:    slotID,
				StudentID: studentID,
				Status:    StatusAbsent,
				CreatedOn: today,
			})
		}
	}
	return svc.repo.MaterializeRecords(ctx, recs)
}

// Mark sets a student's status for today's occurrence of a slot, creating the
// record if materialization has not produced it yet.
func (svc *Service) Mark(ctx context.Context, actor user.User, slotID, studentID, status string) (Record, error) {
	if !actor.IsTeacher() {
		return Record{}, core.NotAllowedError("only teachers can mark attendance")
	}
	if !validStatus(status) {
		return Record{}, ErrInvalidStatus
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
	if !actor.SchoolID.Valid || actor.SchoolID.String != slot.SchoolID ||
		!student.SchoolID.Valid || student.SchoolID.String != slot.SchoolID {
		return Record{}, user.ErrScopeMismatch
	}

	now := NowFunc()
	today := Date(now)
	rec, err := svc.repo.GetRecordForDate(ctx, slotID, studentID, today)
	switch {
	case err == nil:
		rec.Status = status
		rec.MarkedBy = null.StringFrom(actor.ID)
		rec.UpdatedAt = null.TimeFrom(now)
		if err = svc.repo.UpdateRecord(ctx, &rec); err != nil {
			return Record{}, err
		}
		return rec, nil
	case core.IsNotFound(err):
		rec = Record{
			SlotID:    slotID,
			StudentID: studentID,
			Status:    status,
			MarkedBy:  null.StringFrom(actor.ID),
			CreatedOn: today,
		}
		if err = svc.repo.CreateRecord(ctx, &rec); err != nil {
			return Record{}, err
		}
		return rec, nil
	default:
		return Record{}, err
	}
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

// Filter lists attendance records visible to the actor. Students only see
// their own rows, teachers the rows they marked, principals their school's.
func (svc *Service) Filter(ctx context.Context, actor user.User, filter QueryFilter) ([]Record, error) {
	switch {
	case actor.IsStudent():
		filter.StudentID = actor.ID
	case actor.IsTeacher():
		filter.MarkedBy = actor.ID
	default:
		scope, err := user.ResolveScope(actor)
		if err != nil {
			return nil, err
		}
		effective, err := scope.EffectiveSchool(null.NewString(filter.SchoolID, filter.SchoolID != ""))
		if err != nil {
			svc.log.Warn("attendance read denied", "actor", actor.ID, "school", filter.SchoolID)
			return nil, err
		}
		filter.SchoolID = effective.String
	}
	return svc.repo.FilterRecords(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, ids ...string) error {
	if !actor.IsAdmin() && !actor.IsPrincipal() {
		return core.NotAllowedError("not allowed to delete attendance records")
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
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsStudent():
		if rec.StudentID != actor.ID {
			return ErrNotFound
		}
		return nil
	case actor.IsTeacher():
		if !rec.MarkedBy.Valid || rec.MarkedBy.String != actor.ID {
			return ErrNotFound
		}
		return nil
	default:
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
}

func validStatus(s string) bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}
