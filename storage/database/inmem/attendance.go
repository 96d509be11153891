package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetSlotRef(ctx context.Context, slotID string) (attendance.SlotRef, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slot, ok := repo.db.slots[slotID]
	if !ok {
		return attendance.SlotRef{}, attendance.ErrSlotNotFound
	}
	return attendance.SlotRef{ID: slot.ID, SchoolID: slot.SchoolID, GroupID: slot.GroupID}, nil
}

func (repo *attendanceRepository) QueryEnrolledStudentIDs(ctx context.Context, schoolID, groupID null.String) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]string, 0)
	for _, usr := range repo.db.users {
		if !usr.IsStudent() || !usr.IsActive {
			continue
		}
		if groupID.Valid {
			if usr.GroupID.Valid && usr.GroupID.String == groupID.String {
				ids = append(ids, usr.ID)
			}
			continue
		}
		if usr.SchoolID.Valid && usr.SchoolID.String == schoolID.String {
			ids = append(ids, usr.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (repo *attendanceRepository) MaterializeRecords(ctx context.Context, recs []attendance.Record) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, rec := range recs {
		if repo.findForDate(rec.SlotID, rec.StudentID, rec.CreatedOn) != nil {
			continue
		}
		rec := rec
		rec.ID = uuid.New().String()
		repo.db.attendance[rec.ID] = &rec
	}
	return nil
}

func (repo *attendanceRepository) findForDate(slotID, studentID string, on time.Time) *attendance.Record {
	for _, rec := range repo.db.attendance {
		if rec.SlotID == slotID && rec.StudentID == studentID && rec.CreatedOn.Equal(on) {
			return rec
		}
	}
	return nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec *attendance.Record) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec.ID = uuid.New().String()
	cp := *rec
	repo.db.attendance[cp.ID] = &cp
	return nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec, ok := repo.db.attendance[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) GetRecordForDate(ctx context.Context, slotID, studentID string, on time.Time) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec := repo.findForDate(slotID, studentID, on); rec != nil {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		slot := repo.db.slots[rec.SlotID]
		if slot == nil {
			continue
		}
		if filter.SchoolID != "" && slot.SchoolID != filter.SchoolID {
			continue
		}
		if filter.GroupID != "" && slot.GroupID != filter.GroupID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.MarkedBy != "" && (!rec.MarkedBy.Valid || rec.MarkedBy.String != filter.MarkedBy) {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if !filter.CreatedOn.IsZero() && !rec.CreatedOn.Equal(filter.CreatedOn) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedOn.After(recs[j].CreatedOn) })
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec *attendance.Record) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.attendance[rec.ID]; !ok {
		return attendance.ErrNotFound
	}
	cp := *rec
	repo.db.attendance[cp.ID] = &cp
	return nil
}

func (repo *attendanceRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.attendance, id)
	}
	return nil
}
