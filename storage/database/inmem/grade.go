package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) GetSlotRef(ctx context.Context, slotID string) (grade.SlotRef, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slot, ok := repo.db.slots[slotID]
	if !ok {
		return grade.SlotRef{}, grade.ErrSlotNotFound
	}
	return grade.SlotRef{ID: slot.ID, SchoolID: slot.SchoolID}, nil
}

func (repo *gradeRepository) CreateRecord(ctx context.Context, rec *grade.Record) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.slots[rec.SlotID]; !ok {
		return core.ConflictError("inserting grade record", "grades_schedule_id_fkey")
	}
	if _, ok := repo.db.users[rec.StudentID]; !ok {
		return core.ConflictError("inserting grade record", "grades_student_id_fkey")
	}
	for _, other := range repo.db.grades {
		if other.SlotID == rec.SlotID && other.StudentID == rec.StudentID {
			return core.ConflictError("inserting grade record", "grades_schedule_id_student_id_key")
		}
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	repo.db.grades[cp.ID] = &cp
	return nil
}

func (repo *gradeRepository) GetRecordByID(ctx context.Context, id string) (grade.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec, ok := repo.db.grades[id]; ok {
		return *rec, nil
	}
	return grade.Record{}, grade.ErrNotFound
}

func (repo *gradeRepository) FilterRecords(ctx context.Context, filter grade.QueryFilter) ([]grade.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	recs := make([]grade.Record, 0)
	for _, rec := range repo.db.grades {
		slot := repo.db.slots[rec.SlotID]
		if slot == nil {
			continue
		}
		if filter.SchoolID != "" && slot.SchoolID != filter.SchoolID {
			continue
		}
		if filter.SlotID != "" && rec.SlotID != filter.SlotID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.System != "" && rec.System != filter.System {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

func (repo *gradeRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.grades, id)
	}
	return nil
}
