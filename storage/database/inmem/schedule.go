package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSlot(ctx context.Context, slot schedule.Slot) (schedule.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	slot.ID = uuid.New().String()
	repo.db.slots[slot.ID] = &slot
	return slot, nil
}

func (repo *scheduleRepository) GetSlotByID(ctx context.Context, id string) (schedule.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if slot, ok := repo.db.slots[id]; ok {
		return *slot, nil
	}
	return schedule.Slot{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QuerySlots(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slots := make([]schedule.Slot, 0)
	for _, slot := range repo.db.slots {
		if slot.EndedAt.Valid {
			continue
		}
		if filter.Weekday != "" && slot.Weekday != filter.Weekday {
			continue
		}
		if filter.SchoolID != "" && slot.SchoolID != filter.SchoolID {
			continue
		}
		if filter.GroupID != "" && slot.GroupID != filter.GroupID {
			continue
		}
		if filter.TeacherID != "" && (!slot.TeacherID.Valid || slot.TeacherID.String != filter.TeacherID) {
			continue
		}
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartAt < slots[j].StartAt })
	return slots, nil
}

func (repo *scheduleRepository) UpdateSlot(ctx context.Context, slot schedule.Slot) (schedule.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.slots[slot.ID]
	if !ok {
		return schedule.Slot{}, schedule.ErrNotFound
	}
	slot.GroupID = orig.GroupID
	slot.SchoolID = orig.SchoolID
	slot.CreatedAt = orig.CreatedAt
	repo.db.slots[slot.ID] = &slot
	return slot, nil
}

func (repo *scheduleRepository) DeleteSlotsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		for _, rec := range repo.db.attendance {
			if rec.SlotID == id {
				return core.ConflictError("deleting schedule slots", "attendance_schedule_id_fkey")
			}
		}
		for _, rec := range repo.db.grades {
			if rec.SlotID == id {
				return core.ConflictError("deleting schedule slots", "grades_schedule_id_fkey")
			}
		}
	}
	for _, id := range ids {
		delete(repo.db.slots, id)
	}
	return nil
}
