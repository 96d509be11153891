package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	grp.ID = uuid.New().String()
	repo.db.groups[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if grp, ok := repo.db.groups[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) QueryGroupsBySchool(ctx context.Context, schoolID string) ([]group.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	groups := make([]group.Group, 0)
	for _, grp := range repo.db.groups {
		if grp.SchoolID == schoolID {
			groups = append(groups, *grp)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Grade != groups[j].Grade {
			return groups[i].Grade < groups[j].Grade
		}
		return groups[i].GradeSection < groups[j].GradeSection
	})
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.groups[grp.ID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	grp.SchoolID = orig.SchoolID
	grp.CreatedAt = orig.CreatedAt
	grp.UpdatedAt = time.Now().UTC()
	repo.db.groups[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		for _, usr := range repo.db.users {
			if usr.GroupID.Valid && usr.GroupID.String == id {
				usr.GroupID = null.String{}
			}
		}
		for slotID, slot := range repo.db.slots {
			if slot.GroupID == id {
				delete(repo.db.slots, slotID)
			}
		}
		delete(repo.db.groups, id)
	}
	return nil
}
