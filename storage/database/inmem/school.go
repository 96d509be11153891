package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.schools {
		if other.Name == sch.Name {
			return school.School{}, school.ErrNameExists
		}
	}
	sch.ID = uuid.New().String()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) FilterSchools(ctx context.Context, filter school.QueryFilter) ([]school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		if filter.Country != "" && !strings.EqualFold(sch.Country, filter.Country) {
			continue
		}
		if filter.IsActive != nil && sch.IsActive != *filter.IsActive {
			continue
		}
		schools = append(schools, *sch)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].Name < schools[j].Name })
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School, isActive *bool) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.schools[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	for _, other := range repo.db.schools {
		if other.ID != sch.ID && other.Name == sch.Name {
			return school.School{}, school.ErrNameExists
		}
	}
	if isActive != nil {
		sch.IsActive = *isActive
	} else {
		sch.IsActive = orig.IsActive
	}
	sch.CreatedAt = orig.CreatedAt
	sch.UpdatedAt = time.Now().UTC()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

// DeleteSchoolsByID removes schools with all their dependents; staff and
// student accounts survive unassigned.
func (repo *schoolRepository) DeleteSchoolsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		for slotID, slot := range repo.db.slots {
			if slot.SchoolID != id {
				continue
			}
			for recID, rec := range repo.db.attendance {
				if rec.SlotID == slotID {
					delete(repo.db.attendance, recID)
				}
			}
			for recID, rec := range repo.db.grades {
				if rec.SlotID == slotID {
					delete(repo.db.grades, recID)
				}
			}
			delete(repo.db.slots, slotID)
		}
		for subID, sub := range repo.db.subjects {
			if sub.SchoolID == id {
				delete(repo.db.subjects, subID)
				delete(repo.db.subjectTeachers, subID)
			}
		}
		for invID, inv := range repo.db.invitations {
			if inv.SchoolID == id {
				delete(repo.db.invitations, invID)
			}
		}
		for _, usr := range repo.db.users {
			if usr.SchoolID.Valid && usr.SchoolID.String == id {
				usr.SchoolID = null.String{}
				usr.GroupID = null.String{}
			}
		}
		for grpID, grp := range repo.db.groups {
			if grp.SchoolID == id {
				delete(repo.db.groups, grpID)
			}
		}
		delete(repo.db.schools, id)
	}
	return nil
}
