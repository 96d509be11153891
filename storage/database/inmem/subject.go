package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) QuerySubjectsBySchool(ctx context.Context, schoolID string) ([]subject.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]subject.Subject, 0)
	for _, sub := range repo.db.subjects {
		if sub.SchoolID == schoolID {
			subjects = append(subjects, *sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.subjects[sub.ID]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	sub.SchoolID = orig.SchoolID
	sub.CreatedAt = orig.CreatedAt
	sub.UpdatedAt = time.Now().UTC()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		for _, slot := range repo.db.slots {
			if slot.SubjectID.Valid && slot.SubjectID.String == id {
				slot.SubjectID = null.String{}
			}
		}
		delete(repo.db.subjectTeachers, id)
		delete(repo.db.subjects, id)
	}
	return nil
}

func (repo *subjectRepository) AssignTeacher(ctx context.Context, subjectID, teacherID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subjects[subjectID]; !ok {
		return subject.ErrNotFound
	}
	teachers := repo.db.subjectTeachers[subjectID]
	if teachers == nil {
		teachers = make(map[string]bool)
		repo.db.subjectTeachers[subjectID] = teachers
	}
	if teachers[teacherID] {
		return subject.ErrTeacherAssigned
	}
	teachers[teacherID] = true
	return nil
}

func (repo *subjectRepository) QueryTeacherIDs(ctx context.Context, subjectID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]string, 0, len(repo.db.subjectTeachers[subjectID]))
	for id := range repo.db.subjectTeachers[subjectID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
