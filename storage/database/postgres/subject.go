package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/subject"
)

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

type subjectRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	SchoolID  string    `db:"school_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	sub.ID = uuid.New().String()
	row := subjectRow(sub)
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO subjects (id, name, school_id, created_at, updated_at)
		VALUES (:id, :name, :school_id, :created_at, :updated_at)`, row)
	if err != nil {
		return subject.Subject{}, trapErr(err, "inserting subject", subject.ErrNotFound)
	}
	return subject.Subject(row), nil
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subjects WHERE id = $1`, id); err != nil {
		return subject.Subject{}, trapErr(err, "getting subject by id", subject.ErrNotFound)
	}
	return subject.Subject(row), nil
}

func (repo subjectRepository) QuerySubjectsBySchool(ctx context.Context, schoolID string) ([]subject.Subject, error) {
	var rows []subjectRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM subjects WHERE school_id = $1 ORDER BY name ASC`, schoolID)
	if err != nil {
		return nil, trapErr(err, "querying subjects by school", subject.ErrNotFound)
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, subject.Subject(row))
	}
	return subjects, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	sub.UpdatedAt = time.Now().UTC()
	row := subjectRow(sub)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE subjects SET name = :name, updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return subject.Subject{}, trapErr(err, "updating subject", subject.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return subject.Subject(row), nil
}

func (repo subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM subjects WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting subjects", subject.ErrNotFound)
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, "deleting subjects", subject.ErrNotFound)
	}
	return nil
}

func (repo subjectRepository) AssignTeacher(ctx context.Context, subjectID, teacherID string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO subject_teacher (subject_id, teacher_id) VALUES ($1, $2)`, subjectID, teacherID)
	if err != nil {
		err = trapErr(err, "assigning teacher to subject", subject.ErrNotFound)
		if core.ConflictConstraint(err) == "subject_teacher_pkey" {
			return subject.ErrTeacherAssigned
		}
		return err
	}
	return nil
}

func (repo subjectRepository) QueryTeacherIDs(ctx context.Context, subjectID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT teacher_id FROM subject_teacher WHERE subject_id = $1`, subjectID)
	if err != nil {
		return nil, trapErr(err, "querying subject teachers", subject.ErrNotFound)
	}
	return ids, nil
}
