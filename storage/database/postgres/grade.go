package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/grade"
)

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

type gradeRow struct {
	ID               string       `db:"id"`
	SlotID           string       `db:"schedule_id"`
	StudentID        string       `db:"student_id"`
	System           string       `db:"system"`
	ValueLetter      null.String  `db:"value_letter"`
	ValueGPA         null.Float64 `db:"value_gpa"`
	ValuePercent     null.Float64 `db:"value_percent"`
	ValueFiveNumeric null.Int     `db:"value_five_numeric"`
	ValuePassing     null.Bool    `db:"value_passing"`
	MarkedBy         null.String  `db:"marked_by"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        null.Time    `db:"updated_at"`
}

func (repo gradeRepository) GetSlotRef(ctx context.Context, slotID string) (grade.SlotRef, error) {
	var ref grade.SlotRef
	err := repo.db.QueryRowContext(ctx,
		`SELECT id, school_id FROM schedules WHERE id = $1`, slotID).
		Scan(&ref.ID, &ref.SchoolID)
	if err != nil {
		return grade.SlotRef{}, trapErr(err, "getting schedule slot", grade.ErrSlotNotFound)
	}
	return ref, nil
}

func (repo gradeRepository) CreateRecord(ctx context.Context, rec *grade.Record) error {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	row := gradeRow(*rec)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO grades (id, schedule_id, student_id, system, value_letter, value_gpa, value_percent, value_five_numeric, value_passing, marked_by, created_at, updated_at)
		VALUES (:id, :schedule_id, :student_id, :system, :value_letter, :value_gpa, :value_percent, :value_five_numeric, :value_passing, :marked_by, :created_at, :updated_at)`, row)
	if err != nil {
		return trapErr(err, "inserting grade record", grade.ErrNotFound)
	}
	return nil
}

func (repo gradeRepository) GetRecordByID(ctx context.Context, id string) (grade.Record, error) {
	var row gradeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM grades WHERE id = $1`, id); err != nil {
		return grade.Record{}, trapErr(err, "getting grade record by id", grade.ErrNotFound)
	}
	return grade.Record(row), nil
}

func (repo gradeRepository) FilterRecords(ctx context.Context, filter grade.QueryFilter) ([]grade.Record, error) {
	query := `SELECT g.* FROM grades g JOIN schedules s ON s.id = g.schedule_id WHERE true`
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		query += ` AND s.school_id = ?`
	}
	if filter.SlotID != "" {
		args = append(args, filter.SlotID)
		query += ` AND g.schedule_id = ?`
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += ` AND g.student_id = ?`
	}
	if filter.System != "" {
		args = append(args, filter.System)
		query += ` AND g.system = ?`
	}
	query += ` ORDER BY g.created_at DESC`

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, "filtering grade records", grade.ErrNotFound)
	}
	recs := make([]grade.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, grade.Record(row))
	}
	return recs, nil
}

func (repo gradeRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM grades WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting grade records", grade.ErrNotFound)
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, "deleting grade records", grade.ErrNotFound)
	}
	return nil
}
