package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type schoolRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	ShortName     string      `db:"short_name"`
	Country       string      `db:"country"`
	Address       string      `db:"address"`
	IsActive      bool        `db:"is_active"`
	GradingSystem null.String `db:"grading_system"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (repo schoolRepository) pack(sch school.School) schoolRow {
	return schoolRow{
		ID:            sch.ID,
		Name:          sch.Name,
		ShortName:     sch.ShortName,
		Country:       sch.Country,
		Address:       sch.Address,
		IsActive:      sch.IsActive,
		GradingSystem: sch.GradingSystem,
		CreatedAt:     sch.CreatedAt.UTC(),
		UpdatedAt:     sch.UpdatedAt.UTC(),
	}
}

func (repo schoolRepository) unpack(row schoolRow) school.School {
	return school.School{
		ID:            row.ID,
		Name:          row.Name,
		ShortName:     row.ShortName,
		Country:       row.Country,
		Address:       row.Address,
		IsActive:      row.IsActive,
		GradingSystem: row.GradingSystem,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func (repo schoolRepository) trapWriteErr(err error, msg string) error {
	err = trapErr(err, msg, school.ErrNotFound)
	if core.ConflictConstraint(err) == "schools_name_key" {
		return school.ErrNameExists
	}
	return err
}

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	row := repo.pack(sch)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO schools (id, name, short_name, country, address, is_active, grading_system, created_at, updated_at)
		VALUES (:id, :name, :short_name, :country, :address, :is_active, :grading_system, :created_at, :updated_at)`, row)
	if err != nil {
		return school.School{}, repo.trapWriteErr(err, "inserting school")
	}
	return repo.unpack(row), nil
}

func (repo schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var row schoolRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM schools WHERE id = $1`, id); err != nil {
		return school.School{}, trapErr(err, "getting school by id", school.ErrNotFound)
	}
	return repo.unpack(row), nil
}

func (repo schoolRepository) FilterSchools(ctx context.Context, filter school.QueryFilter) ([]school.School, error) {
	query := `SELECT * FROM schools WHERE true`
	var args []interface{}
	if filter.Country != "" {
		args = append(args, filter.Country)
		query += ` AND country ILIKE ?`
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += ` AND is_active = ?`
	}
	query += ` ORDER BY name ASC`

	var rows []schoolRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, "filtering schools", school.ErrNotFound)
	}
	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, repo.unpack(row))
	}
	return schools, nil
}

func (repo schoolRepository) UpdateSchool(ctx context.Context, sch school.School, isActive *bool) (school.School, error) {
	orig, err := repo.GetSchoolByID(ctx, sch.ID)
	if err != nil {
		return school.School{}, err
	}
	if isActive != nil {
		sch.IsActive = *isActive
	} else {
		sch.IsActive = orig.IsActive
	}
	sch.CreatedAt = orig.CreatedAt
	sch.UpdatedAt = time.Now().UTC()
	row := repo.pack(sch)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE schools
		SET name = :name, short_name = :short_name, country = :country, address = :address,
		    is_active = :is_active, grading_system = :grading_system, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return school.School{}, repo.trapWriteErr(err, "updating school")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return repo.unpack(row), nil
}

// DeleteSchoolsByID removes schools with all their dependents, children
// first, as one unit of work. Staff and student accounts survive unassigned.
func (repo schoolRepository) DeleteSchoolsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		deps := []string{
			`DELETE FROM attendance WHERE schedule_id IN (SELECT id FROM schedules WHERE school_id IN (?))`,
			`DELETE FROM grades WHERE schedule_id IN (SELECT id FROM schedules WHERE school_id IN (?))`,
			`DELETE FROM schedules WHERE school_id IN (?)`,
			`DELETE FROM subjects WHERE school_id IN (?)`,
			`DELETE FROM invitations WHERE school_id IN (?)`,
			`UPDATE users SET school_id = NULL, group_id = NULL WHERE school_id IN (?)`,
			`DELETE FROM groups WHERE school_id IN (?)`,
			`DELETE FROM schools WHERE id IN (?)`,
		}
		for _, stmt := range deps {
			query, args, err := sqlx.In(stmt, ids)
			if err != nil {
				return trapErr(err, "deleting schools", school.ErrNotFound)
			}
			if _, err = tx.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
				return trapErr(err, "deleting schools", school.ErrNotFound)
			}
		}
		return nil
	})
}
