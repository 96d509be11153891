package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

type groupRow struct {
	ID           string    `db:"id"`
	Grade        int       `db:"grade"`
	GradeSection string    `db:"grade_section"`
	SchoolID     string    `db:"school_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (repo groupRepository) unpack(row groupRow) group.Group {
	return group.Group(row)
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	grp.ID = uuid.New().String()
	row := groupRow(grp)
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO groups (id, grade, grade_section, school_id, created_at, updated_at)
		VALUES (:id, :grade, :grade_section, :school_id, :created_at, :updated_at)`, row)
	if err != nil {
		return group.Group{}, trapErr(err, "inserting group", group.ErrNotFound)
	}
	return repo.unpack(row), nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	var row groupRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM groups WHERE id = $1`, id); err != nil {
		return group.Group{}, trapErr(err, "getting group by id", group.ErrNotFound)
	}
	return repo.unpack(row), nil
}

func (repo groupRepository) QueryGroupsBySchool(ctx context.Context, schoolID string) ([]group.Group, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM groups WHERE school_id = $1 ORDER BY grade ASC, grade_section ASC`, schoolID)
	if err != nil {
		return nil, trapErr(err, "querying groups by school", group.ErrNotFound)
	}
	groups := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.unpack(row))
	}
	return groups, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	grp.UpdatedAt = time.Now().UTC()
	row := groupRow(grp)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE groups
		SET grade = :grade, grade_section = :grade_section, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return group.Group{}, trapErr(err, "updating group", group.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return repo.unpack(row), nil
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM groups WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting groups", group.ErrNotFound)
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, "deleting groups", group.ErrNotFound)
	}
	return nil
}
