package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/schedule"
)

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

type slotRow struct {
	ID        string      `db:"id"`
	GroupID   string      `db:"group_id"`
	SchoolID  string      `db:"school_id"`
	SubjectID null.String `db:"subject_id"`
	TeacherID null.String `db:"teacher_id"`
	Weekday   string      `db:"day_of_week"`
	StartAt   string      `db:"start_time"`
	EndAt     string      `db:"end_time"`
	CreatedAt time.Time   `db:"created_at"`
	EndedAt   null.Time   `db:"ended_at"`
}

func (repo scheduleRepository) CreateSlot(ctx context.Context, slot schedule.Slot) (schedule.Slot, error) {
	slot.ID = uuid.New().String()
	row := slotRow(slot)
	row.CreatedAt = row.CreatedAt.UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO schedules (id, group_id, school_id, subject_id, teacher_id, day_of_week, start_time, end_time, created_at, ended_at)
		VALUES (:id, :group_id, :school_id, :subject_id, :teacher_id, :day_of_week, :start_time, :end_time, :created_at, :ended_at)`, row)
	if err != nil {
		return schedule.Slot{}, trapErr(err, "inserting schedule slot", schedule.ErrNotFound)
	}
	return schedule.Slot(row), nil
}

func (repo scheduleRepository) GetSlotByID(ctx context.Context, id string) (schedule.Slot, error) {
	var row slotRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM schedules WHERE id = $1`, id); err != nil {
		return schedule.Slot{}, trapErr(err, "getting schedule slot by id", schedule.ErrNotFound)
	}
	return schedule.Slot(row), nil
}

func (repo scheduleRepository) QuerySlots(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Slot, error) {
	query := `SELECT * FROM schedules WHERE ended_at IS NULL`
	var args []interface{}
	if filter.Weekday != "" {
		args = append(args, filter.Weekday)
		query += ` AND day_of_week = ?`
	}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		query += ` AND school_id = ?`
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += ` AND group_id = ?`
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		query += ` AND teacher_id = ?`
	}
	query += ` ORDER BY start_time ASC`

	var rows []slotRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, "querying schedule slots", schedule.ErrNotFound)
	}
	slots := make([]schedule.Slot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, schedule.Slot(row))
	}
	return slots, nil
}

func (repo scheduleRepository) UpdateSlot(ctx context.Context, slot schedule.Slot) (schedule.Slot, error) {
	row := slotRow(slot)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE schedules
		SET subject_id = :subject_id, teacher_id = :teacher_id, day_of_week = :day_of_week,
		    start_time = :start_time, end_time = :end_time, ended_at = :ended_at
		WHERE id = :id`, row)
	if err != nil {
		return schedule.Slot{}, trapErr(err, "updating schedule slot", schedule.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Slot{}, schedule.ErrNotFound
	}
	return schedule.Slot(row), nil
}

// DeleteSlotsByID fails with a conflict when attendance or grade rows still
// reference a slot.
func (repo scheduleRepository) DeleteSlotsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM schedules WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting schedule slots", schedule.ErrNotFound)
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, "deleting schedule slots", schedule.ErrNotFound)
	}
	return nil
}
