package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/user"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type attendanceRow struct {
	ID        string      `db:"id"`
	SlotID    string      `db:"schedule_id"`
	StudentID string      `db:"student_id"`
	Status    string      `db:"status"`
	MarkedBy  null.String `db:"marked_by"`
	CreatedOn time.Time   `db:"created_on"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (repo attendanceRepository) unpack(row attendanceRow) attendance.Record {
	return attendance.Record(row)
}

func (repo attendanceRepository) GetSlotRef(ctx context.Context, slotID string) (attendance.SlotRef, error) {
	var ref attendance.SlotRef
	err := repo.db.QueryRowContext(ctx,
		`SELECT id, school_id, group_id FROM schedules WHERE id = $1`, slotID).
		Scan(&ref.ID, &ref.SchoolID, &ref.GroupID)
	if err != nil {
		return attendance.SlotRef{}, trapErr(err, "getting schedule slot", attendance.ErrSlotNotFound)
	}
	return ref, nil
}

func (repo attendanceRepository) QueryEnrolledStudentIDs(ctx context.Context, schoolID, groupID null.String) ([]string, error) {
	query := `SELECT id FROM users WHERE kind = $1 AND is_active AND school_id = $2`
	args := []interface{}{user.KindStudent, schoolID.String}
	if groupID.Valid {
		query = `SELECT id FROM users WHERE kind = $1 AND is_active AND group_id = $2`
		args[1] = groupID.String
	}

	var ids []string
	if err := repo.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, trapErr(err, "querying enrolled students", user.ErrNotFound)
	}
	return ids, nil
}

// MaterializeRecords inserts recs in one transaction, leaving alone any
// (slot, student, date) key that already exists. The unique constraint is the
// backstop for concurrent readers materializing the same day.
func (repo attendanceRepository) MaterializeRecords(ctx context.Context, recs []attendance.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return core.Atomic(ctx, repo.db.DB, func(tx core.DBTransactor) error {
		for _, rec := range recs {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM attendance WHERE schedule_id = $1 AND student_id = $2 AND created_on = $3)`,
				rec.SlotID, rec.StudentID, rec.CreatedOn).Scan(&exists)
			if err != nil {
				return trapErr(err, "checking attendance record", attendance.ErrNotFound)
			}
			if exists {
				continue
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO attendance (id, schedule_id, student_id, status, marked_by, created_on, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT ON CONSTRAINT attendance_schedule_id_student_id_created_on_key DO NOTHING`,
				uuid.New().String(), rec.SlotID, rec.StudentID, rec.Status, rec.MarkedBy, rec.CreatedOn, rec.UpdatedAt)
			if err != nil {
				return trapErr(err, "materializing attendance record", attendance.ErrNotFound)
			}
		}
		return nil
	})
}

func (repo attendanceRepository) CreateRecord(ctx context.Context, rec *attendance.Record) error {
	rec.ID = uuid.New().String()
	row := attendanceRow(*rec)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance (id, schedule_id, student_id, status, marked_by, created_on, updated_at)
		VALUES (:id, :schedule_id, :student_id, :status, :marked_by, :created_on, :updated_at)`, row)
	if err != nil {
		return trapErr(err, "inserting attendance record", attendance.ErrNotFound)
	}
	return nil
}

func (repo attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance WHERE id = $1`, id); err != nil {
		return attendance.Record{}, trapErr(err, "getting attendance record by id", attendance.ErrNotFound)
	}
	return repo.unpack(row), nil
}

func (repo attendanceRepository) GetRecordForDate(ctx context.Context, slotID, studentID string, on time.Time) (attendance.Record, error) {
	var row attendanceRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM attendance WHERE schedule_id = $1 AND student_id = $2 AND created_on = $3`,
		slotID, studentID, on)
	if err != nil {
		return attendance.Record{}, trapErr(err, "getting attendance record for date", attendance.ErrNotFound)
	}
	return repo.unpack(row), nil
}

func (repo attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	query := `SELECT a.* FROM attendance a JOIN schedules s ON s.id = a.schedule_id WHERE true`
	var args []interface{}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		query += ` AND s.school_id = ?`
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += ` AND s.group_id = ?`
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += ` AND a.student_id = ?`
	}
	if filter.MarkedBy != "" {
		args = append(args, filter.MarkedBy)
		query += ` AND a.marked_by = ?`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND a.status = ?`
	}
	if !filter.CreatedOn.IsZero() {
		args = append(args, filter.CreatedOn)
		query += ` AND a.created_on = ?`
	}
	query += ` ORDER BY a.created_on DESC`

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, trapErr(err, "filtering attendance records", attendance.ErrNotFound)
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.unpack(row))
	}
	return recs, nil
}

func (repo attendanceRepository) UpdateRecord(ctx context.Context, rec *attendance.Record) error {
	row := attendanceRow(*rec)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE attendance
		SET status = :status, marked_by = :marked_by, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return trapErr(err, "updating attendance record", attendance.ErrNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo attendanceRepository) DeleteRecordsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM attendance WHERE id IN (?)`, ids)
	if err != nil {
		return trapErr(err, "deleting attendance records", attendance.ErrNotFound)
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return trapErr(err, "deleting attendance records", attendance.ErrNotFound)
	}
	return nil
}
