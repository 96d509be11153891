package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*attendance.Service, attendance.Repository, *inmemdb.DB) {
	t.Helper()
	db := inmemdb.Open()
	repo := inmemdb.NewAttendanceRepository(db)
	svc := attendance.NewService(repo, inmemdb.NewUserRepository(db), core.NopLogger{})
	return svc, repo, db
}

func countRecords(t *testing.T, repo attendance.Repository, filter attendance.QueryFilter) int {
	t.Helper()
	recs, err := repo.FilterRecords(context.Background(), filter)
	if err != nil {
		t.Fatalf("FilterRecords() failed: %v", err)
	}
	return len(recs)
}

func Test_attendanceService_Materialize(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()

	sch := testutil.CreateSchool(t, inmemdb.NewSchoolRepository(db), "School A")
	grp := testutil.CreateGroup(t, inmemdb.NewGroupRepository(db), sch, 10, "B")
	sub := testutil.CreateSubject(t, inmemdb.NewSubjectRepository(db), sch, "Maths")
	userRepo := inmemdb.NewUserRepository(db)
	testutil.CreateUser(t, userRepo, "kalanga", user.KindStudent, null.StringFrom(sch.ID), null.StringFrom(grp.ID), true)
	testutil.CreateUser(t, userRepo, "mwamba", user.KindStudent, null.StringFrom(sch.ID), null.StringFrom(grp.ID), true)
	testutil.CreateUser(t, userRepo, "tshims", user.KindStudent, null.StringFrom(sch.ID), null.StringFrom(grp.ID), false) // inactive

	slotRepo := inmemdb.NewScheduleRepository(db)
	slot1 := testutil.CreateSlot(t, slotRepo, grp, sub, null.String{}, "monday", "08:00", "09:00")
	slot2 := testutil.CreateSlot(t, slotRepo, grp, sub, null.String{}, "monday", "09:00", "10:00")
	slotIDs := []string{slot1.ID, slot2.ID}

	day1 := time.Date(2021, 3, 1, 9, 30, 0, 0, time.UTC)
	attendance.NowFunc = func() time.Time { return day1 }
	defer func() { attendance.NowFunc = time.Now }()

	if err := svc.Materialize(ctx, slotIDs, null.StringFrom(sch.ID), null.StringFrom(grp.ID)); err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}
	// 2 slots x 2 active students
	if got := countRecords(t, repo, attendance.QueryFilter{}); got != 4 {
		t.Fatalf("record count = %d; want 4", got)
	}
	recs, _ := repo.FilterRecords(ctx, attendance.QueryFilter{})
	for _, rec := range recs {
		if rec.Status != attendance.StatusAbsent {
			t.Errorf("materialized status = %q; want %q", rec.Status, attendance.StatusAbsent)
		}
		if !rec.CreatedOn.Equal(attendance.Date(day1)) {
			t.Errorf("CreatedOn = %v; want %v", rec.CreatedOn, attendance.Date(day1))
		}
	}

	// same day again: no duplicates
	if err := svc.Materialize(ctx, slotIDs, null.StringFrom(sch.ID), null.StringFrom(grp.ID)); err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}
	if got := countRecords(t, repo, attendance.QueryFilter{}); got != 4 {
		t.Errorf("record count after rerun = %d; want 4", got)
	}

	// concurrent readers on the same day must not duplicate either
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Materialize(ctx, slotIDs, null.StringFrom(sch.ID), null.StringFrom(grp.ID))
		}()
	}
	wg.Wait()
	if got := countRecords(t, repo, attendance.QueryFilter{}); got != 4 {
		t.Errorf("record count after concurrent runs = %d; want 4", got)
	}

	// the next day is a fresh occurrence
	attendance.NowFunc = func() time.Time { return day1.Add(24 * time.Hour) }
	if err := svc.Materialize(ctx, slotIDs, null.StringFrom(sch.ID), null.StringFrom(grp.ID)); err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}
	if got := countRecords(t, repo, attendance.QueryFilter{}); got != 8 {
		t.Errorf("record count next day = %d; want 8", got)
	}

	// nothing to tie the students to: a no-op
	if err := svc.Materialize(ctx, slotIDs, null.String{}, null.String{}); err != nil {
		t.Errorf("Materialize() failed: %v", err)
	}
	if err := svc.Materialize(ctx, nil, null.StringFrom(sch.ID), null.String{}); err != nil {
		t.Errorf("Materialize() failed: %v", err)
	}
	if got := countRecords(t, repo, attendance.QueryFilter{}); got != 8 {
		t.Errorf("record count after no-ops = %d; want 8", got)
	}
}

func Test_attendanceService_Mark(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()

	schoolRepo := inmemdb.NewSchoolRepository(db)
	schA := testutil.CreateSchool(t, schoolRepo, "School A")
	schB := testutil.CreateSchool(t, schoolRepo, "School B")
	grp := testutil.CreateGroup(t, inmemdb.NewGroupRepository(db), schA, 10, "B")
	sub := testutil.CreateSubject(t, inmemdb.NewSubjectRepository(db), schA, "Maths")

	userRepo := inmemdb.NewUserRepository(db)
	teacher := testutil.CreateUser(t, userRepo, "mrkabasele", user.KindTeacher, null.StringFrom(schA.ID), null.String{}, true)
	otherTeacher := testutil.CreateUser(t, userRepo, "mrilunga", user.KindTeacher, null.StringFrom(schB.ID), null.String{}, true)
	student := testutil.CreateUser(t, userRepo, "kalanga", user.KindStudent, null.StringFrom(schA.ID), null.StringFrom(grp.ID), true)

	slot := testutil.CreateSlot(t, inmemdb.NewScheduleRepository(db), grp, sub, null.StringFrom(teacher.ID), "monday", "08:00", "09:00")

	day := time.Date(2021, 3, 1, 9, 30, 0, 0, time.UTC)
	attendance.NowFunc = func() time.Time { return day }
	defer func() { attendance.NowFunc = time.Now }()

	t.Run("marking before materialization creates the occurrence", func(t *testing.T) {
		rec, err := svc.Mark(ctx, teacher, slot.ID, student.ID, attendance.StatusLate)
		if err != nil {
			t.Fatalf("Mark() failed: %v", err)
		}
		if rec.Status != attendance.StatusLate {
			t.Errorf("Status = %q; want %q", rec.Status, attendance.StatusLate)
		}
		if !rec.MarkedBy.Valid || rec.MarkedBy.String != teacher.ID {
			t.Errorf("MarkedBy = %v; want %q", rec.MarkedBy, teacher.ID)
		}
		if got := countRecords(t, repo, attendance.QueryFilter{}); got != 1 {
			t.Errorf("record count = %d; want 1", got)
		}
	})

	t.Run("remarking updates today's occurrence in place", func(t *testing.T) {
		first, _ := repo.GetRecordForDate(ctx, slot.ID, student.ID, attendance.Date(day))
		rec, err := svc.Mark(ctx, teacher, slot.ID, student.ID, attendance.StatusPresent)
		if err != nil {
			t.Fatalf("Mark() failed: %v", err)
		}
		if rec.ID != first.ID {
			t.Errorf("Mark() created a new record %q; want update of %q", rec.ID, first.ID)
		}
		if rec.Status != attendance.StatusPresent {
			t.Errorf("Status = %q; want %q", rec.Status, attendance.StatusPresent)
		}
		if !rec.UpdatedAt.Valid {
			t.Error("UpdatedAt not set on update")
		}
		if got := countRecords(t, repo, attendance.QueryFilter{}); got != 1 {
			t.Errorf("record count = %d; want 1", got)
		}
	})

	t.Run("a new day gets a fresh occurrence", func(t *testing.T) {
		attendance.NowFunc = func() time.Time { return day.Add(24 * time.Hour) }
		defer func() { attendance.NowFunc = func() time.Time { return day } }()

		rec, err := svc.Mark(ctx, teacher, slot.ID, student.ID, attendance.StatusPresent)
		if err != nil {
			t.Fatalf("Mark() failed: %v", err)
		}
		if !rec.CreatedOn.Equal(attendance.Date(day.Add(24 * time.Hour))) {
			t.Errorf("CreatedOn = %v; want next day", rec.CreatedOn)
		}
		if got := countRecords(t, repo, attendance.QueryFilter{}); got != 2 {
			t.Errorf("record count = %d; want 2", got)
		}
	})

	t.Run("denied and invalid cases", func(t *testing.T) {
		if _, err := svc.Mark(ctx, student, slot.ID, student.ID, attendance.StatusPresent); !core.IsNotAllowed(err) {
			t.Errorf("Mark() by a student: error = %v; want NotAllowed", err)
		}
		if _, err := svc.Mark(ctx, teacher, slot.ID, student.ID, "around"); err != attendance.ErrInvalidStatus {
			t.Errorf("Mark() error = %v; want %v", err, attendance.ErrInvalidStatus)
		}
		if _, err := svc.Mark(ctx, otherTeacher, slot.ID, student.ID, attendance.StatusPresent); err != user.ErrScopeMismatch {
			t.Errorf("Mark() across schools: error = %v; want %v", err, user.ErrScopeMismatch)
		}
		if _, err := svc.Mark(ctx, teacher, "nope", student.ID, attendance.StatusPresent); err != attendance.ErrSlotNotFound {
			t.Errorf("Mark() error = %v; want %v", err, attendance.ErrSlotNotFound)
		}
		if _, err := svc.Mark(ctx, teacher, slot.ID, "nope", attendance.StatusPresent); err != attendance.ErrStudentNotFound {
			t.Errorf("Mark() error = %v; want %v", err, attendance.ErrStudentNotFound)
		}
		if _, err := svc.Mark(ctx, teacher, slot.ID, teacher.ID, attendance.StatusPresent); err != attendance.ErrStudentNotFound {
			t.Errorf("Mark() on a non-student: error = %v; want %v", err, attendance.ErrStudentNotFound)
		}
	})
}

func Test_attendanceService_visibility(t *testing.T) {
	svc, _, db := setup(t)
	ctx := context.Background()

	schoolRepo := inmemdb.NewSchoolRepository(db)
	schA := testutil.CreateSchool(t, schoolRepo, "School A")
	schB := testutil.CreateSchool(t, schoolRepo, "School B")
	groupRepo := inmemdb.NewGroupRepository(db)
	grpA := testutil.CreateGroup(t, groupRepo, schA, 10, "B")
	grpB := testutil.CreateGroup(t, groupRepo, schB, 11, "A")
	subjectRepo := inmemdb.NewSubjectRepository(db)
	subA := testutil.CreateSubject(t, subjectRepo, schA, "Maths")
	subB := testutil.CreateSubject(t, subjectRepo, schB, "History")

	userRepo := inmemdb.NewUserRepository(db)
	admin := testutil.CreateUser(t, userRepo, "madimba", user.KindAdmin, null.String{}, null.String{}, true)
	principalA := testutil.CreateUser(t, userRepo, "mmekutima", user.KindPrincipal, null.StringFrom(schA.ID), null.String{}, true)
	teacherA := testutil.CreateUser(t, userRepo, "mrkabasele", user.KindTeacher, null.StringFrom(schA.ID), null.String{}, true)
	teacherB := testutil.CreateUser(t, userRepo, "mrilunga", user.KindTeacher, null.StringFrom(schB.ID), null.String{}, true)
	studentA := testutil.CreateUser(t, userRepo, "kalanga", user.KindStudent, null.StringFrom(schA.ID), null.StringFrom(grpA.ID), true)
	studentA2 := testutil.CreateUser(t, userRepo, "mwamba", user.KindStudent, null.StringFrom(schA.ID), null.StringFrom(grpA.ID), true)
	studentB := testutil.CreateUser(t, userRepo, "tshims", user.KindStudent, null.StringFrom(schB.ID), null.StringFrom(grpB.ID), true)

	slotRepo := inmemdb.NewScheduleRepository(db)
	slotA := testutil.CreateSlot(t, slotRepo, grpA, subA, null.StringFrom(teacherA.ID), "monday", "08:00", "09:00")
	slotB := testutil.CreateSlot(t, slotRepo, grpB, subB, null.StringFrom(teacherB.ID), "monday", "08:00", "09:00")

	recA, err := svc.Mark(ctx, teacherA, slotA.ID, studentA.ID, attendance.StatusPresent)
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	if _, err = svc.Mark(ctx, teacherA, slotA.ID, studentA2.ID, attendance.StatusExcused); err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	recB, err := svc.Mark(ctx, teacherB, slotB.ID, studentB.ID, attendance.StatusPresent)
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}

	t.Run("filter narrows to the actor", func(t *testing.T) {
		tests := []struct {
			name  string
			actor user.User
			want  int
		}{
			{name: "admin sees all", actor: admin, want: 3},
			{name: "principal sees their school", actor: principalA, want: 2},
			{name: "teacher sees what they marked", actor: teacherA, want: 2},
			{name: "student sees their own rows", actor: studentA, want: 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				recs, err := svc.Filter(ctx, tt.actor, attendance.QueryFilter{})
				if err != nil {
					t.Fatalf("Filter() failed: %v", err)
				}
				if len(recs) != tt.want {
					t.Errorf("Filter() returned %d records; want %d", len(recs), tt.want)
				}
			})
		}
	})

	t.Run("explicit cross-school filter rejected", func(t *testing.T) {
		if _, err := svc.Filter(ctx, principalA, attendance.QueryFilter{SchoolID: schB.ID}); err != user.ErrScopeMismatch {
			t.Errorf("Filter() error = %v; want %v", err, user.ErrScopeMismatch)
		}
		recs, err := svc.Filter(ctx, principalA, attendance.QueryFilter{SchoolID: schA.ID})
		if err != nil {
			t.Fatalf("Filter() failed: %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("Filter() returned %d records; want 2", len(recs))
		}
	})

	t.Run("single record access", func(t *testing.T) {
		if _, err := svc.GetByID(ctx, admin, recB.ID); err != nil {
			t.Errorf("GetByID() by admin failed: %v", err)
		}
		if _, err := svc.GetByID(ctx, studentA, recA.ID); err != nil {
			t.Errorf("GetByID() by owner failed: %v", err)
		}
		if _, err := svc.GetByID(ctx, studentA, recB.ID); err != attendance.ErrNotFound {
			t.Errorf("GetByID() error = %v; want %v", err, attendance.ErrNotFound)
		}
		if _, err := svc.GetByID(ctx, teacherA, recB.ID); err != attendance.ErrNotFound {
			t.Errorf("GetByID() error = %v; want %v", err, attendance.ErrNotFound)
		}
		if _, err := svc.GetByID(ctx, principalA, recB.ID); err != user.ErrScopeMismatch {
			t.Errorf("GetByID() error = %v; want %v", err, user.ErrScopeMismatch)
		}
	})

	t.Run("deletion is held to the actor's school", func(t *testing.T) {
		if err := svc.Delete(ctx, teacherA, recA.ID); !core.IsNotAllowed(err) {
			t.Errorf("Delete() by a teacher: error = %v; want NotAllowed", err)
		}
		if err := svc.Delete(ctx, principalA, recB.ID); err != user.ErrScopeMismatch {
			t.Errorf("Delete() across schools: error = %v; want %v", err, user.ErrScopeMismatch)
		}
		if err := svc.Delete(ctx, principalA, recA.ID); err != nil {
			t.Errorf("Delete() failed: %v", err)
		}
		if _, err := svc.GetByID(ctx, admin, recA.ID); err != attendance.ErrNotFound {
			t.Errorf("GetByID() after delete: error = %v; want %v", err, attendance.ErrNotFound)
		}
	})
}
