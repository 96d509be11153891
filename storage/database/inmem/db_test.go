package inmemdb

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_schoolRepository_DeleteSchoolsByID(t *testing.T) {
	db := Open()
	ctx := context.Background()

	schoolRepo := NewSchoolRepository(db)
	schA := testutil.CreateSchool(t, schoolRepo, "School A")
	schB := testutil.CreateSchool(t, schoolRepo, "School B")
	groupRepo := NewGroupRepository(db)
	grpA := testutil.CreateGroup(t, groupRepo, schA, 10, "B")
	grpB := testutil.CreateGroup(t, groupRepo, schB, 11, "A")
	subjectRepo := NewSubjectRepository(db)
	subA := testutil.CreateSubject(t, subjectRepo, schA, "Maths")
	subB := testutil.CreateSubject(t, subjectRepo, schB, "History")

	userRepo := NewUserRepository(db)
	teacherA := testutil.CreateUser(t, userRepo, "mrkabasele", user.KindTeacher, null.StringFrom(schA.ID), null.String{}, true)
	studentA := testutil.CreateUser(t, userRepo, "kalanga", user.KindStudent, null.StringFrom(schA.ID), null.StringFrom(grpA.ID), true)
	studentB := testutil.CreateUser(t, userRepo, "tshims", user.KindStudent, null.StringFrom(schB.ID), null.StringFrom(grpB.ID), true)

	slotRepo := NewScheduleRepository(db)
	slotA := testutil.CreateSlot(t, slotRepo, grpA, subA, null.StringFrom(teacherA.ID), "monday", "08:00", "09:00")
	slotB := testutil.CreateSlot(t, slotRepo, grpB, subB, null.String{}, "monday", "08:00", "09:00")

	attRepo := NewAttendanceRepository(db)
	if err := attRepo.CreateRecord(ctx, &attendance.Record{
		SlotID: slotA.ID, StudentID: studentA.ID, Status: attendance.StatusPresent, CreatedOn: attendance.Date(studentA.CreatedAt),
	}); err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	if err := attRepo.CreateRecord(ctx, &attendance.Record{
		SlotID: slotB.ID, StudentID: studentB.ID, Status: attendance.StatusPresent, CreatedOn: attendance.Date(studentB.CreatedAt),
	}); err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	gradeRepo := NewGradeRepository(db)
	if err := gradeRepo.CreateRecord(ctx, &grade.Record{
		SlotID: slotA.ID, StudentID: studentA.ID, System: grade.SystemGPA, ValueGPA: null.Float64From(3.5),
	}); err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}

	if err := schoolRepo.DeleteSchoolsByID(ctx, schA.ID); err != nil {
		t.Fatalf("DeleteSchoolsByID() failed: %v", err)
	}

	// the whole tenant goes away
	if _, err := schoolRepo.GetSchoolByID(ctx, schA.ID); !core.IsNotFound(err) {
		t.Errorf("GetSchoolByID() error = %v; want NotFound", err)
	}
	if _, err := groupRepo.GetGroupByID(ctx, grpA.ID); !core.IsNotFound(err) {
		t.Errorf("GetGroupByID() error = %v; want NotFound", err)
	}
	if _, err := subjectRepo.GetSubjectByID(ctx, subA.ID); !core.IsNotFound(err) {
		t.Errorf("GetSubjectByID() error = %v; want NotFound", err)
	}
	if _, err := slotRepo.GetSlotByID(ctx, slotA.ID); !core.IsNotFound(err) {
		t.Errorf("GetSlotByID() error = %v; want NotFound", err)
	}
	if recs, _ := attRepo.FilterRecords(ctx, attendance.QueryFilter{StudentID: studentA.ID}); len(recs) != 0 {
		t.Errorf("attendance rows survived the school: %v", recs)
	}
	if recs, _ := gradeRepo.FilterRecords(ctx, grade.QueryFilter{StudentID: studentA.ID}); len(recs) != 0 {
		t.Errorf("grade rows survived the school: %v", recs)
	}

	// accounts survive, unassigned
	for _, id := range []string{teacherA.ID, studentA.ID} {
		usr, err := userRepo.GetUserByID(ctx, id)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		if usr.SchoolID.Valid || usr.GroupID.Valid {
			t.Errorf("user %q still assigned: school=%v group=%v", usr.Username, usr.SchoolID, usr.GroupID)
		}
	}

	// the other tenant is untouched
	if _, err := schoolRepo.GetSchoolByID(ctx, schB.ID); err != nil {
		t.Errorf("GetSchoolByID() failed: %v", err)
	}
	if _, err := slotRepo.GetSlotByID(ctx, slotB.ID); err != nil {
		t.Errorf("GetSlotByID() failed: %v", err)
	}
	if recs, _ := attRepo.FilterRecords(ctx, attendance.QueryFilter{StudentID: studentB.ID}); len(recs) != 1 {
		t.Errorf("attendance rows = %d; want 1", len(recs))
	}
}

func Test_userRepository_FilterUsers_pagination(t *testing.T) {
	db := Open()
	ctx := context.Background()

	userRepo := NewUserRepository(db)
	for _, uname := range []string{"kalanga", "mwamba", "tshims", "ilunga", "kabasele"} {
		testutil.CreateUser(t, userRepo, uname, user.KindStudent, null.String{}, null.String{}, true)
	}

	all, err := userRepo.FilterUsers(ctx, user.QueryFilter{})
	if err != nil {
		t.Fatalf("FilterUsers() failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("FilterUsers() returned %d users; want 5", len(all))
	}

	tests := []struct {
		page, want int
	}{
		{page: 1, want: 2},
		{page: 2, want: 2},
		{page: 3, want: 1},
		{page: 4, want: 0},
	}
	for _, tt := range tests {
		users, err := userRepo.FilterUsers(ctx, user.QueryFilter{Page: tt.page, Limit: 2})
		if err != nil {
			t.Fatalf("FilterUsers() failed: %v", err)
		}
		if len(users) != tt.want {
			t.Errorf("FilterUsers() page %d returned %d users; want %d", tt.page, len(users), tt.want)
		}
	}
}

func Test_scheduleRepository_DeleteSlotsByID_blocked(t *testing.T) {
	db := Open()
	ctx := context.Background()

	sch := testutil.CreateSchool(t, NewSchoolRepository(db), "School A")
	grp := testutil.CreateGroup(t, NewGroupRepository(db), sch, 10, "B")
	sub := testutil.CreateSubject(t, NewSubjectRepository(db), sch, "Maths")
	student := testutil.CreateUser(t, NewUserRepository(db), "kalanga", user.KindStudent, null.StringFrom(sch.ID), null.StringFrom(grp.ID), true)
	slotRepo := NewScheduleRepository(db)
	slot := testutil.CreateSlot(t, slotRepo, grp, sub, null.String{}, "monday", "08:00", "09:00")

	if err := NewGradeRepository(db).CreateRecord(ctx, &grade.Record{
		SlotID: slot.ID, StudentID: student.ID, System: grade.SystemPercent, ValuePercent: null.Float64From(75),
	}); err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}

	err := slotRepo.DeleteSlotsByID(ctx, slot.ID)
	if !core.IsConflict(err) {
		t.Fatalf("DeleteSlotsByID() error = %v; want Conflict", err)
	}
	if got := core.ConflictConstraint(err); got != "grades_schedule_id_fkey" {
		t.Errorf("constraint = %q; want %q", got, "grades_schedule_id_fkey")
	}
	if _, err = slotRepo.GetSlotByID(ctx, slot.ID); err != nil {
		t.Errorf("GetSlotByID() after blocked delete failed: %v", err)
	}
}

func Test_subjectRepository_Delete_unlinksSlots(t *testing.T) {
	db := Open()
	ctx := context.Background()

	sch := testutil.CreateSchool(t, NewSchoolRepository(db), "School A")
	grp := testutil.CreateGroup(t, NewGroupRepository(db), sch, 10, "B")
	subjectRepo := NewSubjectRepository(db)
	sub := testutil.CreateSubject(t, subjectRepo, sch, "Maths")
	slotRepo := NewScheduleRepository(db)
	slot := testutil.CreateSlot(t, slotRepo, grp, sub, null.String{}, "monday", "08:00", "09:00")

	teacher := testutil.CreateUser(t, NewUserRepository(db), "mrkabasele", user.KindTeacher, null.StringFrom(sch.ID), null.String{}, true)
	if err := subjectRepo.AssignTeacher(ctx, sub.ID, teacher.ID); err != nil {
		t.Fatalf("AssignTeacher() failed: %v", err)
	}
	if err := subjectRepo.AssignTeacher(ctx, sub.ID, teacher.ID); err == nil || !core.IsConflict(err) {
		t.Errorf("AssignTeacher() again: error = %v; want Conflict", err)
	}

	if err := subjectRepo.DeleteSubjectsByID(ctx, sub.ID); err != nil {
		t.Fatalf("DeleteSubjectsByID() failed: %v", err)
	}
	got, err := slotRepo.GetSlotByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetSlotByID() failed: %v", err)
	}
	if got.SubjectID.Valid {
		t.Errorf("SubjectID = %v; want null", got.SubjectID)
	}
}
