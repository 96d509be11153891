package subject_test

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_subjectService_AssignTeacher(t *testing.T) {
	db := inmemdb.Open()
	ctx := context.Background()

	schoolRepo := inmemdb.NewSchoolRepository(db)
	svc := subject.NewService(inmemdb.NewSubjectRepository(db), schoolRepo, inmemdb.NewUserRepository(db), core.NopLogger{})

	schA := testutil.CreateSchool(t, schoolRepo, "School A")
	schB := testutil.CreateSchool(t, schoolRepo, "School B")
	sub := testutil.CreateSubject(t, inmemdb.NewSubjectRepository(db), schA, "Maths")

	userRepo := inmemdb.NewUserRepository(db)
	principalA := testutil.CreateUser(t, userRepo, "mmekutima", user.KindPrincipal, null.StringFrom(schA.ID), null.String{}, true)
	principalB := testutil.CreateUser(t, userRepo, "mbuyamba", user.KindPrincipal, null.StringFrom(schB.ID), null.String{}, true)
	teacherA := testutil.CreateUser(t, userRepo, "mrkabasele", user.KindTeacher, null.StringFrom(schA.ID), null.String{}, true)
	teacherB := testutil.CreateUser(t, userRepo, "mrilunga", user.KindTeacher, null.StringFrom(schB.ID), null.String{}, true)
	student := testutil.CreateUser(t, userRepo, "kalanga", user.KindStudent, null.StringFrom(schA.ID), null.String{}, true)

	if err := svc.AssignTeacher(ctx, principalA, sub.ID, teacherA.ID); err != nil {
		t.Fatalf("AssignTeacher() failed: %v", err)
	}
	teacherIDs, err := svc.QueryTeachers(ctx, principalA, sub.ID)
	if err != nil {
		t.Fatalf("QueryTeachers() failed: %v", err)
	}
	if len(teacherIDs) != 1 || teacherIDs[0] != teacherA.ID {
		t.Errorf("QueryTeachers() = %v; want [%s]", teacherIDs, teacherA.ID)
	}

	if err := svc.AssignTeacher(ctx, principalA, sub.ID, teacherA.ID); err != subject.ErrTeacherAssigned {
		t.Errorf("AssignTeacher() again: error = %v; want %v", err, subject.ErrTeacherAssigned)
	}
	if err := svc.AssignTeacher(ctx, principalA, sub.ID, teacherB.ID); err != user.ErrScopeMismatch {
		t.Errorf("AssignTeacher() across schools: error = %v; want %v", err, user.ErrScopeMismatch)
	}
	if err := svc.AssignTeacher(ctx, principalB, sub.ID, teacherA.ID); err != user.ErrScopeMismatch {
		t.Errorf("AssignTeacher() on another school's subject: error = %v; want %v", err, user.ErrScopeMismatch)
	}
	if err := svc.AssignTeacher(ctx, principalA, sub.ID, student.ID); !core.IsNotFound(err) {
		t.Errorf("AssignTeacher() on a non-teacher: error = %v; want NotFound", err)
	}
	if err := svc.AssignTeacher(ctx, teacherA, sub.ID, teacherA.ID); !core.IsNotAllowed(err) {
		t.Errorf("AssignTeacher() by a teacher: error = %v; want NotAllowed", err)
	}
}
