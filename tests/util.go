package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, kind string,
	schoolID, groupID null.String,
	isActive bool,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     uname + "@test.test",
		FirstName: uname,
		Kind:      kind,
		SchoolID:  schoolID,
		GroupID:   groupID,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword("S3cr3t.Pwd"); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name string) school.School {
	t.Helper()

	tstamp := time.Now().UTC()
	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:      name,
		Country:   "CD",
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateGroup(t *testing.T, repo group.Repository, sch school.School, grade int, section string) group.Group {
	t.Helper()

	tstamp := time.Now().UTC()
	grp, err := repo.CreateGroup(context.Background(), group.Group{
		Grade:        grade,
		GradeSection: section,
		SchoolID:     sch.ID,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func CreateSubject(t *testing.T, repo subject.Repository, sch school.School, name string) subject.Subject {
	t.Helper()

	tstamp := time.Now().UTC()
	sub, err := repo.CreateSubject(context.Background(), subject.Subject{
		Name:      name,
		SchoolID:  sch.ID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateSlot(
	t *testing.T,
	repo schedule.Repository,
	grp group.Group,
	sub subject.Subject,
	teacherID null.String,
	weekday, startAt, endAt string,
) schedule.Slot {
	t.Helper()

	slot, err := repo.CreateSlot(context.Background(), schedule.Slot{
		GroupID:   grp.ID,
		SchoolID:  grp.SchoolID,
		SubjectID: null.StringFrom(sub.ID),
		TeacherID: teacherID,
		Weekday:   weekday,
		StartAt:   startAt,
		EndAt:     endAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}
