package school_test

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*school.Service, school.Repository, *inmemdb.DB) {
	t.Helper()
	db := inmemdb.Open()
	repo := inmemdb.NewSchoolRepository(db)
	svc := school.NewService(repo, core.NopLogger{})
	return svc, repo, db
}

func Test_schoolService_Update(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()

	sch := testutil.CreateSchool(t, repo, "School A")
	userRepo := inmemdb.NewUserRepository(db)
	admin := testutil.CreateUser(t, userRepo, "madimba", user.KindAdmin, null.String{}, null.String{}, true)
	principal := testutil.CreateUser(t, userRepo, "mmekutima", user.KindPrincipal, null.StringFrom(sch.ID), null.String{}, true)
	teacher := testutil.CreateUser(t, userRepo, "mrkabasele", user.KindTeacher, null.StringFrom(sch.ID), null.String{}, true)

	t.Run("rename leaves the active flag alone", func(t *testing.T) {
		got, err := svc.Update(ctx, principal, sch.ID, school.UpdateSchool{Name: "School A, renamed", Address: "12 Av. Kasavubu"})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.Name != "School A, renamed" {
			t.Errorf("Update() Name = %q; want %q", got.Name, "School A, renamed")
		}
		if !got.IsActive {
			t.Errorf("Update() IsActive = false; want true")
		}
		if !got.CreatedAt.Equal(sch.CreatedAt) {
			t.Errorf("Update() CreatedAt = %v; want %v", got.CreatedAt, sch.CreatedAt)
		}
	})

	t.Run("explicit deactivation", func(t *testing.T) {
		inactive := false
		got, err := svc.Update(ctx, admin, sch.ID, school.UpdateSchool{IsActive: &inactive})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.IsActive {
			t.Errorf("Update() IsActive = true; want false")
		}
		if got.Name != "School A, renamed" {
			t.Errorf("Update() Name = %q; want the previous name kept", got.Name)
		}

		got, err = svc.Update(ctx, admin, sch.ID, school.UpdateSchool{Country: "CG"})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.IsActive {
			t.Errorf("Update() IsActive = true; want the deactivation kept")
		}
	})

	t.Run("denied actors", func(t *testing.T) {
		if _, err := svc.Update(ctx, teacher, sch.ID, school.UpdateSchool{Name: "Nope"}); !core.IsNotAllowed(err) {
			t.Errorf("Update() by a teacher: error = %v; want NotAllowed", err)
		}
		other := testutil.CreateSchool(t, repo, "School B")
		if _, err := svc.Update(ctx, principal, other.ID, school.UpdateSchool{Name: "Nope"}); err != user.ErrScopeMismatch {
			t.Errorf("Update() across schools: error = %v; want %v", err, user.ErrScopeMismatch)
		}
	})
}
