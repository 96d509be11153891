package user_test

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func TestNewUser_Validate(t *testing.T) {
	db := inmemdb.Open()
	repo := inmemdb.NewUserRepository(db)
	svc := user.NewService(repo, core.NopLogger{})
	testutil.CreateUser(t, repo, "kalanga", user.KindStudent, null.String{}, null.String{}, true)

	newUser := func() user.NewUser {
		return user.NewUser{
			Username:        "mujinga",
			Email:           "mujinga@test.test",
			FirstName:       "Mujinga",
			Kind:            user.KindStudent,
			Password:        "S3cr3t.Pwd",
			PasswordConfirm: "S3cr3t.Pwd",
		}
	}

	tests := []struct {
		name    string
		mutate  func(nu *user.NewUser)
		wantErr bool
	}{
		{name: "ok", mutate: func(nu *user.NewUser) {}},
		{name: "username too short", mutate: func(nu *user.NewUser) { nu.Username = "mj" }, wantErr: true},
		{name: "username with symbols", mutate: func(nu *user.NewUser) { nu.Username = "mujinga!" }, wantErr: true},
		{name: "bad email", mutate: func(nu *user.NewUser) { nu.Email = "nope" }, wantErr: true},
		{name: "unknown kind", mutate: func(nu *user.NewUser) { nu.Kind = "alien" }, wantErr: true},
		{name: "password mismatch", mutate: func(nu *user.NewUser) { nu.PasswordConfirm = "S3cr3t.Pw" }, wantErr: true},
		{
			name: "password too short",
			mutate: func(nu *user.NewUser) {
				nu.Password = "S3c.t"
				nu.PasswordConfirm = nu.Password
			},
			wantErr: true,
		},
		{
			name: "password entirely numeric",
			mutate: func(nu *user.NewUser) {
				nu.Password = "83152904478"
				nu.PasswordConfirm = nu.Password
			},
			wantErr: true,
		},
		{
			name: "password lacking complexity",
			mutate: func(nu *user.NewUser) {
				nu.Password = "secretpwd1"
				nu.PasswordConfirm = nu.Password
			},
			wantErr: true,
		},
		{
			name: "password too similar to the username",
			mutate: func(nu *user.NewUser) {
				nu.Password = "Mujinga.1"
				nu.PasswordConfirm = nu.Password
			},
			wantErr: true,
		},
		{name: "username taken", mutate: func(nu *user.NewUser) { nu.Username = "kalanga" }, wantErr: true},
		{name: "email taken", mutate: func(nu *user.NewUser) { nu.Email = "kalanga@test.test" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := newUser()
			tt.mutate(&nu)
			err := nu.Validate(svc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
