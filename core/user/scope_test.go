package user

import (
	"testing"

	"github.com/volatiletech/null/v8"
)

func TestResolveScope(t *testing.T) {
	tests := []struct {
		name             string
		usr              User
		wantUnrestricted bool
		wantSchoolID     string
		wantErr          error
	}{
		{name: "admin is unrestricted", usr: User{Kind: KindAdmin}, wantUnrestricted: true},
		{name: "assigned principal", usr: User{Kind: KindPrincipal, SchoolID: null.StringFrom("sch1")}, wantSchoolID: "sch1"},
		{name: "assigned teacher", usr: User{Kind: KindTeacher, SchoolID: null.StringFrom("sch1")}, wantSchoolID: "sch1"},
		{name: "assigned student", usr: User{Kind: KindStudent, SchoolID: null.StringFrom("sch2")}, wantSchoolID: "sch2"},
		{name: "unassigned principal", usr: User{Kind: KindPrincipal}, wantErr: ErrNotAssigned},
		{name: "unassigned teacher", usr: User{Kind: KindTeacher}, wantErr: ErrNotAssigned},
		{name: "unassigned student", usr: User{Kind: KindStudent}, wantErr: ErrNotAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := ResolveScope(tt.usr)
			if err != tt.wantErr {
				t.Fatalf("ResolveScope() error = %v; want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if scope.Unrestricted() != tt.wantUnrestricted {
				t.Errorf("Unrestricted() = %v; want %v", scope.Unrestricted(), tt.wantUnrestricted)
			}
			if scope.SchoolID() != tt.wantSchoolID {
				t.Errorf("SchoolID() = %q; want %q", scope.SchoolID(), tt.wantSchoolID)
			}
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		if _, err := ResolveScope(User{Kind: "alien"}); err == nil {
			t.Error("ResolveScope() expected an error")
		}
	})
}

func TestScope_EffectiveSchool(t *testing.T) {
	tests := []struct {
		name     string
		scope    Scope
		explicit null.String
		want     null.String
		wantErr  error
	}{
		{name: "unrestricted passes explicit through", scope: UnrestrictedScope(), explicit: null.StringFrom("sch1"), want: null.StringFrom("sch1")},
		{name: "unrestricted passes absence through", scope: UnrestrictedScope()},
		{name: "scoped defaults to own school", scope: SchoolScope("sch1"), want: null.StringFrom("sch1")},
		{name: "scoped accepts own school", scope: SchoolScope("sch1"), explicit: null.StringFrom("sch1"), want: null.StringFrom("sch1")},
		{name: "scoped rejects other school", scope: SchoolScope("sch1"), explicit: null.StringFrom("sch2"), wantErr: ErrScopeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scope.EffectiveSchool(tt.explicit)
			if err != tt.wantErr {
				t.Fatalf("EffectiveSchool() error = %v; want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("EffectiveSchool() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestScope_AllowSchool(t *testing.T) {
	if err := UnrestrictedScope().AllowSchool("sch1"); err != nil {
		t.Errorf("AllowSchool() error = %v; want nil", err)
	}
	if err := SchoolScope("sch1").AllowSchool("sch1"); err != nil {
		t.Errorf("AllowSchool() error = %v; want nil", err)
	}
	if err := SchoolScope("sch1").AllowSchool("sch2"); err != ErrScopeMismatch {
		t.Errorf("AllowSchool() error = %v; want %v", err, ErrScopeMismatch)
	}
}
