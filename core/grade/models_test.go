package grade

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/volatiletech/null/v8"
)

func TestAssignGrade_Resolve(t *testing.T) {
	numeric := func(v float64) *float64 { return &v }
	letter := func(v string) *string { return &v }
	passing := func(v bool) *bool { return &v }

	tests := []struct {
		name    string
		ag      AssignGrade
		want    Record
		wantErr error
	}{
		{
			name: "letter",
			ag:   AssignGrade{System: SystemLetter, Letter: letter("B+")},
			want: Record{System: SystemLetter, ValueLetter: null.StringFrom("B+")},
		},
		{
			name: "GPA",
			ag:   AssignGrade{System: SystemGPA, Numeric: numeric(3.7)},
			want: Record{System: SystemGPA, ValueGPA: null.Float64From(3.7)},
		},
		{
			name: "percent",
			ag:   AssignGrade{System: SystemPercent, Numeric: numeric(86.5)},
			want: Record{System: SystemPercent, ValuePercent: null.Float64From(86.5)},
		},
		{
			name: "5numerical truncates to an integer",
			ag:   AssignGrade{System: SystemFiveNumeric, Numeric: numeric(4.0)},
			want: Record{System: SystemFiveNumeric, ValueFiveNumeric: null.IntFrom(4)},
		},
		{
			name: "pass/fail",
			ag:   AssignGrade{System: SystemPassFail, Passing: passing(true)},
			want: Record{System: SystemPassFail, ValuePassing: null.BoolFrom(true)},
		},
		{
			name:    "no value supplied",
			ag:      AssignGrade{System: SystemGPA},
			wantErr: ErrNoData,
		},
		{
			name:    "letter system with a numeric value",
			ag:      AssignGrade{System: SystemLetter, Numeric: numeric(4)},
			wantErr: ErrNoData,
		},
		{
			name:    "numeric system with a letter value",
			ag:      AssignGrade{System: SystemGPA, Letter: letter("A")},
			wantErr: ErrNoData,
		},
		{
			name:    "pass/fail system with a numeric value",
			ag:      AssignGrade{System: SystemPassFail, Numeric: numeric(1)},
			wantErr: ErrNoData,
		},
		{
			name:    "more than one value supplied",
			ag:      AssignGrade{System: SystemLetter, Letter: letter("A"), Numeric: numeric(4)},
			wantErr: ErrNoData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ag.Resolve()
			if err != tt.wantErr {
				t.Fatalf("Resolve() error = %v; want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
