package logsvc

import (
	"io"
	"log"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

func Test_RollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{std: log.New(io.Discard, "", 0)}
	usr := user.User{
		ID:       "u1",
		Username: "mmekutima",
		Email:    "mmekutima@test.test",
		Kind:     user.KindPrincipal,
		SchoolID: null.StringFrom("sch1"),
	}

	args := l.prepare("school deletion denied", []interface{}{"actor", usr.ID, "school", "sch2", usr})

	if args[0] != "school deletion denied" {
		t.Fatalf("args[0] = %v; want the message", args[0])
	}
	extras, ok := args[len(args)-1].(map[string]interface{})
	if !ok {
		t.Fatalf("last arg = %T; want the extras map", args[len(args)-1])
	}
	want := map[string]interface{}{
		"actor":        "u1",
		"school":       "sch2",
		"actor_kind":   user.KindPrincipal,
		"actor_school": "sch1",
	}
	for key, val := range want {
		if extras[key] != val {
			t.Errorf("extras[%q] = %v; want %v", key, extras[key], val)
		}
	}

	t.Run("kv keys survive without a user arg", func(t *testing.T) {
		args := l.prepare("timetable read denied", []interface{}{"actor", "u2"})
		extras, ok := args[len(args)-1].(map[string]interface{})
		if !ok {
			t.Fatalf("last arg = %T; want the extras map", args[len(args)-1])
		}
		if extras["actor"] != "u2" {
			t.Errorf("extras[%q] = %v; want %q", "actor", extras["actor"], "u2")
		}
	})
}
