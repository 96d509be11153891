// Package inmemdb is a map-backed storage used by tests. It enforces the same
// unique keys and referential checks as the postgres implementation, returning
// conflicts that carry the matching constraint names.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/invite"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/subject"
	"github.com/trezcool/darasa/core/user"
)

type DB struct {
	mu sync.RWMutex

	users           map[string]*user.User
	schools         map[string]*school.School
	groups          map[string]*group.Group
	subjects        map[string]*subject.Subject
	subjectTeachers map[string]map[string]bool // subject id -> teacher ids
	slots           map[string]*schedule.Slot
	attendance      map[string]*attendance.Record
	grades          map[string]*grade.Record
	invitations     map[string]*invite.Invitation
}

func Open() *DB {
	return &DB{
		users:           make(map[string]*user.User),
		schools:         make(map[string]*school.School),
		groups:          make(map[string]*group.Group),
		subjects:        make(map[string]*subject.Subject),
		subjectTeachers: make(map[string]map[string]bool),
		slots:           make(map[string]*schedule.Slot),
		attendance:      make(map[string]*attendance.Record),
		grades:          make(map[string]*grade.Record),
		invitations:     make(map[string]*invite.Invitation),
	}
}
