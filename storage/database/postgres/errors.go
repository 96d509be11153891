package pgrepos

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation = "23505"
	pqFKViolation     = "23503"
)

// trapErr maps storage failures onto domain errors: missing rows to notFound,
// unique and foreign-key violations to conflicts carrying the violated
// constraint's name so callers can tell them apart.
func trapErr(err error, msg string, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation, pqFKViolation:
			return core.ConflictError(msg, pqErr.Constraint)
		}
	}
	return errors.Wrap(err, msg)
}
