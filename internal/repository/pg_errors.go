package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// uniqueViolation reports whether err is a Postgres unique violation on
// the named constraint. Service-level pre-checks catch duplicates in
// the common path; this catches the race where two inserts pass the
// check before either commits. An empty constraint matches any unique
// violation.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
