package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// IsNoRows: query trả về 0 row
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique_violation on the given
// constraint. An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	return isCondition(err, "unique_violation", constraint)
}

// IsForeignKeyViolation reports a foreign_key_violation on the given constraint.
func IsForeignKeyViolation(err error, constraint string) bool {
	return isCondition(err, "foreign_key_violation", constraint)
}

func isCondition(err error, name, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// pq keeps the SQLSTATE -> condition name table
	if pq.ErrorCode(pgErr.Code).Name() != name {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
