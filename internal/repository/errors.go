package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from the migrations, used to tell apart the two
// unique indexes on users.
const (
	ConstraintUserEmail     = "users_email_lower_idx"
	ConstraintUserAuthToken = "users_authentication_token_key"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation on the named constraint. An empty name matches any.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
