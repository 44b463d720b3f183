package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel store errors. Repositories normalize every driver failure through
// Normalize so callers can branch with errors.Is instead of inspecting
// Postgres error codes.
var (
	// ErrNotFound is returned by by-key lookups that match zero rows. It is
	// a normal outcome, not a transport failure.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique constraint rejects a write, e.g.
	// a duplicate email or an exhausted patient-ID retry.
	ErrConflict = errors.New("record already exists")
)

// Normalize converts driver-level failures into the sentinel errors above.
// pgx.ErrNoRows becomes ErrNotFound; unique violations (23505) become
// ErrConflict. Anything else passes through unchanged.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// IsMissingRelation reports whether the error is an undefined-table failure
// (SQLSTATE 42P01), which means migrations have not been applied yet.
func IsMissingRelation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
