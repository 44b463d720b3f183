package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestNormalize_NoRows(t *testing.T) {
	err := Normalize(pgx.ErrNoRows)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalize_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := Normalize(fmt.Errorf("insert user: %w", pgErr))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	cause := errors.New("connection refused")
	if got := Normalize(cause); got != cause {
		t.Errorf("expected passthrough, got %v", got)
	}
	if Normalize(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestIsMissingRelation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01"}
	if !IsMissingRelation(fmt.Errorf("query: %w", pgErr)) {
		t.Error("expected missing-relation detection for 42P01")
	}
	if IsMissingRelation(errors.New("other")) {
		t.Error("expected false for unrelated error")
	}
}
