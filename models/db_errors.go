package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UniqueViolationError is a store-level uniqueness failure. It matches ErrConflict.
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	if e.Constraint == "" {
		return "unique constraint violated"
	}
	return "unique constraint violated: " + e.Constraint
}

func (e *UniqueViolationError) Unwrap() error { return e.Err }

func (e *UniqueViolationError) Is(target error) bool { return target == ErrConflict }

const sqliteUniqueMarker = "UNIQUE constraint failed: "

// UniqueViolation reports whether err is a uniqueness failure and returns the
// constraint (postgres) or "table.column" list (sqlite) that was violated.
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv.Constraint, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return pgErr.ConstraintName, true
		}
		return "", false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	msg := err.Error()
	if i := strings.Index(msg, sqliteUniqueMarker); i >= 0 {
		rest := msg[i+len(sqliteUniqueMarker):]
		if j := strings.Index(rest, " ("); j >= 0 {
			rest = rest[:j]
		}
		return rest, true
	}
	return "", false
}

// TranslateError maps store errors onto the domain sentinels.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDomainError(err):
		return err
	}
	if constraint, ok := UniqueViolation(err); ok {
		return &UniqueViolationError{Constraint: constraint, Err: err}
	}
	return fmt.Errorf("database error: %w", err)
}

var domainErrors = []error{
	ErrNotFound, ErrPermissionDenied, ErrConflict, ErrInvalidEnum, ErrCommentRequired,
	ErrInvalidInviteCode, ErrInviteNotFound, ErrInviteExpired, ErrAlreadyMember,
	ErrNotTeamMember, ErrLeaderRemoval, ErrActivityLogImmutable,
}

func isDomainError(err error) bool {
	var fe *FieldError
	if errors.As(err, &fe) {
		return true
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
