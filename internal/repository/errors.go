package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate key")
	ErrForeignKey     = errors.New("referenced record does not exist")
	ErrCheckViolation = errors.New("check constraint violated")
)

// Constraint names shared by the postgres schema and the memory store
const (
	ConstraintUsersEmail      = "users_email_key"
	ConstraintUsersUsername   = "users_username_lower_key"
	ConstraintFollowsNoSelf   = "follows_no_self"
	ConstraintPhotosUser      = "photos_user_id_fkey"
	ConstraintFollowsFollower = "follows_follower_fkey"
	ConstraintFollowsFollowee = "follows_followee_fkey"
)

// ConstraintError reports which constraint rejected a write
type ConstraintError struct {
	Kind       error
	Constraint string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Kind
}

// NewConstraintError builds a ConstraintError
func NewConstraintError(kind error, constraint string) error {
	return &ConstraintError{Kind: kind, Constraint: constraint}
}

// ConstraintName returns the violated constraint name, or "" if err is not a constraint violation
func ConstraintName(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// translate maps driver errors onto repository sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return NewConstraintError(ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return NewConstraintError(ErrForeignKey, pgErr.ConstraintName)
		case "23514":
			return NewConstraintError(ErrCheckViolation, pgErr.ConstraintName)
		}
	}
	return err
}
