package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind string

const (
	KindNone       Kind = ""
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForeignKey Kind = "foreign_key"
	KindRetryable  Kind = "retryable"
	KindInternal   Kind = "internal"
)

// Classify maps driver and gorm failures onto a small set of kinds services can branch on.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return KindConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindForeignKey
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return KindConflict
		case "23503":
			return KindForeignKey
		case "40001", "40P01", "55P03":
			return KindRetryable
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key"):
		return KindForeignKey
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return KindConflict
	case strings.Contains(msg, "deadlock"), strings.Contains(msg, "database is locked"):
		return KindRetryable
	default:
		return KindInternal
	}
}

func IsForeignKeyViolation(err error) bool { return Classify(err) == KindForeignKey }
func IsNotFound(err error) bool            { return Classify(err) == KindNotFound }
