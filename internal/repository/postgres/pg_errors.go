package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/venuebook/venuebook/internal/repository"
)

// IsRetryable reports whether the transaction failed due to a serialization
// or deadlock error and may be retried as-is.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	// A timed-out write may still have landed; callers must re-check state
	// before retrying, so this maps to a retryable sentinel, not a failure.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return repository.ErrUnavailable
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		// unique_violation, exclusion_violation (booking range overlap)
		case "23505", "23P01":
			return repository.ErrConflict
		}
	}

	return err
}
