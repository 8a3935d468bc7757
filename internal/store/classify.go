package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/persistorai/vchain/internal/models"
)

// classify marks transport-level failures as models.ErrStoreUnavailable so
// callers can decide on fallback without knowing the backend. Cancellation
// by the caller is passed through unchanged.
func classify(err error) error {
	if err == nil || errors.Is(err, models.ErrStoreUnavailable) || errors.Is(err, context.Canceled) {
		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error

	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err):
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	default:
		return err
	}
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
