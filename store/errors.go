package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"referral-credit-system/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgAdminShutdown        = "57P01"
	pgCannotConnectNow     = "57P03"
)

var kinds = []error{
	models.ErrNotFound,
	models.ErrConflict,
	models.ErrValidation,
	models.ErrTransactionAbort,
	models.ErrStoreUnavailable,
}

// Classify maps driver and gorm errors onto the ledger error kinds.
// Errors that already carry a kind, and context errors, pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", models.ErrConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected:
			return fmt.Errorf("%w: %w", models.ErrTransactionAbort, err)
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %w", models.ErrConflict, err)
		case pgErr.Code == pgAdminShutdown, pgErr.Code == pgCannotConnectNow, strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}

	// SQLite reports writer contention as SQLITE_BUSY
	if strings.Contains(err.Error(), "database is locked") {
		return fmt.Errorf("%w: %w", models.ErrTransactionAbort, err)
	}
	return err
}
