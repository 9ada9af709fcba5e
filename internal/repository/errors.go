package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"ticketmanager/internal/entities"
)

// storeError maps driver failures onto the error taxonomy. Errors that are
// already classified pass through untouched.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		entities.ErrValidation,
		entities.ErrInsufficientInventory,
		entities.ErrConflict,
		entities.ErrNotFound,
		entities.ErrAlreadyRedeemed,
		entities.ErrTransientStore,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Detail, entities.ErrNotFound)
		case code == pgerrcode.InvalidTextRepresentation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Message, entities.ErrValidation)
		case code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Detail, entities.ErrConflict)
		case pgerrcode.IsConnectionException(code),
			pgerrcode.IsTransactionRollback(code),
			pgerrcode.IsInsufficientResources(code),
			code == pgerrcode.QueryCanceled,
			code == pgerrcode.AdminShutdown,
			code == pgerrcode.CannotConnectNow:
			return fmt.Errorf("%s: %v: %w", op, err, entities.ErrTransientStore)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%s: %v: %w", op, err, entities.ErrTransientStore)
	}

	return fmt.Errorf("%s: %w", op, err)
}
