// Package services holds the application logic between the HTTP layer and
// storage. Services own authorization and validation; storage owns SQL.
package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// storageErr passes domain sentinels through untouched and converts any
// other storage failure into core.ErrDatabase, logging the original cause
// so the detail never leaks to clients.
func storageErr(ctx context.Context, logger *log.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{core.ErrNotFound, core.ErrForbidden, core.ErrConflict, core.ErrUnauthorized} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	logger.ErrorContext(ctx, "storage operation failed",
		log.FieldOperation, op,
		log.FieldError, err)
	return fmt.Errorf("%s: %w", op, core.ErrDatabase)
}
