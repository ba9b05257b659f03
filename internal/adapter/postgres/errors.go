package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// pgCodes maps SQLSTATE codes the note and audit tables can raise to the
// domain error the sync session reacts to.
var pgCodes = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation: an id echoed twice
	"23503": domain.ErrNotFound,      // foreign_key_violation
	"23514": domain.ErrValidation,    // check_violation: unknown category
	"22P02": domain.ErrValidation,    // invalid_text_representation: malformed uuid
	"22001": domain.ErrValidation,    // string_data_right_truncation
	"40001": domain.ErrConflict,      // serialization_failure
	"40P01": domain.ErrConflict,      // deadlock_detected
	"55P03": domain.ErrConflict,      // lock_not_available
}

// MapError converts pgx errors to domain errors, prefixed with the entity
// name and id. Context errors are wrapped but not mapped.
func MapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodes[pgErr.Code]; ok {
			return fmt.Errorf("%s %v: %w", entity, id, mapped)
		}
	}

	return fmt.Errorf("%s %v: %w", entity, id, err)
}
