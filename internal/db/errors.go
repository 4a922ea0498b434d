package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for store operations. Check with errors.Is.
var (
	// ErrNotFound indicates the requested inventory row does not exist, or
	// was not in the state the operation requires.
	ErrNotFound = errors.New("inventory item not found")

	// ErrConflict indicates a unique-constraint violation.
	ErrConflict = errors.New("duplicate inventory item")
)

// wrapError maps driver-level errors onto the package sentinels so callers
// never import pgx to classify a failure.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	return err
}
