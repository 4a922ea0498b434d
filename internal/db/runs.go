package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StartRun records the beginning of a discovery or download phase and
// returns the run id used to close it out.
func (s *Store) StartRun(ctx context.Context, phase string) (uuid.UUID, error) {
	id := uuid.New()
	query := fmt.Sprintf(`INSERT INTO %s (id, phase) VALUES ($1, $2)`, s.table("backup_runs"))
	if _, err := s.pool.Exec(ctx, query, id, phase); err != nil {
		return uuid.Nil, wrapError(err)
	}
	return id, nil
}

// FinishRun closes a run with its outcome. detail carries the error text for
// aborted runs and is empty otherwise.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, itemsProcessed int, outcome, detail string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET finished_at = now(), items_processed = $1, outcome = $2, detail = NULLIF($3, '')
		WHERE id = $4`, s.table("backup_runs"))

	tag, err := s.pool.Exec(ctx, query, itemsProcessed, outcome, detail, id)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return nil
}
