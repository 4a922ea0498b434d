package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zoomvault/zoomvault/internal/models"
)

// Store provides access to the versioned inventory and metadata tables.
type Store struct {
	pool    *pgxpool.Pool
	version string
}

// NewStore creates a store bound to one backup version. The version string
// must already be validated against the configuration's version pattern
// because it is interpolated into table names.
func NewStore(pool *pgxpool.Pool, version string) *Store {
	return &Store{pool: pool, version: version}
}

func (s *Store) table(base string) string {
	return base + "_" + s.version
}

const inventoryColumns = `id, kind, recording_id, file_id, meeting_id, principal_email,
	topic, start_time, duration, file_type, file_extension, file_size,
	download_url, status, attempt_count, found_at, downloaded_at, last_error, raw`

// UpsertInventory records a discovered item. On conflict with an existing
// (recording_id, file_id) row the identity fields are refreshed but status,
// attempt_count, last_error and downloaded_at are left untouched, so
// rediscovery never disturbs download progress. Returns true when the item
// was newly inserted.
func (s *Store) UpsertInventory(ctx context.Context, item *models.InventoryItem) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (kind, recording_id, file_id, meeting_id, principal_email,
			topic, start_time, duration, file_type, file_extension, file_size,
			download_url, status, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (recording_id, file_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			meeting_id = EXCLUDED.meeting_id,
			principal_email = EXCLUDED.principal_email,
			topic = EXCLUDED.topic,
			start_time = EXCLUDED.start_time,
			duration = EXCLUDED.duration,
			file_type = EXCLUDED.file_type,
			file_extension = EXCLUDED.file_extension,
			file_size = EXCLUDED.file_size,
			download_url = EXCLUDED.download_url,
			raw = EXCLUDED.raw
		RETURNING id, (xmax = 0) AS inserted`, s.table("recording_inventory"))

	var id int64
	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		item.Kind, item.RecordingID, item.FileID, item.MeetingID, item.PrincipalEmail,
		item.Topic, item.StartTime, item.Duration, item.FileType, item.FileExtension,
		item.FileSize, item.DownloadURL, models.StatusFound, item.Raw,
	).Scan(&id, &inserted)
	if err != nil {
		return false, wrapError(err)
	}
	item.ID = id
	return inserted, nil
}

// ListPending returns every item still waiting for a download attempt,
// oldest recording first so retries preserve a stable processing order.
func (s *Store) ListPending(ctx context.Context) ([]models.InventoryItem, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = $1
		ORDER BY start_time, id`, inventoryColumns, s.table("recording_inventory"))

	rows, err := s.pool.Query(ctx, query, models.StatusFound)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// MarkDownloading claims an item for a download attempt and bumps its
// attempt counter. Fails with ErrNotFound if the item is not in the found
// state, which guards against double processing.
func (s *Store) MarkDownloading(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, attempt_count = attempt_count + 1, last_error = NULL
		WHERE id = $2 AND status = $3`, s.table("recording_inventory"))

	tag, err := s.pool.Exec(ctx, query, models.StatusDownloading, id, models.StatusFound)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %d is not pending", ErrNotFound, id)
	}
	return nil
}

// MarkDownloaded finalizes a successful download.
func (s *Store) MarkDownloaded(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, downloaded_at = now(), last_error = NULL
		WHERE id = $2 AND status = $3`, s.table("recording_inventory"))

	tag, err := s.pool.Exec(ctx, query, models.StatusDownloaded, id, models.StatusDownloading)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %d is not downloading", ErrNotFound, id)
	}
	return nil
}

// RequeueOrFail records a failed attempt. The item goes back to found while
// attempts remain, and to failed once the budget is spent. The decision and
// the update happen in one statement so concurrent observers never see an
// intermediate state. Returns the status the item ended up in.
func (s *Store) RequeueOrFail(ctx context.Context, id int64, maxAttempts int, lastError string) (models.Status, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = CASE WHEN attempt_count >= $1 THEN $2::text ELSE $3::text END,
			last_error = $4
		WHERE id = $5 AND status = $6
		RETURNING status`, s.table("recording_inventory"))

	var status models.Status
	err := s.pool.QueryRow(ctx, query,
		maxAttempts, models.StatusFailed, models.StatusFound, lastError, id, models.StatusDownloading,
	).Scan(&status)
	if err != nil {
		return "", wrapError(err)
	}
	return status, nil
}

// MarkSkipped parks an item that can never download, such as a file the
// remote reports gone.
func (s *Store) MarkSkipped(ctx context.Context, id int64, reason string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, last_error = $2
		WHERE id = $3 AND status = $4`, s.table("recording_inventory"))

	tag, err := s.pool.Exec(ctx, query, models.StatusSkipped, reason, id, models.StatusDownloading)
	if err != nil {
		return wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: item %d is not downloading", ErrNotFound, id)
	}
	return nil
}

// ResetFailed moves every failed item back to found with a fresh attempt
// budget. Operator-driven, used by the retry-failed command.
func (s *Store) ResetFailed(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, attempt_count = 0, last_error = NULL, downloaded_at = NULL
		WHERE status = $2`, s.table("recording_inventory"))

	tag, err := s.pool.Exec(ctx, query, models.StatusFound, models.StatusFailed)
	if err != nil {
		return 0, wrapError(err)
	}
	return tag.RowsAffected(), nil
}

// GetItem fetches one inventory row by id.
func (s *Store) GetItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`,
		inventoryColumns, s.table("recording_inventory"))

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return &items[0], nil
}

// StatusCounts returns the inventory breakdown by status.
func (s *Store) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	query := fmt.Sprintf(`
		SELECT status, count(*) FROM %s
		GROUP BY status ORDER BY status`, s.table("recording_inventory"))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var c models.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, wrapError(err)
		}
		counts = append(counts, c)
	}
	return counts, wrapError(rows.Err())
}

// KindSummaries returns item counts and date coverage per recording kind.
func (s *Store) KindSummaries(ctx context.Context) ([]models.KindSummary, error) {
	query := fmt.Sprintf(`
		SELECT kind, count(*), min(start_time), max(start_time) FROM %s
		GROUP BY kind ORDER BY kind`, s.table("recording_inventory"))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var summaries []models.KindSummary
	for rows.Next() {
		var sum models.KindSummary
		if err := rows.Scan(&sum.Kind, &sum.Count, &sum.Earliest, &sum.Latest); err != nil {
			return nil, wrapError(err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, wrapError(rows.Err())
}

// YearDistribution returns per-year item counts by kind. Gaps in the
// distribution usually mean a discovery window or permission problem.
func (s *Store) YearDistribution(ctx context.Context) ([]models.YearCount, error) {
	query := fmt.Sprintf(`
		SELECT extract(year FROM start_time)::int AS year, kind, count(*) FROM %s
		GROUP BY year, kind ORDER BY year, kind`, s.table("recording_inventory"))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var years []models.YearCount
	for rows.Next() {
		var y models.YearCount
		if err := rows.Scan(&y.Year, &y.Kind, &y.Count); err != nil {
			return nil, wrapError(err)
		}
		years = append(years, y)
	}
	return years, wrapError(rows.Err())
}

func scanItems(rows pgx.Rows) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	for rows.Next() {
		var it models.InventoryItem
		err := rows.Scan(&it.ID, &it.Kind, &it.RecordingID, &it.FileID, &it.MeetingID,
			&it.PrincipalEmail, &it.Topic, &it.StartTime, &it.Duration, &it.FileType,
			&it.FileExtension, &it.FileSize, &it.DownloadURL, &it.Status,
			&it.AttemptCount, &it.FoundAt, &it.DownloadedAt, &it.LastError, &it.Raw)
		if err != nil {
			return nil, wrapError(err)
		}
		items = append(items, it)
	}
	return items, wrapError(rows.Err())
}
