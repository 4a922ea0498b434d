package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zoomvault/zoomvault/internal/models"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

// DownloadOptions configures a download phase.
type DownloadOptions struct {
	// BaseDir is the versioned backup root files land under.
	BaseDir string
	// MaxAttempts bounds download attempts per item before it is failed.
	MaxAttempts int
	// PassSleep is slept between drain passes when requeued items remain.
	PassSleep time.Duration
	// Extensions maps lowercased file types to file suffixes for listings
	// that omit an extension.
	Extensions map[string]string
}

// Downloader drains pending inventory items to disk and records their
// metadata. Items requeued by transient failures are picked up again on the
// next pass until their attempt budget runs out.
type Downloader struct {
	api    API
	inv    Inventory
	meta   MetadataSink
	opts   DownloadOptions
	logger *slog.Logger
}

// NewDownloader creates a download engine.
func NewDownloader(api API, inv Inventory, meta MetadataSink, opts DownloadOptions, logger *slog.Logger) *Downloader {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{api: api, inv: inv, meta: meta, opts: opts, logger: logger}
}

// Run drains the inventory until nothing is pending. Authentication and
// inventory write failures abort the phase; everything else is absorbed into
// the per-item status lifecycle.
func (d *Downloader) Run(ctx context.Context) (models.StatusTotals, error) {
	var totals models.StatusTotals

	for pass := 1; ; pass++ {
		items, err := d.inv.ListPending(ctx)
		if err != nil {
			return totals, fmt.Errorf("list pending items: %w", err)
		}
		if len(items) == 0 {
			break
		}
		if pass > 1 {
			d.logger.Info("retrying requeued items", "pass", pass, "remaining", len(items))
			if err := sleepCtx(ctx, d.opts.PassSleep); err != nil {
				return totals, err
			}
		}

		for i := range items {
			status, err := d.processItem(ctx, &items[i])
			if err != nil {
				return totals, err
			}
			switch status {
			case models.StatusDownloaded:
				totals.Downloaded++
			case models.StatusFailed:
				totals.Failed++
			case models.StatusSkipped:
				totals.Skipped++
			}
		}
	}

	d.logger.Info("download phase complete",
		"downloaded", totals.Downloaded, "failed", totals.Failed, "skipped", totals.Skipped)
	return totals, nil
}

// processItem runs one download attempt and returns the status the item
// landed in, or found if it was requeued for another pass.
func (d *Downloader) processItem(ctx context.Context, item *models.InventoryItem) (models.Status, error) {
	log := d.logger.With("item", item.Key(), "kind", item.Kind, "user", item.PrincipalEmail)

	if err := d.inv.MarkDownloading(ctx, item.ID); err != nil {
		return "", fmt.Errorf("claim item %s: %w", item.Key(), err)
	}
	attempt := item.AttemptCount + 1
	dest := destPath(d.opts.BaseDir, d.opts.Extensions, item)

	if fileExists(dest, item.FileSize) {
		// A previous attempt already transferred the file and failed later,
		// so only the bookkeeping is redone.
		log.Info("file already on disk, recording metadata", "path", dest)
	} else {
		n, err := d.api.DownloadFile(ctx, d.downloadURL(item, log), dest)
		if err != nil {
			return d.settleFailure(ctx, item, err, attempt, log)
		}
		log.Info("downloaded", "path", dest, "bytes", n, "attempt", attempt)
	}

	if err := d.saveMetadata(ctx, item, dest); err != nil {
		return d.settleFailure(ctx, item, err, attempt, log)
	}
	if err := d.inv.MarkDownloaded(ctx, item.ID); err != nil {
		return "", fmt.Errorf("finalize item %s: %w", item.Key(), err)
	}
	return models.StatusDownloaded, nil
}

// settleFailure routes a per-item failure into skipped, failed, or a requeue
// back to found. Authentication errors and cancellation stay phase-fatal.
func (d *Downloader) settleFailure(ctx context.Context, item *models.InventoryItem, cause error, attempt int, log *slog.Logger) (models.Status, error) {
	if errors.Is(cause, zoom.ErrAuth) || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return "", fmt.Errorf("download item %s: %w", item.Key(), cause)
	}

	if zoom.IsPermanent(cause) {
		if err := d.inv.MarkSkipped(ctx, item.ID, cause.Error()); err != nil {
			return "", fmt.Errorf("skip item %s: %w", item.Key(), err)
		}
		log.Warn("file gone on remote, skipping", "error", cause)
		return models.StatusSkipped, nil
	}

	status, err := d.inv.RequeueOrFail(ctx, item.ID, d.opts.MaxAttempts, cause.Error())
	if err != nil {
		return "", fmt.Errorf("requeue item %s: %w", item.Key(), err)
	}
	if status == models.StatusFailed {
		log.Error("attempt budget exhausted", "attempts", attempt, "error", cause)
	} else {
		log.Warn("attempt failed, requeued", "attempt", attempt, "error", cause)
	}
	return status, nil
}

// downloadURL returns the item's URL with the play passcode attached when
// the listing payload carries one.
func (d *Downloader) downloadURL(item *models.InventoryItem, log *slog.Logger) string {
	if item.Kind == models.KindPhone || len(item.Raw) == 0 {
		return item.DownloadURL
	}
	payload, err := decodeMeetingPayload(item.Raw)
	if err != nil {
		log.Warn("unreadable listing payload, downloading without passcode", "error", err)
		return item.DownloadURL
	}
	return zoom.AddPasscode(item.DownloadURL, payload.Meeting.PlayPasscode)
}

func (d *Downloader) saveMetadata(ctx context.Context, item *models.InventoryItem, path string) error {
	switch item.Kind {
	case models.KindPhone:
		payload, err := decodePhonePayload(item.Raw)
		if err != nil {
			return err
		}
		rec := payload.Recording
		return d.meta.SavePhoneMetadata(ctx, &models.PhoneRecording{
			RecordingID:  rec.ID,
			CallID:       rec.CallID,
			CallerNumber: rec.CallerNumber,
			CalleeNumber: rec.CalleeNumber,
			CallerName:   rec.CallerName,
			CalleeName:   rec.CalleeName,
			Direction:    rec.Direction,
			StartTime:    rec.StartTime,
			EndTime:      rec.EndTime,
			Duration:     rec.Duration,
			FileType:     item.FileType,
			FileSize:     rec.FileSize,
			DownloadURL:  item.DownloadURL,
			Path:         path,
			OwnerID:      rec.OwnerID,
			OwnerEmail:   payload.OwnerEmail,
			Unprocessed:  item.Raw,
		})

	default:
		payload, err := decodeMeetingPayload(item.Raw)
		if err != nil {
			return err
		}
		rec := &models.MeetingRecording{
			MeetingID:     item.MeetingID,
			RecordingID:   item.RecordingID,
			FileID:        item.FileID,
			Topic:         item.Topic,
			HostID:        payload.Meeting.HostID,
			HostEmail:     item.PrincipalEmail,
			StartTime:     item.StartTime,
			Duration:      item.Duration,
			FileType:      item.FileType,
			FileSize:      item.FileSize,
			RecordingType: payload.File.RecordingType,
			DownloadURL:   item.DownloadURL,
			Path:          path,
			Unprocessed:   item.Raw,
		}
		if item.Kind == models.KindWebinar {
			return d.meta.SaveWebinarMetadata(ctx, rec)
		}
		return d.meta.SaveMeetingMetadata(ctx, rec)
	}
}

// fileExists reports whether dest is already fully on disk. A size mismatch
// means an interrupted transfer, which gets redone.
func fileExists(dest string, wantSize int64) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return wantSize == 0 || info.Size() == wantSize
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
