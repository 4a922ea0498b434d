// Package backup implements the two-phase pipeline: discovery walks the
// account's recordings into a durable inventory, and download drains that
// inventory to disk with a bounded attempt budget per item.
package backup

import (
	"context"

	"github.com/zoomvault/zoomvault/internal/models"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

// Inventory is the durable item store the pipeline runs against.
type Inventory interface {
	UpsertInventory(ctx context.Context, item *models.InventoryItem) (bool, error)
	ListPending(ctx context.Context) ([]models.InventoryItem, error)
	MarkDownloading(ctx context.Context, id int64) error
	MarkDownloaded(ctx context.Context, id int64) error
	RequeueOrFail(ctx context.Context, id int64, maxAttempts int, lastError string) (models.Status, error)
	MarkSkipped(ctx context.Context, id int64, reason string) error
}

// MetadataSink persists full recording metadata alongside downloaded files.
type MetadataSink interface {
	SaveMeetingMetadata(ctx context.Context, rec *models.MeetingRecording) error
	SaveWebinarMetadata(ctx context.Context, rec *models.MeetingRecording) error
	SavePhoneMetadata(ctx context.Context, rec *models.PhoneRecording) error
}

// API is the remote surface the pipeline consumes.
type API interface {
	ListUsers(ctx context.Context, pageSize int) ([]zoom.User, error)
	ListMeetingRecordings(ctx context.Context, email string, win models.DateWindow, pageSize int, pageToken string) (*zoom.MeetingRecordingsPage, error)
	ListWebinarRecordings(ctx context.Context, email string, win models.DateWindow, pageSize int, pageToken string) (*zoom.WebinarRecordingsPage, error)
	ListPhoneRecordings(ctx context.Context, email string, win models.DateWindow, pageSize int, pageToken string) (*zoom.PhoneRecordingsPage, error)
	DownloadFile(ctx context.Context, rawURL, destPath string) (int64, error)
}
