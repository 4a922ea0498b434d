package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoomvault/zoomvault/internal/models"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

func downloadOpts(baseDir string) DownloadOptions {
	return DownloadOptions{BaseDir: baseDir, MaxAttempts: 3}
}

// seedMeetingItem puts one pending meeting item into the inventory, carrying
// a listing payload like discovery would have stored.
func seedMeetingItem(t *testing.T, inv *fakeInventory, fileID, downloadURL, passcode string) *models.InventoryItem {
	t.Helper()
	meeting := zoom.Meeting{
		UUID:         "uuid-1",
		ID:           81234567890,
		Topic:        "Weekly Sync",
		HostID:       "host-1",
		StartTime:    time.Date(2023, time.March, 14, 15, 0, 0, 0, time.UTC),
		Duration:     45,
		PlayPasscode: passcode,
	}
	file := zoom.RecordingFile{
		ID: fileID, FileType: "MP4", FileExtension: "mp4", FileSize: 4,
		RecordingType: "shared_screen_with_speaker_view", DownloadURL: downloadURL,
	}
	raw, err := encodeMeetingPayload(meeting, file, "host@example.com")
	require.NoError(t, err)

	item := &models.InventoryItem{
		Kind:           models.KindMeeting,
		RecordingID:    meeting.UUID,
		FileID:         fileID,
		MeetingID:      "81234567890",
		PrincipalEmail: "host@example.com",
		Topic:          meeting.Topic,
		StartTime:      meeting.StartTime,
		Duration:       meeting.Duration,
		FileType:       file.FileType,
		FileExtension:  file.FileExtension,
		FileSize:       file.FileSize,
		DownloadURL:    downloadURL,
		Raw:            raw,
	}
	_, err = inv.UpsertInventory(context.Background(), item)
	require.NoError(t, err)
	return item
}

func TestDownloadSuccess(t *testing.T) {
	baseDir := t.TempDir()
	api := newFakeAPI()
	inv := newFakeInventory()
	sink := &fakeSink{}
	item := seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "")

	d := NewDownloader(api, inv, sink, downloadOpts(baseDir), nil)
	totals, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusTotals{Downloaded: 1}, totals)

	got := inv.get(item.ID)
	assert.Equal(t, models.StatusDownloaded, got.Status)
	assert.Equal(t, 1, got.AttemptCount)
	assert.NotNil(t, got.DownloadedAt)

	require.Len(t, sink.meetings, 1)
	rec := sink.meetings[0]
	assert.Equal(t, "uuid-1", rec.RecordingID)
	assert.Equal(t, "shared_screen_with_speaker_view", rec.RecordingType)
	assert.FileExists(t, rec.Path)
	assert.Equal(t, filepath.Join(baseDir, "meetings", "host@example.com"), filepath.Dir(rec.Path))
}

func TestDownloadAddsPlayPasscode(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "s3cret")

	d := NewDownloader(api, inv, &fakeSink{}, downloadOpts(t.TempDir()), nil)
	_, err := d.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, api.downloadCalls, 1)
	assert.Contains(t, api.downloadCalls[0], "pwd=s3cret")
}

func TestDownloadPermanentErrorSkips(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	item := seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "")
	api.downloadErrs[item.DownloadURL] = []error{fmt.Errorf("%w: status 404", zoom.ErrNotFound)}

	d := NewDownloader(api, inv, &fakeSink{}, downloadOpts(t.TempDir()), nil)
	totals, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusTotals{Skipped: 1}, totals)

	got := inv.get(item.ID)
	assert.Equal(t, models.StatusSkipped, got.Status)
	assert.Equal(t, 1, got.AttemptCount, "a gone file never burns more than one attempt")
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "404")
}

func TestDownloadTransientFailureThenSuccess(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	sink := &fakeSink{}
	item := seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "")
	api.downloadErrs[item.DownloadURL] = []error{
		fmt.Errorf("%w: status 500", zoom.ErrServerError),
	}

	d := NewDownloader(api, inv, sink, downloadOpts(t.TempDir()), nil)
	totals, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusTotals{Downloaded: 1}, totals, "the requeued item succeeds on the next pass")

	got := inv.get(item.ID)
	assert.Equal(t, models.StatusDownloaded, got.Status)
	assert.Equal(t, 2, got.AttemptCount)
	assert.Len(t, sink.meetings, 1)
}

func TestDownloadExhaustsAttemptBudget(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	item := seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "")
	transient := fmt.Errorf("%w: status 503", zoom.ErrServerError)
	api.downloadErrs[item.DownloadURL] = []error{transient, transient, transient}

	d := NewDownloader(api, inv, &fakeSink{}, downloadOpts(t.TempDir()), nil)
	totals, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusTotals{Failed: 1}, totals)

	got := inv.get(item.ID)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, 3, got.AttemptCount)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "503")
}

func TestDownloadMetadataFailureKeepsFile(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	sink := &fakeSink{failures: 1}
	item := seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "")

	d := NewDownloader(api, inv, sink, downloadOpts(t.TempDir()), nil)
	totals, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusTotals{Downloaded: 1}, totals)

	got := inv.get(item.ID)
	assert.Equal(t, models.StatusDownloaded, got.Status)
	assert.Equal(t, 2, got.AttemptCount, "the metadata failure consumed one attempt")
	assert.Len(t, api.downloadCalls, 1, "the file on disk is not transferred again")
	assert.Len(t, sink.meetings, 1)
}

func TestDownloadAuthFailureAborts(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	item := seedMeetingItem(t, inv, "file-1", "https://example.com/f/1", "")
	api.downloadErrs[item.DownloadURL] = []error{fmt.Errorf("refresh token: %w", zoom.ErrAuth)}

	d := NewDownloader(api, inv, &fakeSink{}, downloadOpts(t.TempDir()), nil)
	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, zoom.ErrAuth)
}

func TestDownloadPhoneRecording(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	sink := &fakeSink{}

	rec := zoom.PhoneRecording{
		ID:           "phone-1",
		CallID:       "call-1",
		CallerNumber: "+15550100",
		CalleeNumber: "+15550101",
		Direction:    "inbound",
		StartTime:    time.Date(2023, time.May, 2, 10, 0, 0, 0, time.UTC),
		Duration:     300,
		FileSize:     4,
		DownloadURL:  "https://example.com/phone/1",
		OwnerID:      "u1",
	}
	raw, err := encodePhonePayload(rec, "user@example.com")
	require.NoError(t, err)
	item := &models.InventoryItem{
		Kind:           models.KindPhone,
		RecordingID:    rec.ID,
		FileID:         rec.ID,
		PrincipalEmail: "user@example.com",
		StartTime:      rec.StartTime,
		Duration:       rec.Duration,
		FileType:       "mp3",
		FileExtension:  "mp3",
		FileSize:       rec.FileSize,
		DownloadURL:    rec.DownloadURL,
		Raw:            raw,
	}
	_, err = inv.UpsertInventory(context.Background(), item)
	require.NoError(t, err)

	d := NewDownloader(api, inv, sink, downloadOpts(t.TempDir()), nil)
	totals, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusTotals{Downloaded: 1}, totals)

	require.Len(t, sink.phones, 1)
	saved := sink.phones[0]
	assert.Equal(t, "phone-1", saved.RecordingID)
	assert.Equal(t, "user@example.com", saved.OwnerEmail)
	assert.Equal(t, "call_phone-1_2023-05-02_10-00-00.mp3", filepath.Base(saved.Path))
	assert.Contains(t, saved.Path, filepath.Join("phone", "user@example.com"))
}

func TestDownloadMapsFileTypeToExtension(t *testing.T) {
	api := newFakeAPI()
	inv := newFakeInventory()
	sink := &fakeSink{}

	// Transcript listings commonly omit file_extension; the configured
	// mapping supplies the suffix.
	meeting := zoom.Meeting{
		UUID:      "uuid-1",
		ID:        81234567890,
		Topic:     "Weekly Sync",
		StartTime: time.Date(2023, time.March, 14, 15, 0, 0, 0, time.UTC),
	}
	file := zoom.RecordingFile{
		ID: "file-vtt", FileType: "TRANSCRIPT", FileSize: 4,
		DownloadURL: "https://example.com/f/vtt",
	}
	raw, err := encodeMeetingPayload(meeting, file, "host@example.com")
	require.NoError(t, err)
	item := &models.InventoryItem{
		Kind:           models.KindMeeting,
		RecordingID:    meeting.UUID,
		FileID:         file.ID,
		MeetingID:      "81234567890",
		PrincipalEmail: "host@example.com",
		Topic:          meeting.Topic,
		StartTime:      meeting.StartTime,
		FileType:       file.FileType,
		FileSize:       file.FileSize,
		DownloadURL:    file.DownloadURL,
		Raw:            raw,
	}
	_, err = inv.UpsertInventory(context.Background(), item)
	require.NoError(t, err)

	opts := downloadOpts(t.TempDir())
	opts.Extensions = map[string]string{"transcript": "vtt", "chat": "txt"}
	d := NewDownloader(api, inv, sink, opts, nil)
	_, err = d.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.meetings, 1)
	assert.Equal(t, "2023-03-14_15-00-00_Weekly_Sync_file-vtt.vtt", filepath.Base(sink.meetings[0].Path))
}

func TestExtension(t *testing.T) {
	exts := map[string]string{"transcript": "vtt", "chat": "txt"}
	tests := []struct {
		fileExtension string
		fileType      string
		want          string
	}{
		{"MP4", "MP4", "mp4"},
		{"", "TRANSCRIPT", "vtt"},
		{"", "CHAT", "txt"},
		{"", "M4A", "m4a"},
		{"", "", "bin"},
	}
	for _, tt := range tests {
		item := &models.InventoryItem{FileExtension: tt.fileExtension, FileType: tt.fileType}
		assert.Equal(t, tt.want, extension(item, exts),
			"extension=%q type=%q", tt.fileExtension, tt.fileType)
	}
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "Weekly_Sync", safeFileName("Weekly Sync"))
	assert.Equal(t, "a_b_c_d", safeFileName(`a/b\c:d`))
	assert.Equal(t, "unnamed", safeFileName(""))
}
