package db

import (
	"context"
	"fmt"

	"github.com/zoomvault/zoomvault/internal/models"
)

// SaveMeetingMetadata persists the metadata row for a downloaded meeting
// recording file. Replays are harmless: an existing row is left as is.
func (s *Store) SaveMeetingMetadata(ctx context.Context, rec *models.MeetingRecording) error {
	return s.saveMeetingLike(ctx, s.table("meeting_recordings"), rec)
}

// SaveWebinarMetadata persists the metadata row for a downloaded webinar
// recording file.
func (s *Store) SaveWebinarMetadata(ctx context.Context, rec *models.MeetingRecording) error {
	return s.saveMeetingLike(ctx, s.table("webinar_recordings"), rec)
}

func (s *Store) saveMeetingLike(ctx context.Context, table string, rec *models.MeetingRecording) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (meeting_id, recording_id, file_id, topic, host_id, host_email,
			start_time, duration, file_type, file_size, recording_type,
			download_url, path, unprocessed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (recording_id, file_id) DO NOTHING`, table)

	_, err := s.pool.Exec(ctx, query,
		rec.MeetingID, rec.RecordingID, rec.FileID, rec.Topic, rec.HostID, rec.HostEmail,
		rec.StartTime, rec.Duration, rec.FileType, rec.FileSize, rec.RecordingType,
		rec.DownloadURL, rec.Path, rec.Unprocessed)
	return wrapError(err)
}

// SavePhoneMetadata persists the metadata row for a downloaded phone call
// recording.
func (s *Store) SavePhoneMetadata(ctx context.Context, rec *models.PhoneRecording) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (recording_id, call_id, caller_number, callee_number,
			caller_name, callee_name, direction, start_time, end_time, duration,
			file_type, file_size, download_url, path, owner_id, owner_email, unprocessed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (recording_id) DO NOTHING`, s.table("phone_recordings"))

	_, err := s.pool.Exec(ctx, query,
		rec.RecordingID, rec.CallID, rec.CallerNumber, rec.CalleeNumber,
		rec.CallerName, rec.CalleeName, rec.Direction, rec.StartTime, rec.EndTime,
		rec.Duration, rec.FileType, rec.FileSize, rec.DownloadURL, rec.Path,
		rec.OwnerID, rec.OwnerEmail, rec.Unprocessed)
	return wrapError(err)
}
