package models

import (
	"encoding/json"
	"time"
)

// MeetingRecording is the metadata row persisted for a downloaded meeting or
// webinar recording file.
type MeetingRecording struct {
	MeetingID     string
	RecordingID   string
	FileID        string
	Topic         string
	HostID        string
	HostEmail     string
	StartTime     time.Time
	Duration      int
	FileType      string
	FileSize      int64
	RecordingType string
	DownloadURL   string
	Path          string
	Unprocessed   json.RawMessage
}

// PhoneRecording is the metadata row persisted for a downloaded phone call
// recording.
type PhoneRecording struct {
	RecordingID  string
	CallID       string
	CallerNumber string
	CalleeNumber string
	CallerName   string
	CalleeName   string
	Direction    string
	StartTime    time.Time
	EndTime      *time.Time
	Duration     int
	FileType     string
	FileSize     int64
	DownloadURL  string
	Path         string
	OwnerID      string
	OwnerEmail   string
	Unprocessed  json.RawMessage
}
