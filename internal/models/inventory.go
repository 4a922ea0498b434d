// Package models defines data structures for the zoomvault backup pipeline.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status tracks an inventory item through the download lifecycle.
type Status string

const (
	StatusFound       Status = "found"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
)

// Terminal reports whether s allows no further transitions. Terminal rows are
// only ever touched again by an explicit operator reset.
func (s Status) Terminal() bool {
	switch s {
	case StatusDownloaded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed by the
// download state machine. Transitions are monotonic: terminal states never
// regress automatically.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusFound:
		return next == StatusDownloading
	case StatusDownloading:
		switch next {
		case StatusDownloaded, StatusFound, StatusFailed, StatusSkipped:
			return true
		}
	}
	return false
}

// RecordingKind is the category of a recorded artifact.
type RecordingKind string

const (
	KindMeeting RecordingKind = "meeting"
	KindPhone   RecordingKind = "phone"
	KindWebinar RecordingKind = "webinar"
)

// ParseKind converts a configuration string into a RecordingKind.
func ParseKind(s string) (RecordingKind, error) {
	switch RecordingKind(s) {
	case KindMeeting, KindPhone, KindWebinar:
		return RecordingKind(s), nil
	}
	return "", fmt.Errorf("unknown recording kind %q", s)
}

// InventoryItem is one discovered recording file. A single meeting recording
// commonly yields several items (video, audio, transcript, chat), each keyed
// by (RecordingID, FileID).
type InventoryItem struct {
	ID             int64
	Kind           RecordingKind
	RecordingID    string
	FileID         string
	MeetingID      string
	PrincipalEmail string
	Topic          string
	StartTime      time.Time
	Duration       int
	FileType       string
	FileExtension  string
	FileSize       int64
	DownloadURL    string
	Status         Status
	AttemptCount   int
	FoundAt        time.Time
	DownloadedAt   *time.Time
	LastError      *string

	// Raw holds the listing payload the item was built from, so the download
	// phase can persist full metadata without re-calling the listing API.
	Raw json.RawMessage
}

// Key returns the composite identity of the item.
func (i *InventoryItem) Key() string {
	return i.RecordingID + "/" + i.FileID
}
