package backup

import (
	"encoding/json"
	"fmt"

	"github.com/zoomvault/zoomvault/internal/zoom"
)

// meetingPayload is the raw listing context stored with a meeting or webinar
// inventory item. The download phase needs it for the play passcode and the
// metadata row, without re-calling the listing API.
type meetingPayload struct {
	Meeting   zoom.Meeting       `json:"meeting"`
	File      zoom.RecordingFile `json:"file"`
	HostEmail string             `json:"host_email"`
}

// phonePayload is the raw listing context stored with a phone inventory item.
type phonePayload struct {
	Recording  zoom.PhoneRecording `json:"recording"`
	OwnerEmail string              `json:"owner_email"`
}

func encodeMeetingPayload(meeting zoom.Meeting, file zoom.RecordingFile, hostEmail string) (json.RawMessage, error) {
	// The file list is dropped from the embedded meeting so each item only
	// carries its own file.
	meeting.RecordingFiles = nil
	raw, err := json.Marshal(meetingPayload{Meeting: meeting, File: file, HostEmail: hostEmail})
	if err != nil {
		return nil, fmt.Errorf("encode meeting payload: %w", err)
	}
	return raw, nil
}

func decodeMeetingPayload(raw json.RawMessage) (*meetingPayload, error) {
	var p meetingPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode meeting payload: %w", err)
	}
	return &p, nil
}

func encodePhonePayload(rec zoom.PhoneRecording, ownerEmail string) (json.RawMessage, error) {
	raw, err := json.Marshal(phonePayload{Recording: rec, OwnerEmail: ownerEmail})
	if err != nil {
		return nil, fmt.Errorf("encode phone payload: %w", err)
	}
	return raw, nil
}

func decodePhonePayload(raw json.RawMessage) (*phonePayload, error) {
	var p phonePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode phone payload: %w", err)
	}
	return &p, nil
}
