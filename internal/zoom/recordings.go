package zoom

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/zoomvault/zoomvault/internal/models"
)

// RecordingFile is one downloadable file inside a meeting or webinar
// recording (video, audio, transcript, chat, ...).
type RecordingFile struct {
	ID            string `json:"id"`
	FileType      string `json:"file_type"`
	FileExtension string `json:"file_extension"`
	FileSize      int64  `json:"file_size"`
	RecordingType string `json:"recording_type"`
	Status        string `json:"status"`
	DownloadURL   string `json:"download_url"`
}

// Meeting is a recorded meeting or webinar as returned by the listing API.
type Meeting struct {
	UUID           string          `json:"uuid"`
	ID             int64           `json:"id"`
	Topic          string          `json:"topic"`
	HostID         string          `json:"host_id"`
	StartTime      time.Time       `json:"start_time"`
	Duration       int             `json:"duration"`
	PlayPasscode   string          `json:"recording_play_passcode"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

// MeetingRecordingsPage is one page of the meeting recordings listing.
type MeetingRecordingsPage struct {
	Meetings      []Meeting `json:"meetings"`
	NextPageToken string    `json:"next_page_token"`
}

// WebinarRecordingsPage is one page of the webinar recordings listing.
type WebinarRecordingsPage struct {
	Webinars      []Meeting `json:"webinars"`
	NextPageToken string    `json:"next_page_token"`
}

// PhoneRecording is one recorded phone call. Phone recordings always carry a
// single file.
type PhoneRecording struct {
	ID           string     `json:"id"`
	CallID       string     `json:"call_id"`
	CallerNumber string     `json:"caller_number"`
	CalleeNumber string     `json:"callee_number"`
	CallerName   string     `json:"caller_name"`
	CalleeName   string     `json:"callee_name"`
	Direction    string     `json:"direction"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Duration     int        `json:"duration"`
	FileSize     int64      `json:"file_size"`
	DownloadURL  string     `json:"download_url"`
	OwnerID      string     `json:"owner_id"`
}

// PhoneRecordingsPage is one page of the phone recordings listing.
type PhoneRecordingsPage struct {
	Recordings    []PhoneRecording `json:"recordings"`
	NextPageToken string           `json:"next_page_token"`
}

// ListMeetingRecordings fetches one page of a user's meeting recordings
// inside the window. The window must respect the API's maximum span.
func (c *Client) ListMeetingRecordings(ctx context.Context, email string, win models.DateWindow, pageSize int, pageToken string) (*MeetingRecordingsPage, error) {
	var page MeetingRecordingsPage
	q := listingQuery(win, pageSize, pageToken)
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(email)+"/recordings", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListWebinarRecordings fetches one page of a user's webinar recordings
// inside the window.
func (c *Client) ListWebinarRecordings(ctx context.Context, email string, win models.DateWindow, pageSize int, pageToken string) (*WebinarRecordingsPage, error) {
	var page WebinarRecordingsPage
	q := listingQuery(win, pageSize, pageToken)
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(email)+"/webinars/recordings", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPhoneRecordings fetches one page of a user's phone recordings. The
// phone listing accepts the full date range in one query, so no windowing.
func (c *Client) ListPhoneRecordings(ctx context.Context, email string, win models.DateWindow, pageSize int, pageToken string) (*PhoneRecordingsPage, error) {
	var page PhoneRecordingsPage
	q := listingQuery(win, pageSize, pageToken)
	if err := c.getJSON(ctx, "/phone/users/"+url.PathEscape(email)+"/recordings", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func listingQuery(win models.DateWindow, pageSize int, pageToken string) url.Values {
	q := url.Values{
		"from":      {win.Start.Format("2006-01-02")},
		"to":        {win.End.Format("2006-01-02")},
		"page_size": {strconv.Itoa(pageSize)},
	}
	if pageToken != "" {
		q.Set("next_page_token", pageToken)
	}
	return q
}
