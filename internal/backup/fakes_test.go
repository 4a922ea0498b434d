package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zoomvault/zoomvault/internal/models"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

// fakeInventory mirrors the store's state machine in memory.
type fakeInventory struct {
	nextID int64
	items  map[int64]*models.InventoryItem
	byKey  map[string]int64
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{items: map[int64]*models.InventoryItem{}, byKey: map[string]int64{}}
}

func (f *fakeInventory) UpsertInventory(_ context.Context, item *models.InventoryItem) (bool, error) {
	if id, ok := f.byKey[item.Key()]; ok {
		existing := f.items[id]
		existing.Topic = item.Topic
		existing.DownloadURL = item.DownloadURL
		existing.FileSize = item.FileSize
		existing.Raw = item.Raw
		item.ID = id
		return false, nil
	}
	f.nextID++
	item.ID = f.nextID
	item.Status = models.StatusFound
	item.FoundAt = time.Now()
	cp := *item
	f.items[item.ID] = &cp
	f.byKey[item.Key()] = item.ID
	return true, nil
}

func (f *fakeInventory) ListPending(context.Context) ([]models.InventoryItem, error) {
	var pending []models.InventoryItem
	for _, it := range f.items {
		if it.Status == models.StatusFound {
			pending = append(pending, *it)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].StartTime.Equal(pending[j].StartTime) {
			return pending[i].StartTime.Before(pending[j].StartTime)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

// transition moves an item to next, enforcing the state machine so any
// illegal transition attempted by the engine fails the test.
func (f *fakeInventory) transition(id int64, next models.Status) (*models.InventoryItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d not found", id)
	}
	if !it.Status.CanTransition(next) {
		return nil, fmt.Errorf("item %d cannot move %s -> %s", id, it.Status, next)
	}
	it.Status = next
	return it, nil
}

func (f *fakeInventory) MarkDownloading(_ context.Context, id int64) error {
	it, err := f.transition(id, models.StatusDownloading)
	if err != nil {
		return err
	}
	it.AttemptCount++
	it.LastError = nil
	return nil
}

func (f *fakeInventory) MarkDownloaded(_ context.Context, id int64) error {
	it, err := f.transition(id, models.StatusDownloaded)
	if err != nil {
		return err
	}
	now := time.Now()
	it.DownloadedAt = &now
	return nil
}

func (f *fakeInventory) RequeueOrFail(_ context.Context, id int64, maxAttempts int, lastError string) (models.Status, error) {
	next := models.StatusFound
	if it, ok := f.items[id]; ok && it.AttemptCount >= maxAttempts {
		next = models.StatusFailed
	}
	it, err := f.transition(id, next)
	if err != nil {
		return "", err
	}
	it.LastError = &lastError
	return it.Status, nil
}

func (f *fakeInventory) MarkSkipped(_ context.Context, id int64, reason string) error {
	it, err := f.transition(id, models.StatusSkipped)
	if err != nil {
		return err
	}
	it.LastError = &reason
	return nil
}

func (f *fakeInventory) get(id int64) *models.InventoryItem { return f.items[id] }

// fakeSink records metadata writes and can fail a configurable number of
// times.
type fakeSink struct {
	meetings []models.MeetingRecording
	webinars []models.MeetingRecording
	phones   []models.PhoneRecording
	failures int
}

func (f *fakeSink) SaveMeetingMetadata(_ context.Context, rec *models.MeetingRecording) error {
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("metadata store unavailable")
	}
	f.meetings = append(f.meetings, *rec)
	return nil
}

func (f *fakeSink) SaveWebinarMetadata(_ context.Context, rec *models.MeetingRecording) error {
	f.webinars = append(f.webinars, *rec)
	return nil
}

func (f *fakeSink) SavePhoneMetadata(_ context.Context, rec *models.PhoneRecording) error {
	f.phones = append(f.phones, *rec)
	return nil
}

// fakeAPI serves canned listings and scripts download outcomes per URL.
type fakeAPI struct {
	users []zoom.User

	meetings    map[string][]zoom.Meeting
	webinars    map[string][]zoom.Meeting
	phone       map[string][]zoom.PhoneRecording
	meetingsErr map[string]error
	phoneErr    map[string]error

	// downloadErrs scripts outcomes per URL, consumed in order. A nil entry
	// or an exhausted script means success.
	downloadErrs  map[string][]error
	downloadCalls []string
	fileContent   string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		meetings:     map[string][]zoom.Meeting{},
		webinars:     map[string][]zoom.Meeting{},
		phone:        map[string][]zoom.PhoneRecording{},
		meetingsErr:  map[string]error{},
		phoneErr:     map[string]error{},
		downloadErrs: map[string][]error{},
		fileContent:  "data",
	}
}

func (f *fakeAPI) ListUsers(context.Context, int) ([]zoom.User, error) {
	return f.users, nil
}

func (f *fakeAPI) ListMeetingRecordings(_ context.Context, email string, _ models.DateWindow, _ int, _ string) (*zoom.MeetingRecordingsPage, error) {
	if err := f.meetingsErr[email]; err != nil {
		return nil, err
	}
	return &zoom.MeetingRecordingsPage{Meetings: f.meetings[email]}, nil
}

func (f *fakeAPI) ListWebinarRecordings(_ context.Context, email string, _ models.DateWindow, _ int, _ string) (*zoom.WebinarRecordingsPage, error) {
	return &zoom.WebinarRecordingsPage{Webinars: f.webinars[email]}, nil
}

func (f *fakeAPI) ListPhoneRecordings(_ context.Context, email string, _ models.DateWindow, _ int, _ string) (*zoom.PhoneRecordingsPage, error) {
	if err := f.phoneErr[email]; err != nil {
		return nil, err
	}
	return &zoom.PhoneRecordingsPage{Recordings: f.phone[email]}, nil
}

func (f *fakeAPI) DownloadFile(_ context.Context, rawURL, destPath string) (int64, error) {
	f.downloadCalls = append(f.downloadCalls, rawURL)
	if script := f.downloadErrs[rawURL]; len(script) > 0 {
		err := script[0]
		f.downloadErrs[rawURL] = script[1:]
		if err != nil {
			return 0, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(destPath, []byte(f.fileContent), 0o644); err != nil {
		return 0, err
	}
	return int64(len(f.fileContent)), nil
}
