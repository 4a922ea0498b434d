package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/zoomvault/zoomvault/internal/models"
	"github.com/zoomvault/zoomvault/internal/schedule"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

// DiscoveryOptions configures a discovery phase.
type DiscoveryOptions struct {
	Start             time.Time
	End               time.Time
	MonthsPerWindow   int
	Kinds             []models.RecordingKind
	UserPageSize      int
	RecordingPageSize int
	PhonePageSize     int
}

// DiscoverySummary reports what a discovery phase walked over.
type DiscoverySummary struct {
	Users    int
	Found    int
	New      int
	Failures int
}

// Discoverer enumerates the account's principals and upserts every
// recording file it finds into the inventory.
type Discoverer struct {
	api    API
	inv    Inventory
	opts   DiscoveryOptions
	logger *slog.Logger
}

// NewDiscoverer creates a discovery engine.
func NewDiscoverer(api API, inv Inventory, opts DiscoveryOptions, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{api: api, inv: inv, opts: opts, logger: logger}
}

// Run executes one discovery pass. Authentication failures and inventory
// write failures abort the phase; a listing failure for one principal is
// logged, counted, and skipped so the rest of the account still gets walked.
func (d *Discoverer) Run(ctx context.Context) (DiscoverySummary, error) {
	var sum DiscoverySummary

	users, err := d.api.ListUsers(ctx, d.opts.UserPageSize)
	if err != nil {
		return sum, fmt.Errorf("enumerate users: %w", err)
	}
	sum.Users = len(users)

	windows := schedule.Windows(d.opts.Start, d.opts.End, d.opts.MonthsPerWindow)
	// Phone listings accept the full range in one query.
	fullRange := models.DateWindow{Start: d.opts.Start, End: d.opts.End}

	for _, user := range users {
		log := d.logger.With("user", user.Email)
		log.Info("discovering recordings")

		if d.kindEnabled(models.KindMeeting) {
			for _, win := range windows {
				if err := d.discoverMeetings(ctx, user.Email, win, &sum); err != nil {
					return sum, err
				}
			}
		}
		if d.kindEnabled(models.KindWebinar) {
			for _, win := range windows {
				if err := d.discoverWebinars(ctx, user.Email, win, &sum); err != nil {
					return sum, err
				}
			}
		}
		if d.kindEnabled(models.KindPhone) {
			if err := d.discoverPhone(ctx, user.Email, fullRange, &sum); err != nil {
				return sum, err
			}
		}
	}

	d.logger.Info("discovery complete",
		"users", sum.Users, "found", sum.Found, "new", sum.New, "failures", sum.Failures)
	return sum, nil
}

func (d *Discoverer) kindEnabled(kind models.RecordingKind) bool {
	return slices.Contains(d.opts.Kinds, kind)
}

// tolerate classifies a listing error. Phase-fatal errors are returned,
// anything else is logged and counted so discovery moves on.
func (d *Discoverer) tolerate(err error, sum *DiscoverySummary, log *slog.Logger, what string) error {
	if errors.Is(err, zoom.ErrAuth) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", what, err)
	}
	sum.Failures++
	log.Warn("listing failed, skipping", "scope", what, "error", err)
	return nil
}

func (d *Discoverer) discoverMeetings(ctx context.Context, email string, win models.DateWindow, sum *DiscoverySummary) error {
	log := d.logger.With("user", email, "window", win.String())
	pageToken := ""
	for {
		page, err := d.api.ListMeetingRecordings(ctx, email, win, d.opts.RecordingPageSize, pageToken)
		if err != nil {
			return d.tolerate(err, sum, log, "list meeting recordings")
		}
		for _, meeting := range page.Meetings {
			if err := d.upsertMeetingFiles(ctx, models.KindMeeting, email, meeting, sum); err != nil {
				return err
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

func (d *Discoverer) discoverWebinars(ctx context.Context, email string, win models.DateWindow, sum *DiscoverySummary) error {
	log := d.logger.With("user", email, "window", win.String())
	pageToken := ""
	for {
		page, err := d.api.ListWebinarRecordings(ctx, email, win, d.opts.RecordingPageSize, pageToken)
		if err != nil {
			return d.tolerate(err, sum, log, "list webinar recordings")
		}
		for _, webinar := range page.Webinars {
			if err := d.upsertMeetingFiles(ctx, models.KindWebinar, email, webinar, sum); err != nil {
				return err
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

func (d *Discoverer) discoverPhone(ctx context.Context, email string, win models.DateWindow, sum *DiscoverySummary) error {
	log := d.logger.With("user", email)
	pageToken := ""
	for {
		page, err := d.api.ListPhoneRecordings(ctx, email, win, d.opts.PhonePageSize, pageToken)
		if err != nil {
			// Users without a phone license answer 400 or 404. Not a failure.
			if errors.Is(err, zoom.ErrBadRequest) || errors.Is(err, zoom.ErrNotFound) {
				log.Debug("no phone recordings available", "error", err)
				return nil
			}
			return d.tolerate(err, sum, log, "list phone recordings")
		}
		for _, rec := range page.Recordings {
			if err := d.upsertPhoneRecording(ctx, email, rec, sum); err != nil {
				return err
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

func (d *Discoverer) upsertMeetingFiles(ctx context.Context, kind models.RecordingKind, email string, meeting zoom.Meeting, sum *DiscoverySummary) error {
	for _, file := range meeting.RecordingFiles {
		if file.DownloadURL == "" || file.Status == "processing" {
			continue
		}
		raw, err := encodeMeetingPayload(meeting, file, email)
		if err != nil {
			return err
		}
		item := &models.InventoryItem{
			Kind:           kind,
			RecordingID:    meeting.UUID,
			FileID:         file.ID,
			MeetingID:      fmt.Sprintf("%d", meeting.ID),
			PrincipalEmail: email,
			Topic:          meeting.Topic,
			StartTime:      meeting.StartTime,
			Duration:       meeting.Duration,
			FileType:       file.FileType,
			FileExtension:  file.FileExtension,
			FileSize:       file.FileSize,
			DownloadURL:    file.DownloadURL,
			Raw:            raw,
		}
		inserted, err := d.inv.UpsertInventory(ctx, item)
		if err != nil {
			return fmt.Errorf("upsert inventory item %s: %w", item.Key(), err)
		}
		sum.Found++
		if inserted {
			sum.New++
		}
	}
	return nil
}

func (d *Discoverer) upsertPhoneRecording(ctx context.Context, email string, rec zoom.PhoneRecording, sum *DiscoverySummary) error {
	if rec.DownloadURL == "" {
		return nil
	}
	raw, err := encodePhonePayload(rec, email)
	if err != nil {
		return err
	}
	item := &models.InventoryItem{
		Kind:           models.KindPhone,
		RecordingID:    rec.ID,
		FileID:         rec.ID,
		PrincipalEmail: email,
		Topic:          rec.Direction,
		StartTime:      rec.StartTime,
		Duration:       rec.Duration,
		FileType:       "mp3",
		FileExtension:  "mp3",
		FileSize:       rec.FileSize,
		DownloadURL:    rec.DownloadURL,
		Raw:            raw,
	}
	inserted, err := d.inv.UpsertInventory(ctx, item)
	if err != nil {
		return fmt.Errorf("upsert inventory item %s: %w", item.Key(), err)
	}
	sum.Found++
	if inserted {
		sum.New++
	}
	return nil
}
