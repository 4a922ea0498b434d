package cli

import (
	"context"
	"fmt"

	"github.com/zoomvault/zoomvault/internal/backup"
	"github.com/zoomvault/zoomvault/internal/models"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

// runDiscoveryPhase executes one discovery pass and records it in the run
// history.
func runDiscoveryPhase(ctx context.Context, client *zoom.Client) (backup.DiscoverySummary, error) {
	runID, err := store.StartRun(ctx, "discovery")
	if err != nil {
		return backup.DiscoverySummary{}, fmt.Errorf("record run start: %w", err)
	}

	d := backup.NewDiscoverer(client, store, backup.DiscoveryOptions{
		Start:             cfg.Dates.Start,
		End:               cfg.Dates.End,
		MonthsPerWindow:   cfg.Processing.MonthsPerWindow,
		Kinds:             cfg.Processing.Kinds,
		UserPageSize:      cfg.API.PageSizes.Users,
		RecordingPageSize: cfg.API.PageSizes.Recordings,
		PhonePageSize:     cfg.API.PageSizes.PhoneRecordings,
	}, logger)

	sum, runErr := d.Run(ctx)
	outcome, detail := "completed", ""
	if runErr != nil {
		outcome, detail = "aborted", runErr.Error()
	}
	if err := store.FinishRun(ctx, runID, sum.Found, outcome, detail); err != nil {
		logger.Warn("failed to record run end", "error", err)
	}
	return sum, runErr
}

// runDownloadPhase drains the pending inventory and records the run.
func runDownloadPhase(ctx context.Context, client *zoom.Client) (models.StatusTotals, error) {
	runID, err := store.StartRun(ctx, "download")
	if err != nil {
		return models.StatusTotals{}, fmt.Errorf("record run start: %w", err)
	}

	d := backup.NewDownloader(client, store, store, backup.DownloadOptions{
		BaseDir:     cfg.BackupDir(),
		MaxAttempts: cfg.Processing.MaxAttempts,
		PassSleep:   cfg.API.Sleeps.DownloadRetry,
		Extensions:  cfg.Extensions,
	}, logger)

	totals, runErr := d.Run(ctx)
	outcome, detail := "completed", ""
	if runErr != nil {
		outcome, detail = "aborted", runErr.Error()
	}
	if err := store.FinishRun(ctx, runID, totals.Total(), outcome, detail); err != nil {
		logger.Warn("failed to record run end", "error", err)
	}
	return totals, runErr
}

func printDiscoverySummary(sum backup.DiscoverySummary) {
	fmt.Println(headerStyle.Render("Discovery summary"))
	fmt.Printf("  Users walked:  %d\n", sum.Users)
	fmt.Printf("  Files found:   %d\n", sum.Found)
	fmt.Printf("  New in DB:     %s\n", successStyle.Render(fmt.Sprintf("%d", sum.New)))
	if sum.Failures > 0 {
		fmt.Printf("  Listing failures: %s\n", errorStyle.Render(fmt.Sprintf("%d", sum.Failures)))
	}
}

func printDownloadTotals(totals models.StatusTotals) {
	fmt.Println(headerStyle.Render("Download summary"))
	fmt.Printf("  Downloaded: %s\n", successStyle.Render(fmt.Sprintf("%d", totals.Downloaded)))
	fmt.Printf("  Skipped:    %d\n", totals.Skipped)
	if totals.Failed > 0 {
		fmt.Printf("  Failed:     %s %s\n",
			errorStyle.Render(fmt.Sprintf("%d", totals.Failed)),
			hintStyle.Render("(run 'zoomvault retry-failed' to requeue)"))
	} else {
		fmt.Printf("  Failed:     0\n")
	}
}
