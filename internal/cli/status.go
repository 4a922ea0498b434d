package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoomvault/zoomvault/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show inventory progress and distribution",
	Long: `Show the inventory broken down by status and recording kind, plus the
per-year distribution of discovered recordings. A year with no recordings at
all usually points at a date-window or permission problem.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	counts, err := store.StatusCounts(ctx)
	if err != nil {
		return fmt.Errorf("status counts: %w", err)
	}
	if len(counts) == 0 {
		fmt.Println("Inventory is empty. Run 'zoomvault discover' first.")
		return nil
	}

	total := 0
	settled := 0
	fmt.Println(headerStyle.Render(fmt.Sprintf("Inventory status (version %s)", cfg.Version)))
	for _, c := range counts {
		total += c.Count
		if c.Status.Terminal() {
			settled += c.Count
		}
		label := string(c.Status)
		switch c.Status {
		case models.StatusDownloaded:
			label = successStyle.Render(label)
		case models.StatusFailed:
			label = errorStyle.Render(label)
		}
		fmt.Printf("  %-22s %6d\n", label, c.Count)
	}
	if total > 0 {
		fmt.Printf("  %-22s %6d  (%.1f%% settled)\n", "total", total, float64(settled)/float64(total)*100)
	}

	summaries, err := store.KindSummaries(ctx)
	if err != nil {
		return fmt.Errorf("kind summaries: %w", err)
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("By kind"))
	fmt.Printf("  %-10s %8s  %-12s %-12s\n", "KIND", "ITEMS", "EARLIEST", "LATEST")
	for _, s := range summaries {
		fmt.Printf("  %-10s %8d  %-12s %-12s\n", s.Kind, s.Count,
			s.Earliest.Format("2006-01-02"), s.Latest.Format("2006-01-02"))
	}

	years, err := store.YearDistribution(ctx)
	if err != nil {
		return fmt.Errorf("year distribution: %w", err)
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("By year"))
	byYear := map[int]map[models.RecordingKind]int{}
	var order []int
	for _, y := range years {
		if byYear[y.Year] == nil {
			byYear[y.Year] = map[models.RecordingKind]int{}
			order = append(order, y.Year)
		}
		byYear[y.Year][y.Kind] = y.Count
	}
	fmt.Printf("  %-6s %10s %10s %10s\n", "YEAR", "MEETINGS", "WEBINARS", "PHONE")
	for _, year := range order {
		fmt.Printf("  %-6d %10d %10d %10d\n", year,
			byYear[year][models.KindMeeting],
			byYear[year][models.KindWebinar],
			byYear[year][models.KindPhone])
	}
	return nil
}
