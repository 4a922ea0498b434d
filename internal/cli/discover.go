package cli

import (
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Inventory all recordings without downloading",
	Long: `Walk every active user's meeting, webinar, and phone recordings in the
configured date range and record each file in the inventory. Running
discovery again is safe: known files are refreshed, download progress is
never touched.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	sum, err := runDiscoveryPhase(cmd.Context(), apiClient())
	if err != nil {
		return err
	}
	printDiscoverySummary(sum)
	return nil
}
