package cli

import (
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download everything pending in the inventory",
	Long: `Drain the inventory: download every item still in the found state,
retrying transient failures up to the configured attempt budget. Files
already on disk are not transferred again.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	totals, err := runDownloadPhase(cmd.Context(), apiClient())
	if err != nil {
		return err
	}
	printDownloadTotals(totals)
	return nil
}
