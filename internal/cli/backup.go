package cli

import (
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run discovery and download in sequence",
	Long: `Run a full backup: walk the account's recordings into the inventory,
then download everything pending. Equivalent to 'discover' followed by
'download'.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := apiClient()

	sum, err := runDiscoveryPhase(ctx, client)
	if err != nil {
		return err
	}
	printDiscoverySummary(sum)

	totals, err := runDownloadPhase(ctx, client)
	if err != nil {
		return err
	}
	printDownloadTotals(totals)
	return nil
}
