package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retryDownload bool

var retryFailedCmd = &cobra.Command{
	Use:   "retry-failed",
	Short: "Requeue failed items with a fresh attempt budget",
	Long: `Move every failed inventory item back to found and reset its attempt
counter, then (unless --download=false is given) immediately run a download
phase over the requeued items.`,
	Args: cobra.NoArgs,
	RunE: runRetryFailed,
}

func init() {
	retryFailedCmd.Flags().BoolVar(&retryDownload, "download", true, "run a download phase after requeuing")
	rootCmd.AddCommand(retryFailedCmd)
}

func runRetryFailed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	n, err := store.ResetFailed(ctx)
	if err != nil {
		return fmt.Errorf("reset failed items: %w", err)
	}
	if n == 0 {
		fmt.Println("No failed items to requeue.")
		return nil
	}
	fmt.Printf("Requeued %s failed item(s).\n", successStyle.Render(fmt.Sprintf("%d", n)))

	if !retryDownload {
		return nil
	}
	totals, err := runDownloadPhase(ctx, apiClient())
	if err != nil {
		return err
	}
	printDownloadTotals(totals)
	return nil
}
