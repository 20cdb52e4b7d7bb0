package cmd

import (
	"context"
	"fmt"

	"atdw-sync/feature/catalog/media"
	"atdw-sync/feature/catalog/summary"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshBatchSize int

// refreshCmd rebuilds the read-optimized product summaries.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild all product summaries",
	Long: `Rebuilds the read-optimized summary row for every product from current
entity state. Summaries refresh incrementally during a sync; this command
is for recovering from drift or after changing facet definitions.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().IntVar(&refreshBatchSize, "batch-size", 500, "Products refreshed per batch")
	RootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	_, l, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer l.Sync()

	refresher := summary.NewRefresher(db, media.NewStore(l), l)

	l.Info("Rebuilding product summaries", zap.Int("batch_size", refreshBatchSize))
	refreshed, err := refresher.RefreshAll(context.Background(), refreshBatchSize)
	if err != nil {
		return fmt.Errorf("failed to rebuild summaries: %w", err)
	}

	l.Info("Summary rebuild complete", zap.Int("refreshed", refreshed))
	return nil
}
