package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"artcatalog"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill-hashes",
	Short: "Compute fingerprints for entries cataloged without one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, store, _, err := openEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := artcatalog.BackfillFingerprints(cmd.Context(), store, nil)
		if err != nil {
			return err
		}
		fmt.Printf("%d candidates: %d filled, %d skipped\n",
			report.Candidates, report.Filled, report.Skipped)
		return nil
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair-thumbs",
	Short: "Recreate missing or corrupt thumbnails",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, store, _, err := openEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		assets := &artcatalog.DiskAssetStore{Dir: cfg.ThumbnailDir}
		report, err := artcatalog.RepairThumbnails(cmd.Context(), store, assets, nil)
		if err != nil {
			return err
		}
		fmt.Printf("%d checked: %d rebuilt, %d unreadable\n",
			report.Checked, report.Rebuilt, report.Unreadable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(repairCmd)
}
