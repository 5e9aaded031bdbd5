package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"artcatalog"
)

var (
	scanWorkers   int
	scanThreshold int
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Scan a platform/artist library tree for new files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, pipeline, err := openEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		root := cfg.LibraryRoot
		if len(args) == 1 {
			root = args[0]
		}
		threshold := scanThreshold
		if threshold < 0 {
			threshold = cfg.IngestThreshold
		}

		scanner := &artcatalog.Scanner{
			Pipeline:   pipeline,
			Root:       root,
			Extensions: cfg.Extensions,
			Workers:    scanWorkers,
			Threshold:  threshold,
		}
		report, err := scanner.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Scanned %d files: %d added, %d already cataloged, %d near-duplicates skipped, %d unsupported, %d errors\n",
			report.Scanned, report.Added, report.SkippedExisting,
			report.SkippedNearDuplicate, report.SkippedUnsupported, report.Errors)
		return nil
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Worker count (0 = number of CPUs)")
	scanCmd.Flags().IntVar(&scanThreshold, "threshold", -1, "Near-duplicate skip distance (-1 = config default, 0 = disabled)")
	rootCmd.AddCommand(scanCmd)
}
