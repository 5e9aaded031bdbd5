package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"artcatalog"
)

var similarThreshold int

var similarCmd = &cobra.Command{
	Use:   "similar [entry-id | image-file]",
	Short: "Find cataloged entries perceptually close to an entry or an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, pipeline, err := openEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		threshold := similarThreshold
		if threshold <= 0 {
			threshold = cfg.SearchThreshold
		}

		var matches []artcatalog.Match
		if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
			matches, err = pipeline.FindSimilarByID(cmd.Context(), id, threshold)
		} else {
			img, decErr := artcatalog.DecodeImage(args[0])
			if decErr != nil {
				return decErr
			}
			matches, err = pipeline.FindSimilarImage(cmd.Context(), img, threshold)
		}
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Println("No similar entries found")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%6d  distance %d\n", m.ID, m.Distance)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVar(&similarThreshold, "threshold", 0, "Maximum Hamming distance (0 = config default)")
	rootCmd.AddCommand(similarCmd)
}
