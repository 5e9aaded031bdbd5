package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"artcatalog"
)

var (
	ingestArtist   string
	ingestPlatform string
	ingestTitle    string
	ingestTags     string
	ingestURL      string
	ingestNoMove   bool
	ingestNoCheck  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Admit a single file into the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, pipeline, err := openEngine()
		if err != nil {
			return err
		}
		defer store.Close()

		meta := artcatalog.Metadata{
			Artist:    ingestArtist,
			Platform:  ingestPlatform,
			Title:     ingestTitle,
			Tags:      ingestTags,
			SourceURL: ingestURL,
		}
		policy := artcatalog.Policy{
			MoveFile:       !ingestNoMove,
			CheckDuplicate: !ingestNoCheck,
		}

		entry, err := pipeline.Ingest(cmd.Context(), args[0], meta, policy)

		var assetErr *artcatalog.DerivedAssetError
		switch {
		case errors.As(err, &assetErr):
			fmt.Printf("Admitted as %d (no preview yet: %v)\n", entry.ID, assetErr.Err)
			return nil
		case err != nil:
			var dupe *artcatalog.DuplicateError
			if errors.As(err, &dupe) {
				return fmt.Errorf("already cataloged as entry %d (%s)",
					dupe.Existing.ID, dupe.Existing.StoragePath)
			}
			return err
		}

		fmt.Printf("Admitted as %d -> %s\n", entry.ID, entry.StoragePath)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestArtist, "artist", "", "Artist name (required)")
	ingestCmd.Flags().StringVar(&ingestPlatform, "platform", "", "Source platform (required)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Title (enables exact-duplicate check)")
	ingestCmd.Flags().StringVar(&ingestTags, "tags", "", "Comma-separated tags")
	ingestCmd.Flags().StringVar(&ingestURL, "source-url", "", "Original source URL")
	ingestCmd.Flags().BoolVar(&ingestNoMove, "no-move", false, "Catalog the file where it is")
	ingestCmd.Flags().BoolVar(&ingestNoCheck, "no-duplicate-check", false, "Skip the exact-duplicate check")
	rootCmd.AddCommand(ingestCmd)
}
