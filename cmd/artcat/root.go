package main

import (
	"github.com/spf13/cobra"

	"artcatalog"
)

var rootCmd = &cobra.Command{
	Use:   "artcat",
	Short: "Artwork catalog ingestion and maintenance",
}

// openEngine wires the sqlite store and disk asset sink into a pipeline from
// the shared config. The caller closes the returned store.
func openEngine() (*artcatalog.Config, *artcatalog.SQLiteStore, *artcatalog.Pipeline, error) {
	cfg, err := artcatalog.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := artcatalog.OpenSQLiteStore(cfg.DBFile)
	if err != nil {
		return nil, nil, nil, err
	}
	pipeline := &artcatalog.Pipeline{
		Store:       store,
		Assets:      &artcatalog.DiskAssetStore{Dir: cfg.ThumbnailDir},
		LibraryRoot: cfg.LibraryRoot,
	}
	return cfg, store, pipeline, nil
}
