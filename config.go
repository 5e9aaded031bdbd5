package artcatalog

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the deployment settings shared by the CLI tools and any host
// embedding the engine.
type Config struct {
	DBFile           string   `mapstructure:"db_file"`
	LibraryRoot      string   `mapstructure:"library_root"`
	ThumbnailDir     string   `mapstructure:"thumbnail_dir"`
	Extensions       []string `mapstructure:"extensions"`
	SearchThreshold  int      `mapstructure:"search_threshold"`
	IngestThreshold  int      `mapstructure:"ingest_threshold"`
	ImagesPerPage    int      `mapstructure:"images_per_page"`
}

// LoadConfig reads artcat.toml from the working directory, falling back to
// defaults for anything unset. A missing config file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("artcat")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.SetDefault("db_file", "catalog.db")
	v.SetDefault("library_root", "./library")
	v.SetDefault("thumbnail_dir", "static/thumbnails")
	v.SetDefault("extensions", DefaultExtensions)
	// The loose bound for "show me similar" search.
	v.SetDefault("search_threshold", 10)
	// The tight bound automated ingestion uses to skip near-duplicates.
	v.SetDefault("ingest_threshold", 5)
	v.SetDefault("images_per_page", 24)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
