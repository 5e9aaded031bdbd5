package artcatalog

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Thumbnail geometry and encoding, shared by ingestion and repair.
const (
	ThumbnailWidth   = 400
	ThumbnailHeight  = 400
	ThumbnailQuality = 85
)

// ThumbnailName returns the deterministic derived-asset name for an entry:
// the id as a fixed-width zero-padded number with a .jpg extension.
func ThumbnailName(id int64) string {
	return fmt.Sprintf("%06d.jpg", id)
}

// RenderThumbnail downscales decoded pixels into the 400x400 bounding box and
// encodes them as JPEG at quality 85. Images already inside the box are
// encoded as-is, never upscaled.
func RenderThumbnail(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, ThumbnailWidth, ThumbnailHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AssetStore persists derived assets by name.
type AssetStore interface {
	Save(name string, data []byte) error
	Open(name string) (io.ReadCloser, error)
}

// DiskAssetStore keeps derived assets as files in one flat directory.
type DiskAssetStore struct {
	Dir string
}

func (s *DiskAssetStore) Save(name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0o644)
}

func (s *DiskAssetStore) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, name))
}

// RepairReport summarizes one thumbnail repair pass.
type RepairReport struct {
	Checked    int
	Rebuilt    int
	Unreadable int // source file missing or undecodable; left for next pass
}

// RepairThumbnails recreates missing or corrupt derived assets. It is
// idempotent: a healthy asset is left alone, and a rebuilt one gets the same
// deterministic name, so re-running after a partial failure only touches what
// is still broken.
func RepairThumbnails(ctx context.Context, store RepairStore, assets AssetStore, logger *slog.Logger) (RepairReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var report RepairReport

	files, err := store.AllEntryFiles(ctx)
	if err != nil {
		return report, &StoreError{Op: "list entry files", Err: err}
	}

	for _, ef := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		name := ef.DerivedAssetName
		if name != "" && assetHealthy(assets, name) {
			continue
		}

		img, err := DecodeImage(ef.StoragePath)
		if err != nil {
			logger.Warn("thumbnail repair: source unreadable",
				"id", ef.ID, "path", ef.StoragePath, "error", err)
			report.Unreadable++
			continue
		}

		data, err := RenderThumbnail(img)
		if err != nil {
			logger.Warn("thumbnail repair: render failed", "id", ef.ID, "error", err)
			report.Unreadable++
			continue
		}

		name = ThumbnailName(ef.ID)
		if err := assets.Save(name, data); err != nil {
			return report, &DerivedAssetError{ID: ef.ID, Err: err}
		}
		if name != ef.DerivedAssetName {
			if err := store.SetDerivedAsset(ctx, ef.ID, name); err != nil {
				return report, &StoreError{Op: "set derived asset", Err: err}
			}
		}
		report.Rebuilt++
	}
	return report, nil
}

// assetHealthy reports whether a derived asset exists and still decodes.
func assetHealthy(assets AssetStore, name string) bool {
	rc, err := assets.Open(name)
	if err != nil {
		return false
	}
	defer rc.Close()
	_, _, err = image.DecodeConfig(rc)
	return err == nil
}
