package artcatalog

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Pipeline admits media files into the catalog. All collaborators are
// injected; the zero value is not usable. The pipeline holds no state across
// calls and provides no parallelism of its own: batch callers parallelize
// outside it with a bounded worker count, and each call's catalog write runs
// under its own store transaction.
type Pipeline struct {
	Store  Store
	Assets AssetStore

	// LibraryRoot is where MoveFile placement lands files, laid out as
	// <root>/<platform>/<artist>/<file>.
	LibraryRoot string

	Logger *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Ingest admits one file as one logical unit of work: validate, exact
// duplicate check, placement, date resolution, fingerprint, insert,
// thumbnail, commit.
//
// On *DerivedAssetError the returned entry is non-nil and committed: the
// catalog row exists, only the preview is missing, and RepairThumbnails can
// complete it later. Every other error means no catalog row was written.
// Placement, once performed, is not reversed on later failure; a crash or
// store error between move and commit leaves an orphaned file for external
// reconciliation.
func (p *Pipeline) Ingest(ctx context.Context, sourcePath string, meta Metadata, policy Policy) (*Entry, error) {
	// Step 1: validate. No side effects before this passes.
	if meta.Artist == "" || meta.Platform == "" {
		return nil, &ValidationError{Reason: "artist and platform are required"}
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("source file %s: %v", sourcePath, err)}
	}

	// Step 2: exact-duplicate check, before the file is touched.
	key := ExactKey{Platform: meta.Platform, Artist: meta.Artist, Title: meta.Title}
	if policy.CheckDuplicate && key.Title != "" {
		existing, err := p.Store.FindByExactKey(ctx, key)
		if err != nil {
			return nil, &StoreError{Op: "find by exact key", Err: err}
		}
		if existing != nil {
			return nil, &DuplicateError{Key: key, Existing: *existing}
		}
	}

	// Step 3: placement.
	path := sourcePath
	if policy.MoveFile {
		placed, err := p.placeFile(sourcePath, meta)
		if err != nil {
			return nil, err
		}
		path = placed
	}
	storagePath := filepath.ToSlash(path)

	// Step 4: dates.
	now := time.Now()
	entry := &Entry{
		StoragePath:      storagePath,
		FileName:         filepath.Base(path),
		Title:            meta.Title,
		Artist:           meta.Artist,
		Platform:         meta.Platform,
		Tags:             meta.Tags,
		Description:      meta.Description,
		Rating:           meta.Rating,
		Category:         meta.Category,
		Classification:   meta.Classification,
		SourceURL:        meta.SourceURL,
		LastModifiedDate: now,
	}
	if !meta.CreationDate.IsZero() {
		entry.CreationDate = meta.CreationDate
	} else {
		created, source := ResolveDate(path)
		if source == SourceFallback {
			p.logger().Warn("creation date fell back to now", "path", storagePath)
		}
		entry.CreationDate = created
	}
	switch {
	case !meta.PublicationDate.IsZero():
		entry.PublicationDate = meta.PublicationDate
	default:
		if published, ok := exifCaptureDate(path); ok {
			entry.PublicationDate = published
		} else {
			entry.PublicationDate = entry.CreationDate
		}
	}

	// Step 5: fingerprint. Decode once; the pixels feed both the hash and
	// the thumbnail. An unreadable image degrades, it does not abort.
	img, err := DecodeImage(path)
	if err != nil {
		p.logger().Warn("fingerprint skipped", "path", storagePath, "error", err)
		img = nil
	} else if fp, err := ComputeFingerprint(img); err != nil {
		p.logger().Warn("fingerprint failed", "path", storagePath, "error", err)
	} else {
		entry.Fingerprint = &fp
	}

	// Step 6: insert.
	tx, err := p.Store.Begin(ctx)
	if err != nil {
		return nil, &StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	id, err := tx.Insert(ctx, entry)
	if err != nil {
		return nil, &StoreError{Op: "insert", Err: err}
	}
	entry.ID = id

	// Step 7: derive thumbnail. Failure is non-fatal to the catalog row.
	var assetErr *DerivedAssetError
	if img != nil {
		if err := p.deriveThumbnail(ctx, tx, entry, img); err != nil {
			p.logger().Warn("thumbnail generation failed", "id", id, "error", err)
			assetErr = &DerivedAssetError{ID: id, Err: err}
		}
	}

	// Step 8: commit.
	if err := tx.Commit(); err != nil {
		return nil, &StoreError{Op: "commit", Err: err}
	}
	if assetErr != nil {
		return entry, assetErr
	}
	return entry, nil
}

// placeFile moves the source into <root>/<platform>/<artist>/, appending a
// timestamp suffix (and a counter if even that is taken) instead of ever
// overwriting an existing file.
func (p *Pipeline) placeFile(sourcePath string, meta Metadata) (string, error) {
	targetDir := filepath.Join(p.LibraryRoot, meta.Platform, meta.Artist)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", &PlacementError{Source: sourcePath, Target: targetDir, Err: err}
	}

	target := filepath.Join(targetDir, filepath.Base(sourcePath))
	target, err := disambiguate(target)
	if err != nil {
		return "", &PlacementError{Source: sourcePath, Target: target, Err: err}
	}
	if err := moveFile(sourcePath, target); err != nil {
		return "", &PlacementError{Source: sourcePath, Target: target, Err: err}
	}
	return target, nil
}

// disambiguate returns path itself when free, otherwise the first free
// variant with a timestamp suffix: name_20060102_150405.ext, then
// name_20060102_150405_2.ext and so on.
func disambiguate(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", err
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	stamp := time.Now().Format("20060102_150405")

	candidate := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%s_%d%s", base, stamp, i, ext)
	}
}

// moveFile renames when possible and falls back to copy-then-remove for
// cross-filesystem moves. The copy lands under a temporary name and is
// renamed into place so a crash never leaves a half-written target.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}

func (p *Pipeline) deriveThumbnail(ctx context.Context, tx Tx, entry *Entry, img image.Image) error {
	data, err := RenderThumbnail(img)
	if err != nil {
		return err
	}
	name := ThumbnailName(entry.ID)
	if err := p.Assets.Save(name, data); err != nil {
		return err
	}
	if err := tx.UpdateDerivedAsset(ctx, entry.ID, name); err != nil {
		return err
	}
	entry.DerivedAssetName = name
	return nil
}

// FindSimilarByID returns the catalog entries perceptually closest to an
// existing entry, ascending by distance, capped at MaxNearMatches. The
// source entry itself appears in the result at distance zero; callers that
// do not want it filter it out.
func (p *Pipeline) FindSimilarByID(ctx context.Context, id int64, threshold int) ([]Match, error) {
	fp, err := p.Store.FingerprintByID(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "fingerprint by id", Err: err}
	}
	if fp == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("entry %d has no fingerprint", id)}
	}
	return p.findSimilar(ctx, *fp, threshold)
}

// FindSimilarImage fingerprints already-decoded pixels and searches the
// catalog for entries within the threshold.
func (p *Pipeline) FindSimilarImage(ctx context.Context, img image.Image, threshold int) ([]Match, error) {
	fp, err := ComputeFingerprint(img)
	if err != nil {
		return nil, err
	}
	return p.findSimilar(ctx, fp, threshold)
}

func (p *Pipeline) findSimilar(ctx context.Context, fp Fingerprint, threshold int) ([]Match, error) {
	records, err := p.Store.AllFingerprints(ctx)
	if err != nil {
		return nil, &StoreError{Op: "all fingerprints", Err: err}
	}
	return NearDuplicates(fp, records, threshold), nil
}
