package artcatalog

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultExtensions lists the raster formats the scanner admits.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// Scanner walks a library laid out as <root>/<platform>/<artist>/... and
// catalogs files not yet present. Files are ingested in place (no move).
//
// The scanner is the automated caller of the Duplicate Resolver: it takes one
// fingerprint snapshot per run and treats every near-duplicate flag as skip.
// Entries admitted concurrently by other processes during the run are not
// visible to the snapshot; that is accepted eventual consistency.
type Scanner struct {
	Pipeline *Pipeline
	Root     string

	// Extensions filters by lowercase file extension; nil means
	// DefaultExtensions.
	Extensions []string

	// Workers bounds the decode/hash parallelism; <=0 means GOMAXPROCS.
	Workers int

	// Threshold is the strict near-duplicate skip bound; <=0 disables the
	// near check and only path and exact-key uniqueness apply.
	Threshold int

	Logger *slog.Logger
}

// ScanReport summarizes one scan.
type ScanReport struct {
	Scanned              int
	Added                int
	SkippedExisting      int
	SkippedUnsupported   int
	SkippedNearDuplicate int
	Errors               int
}

// Run performs one scan pass. Per-file failures are counted and logged, not
// fatal; only walk and store-snapshot failures abort the run.
func (s *Scanner) Run(ctx context.Context) (ScanReport, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	exts := s.Extensions
	if exts == nil {
		exts = DefaultExtensions
	}

	snapshot, err := s.Pipeline.Store.AllFingerprints(ctx)
	if err != nil {
		return ScanReport{}, &StoreError{Op: "all fingerprints", Err: err}
	}

	var (
		mu     sync.Mutex // guards report, snapshot
		report ScanReport
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	walkErr := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		group.Go(func() error {
			s.scanFile(ctx, path, exts, &mu, &report, &snapshot, logger)
			return nil
		})
		return nil
	})

	if err := group.Wait(); err != nil && walkErr == nil {
		walkErr = err
	}
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return report, walkErr
	}
	return report, walkErr
}

func (s *Scanner) scanFile(ctx context.Context, path string, exts []string,
	mu *sync.Mutex, report *ScanReport, snapshot *[]FingerprintRecord, logger *slog.Logger) {

	mu.Lock()
	report.Scanned++
	mu.Unlock()

	if !hasExtension(path, exts) {
		mu.Lock()
		report.SkippedUnsupported++
		mu.Unlock()
		return
	}

	meta, ok := s.parseLayout(path)
	if !ok {
		logger.Debug("scan: layout not recognized", "path", path)
		mu.Lock()
		report.SkippedUnsupported++
		mu.Unlock()
		return
	}

	existing, err := s.Pipeline.Store.FindByPath(ctx, filepath.ToSlash(path))
	if err != nil {
		logger.Warn("scan: path lookup failed", "path", path, "error", err)
		mu.Lock()
		report.Errors++
		mu.Unlock()
		return
	}
	if existing != nil {
		mu.Lock()
		report.SkippedExisting++
		mu.Unlock()
		return
	}

	// Decode and hash outside the lock; this is the expensive part.
	var fp *Fingerprint
	if s.Threshold > 0 {
		if v, err := FingerprintFile(path); err == nil {
			fp = &v
		}
		// An undecodable file still gets cataloged without a fingerprint;
		// the near check simply cannot apply.
	}

	if fp != nil {
		mu.Lock()
		matches := NearDuplicates(*fp, *snapshot, s.Threshold)
		mu.Unlock()
		if len(matches) > 0 {
			logger.Info("scan: near-duplicate skipped",
				"path", path, "closest_id", matches[0].ID, "distance", matches[0].Distance)
			mu.Lock()
			report.SkippedNearDuplicate++
			mu.Unlock()
			return
		}
	}

	entry, err := s.Pipeline.Ingest(ctx, path, meta, Policy{MoveFile: false, CheckDuplicate: true})
	if err != nil {
		var dupe *DuplicateError
		var assetErr *DerivedAssetError
		switch {
		case errors.As(err, &dupe):
			mu.Lock()
			report.SkippedExisting++
			mu.Unlock()
			return
		case errors.As(err, &assetErr):
			// Entry admitted, preview missing; the repair pass will finish it.
			logger.Warn("scan: admitted without preview", "path", path, "error", err)
		default:
			logger.Warn("scan: ingest failed", "path", path, "error", err)
			mu.Lock()
			report.Errors++
			mu.Unlock()
			return
		}
	}

	mu.Lock()
	report.Added++
	if entry != nil && entry.Fingerprint != nil {
		*snapshot = append(*snapshot, FingerprintRecord{ID: entry.ID, Fingerprint: *entry.Fingerprint})
	}
	mu.Unlock()
}

// parseLayout derives metadata from the library layout: the first path
// element under the root is the platform, the second the artist. Anything
// shallower is not a library file.
func (s *Scanner) parseLayout(path string) (Metadata, bool) {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return Metadata{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 {
		return Metadata{}, false
	}
	return Metadata{Platform: parts[0], Artist: parts[1]}, true
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
