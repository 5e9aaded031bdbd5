package artcatalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestScanner(t *testing.T) (*Scanner, *MemStore) {
	t.Helper()
	store := NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := filepath.Join(t.TempDir(), "library")
	p := &Pipeline{
		Store:       store,
		Assets:      &DiskAssetStore{Dir: filepath.Join(t.TempDir(), "thumbs")},
		LibraryRoot: root,
		Logger:      logger,
	}
	return &Scanner{Pipeline: p, Root: root, Workers: 1, Logger: logger}, store
}

func libFile(t *testing.T, root, platform, artist, name string, variant int) string {
	t.Helper()
	dir := filepath.Join(root, platform, artist)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return writeJPEG(t, dir, name, makeGradient(128, 128, variant))
}

func TestScannerParseLayout(t *testing.T) {
	s := &Scanner{Root: "/lib"}
	meta, ok := s.parseLayout("/lib/twitter/alice/deep/pic.jpg")
	if !ok || meta.Platform != "twitter" || meta.Artist != "alice" {
		t.Errorf("parseLayout = %+v, %v; want twitter/alice", meta, ok)
	}
	if _, ok := s.parseLayout("/lib/twitter/pic.jpg"); ok {
		t.Error("file directly under a platform dir accepted")
	}
	if _, ok := s.parseLayout("/lib/pic.jpg"); ok {
		t.Error("file at the library root accepted")
	}
}

func TestScannerCatalogsLibrary(t *testing.T) {
	ctx := context.Background()
	s, store := newTestScanner(t)

	added := libFile(t, s.Root, "twitter", "alice", "new.jpg", 1)
	existing := libFile(t, s.Root, "twitter", "alice", "old.jpg", 2)
	seedEntry(t, store, &Entry{StoragePath: filepath.ToSlash(existing)})
	if err := os.WriteFile(filepath.Join(s.Root, "twitter", "alice", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	stray := writeJPEG(t, s.Root, "stray.jpg", makeGradient(64, 64, 3))

	report, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Scanned != 4 {
		t.Errorf("scanned = %d, want 4", report.Scanned)
	}
	if report.Added != 1 {
		t.Errorf("added = %d, want 1", report.Added)
	}
	if report.SkippedExisting != 1 {
		t.Errorf("skipped existing = %d, want 1", report.SkippedExisting)
	}
	if report.SkippedUnsupported != 2 {
		t.Errorf("skipped unsupported = %d, want 2 (notes.txt, stray at root)", report.SkippedUnsupported)
	}
	if report.Errors != 0 {
		t.Errorf("errors = %d, want 0", report.Errors)
	}

	ref, err := store.FindByPath(ctx, filepath.ToSlash(added))
	if err != nil || ref == nil {
		t.Fatalf("added file not cataloged: %v, %v", ref, err)
	}
	entry := store.Entry(ref.ID)
	if entry.Platform != "twitter" || entry.Artist != "alice" {
		t.Errorf("layout metadata = %q/%q, want twitter/alice", entry.Platform, entry.Artist)
	}
	// In-place cataloging: the source file stays where the walk found it.
	if _, err := os.Stat(added); err != nil {
		t.Errorf("scanned file was moved: %v", err)
	}
	_ = stray
}

func TestScannerSkipsNearDuplicates(t *testing.T) {
	ctx := context.Background()
	s, store := newTestScanner(t)
	s.Threshold = 5

	// Identical pixels at two paths. Workers is 1 and the walk is lexical, so
	// aaa is admitted first and grows the snapshot before bbb is checked.
	libFile(t, s.Root, "twitter", "alice", "aaa.jpg", 1)
	libFile(t, s.Root, "twitter", "bob", "bbb.jpg", 1)

	report, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Added != 1 || report.SkippedNearDuplicate != 1 {
		t.Errorf("report = %+v, want 1 added / 1 near-duplicate skip", report)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d entries, want 1", store.Len())
	}
}

func TestScannerRerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, store := newTestScanner(t)

	libFile(t, s.Root, "twitter", "alice", "a.jpg", 1)
	libFile(t, s.Root, "pixiv", "bob", "b.png", 2)

	first, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Added != 2 {
		t.Fatalf("first run added %d, want 2", first.Added)
	}

	second, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Added != 0 || second.SkippedExisting != 2 {
		t.Errorf("second run = %+v, want everything skipped as existing", second)
	}
	if store.Len() != 2 {
		t.Errorf("store has %d entries, want 2", store.Len())
	}
}
