package artcatalog

import "fmt"

// ValidationError reports missing required metadata or a missing source file.
// Nothing has been written or moved when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// DuplicateError reports an exact-duplicate hit on (platform, artist, title).
// The source file is left untouched; the caller decides its fate.
type DuplicateError struct {
	Key      ExactKey
	Existing EntryRef
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate of entry %d: %s / %s / %q",
		e.Existing.ID, e.Key.Platform, e.Key.Artist, e.Key.Title)
}

// DecodeError reports an image that could not be decoded. It is non-fatal for
// fingerprinting and thumbnailing: the entry is admitted without them.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PlacementError reports a failed file move. It aborts ingestion before any
// catalog write.
type PlacementError struct {
	Source string
	Target string
	Err    error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placement %s -> %s: %v", e.Source, e.Target, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// StoreError reports a failed catalog insert, update, or commit. The pipeline
// rolls back the catalog write; the file move, if any, is not reversed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DerivedAssetError reports a failed thumbnail generation. The catalog row
// exists and is committed; the entry simply has no preview yet and is
// repairable by RepairThumbnails.
type DerivedAssetError struct {
	ID  int64
	Err error
}

func (e *DerivedAssetError) Error() string {
	return fmt.Sprintf("derived asset for entry %d: %v", e.ID, e.Err)
}

func (e *DerivedAssetError) Unwrap() error { return e.Err }
