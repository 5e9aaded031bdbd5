package artcatalog

import (
	"context"
	"time"
)

// ExactKey is the (platform, artist, title) triple used for exact-duplicate
// detection. An empty Title disables exact matching for the entry: empty and
// duplicate titles are legal, so the constraint is enforced here rather than
// by the database.
type ExactKey struct {
	Platform string
	Artist   string
	Title    string
}

// Entry is one admitted artwork.
type Entry struct {
	ID          int64
	StoragePath string // forward-slash normalized, unique across entries
	FileName    string

	Title    string
	Artist   string
	Platform string

	// Pass-through metadata columns; the engine stores them verbatim.
	Tags           string
	Description    string
	Rating         int // 0 = unrated
	Category       string
	Classification string
	SourceURL      string

	CreationDate     time.Time
	PublicationDate  time.Time // zero = unknown
	LastModifiedDate time.Time

	Fingerprint      *Fingerprint // nil until computed
	DerivedAssetName string       // empty until thumbnail generation succeeds
}

// Key returns the entry's exact-duplicate key.
func (e *Entry) Key() ExactKey {
	return ExactKey{Platform: e.Platform, Artist: e.Artist, Title: e.Title}
}

// EntryRef identifies an existing entry without loading the full row.
type EntryRef struct {
	ID          int64
	StoragePath string
}

// FingerprintRecord pairs an entry id with its fingerprint, as returned by the
// full-catalog enumeration used for near-duplicate scans.
type FingerprintRecord struct {
	ID          int64
	Fingerprint Fingerprint
}

// Metadata carries caller-supplied fields for one ingestion. Artist and
// Platform are required; everything else is optional.
type Metadata struct {
	Artist   string
	Platform string
	Title    string

	Tags           string
	Description    string
	Rating         int
	Category       string
	Classification string
	SourceURL      string

	// CreationDate and PublicationDate override the resolved dates when set.
	CreationDate    time.Time
	PublicationDate time.Time
}

// Policy controls per-ingestion behavior.
type Policy struct {
	// MoveFile places the source under <root>/<platform>/<artist>/ before
	// insertion. When false the file is cataloged where it already lives.
	MoveFile bool
	// CheckDuplicate enables the exact-duplicate lookup for titled entries.
	CheckDuplicate bool
}

// ExactLookup is the read contract the Duplicate Resolver needs.
type ExactLookup interface {
	// FindByExactKey returns the entry with the given key, or nil if none.
	FindByExactKey(ctx context.Context, key ExactKey) (*EntryRef, error)
}

// Store is the persistence contract the engine consumes. Implementations
// must enforce StoragePath uniqueness at insert time.
type Store interface {
	ExactLookup

	// FindByPath returns the entry at the given normalized path, or nil.
	FindByPath(ctx context.Context, path string) (*EntryRef, error)

	// AllFingerprints enumerates every entry that has a fingerprint. Batch
	// callers take this snapshot once and reuse it across candidates.
	AllFingerprints(ctx context.Context) ([]FingerprintRecord, error)

	// FingerprintByID returns an entry's fingerprint, or nil if the entry
	// does not exist or has none.
	FingerprintByID(ctx context.Context, id int64) (*Fingerprint, error)

	// Begin opens the transaction one ingestion's writes run under.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single ingestion's write scope. Rollback after Commit is a no-op,
// which lets callers defer it unconditionally.
type Tx interface {
	// Insert writes a new entry and returns its assigned id. The id is
	// assigned exactly once and never reused.
	Insert(ctx context.Context, e *Entry) (int64, error)

	// UpdateDerivedAsset records the generated thumbnail name for an entry.
	UpdateDerivedAsset(ctx context.Context, id int64, name string) error

	Commit() error
	Rollback() error
}

// BackfillStore is the contract of the idempotent fingerprint backfill pass.
type BackfillStore interface {
	// MissingFingerprints lists entries whose fingerprint is unset.
	MissingFingerprints(ctx context.Context) ([]EntryRef, error)

	// SetFingerprint fills an entry's fingerprint only if it is still unset;
	// a fingerprint written at ingestion time is never overwritten.
	SetFingerprint(ctx context.Context, id int64, fp Fingerprint) error
}

// RepairStore is the contract of the idempotent thumbnail repair pass.
type RepairStore interface {
	// AllEntryFiles lists every entry's id, storage path, and current
	// derived-asset name (empty when none was ever generated).
	AllEntryFiles(ctx context.Context) ([]EntryFile, error)

	// SetDerivedAsset records a (re)generated thumbnail name outside any
	// ingestion transaction.
	SetDerivedAsset(ctx context.Context, id int64, name string) error
}

// EntryFile is the projection the repair pass works on.
type EntryFile struct {
	ID               int64
	StoragePath      string
	DerivedAssetName string
}
