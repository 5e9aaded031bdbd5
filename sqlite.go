package artcatalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout matches the timestamp format the catalog has always used.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// schema is the catalog table. StoragePath uniqueness is a hard database
// constraint; the (platform, artist, title) constraint is application-level
// because empty and duplicate titles are legal.
const schema = `
CREATE TABLE IF NOT EXISTS artworks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL UNIQUE,
    file_name TEXT NOT NULL,
    thumbnail_filename TEXT,
    phash TEXT,
    title TEXT,
    creation_date DATETIME NOT NULL,
    publication_date DATETIME,
    last_modified_date DATETIME NOT NULL,
    artist TEXT,
    source_platform TEXT,
    source_url TEXT,
    rating INTEGER,
    tags TEXT,
    description TEXT,
    classification TEXT CHECK(classification IN ('sfw', 'mature', 'nsfw')),
    category TEXT NOT NULL DEFAULT 'fanart_non_comic'
        CHECK(category IN ('fanart_comic', 'fanart_non_comic', 'real_photo', 'other'))
);
`

// SQLiteStore is the production Store backed by a sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) a catalog database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The modernc driver is not safe for concurrent writers over multiple
	// connections to the same file; one connection serializes them.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) FindByExactKey(ctx context.Context, key ExactKey) (*EntryRef, error) {
	if key.Title == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_path FROM artworks WHERE source_platform = ? AND artist = ? AND title = ?`,
		key.Platform, key.Artist, key.Title)
	return scanRef(row)
}

func (s *SQLiteStore) FindByPath(ctx context.Context, path string) (*EntryRef, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_path FROM artworks WHERE file_path = ?`, path)
	return scanRef(row)
}

func scanRef(row *sql.Row) (*EntryRef, error) {
	var ref EntryRef
	switch err := row.Scan(&ref.ID, &ref.StoragePath); err {
	case nil:
		return &ref, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

func (s *SQLiteStore) AllFingerprints(ctx context.Context) ([]FingerprintRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, phash FROM artworks WHERE phash IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FingerprintRecord
	for rows.Next() {
		var id int64
		var hex string
		if err := rows.Scan(&id, &hex); err != nil {
			return nil, err
		}
		fp, err := ParseFingerprint(hex)
		if err != nil {
			// Legacy rows with malformed hashes are skipped, not fatal.
			continue
		}
		records = append(records, FingerprintRecord{ID: id, Fingerprint: fp})
	}
	return records, rows.Err()
}

func (s *SQLiteStore) FingerprintByID(ctx context.Context, id int64) (*Fingerprint, error) {
	var hex sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT phash FROM artworks WHERE id = ?`, id).Scan(&hex)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	case !hex.Valid:
		return nil, nil
	}
	fp, err := ParseFingerprint(hex.String)
	if err != nil {
		return nil, err
	}
	return &fp, nil
}

func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// ListRandom returns one page of the seeded pseudo-random ordering.
func (s *SQLiteStore) ListRandom(ctx context.Context, seed int64, limit, offset int) ([]Entry, error) {
	q := fmt.Sprintf(`SELECT id, file_path, file_name, thumbnail_filename, phash, title,
        creation_date, publication_date, last_modified_date,
        artist, source_platform, source_url, rating, tags, description, classification, category
        FROM artworks ORDER BY %s LIMIT ? OFFSET ?`, RandomOrderExpr(seed))
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var e Entry
	var thumb, phash, title, pubDate, artist, platform, sourceURL, tags, desc, classification sql.NullString
	var rating sql.NullInt64
	var created, modified string
	if err := rows.Scan(&e.ID, &e.StoragePath, &e.FileName, &thumb, &phash, &title,
		&created, &pubDate, &modified,
		&artist, &platform, &sourceURL, &rating, &tags, &desc, &classification, &e.Category); err != nil {
		return nil, err
	}
	e.DerivedAssetName = thumb.String
	e.Title = title.String
	e.Artist = artist.String
	e.Platform = platform.String
	e.SourceURL = sourceURL.String
	e.Tags = tags.String
	e.Description = desc.String
	e.Classification = classification.String
	e.Rating = int(rating.Int64)
	if phash.Valid {
		if fp, err := ParseFingerprint(phash.String); err == nil {
			e.Fingerprint = &fp
		}
	}
	e.CreationDate, _ = time.ParseInLocation(sqliteTimeLayout, created, time.Local)
	e.LastModifiedDate, _ = time.ParseInLocation(sqliteTimeLayout, modified, time.Local)
	if pubDate.Valid {
		e.PublicationDate, _ = time.ParseInLocation(sqliteTimeLayout, pubDate.String, time.Local)
	}
	return &e, nil
}

// BackfillStore.

func (s *SQLiteStore) MissingFingerprints(ctx context.Context) ([]EntryRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_path FROM artworks WHERE phash IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []EntryRef
	for rows.Next() {
		var ref EntryRef
		if err := rows.Scan(&ref.ID, &ref.StoragePath); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) SetFingerprint(ctx context.Context, id int64, fp Fingerprint) error {
	// The guard keeps ingestion-written fingerprints immutable.
	_, err := s.db.ExecContext(ctx,
		`UPDATE artworks SET phash = ? WHERE id = ? AND phash IS NULL`,
		fp.String(), id)
	return err
}

// RepairStore.

func (s *SQLiteStore) AllEntryFiles(ctx context.Context) ([]EntryFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_path, COALESCE(thumbnail_filename, '') FROM artworks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []EntryFile
	for rows.Next() {
		var ef EntryFile
		if err := rows.Scan(&ef.ID, &ef.StoragePath, &ef.DerivedAssetName); err != nil {
			return nil, err
		}
		files = append(files, ef)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) SetDerivedAsset(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE artworks SET thumbnail_filename = ? WHERE id = ?`, name, id)
	return err
}

// sqliteTx adapts *sql.Tx to the engine's Tx contract.
type sqliteTx struct {
	tx   *sql.Tx
	done bool
}

func (t *sqliteTx) Insert(ctx context.Context, e *Entry) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
        INSERT INTO artworks (
            file_path, file_name, title, artist, source_platform,
            tags, description, rating, category, classification,
            creation_date, publication_date, last_modified_date,
            phash, source_url
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.StoragePath, e.FileName, nullStr(e.Title), e.Artist, e.Platform,
		e.Tags, e.Description, nullInt(e.Rating), categoryOrDefault(e.Category), nullStr(e.Classification),
		e.CreationDate.Format(sqliteTimeLayout), nullTime(e.PublicationDate),
		e.LastModifiedDate.Format(sqliteTimeLayout),
		nullFingerprint(e.Fingerprint), nullStr(e.SourceURL))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *sqliteTx) UpdateDerivedAsset(ctx context.Context, id int64, name string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE artworks SET thumbnail_filename = ? WHERE id = ?`, name, id)
	return err
}

func (t *sqliteTx) Commit() error {
	t.done = true
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(sqliteTimeLayout)
}

func nullFingerprint(fp *Fingerprint) any {
	if fp == nil {
		return nil
	}
	return fp.String()
}

func categoryOrDefault(c string) string {
	if c == "" {
		return "fanart_non_comic"
	}
	return c
}
