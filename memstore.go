package artcatalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used as a test double and for ephemeral
// catalogs. It enforces the same application-level constraints as the sqlite
// implementation: unique storage paths, ids assigned once and never reused,
// backfill never overwriting an existing fingerprint. Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*Entry
	byPath  map[string]int64
}

// NewMemStore returns an empty in-memory catalog.
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[int64]*Entry),
		byPath:  make(map[string]int64),
	}
}

func (s *MemStore) FindByExactKey(_ context.Context, key ExactKey) (*EntryRef, error) {
	if key.Title == "" {
		// Empty titles never participate in exact matching.
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Platform == key.Platform && e.Artist == key.Artist && e.Title == key.Title {
			return &EntryRef{ID: e.ID, StoragePath: e.StoragePath}, nil
		}
	}
	return nil, nil
}

func (s *MemStore) FindByPath(_ context.Context, path string) (*EntryRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPath[path]
	if !ok {
		return nil, nil
	}
	return &EntryRef{ID: id, StoragePath: path}, nil
}

func (s *MemStore) AllFingerprints(_ context.Context) ([]FingerprintRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]FingerprintRecord, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Fingerprint != nil {
			records = append(records, FingerprintRecord{ID: e.ID, Fingerprint: *e.Fingerprint})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *MemStore) FingerprintByID(_ context.Context, id int64) (*Fingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.Fingerprint == nil {
		return nil, nil
	}
	fp := *e.Fingerprint
	return &fp, nil
}

func (s *MemStore) Begin(_ context.Context) (Tx, error) {
	return &memTx{store: s}, nil
}

// Entry returns a copy of a stored entry, or nil. Test helper surface.
func (s *MemStore) Entry(id int64) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

// Len reports the number of stored entries.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ListRandom returns one page of the seeded pseudo-random ordering: ascending
// OrderKey, ties broken by ascending id. With a stable catalog and a fixed
// seed, consecutive pages never repeat or omit entries.
func (s *MemStore) ListRandom(_ context.Context, seed int64, limit, offset int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool {
		ki, kj := OrderKey(all[i].ID, seed), OrderKey(all[j].ID, seed)
		if ki != kj {
			return ki < kj
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// BackfillStore.

func (s *MemStore) MissingFingerprints(_ context.Context) ([]EntryRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []EntryRef
	for _, e := range s.entries {
		if e.Fingerprint == nil {
			refs = append(refs, EntryRef{ID: e.ID, StoragePath: e.StoragePath})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (s *MemStore) SetFingerprint(_ context.Context, id int64, fp Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("memstore: no entry %d", id)
	}
	if e.Fingerprint != nil {
		// Set once at ingestion, never overwritten by backfill.
		return nil
	}
	e.Fingerprint = &fp
	return nil
}

// RepairStore.

func (s *MemStore) AllEntryFiles(_ context.Context) ([]EntryFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]EntryFile, 0, len(s.entries))
	for _, e := range s.entries {
		files = append(files, EntryFile{ID: e.ID, StoragePath: e.StoragePath, DerivedAssetName: e.DerivedAssetName})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

func (s *MemStore) SetDerivedAsset(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("memstore: no entry %d", id)
	}
	e.DerivedAssetName = name
	return nil
}

// memTx applies writes immediately and journals enough to undo them, which
// mirrors how the sqlite transaction behaves from the pipeline's viewpoint.
type memTx struct {
	store    *MemStore
	done     bool
	inserted []int64
	updated  map[int64]string // previous derived-asset names
}

func (t *memTx) Insert(_ context.Context, e *Entry) (int64, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.StoragePath == "" {
		return 0, fmt.Errorf("memstore: empty storage path")
	}
	if _, exists := s.byPath[e.StoragePath]; exists {
		return 0, fmt.Errorf("memstore: storage path %q already cataloged", e.StoragePath)
	}
	s.nextID++
	id := s.nextID
	cp := *e
	cp.ID = id
	s.entries[id] = &cp
	s.byPath[cp.StoragePath] = id
	t.inserted = append(t.inserted, id)
	return id, nil
}

func (t *memTx) UpdateDerivedAsset(_ context.Context, id int64, name string) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("memstore: no entry %d", id)
	}
	if t.updated == nil {
		t.updated = make(map[int64]string)
	}
	if _, seen := t.updated[id]; !seen {
		t.updated[id] = e.DerivedAssetName
	}
	e.DerivedAssetName = name
	return nil
}

func (t *memTx) Commit() error {
	t.done = true
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, prev := range t.updated {
		if e, ok := s.entries[id]; ok {
			e.DerivedAssetName = prev
		}
	}
	for _, id := range t.inserted {
		if e, ok := s.entries[id]; ok {
			delete(s.byPath, e.StoragePath)
			delete(s.entries, id)
		}
	}
	return nil
}
