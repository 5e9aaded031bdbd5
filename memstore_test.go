package artcatalog

import (
	"context"
	"testing"
)

func TestMemStorePathUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedEntry(t, store, &Entry{StoragePath: "lib/p/a/x.jpg"})

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	if _, err := tx.Insert(ctx, &Entry{StoragePath: "lib/p/a/x.jpg"}); err == nil {
		t.Fatal("duplicate storage path accepted")
	}
}

func TestMemStoreRollbackUndoesInsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id, err := tx.Insert(ctx, &Entry{StoragePath: "lib/p/a/x.jpg"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if store.Len() != 0 {
		t.Error("rolled-back insert still visible")
	}
	if ref, _ := store.FindByPath(ctx, "lib/p/a/x.jpg"); ref != nil {
		t.Error("rolled-back path still indexed")
	}

	// The id is burned: a later insert gets a fresh one.
	id2 := seedEntry(t, store, &Entry{StoragePath: "lib/p/a/y.jpg"})
	if id2 == id {
		t.Errorf("id %d reused after rollback", id)
	}
}

func TestMemStoreRollbackAfterCommitIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	tx, _ := store.Begin(ctx)
	if _, err := tx.Insert(ctx, &Entry{StoragePath: "lib/p/a/x.jpg"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback after Commit: %v", err)
	}
	if store.Len() != 1 {
		t.Error("rollback after commit removed the entry")
	}
}

func TestMemStoreSetFingerprintOnlyWhenUnset(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	original := Fingerprint(0x1111)
	id := seedEntry(t, store, &Entry{StoragePath: "a.jpg", Fingerprint: &original})
	bare := seedEntry(t, store, &Entry{StoragePath: "b.jpg"})

	if err := store.SetFingerprint(ctx, id, Fingerprint(0x2222)); err != nil {
		t.Fatalf("SetFingerprint: %v", err)
	}
	if got := store.Entry(id); *got.Fingerprint != original {
		t.Errorf("ingestion-set fingerprint overwritten: %s", got.Fingerprint)
	}

	if err := store.SetFingerprint(ctx, bare, Fingerprint(0x2222)); err != nil {
		t.Fatalf("SetFingerprint: %v", err)
	}
	if got := store.Entry(bare); got.Fingerprint == nil || *got.Fingerprint != Fingerprint(0x2222) {
		t.Errorf("backfill did not set the missing fingerprint: %+v", got.Fingerprint)
	}
}

func TestMemStoreFingerprintEnumeration(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	fp := Fingerprint(0xABCD)
	seedEntry(t, store, &Entry{StoragePath: "a.jpg", Fingerprint: &fp})
	seedEntry(t, store, &Entry{StoragePath: "b.jpg"})

	records, err := store.AllFingerprints(ctx)
	if err != nil {
		t.Fatalf("AllFingerprints: %v", err)
	}
	if len(records) != 1 || records[0].ID != 1 || records[0].Fingerprint != fp {
		t.Errorf("records = %+v, want only the fingerprinted entry", records)
	}

	got, err := store.FingerprintByID(ctx, 2)
	if err != nil || got != nil {
		t.Errorf("FingerprintByID(2) = %v, %v; want nil for bare entry", got, err)
	}
}
