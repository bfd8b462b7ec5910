package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediagen-gateway/internal/request"
)

func testEntry(fp string) Entry {
	return Entry{
		Fingerprint: fp,
		Operation:   request.OpScript,
		Payload:     json.RawMessage(`{"script":"hello"}`),
		CreatedAt:   time.Now().UTC(),
		Provider:    "openai",
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, NamespaceScripts, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	entry := testEntry("abc123")
	if err := store.Put(ctx, NamespaceScripts, entry, false); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, NamespaceScripts, "abc123")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got.Payload) != `{"script":"hello"}` {
		t.Fatalf("unexpected payload: %s", got.Payload)
	}
	if got.Provider != "openai" {
		t.Fatalf("unexpected provider: %s", got.Provider)
	}
}

func TestDiskStorePutFirstWriteWins(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	first := testEntry("fp1")
	if err := store.Put(ctx, NamespaceScripts, first, false); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second := testEntry("fp1")
	second.Payload = json.RawMessage(`{"script":"other"}`)
	if err := store.Put(ctx, NamespaceScripts, second, false); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, _, _ := store.Get(ctx, NamespaceScripts, "fp1")
	if string(got.Payload) != `{"script":"hello"}` {
		t.Fatalf("second put should have been a no-op, got %s", got.Payload)
	}

	// Forced overwrite replaces the entry wholesale.
	if err := store.Put(ctx, NamespaceScripts, second, true); err != nil {
		t.Fatalf("forced Put: %v", err)
	}
	got, _, _ = store.Get(ctx, NamespaceScripts, "fp1")
	if string(got.Payload) != `{"script":"other"}` {
		t.Fatalf("forced put should replace, got %s", got.Payload)
	}
}

func TestDiskStoreCorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	entry := testEntry("dmg")
	if err := store.Put(ctx, NamespaceScripts, entry, false); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Damage the entry on disk.
	path := filepath.Join(dir, NamespaceScripts, "dmg.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("damage entry: %v", err)
	}

	_, ok, err := store.Get(ctx, NamespaceScripts, "dmg")
	if err != nil {
		t.Fatalf("corrupt entry must not surface an error, got %v", err)
	}
	if ok {
		t.Fatal("corrupt entry must be reported as a miss")
	}

	// Regeneration repairs the entry.
	if err := store.Put(ctx, NamespaceScripts, entry, true); err != nil {
		t.Fatalf("repair Put: %v", err)
	}
	if _, ok, _ := store.Get(ctx, NamespaceScripts, "dmg"); !ok {
		t.Fatal("expected hit after repair")
	}
}

func TestDiskStoreClearCountsPerNamespace(t *testing.T) {
	t.Parallel()

	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	for _, fp := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, NamespaceScripts, testEntry(fp), false); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := store.Put(ctx, NamespaceTitles, testEntry("d"), false); err != nil {
		t.Fatalf("Put: %v", err)
	}

	n, err := store.Clear(ctx, NamespaceScripts)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 removed, got %d", n)
	}

	if _, ok, _ := store.Get(ctx, NamespaceTitles, "d"); !ok {
		t.Fatal("clearing scripts must not touch titles")
	}

	n, err = store.Clear(ctx, "")
	if err != nil {
		t.Fatalf("Clear all: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed from remaining namespaces, got %d", n)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, NamespaceTitles, testEntry("x"), false); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := store.Get(ctx, NamespaceTitles, "x"); !ok {
		t.Fatal("expected hit")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", store.Len())
	}

	other := testEntry("x")
	other.Payload = json.RawMessage(`{"titles":[]}`)
	if err := store.Put(ctx, NamespaceTitles, other, false); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _, _ := store.Get(ctx, NamespaceTitles, "x")
	if string(got.Payload) != `{"script":"hello"}` {
		t.Fatal("non-forced duplicate put must not replace")
	}

	n, _ := store.Clear(ctx, NamespaceTitles)
	if n != 1 || store.Len() != 0 {
		t.Fatalf("clear removed %d, %d left", n, store.Len())
	}
}
