package configstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadDump_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.InsertOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1", "api_name": "orders"})

	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "doorman.dump")
	key := "correct-horse-battery-staple"

	if err := SaveDump(store, dumpPath, key); err != nil {
		t.Fatalf("save dump: %v", err)
	}

	data, err := LoadLatestDump(dumpPath, key)
	if err != nil {
		t.Fatalf("load latest dump: %v", err)
	}

	fresh := NewMemoryStore()
	if err := fresh.Restore(ctx, data); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, err := fresh.FindOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1"})
	if err != nil {
		t.Fatalf("find after restore: %v", err)
	}
	if got["api_name"] != "orders" {
		t.Errorf("expected restored api_name, got %v", got["api_name"])
	}
}

func TestLoadDump_WrongKeyFails(t *testing.T) {
	store := NewMemoryStore()
	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "doorman.dump")

	if err := SaveDump(store, dumpPath, "correct-key"); err != nil {
		t.Fatalf("save dump: %v", err)
	}
	if _, err := LoadLatestDump(dumpPath, "wrong-key"); err == nil {
		t.Error("expected decryption failure with wrong key")
	}
}

func TestFindLatestDumpPath_NoFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindLatestDumpPath(filepath.Join(dir, "missing.dump")); err == nil {
		t.Error("expected error when no dump files exist")
	}
}

func TestFindLatestDumpPath_PicksNewest(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "doorman.dump")
	os.WriteFile(base+".20240101T000000Z", []byte("old"), 0o600)
	os.WriteFile(base+".20250101T000000Z", []byte("new"), 0o600)

	latest, err := FindLatestDumpPath(base)
	if err != nil {
		t.Fatalf("find latest: %v", err)
	}
	if filepath.Base(latest) != "doorman.dump.20250101T000000Z" {
		t.Errorf("expected newest dump, got %s", latest)
	}
}
