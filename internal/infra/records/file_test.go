package records

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.json")
	store := NewFileStore(path)

	if _, ok, err := store.Get("blob_DEMO-ROOM"); err != nil || ok {
		t.Fatalf("expected missing key on fresh store, got ok=%v err=%v", ok, err)
	}
	if err := store.Set("blob_DEMO-ROOM", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("aptimaster_config", `{"meetLink":"https://meet.example.com/x"}`); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened := NewFileStore(path)
	v, ok, err := reopened.Get("blob_DEMO-ROOM")
	if err != nil || !ok || v != "abc" {
		t.Fatalf("expected abc after reopen, got %q ok=%v err=%v", v, ok, err)
	}

	if err := reopened.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected records file removed, got %v", err)
	}
	if err := reopened.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewFileStore(path).Get("k"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set("k", "v")
	if v, ok, _ := store.Get("k"); !ok || v != "v" {
		t.Fatalf("expected v, got %q", v)
	}
	_ = store.Clear()
	if _, ok, _ := store.Get("k"); ok {
		t.Fatalf("expected empty store after clear")
	}
}
