package storage

import (
	"os"
	"path/filepath"
	"testing"
)

type levelsDocument struct {
	Levels []string `json:"levels"`
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected file store error: %v", err)
	}

	saved := levelsDocument{Levels: []string{"addition", "subtraction"}}
	if err := SaveJSON(store, CollectionSettings, saved); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded := LoadJSON(store, CollectionSettings, levelsDocument{})
	if len(loaded.Levels) != 2 || loaded.Levels[0] != "addition" {
		t.Fatalf("unexpected document after round trip: %#v", loaded)
	}
}

func TestFileStoreWritesOneFilePerCollection(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected file store error: %v", err)
	}

	if err := store.Save(CollectionRanking, []byte(`{"list":[]}`)); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "survival-ranking.json"))
	if err != nil {
		t.Fatalf("expected survival-ranking.json to exist: %v", err)
	}
	if string(raw) != `{"list":[]}` {
		t.Fatalf("unexpected file contents: %s", raw)
	}
}

func TestLoadJSONFallsBackWhenMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected file store error: %v", err)
	}

	fallback := levelsDocument{Levels: []string{}}
	loaded := LoadJSON(store, CollectionSettings, fallback)
	if loaded.Levels == nil || len(loaded.Levels) != 0 {
		t.Fatalf("expected empty fallback, got %#v", loaded)
	}
}

func TestLoadJSONFallsBackOnCorruptDocument(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected file store error: %v", err)
	}
	if err := store.Save(CollectionUsers, []byte("{not json")); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	fallback := levelsDocument{Levels: []string{"default"}}
	loaded := LoadJSON(store, CollectionUsers, fallback)
	if len(loaded.Levels) != 1 || loaded.Levels[0] != "default" {
		t.Fatalf("corrupt document should degrade to fallback, got %#v", loaded)
	}
}

func TestNewFileStoreRequiresDirectory(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("expected error for blank directory")
	}
}
