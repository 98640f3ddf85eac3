// Package storage implements the flat-file record store behind the drill
// game: four named JSON collections with whole-document load/save semantics.
package storage

import (
	"encoding/json"
)

// Collection identifies one of the independently persisted documents.
type Collection string

const (
	CollectionUsers    Collection = "users"
	CollectionSettings Collection = "settings"
	CollectionRuns     Collection = "runs"
	CollectionRanking  Collection = "survival-ranking"
)

// Store persists whole documents keyed by collection. There is no partial
// update primitive; callers load, mutate in memory, and save the full
// document back. Load reports ok=false when the collection has never been
// written or cannot be read.
type Store interface {
	Load(collection Collection) (raw []byte, ok bool)
	Save(collection Collection, document []byte) error
}

// LoadJSON decodes the named collection into a value of type T. A missing or
// unparsable document yields the provided fallback, never an error: first run
// and corruption both degrade to the empty state.
func LoadJSON[T any](store Store, collection Collection, fallback T) T {
	raw, ok := store.Load(collection)
	if !ok {
		return fallback
	}
	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fallback
	}
	return decoded
}

// SaveJSON replaces the named collection with the indented encoding of the
// document.
func SaveJSON(store Store, collection Collection, document any) error {
	raw, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return err
	}
	return store.Save(collection, raw)
}
