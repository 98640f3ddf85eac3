package game

import (
	"github.com/jarvis-math-lab/backend/internal/storage"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// Backup is the union of the three loadable documents plus a snapshot
// timestamp. The ranking document is derived data and is not exported.
type Backup struct {
	Users    usersDocument    `json:"users"`
	Runs     runsDocument     `json:"runs"`
	Settings SettingsDocument `json:"settings"`
	Ts       int64            `json:"ts"`
}

// Export snapshots the current state for download.
func (s *Service) Export() Backup {
	return Backup{
		Users:    s.loadUsers(),
		Runs:     s.loadRuns(),
		Settings: s.loadSettings(),
		Ts:       s.now(),
	}
}

// Restore imports a backup. Each collection present in the payload replaces
// the stored document; the expected wrapper shape is kept as-is, a bare
// list/object is re-wrapped, and anything else degrades to the collection's
// empty default. Collections absent from the payload are left untouched.
// Restored accounts may predate the survival flag, so a backfill pass runs
// afterwards.
func (s *Service) Restore(raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return ErrInvalidBackup
	}
	payload := gjson.ParseBytes(raw)
	if !payload.IsObject() {
		return ErrInvalidBackup
	}

	if err := s.restoreDocuments(payload); err != nil {
		return err
	}
	return s.BackfillSurvivalFlags()
}

func (s *Service) restoreDocuments(payload gjson.Result) error {
	unlock := s.locker.Lock(storage.CollectionUsers, storage.CollectionRuns, storage.CollectionSettings)
	defer unlock()

	imports := []struct {
		collection storage.Collection
		key        string
		wantArray  bool
	}{
		{storage.CollectionUsers, "users", true},
		{storage.CollectionRuns, "runs", false},
		{storage.CollectionSettings, "levels", true},
	}
	for _, imp := range imports {
		section := payload.Get(string(imp.collection))
		if !section.Exists() || section.Type == gjson.Null {
			continue
		}
		document := coerceDocument(section, imp.key, imp.wantArray)
		if err := s.store.Save(imp.collection, document); err != nil {
			return err
		}
		s.logger.Info("collection restored", zap.String("collection", string(imp.collection)))
	}
	return nil
}

// coerceDocument normalizes an imported section to {key: <substructure>}.
func coerceDocument(section gjson.Result, key string, wantArray bool) []byte {
	inner := section.Get(key)
	if (wantArray && inner.IsArray()) || (!wantArray && inner.IsObject()) {
		return []byte(section.Raw)
	}
	if (wantArray && section.IsArray()) || (!wantArray && section.IsObject()) {
		if wrapped, err := sjson.SetRawBytes([]byte("{}"), key, []byte(section.Raw)); err == nil {
			return wrapped
		}
	}
	if wantArray {
		return []byte(`{"` + key + `":[]}`)
	}
	return []byte(`{"` + key + `":{}}`)
}
