package game

import (
	"testing"
	"time"

	"github.com/jarvis-math-lab/backend/internal/storage"
)

const testNowMillis int64 = 1700000000000

func newTestService(t *testing.T, store storage.Store) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Store: store,
		Clock: func() time.Time { return time.UnixMilli(testNowMillis) },
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func seedAccounts(t *testing.T, store storage.Store, accounts ...Account) {
	t.Helper()
	if err := storage.SaveJSON(store, storage.CollectionUsers, usersDocument{Users: accounts}); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}
}

func storedAccount(t *testing.T, store storage.Store, username string) Account {
	t.Helper()
	doc := storage.LoadJSON(store, storage.CollectionUsers, emptyUsers())
	idx, ok := accountIndex(doc.Users, username)
	if !ok {
		t.Fatalf("account %q not stored", username)
	}
	return doc.Users[idx]
}

func storedHistory(t *testing.T, store storage.Store, username string) []RunEntry {
	t.Helper()
	doc := storage.LoadJSON(store, storage.CollectionRuns, emptyRuns())
	return doc.Runs[username]
}

func int64Ptr(value int64) *int64 { return &value }
