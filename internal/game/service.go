package game

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jarvis-math-lab/backend/internal/storage"
	"go.uber.org/zap"
)

var errMissingStore = errors.New("game: record store is required")

// ServiceConfig describes the dependencies of the game service.
type ServiceConfig struct {
	Store  storage.Store
	Locker *storage.Locker
	Clock  func() time.Time
	Logger *zap.Logger
}

// Service owns every operation against the four persisted collections. All
// mutating operations take the relevant collection locks so that each
// load-mutate-save sequence is atomic per collection; reads go unserialized.
type Service struct {
	store  storage.Store
	locker *storage.Locker
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the game service with sane defaults.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	locker := cfg.Locker
	if locker == nil {
		locker = storage.NewLocker()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  cfg.Store,
		locker: locker,
		clock:  clock,
		logger: logger,
	}, nil
}

// now reports the ingestion clock in epoch milliseconds, the unit every
// stored timestamp uses.
func (s *Service) now() int64 {
	return s.clock().UnixMilli()
}

func (s *Service) loadUsers() usersDocument {
	doc := storage.LoadJSON(s.store, storage.CollectionUsers, emptyUsers())
	if doc.Users == nil {
		doc.Users = []Account{}
	}
	return doc
}

func (s *Service) saveUsers(doc usersDocument) error {
	return storage.SaveJSON(s.store, storage.CollectionUsers, doc)
}

func (s *Service) loadRuns() runsDocument {
	doc := storage.LoadJSON(s.store, storage.CollectionRuns, emptyRuns())
	if doc.Runs == nil {
		doc.Runs = map[string][]RunEntry{}
	}
	return doc
}

func (s *Service) saveRuns(doc runsDocument) error {
	return storage.SaveJSON(s.store, storage.CollectionRuns, doc)
}

func (s *Service) loadRanking() rankingDocument {
	doc := storage.LoadJSON(s.store, storage.CollectionRanking, emptyRanking())
	if doc.List == nil {
		doc.List = []RankingEntry{}
	}
	return doc
}

func (s *Service) saveRanking(doc rankingDocument) error {
	return storage.SaveJSON(s.store, storage.CollectionRanking, doc)
}

func (s *Service) loadSettings() SettingsDocument {
	doc := storage.LoadJSON(s.store, storage.CollectionSettings, emptySettings())
	if doc.Levels == nil {
		doc.Levels = []json.RawMessage{}
	}
	return doc
}

func (s *Service) saveSettings(doc SettingsDocument) error {
	return storage.SaveJSON(s.store, storage.CollectionSettings, doc)
}
