package game

import (
	"github.com/jarvis-math-lab/backend/internal/storage"
	"go.uber.org/zap"
)

// BackfillSurvivalFlags stamps hasClearedSurvival on accounts that predate
// the flag by scanning their run history. It runs once at startup and after a
// restore import, so read endpoints never have to write.
func (s *Service) BackfillSurvivalFlags() error {
	unlock := s.locker.Lock(storage.CollectionUsers, storage.CollectionRuns)
	defer unlock()

	users := s.loadUsers()
	runs := s.loadRuns()
	stamped := 0
	for i := range users.Users {
		if users.Users[i].HasClearedSurvival != nil {
			continue
		}
		cleared := historyHasClear(runs.Runs[users.Users[i].Username])
		users.Users[i].HasClearedSurvival = &cleared
		stamped++
	}
	if stamped == 0 {
		return nil
	}
	if err := s.saveUsers(users); err != nil {
		return err
	}
	s.logger.Info("survival flags backfilled", zap.Int("accounts", stamped))
	return nil
}
