package game

import (
	"sort"

	"github.com/jarvis-math-lab/backend/internal/storage"
	"go.uber.org/zap"
)

// maxRunHistory caps each learner's stored history; the oldest entries are
// evicted first.
const maxRunHistory = 500

// AppendRun normalizes and records one session outcome, prepending it to the
// owner's history and truncating to the newest 500. The owner's lastGameTs is
// updated; a completed survival run also feeds the leaderboard and marks the
// account as having cleared survival.
func (s *Service) AppendRun(username string, submission RunSubmission) (RunEntry, error) {
	unlock := s.locker.Lock(storage.CollectionUsers, storage.CollectionRuns, storage.CollectionRanking)
	defer unlock()

	users := s.loadUsers()
	idx, exists := accountIndex(users.Users, username)
	if !exists {
		return RunEntry{}, ErrUnknownUser
	}

	entry := normalizeRun(submission, s.now())

	runs := s.loadRuns()
	history := append([]RunEntry{entry}, runs.Runs[username]...)
	if len(history) > maxRunHistory {
		history = history[:maxRunHistory]
	}
	runs.Runs[username] = history
	if err := s.saveRuns(runs); err != nil {
		return RunEntry{}, err
	}

	users.Users[idx].LastGameTs = entry.Ts
	if entry.Mode == ModeSurvival && entry.SurvivalCleared {
		if err := s.submitRanking(RankingEntry{
			Username:        username,
			SurvivalTimeSec: entry.SurvivalTimeSec,
			WrongCount:      entry.WrongCount,
			Ts:              entry.Ts,
		}); err != nil {
			return RunEntry{}, err
		}
		cleared := true
		users.Users[idx].HasClearedSurvival = &cleared
	}
	if err := s.saveUsers(users); err != nil {
		return RunEntry{}, err
	}

	s.logger.Debug("run recorded",
		zap.String("username", username),
		zap.String("mode", string(entry.Mode)),
		zap.Int64("ts", entry.Ts))
	return entry, nil
}

// ListRuns returns the learner's history, newest first, or ErrUnknownUser.
func (s *Service) ListRuns(username string) ([]RunEntry, error) {
	users := s.loadUsers()
	if _, exists := accountIndex(users.Users, username); !exists {
		return nil, ErrUnknownUser
	}
	return s.RunHistory(username), nil
}

// RunHistory returns the stored (possibly empty) history without requiring
// the account to exist. Modes are normalized and entries ordered newest
// first.
func (s *Service) RunHistory(username string) []RunEntry {
	runs := s.loadRuns()
	history := make([]RunEntry, len(runs.Runs[username]))
	copy(history, runs.Runs[username])
	for i := range history {
		history[i].Mode = NormalizeMode(string(history[i].Mode))
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].Ts > history[j].Ts })
	return history
}

func historyHasClear(history []RunEntry) bool {
	for _, entry := range history {
		if entry.Mode == ModeSurvival && entry.SurvivalCleared {
			return true
		}
	}
	return false
}
