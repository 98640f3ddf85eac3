package game

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/jarvis-math-lab/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	createdBySelf  = "self"
	createdByAdmin = "admin"
)

// Register creates a learner account from self-registration. The credential
// is always stored hashed.
func (s *Service) Register(username, password string) (Account, error) {
	name := strings.TrimSpace(username)
	if !ValidUsername(name) {
		return Account{}, ErrInvalidUsername
	}
	if utf8.RuneCountInString(password) < minPasswordRunes {
		return Account{}, ErrWeakPassword
	}

	unlock := s.locker.Lock(storage.CollectionUsers)
	defer unlock()

	doc := s.loadUsers()
	if _, exists := accountIndex(doc.Users, name); exists {
		return Account{}, ErrDuplicateUsername
	}
	hash, err := hashPassword(password)
	if err != nil {
		return Account{}, err
	}
	account := newAccount(name, hash, createdBySelf)
	doc.Users = append(doc.Users, account)
	if err := s.saveUsers(doc); err != nil {
		return Account{}, err
	}
	s.logger.Info("account registered", zap.String("username", name))
	return account.Sanitized(), nil
}

// Authenticate verifies the password against the stored credential. A
// matching legacy plaintext credential is upgraded to a bcrypt hash before
// returning; a failed match leaves the stored value untouched, and hashed
// credentials are never rewritten.
func (s *Service) Authenticate(username, password string) (Account, error) {
	unlock := s.locker.Lock(storage.CollectionUsers)
	defer unlock()

	doc := s.loadUsers()
	idx, exists := accountIndex(doc.Users, username)
	if !exists {
		return Account{}, ErrUnknownUser
	}
	account := doc.Users[idx]
	if !verifyCredential(account.Password, password) {
		return Account{}, ErrWrongPassword
	}
	if isHashedCredential(account.Password) {
		return account.Sanitized(), nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return Account{}, err
	}
	doc.Users[idx].Password = hash
	if err := s.saveUsers(doc); err != nil {
		return Account{}, err
	}
	s.logger.Info("legacy credential upgraded", zap.String("username", username))
	return doc.Users[idx].Sanitized(), nil
}

// ChangePassword verifies the current password (legacy or hashed form) and
// stores the new one hashed. The length floor applies to the new password
// only.
func (s *Service) ChangePassword(username, currentPassword, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordRunes {
		return ErrWeakPassword
	}

	unlock := s.locker.Lock(storage.CollectionUsers)
	defer unlock()

	doc := s.loadUsers()
	idx, exists := accountIndex(doc.Users, username)
	if !exists {
		return ErrUnknownUser
	}
	if !verifyCredential(doc.Users[idx].Password, currentPassword) {
		return ErrWrongPassword
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	doc.Users[idx].Password = hash
	return s.saveUsers(doc)
}

// GetAccount returns the sanitized account. Accounts predating the
// hasClearedSurvival flag get it computed from their run history without
// persisting, so reads never write.
func (s *Service) GetAccount(username string) (Account, error) {
	doc := s.loadUsers()
	idx, exists := accountIndex(doc.Users, username)
	if !exists {
		return Account{}, ErrUnknownUser
	}
	account := doc.Users[idx]
	if account.HasClearedSurvival == nil {
		cleared := historyHasClear(s.loadRuns().Runs[username])
		account.HasClearedSurvival = &cleared
	}
	return account.Sanitized(), nil
}

// ProgressUpdate carries the client-authoritative progress fields a learner
// may sync after a game. Nil fields are left unchanged.
type ProgressUpdate struct {
	LevelIndex                *int            `json:"levelIndex"`
	BestLevelIndex            *int            `json:"bestLevelIndex"`
	TotalScore                *int            `json:"totalScore"`
	BestSurvivalSec           *float64        `json:"bestSurvivalSec"`
	BestScore                 *int            `json:"bestScore"`
	RecentSurvivalRuns        json.RawMessage `json:"recentSurvivalRuns"`
	RecentLevelRuns           json.RawMessage `json:"recentLevelRuns"`
	RecentTrainingRuns        json.RawMessage `json:"recentTrainingRuns"`
	LevelChallengeLastLevel   *int            `json:"levelChallengeLastLevel"`
	LevelTrainingCurrentLevel *int            `json:"levelTrainingCurrentLevel"`
	WrongAnswers              json.RawMessage `json:"wrongAnswers"`
}

// ApplyProgress merges the provided fields into the account.
func (s *Service) ApplyProgress(username string, update ProgressUpdate) (Account, error) {
	unlock := s.locker.Lock(storage.CollectionUsers)
	defer unlock()

	doc := s.loadUsers()
	idx, exists := accountIndex(doc.Users, username)
	if !exists {
		return Account{}, ErrUnknownUser
	}
	account := &doc.Users[idx]
	if update.LevelIndex != nil {
		account.LevelIndex = *update.LevelIndex
	}
	if update.BestLevelIndex != nil {
		account.BestLevelIndex = *update.BestLevelIndex
	}
	if update.TotalScore != nil {
		account.TotalScore = *update.TotalScore
	}
	if update.BestSurvivalSec != nil {
		account.BestSurvivalSec = *update.BestSurvivalSec
	}
	if update.BestScore != nil {
		account.BestScore = *update.BestScore
	}
	if update.RecentSurvivalRuns != nil {
		account.RecentSurvivalRuns = update.RecentSurvivalRuns
	}
	if update.RecentLevelRuns != nil {
		account.RecentLevelRuns = update.RecentLevelRuns
	}
	if update.RecentTrainingRuns != nil {
		account.RecentTrainingRuns = update.RecentTrainingRuns
	}
	if update.LevelChallengeLastLevel != nil {
		account.LevelChallengeLastLevel = *update.LevelChallengeLastLevel
	}
	if update.LevelTrainingCurrentLevel != nil {
		account.LevelTrainingCurrentLevel = *update.LevelTrainingCurrentLevel
	}
	if update.WrongAnswers != nil {
		account.WrongAnswers = update.WrongAnswers
	}
	if err := s.saveUsers(doc); err != nil {
		return Account{}, err
	}
	return account.Sanitized(), nil
}

// ListAccounts returns every account with credentials stripped. Accounts that
// never reported lastGameTs borrow it from their newest run for display only;
// nothing is persisted.
func (s *Service) ListAccounts() []Account {
	users := s.loadUsers()
	runs := s.loadRuns()
	out := make([]Account, 0, len(users.Users))
	for _, account := range users.Users {
		if account.LastGameTs == 0 {
			if history := runs.Runs[account.Username]; len(history) > 0 {
				account.LastGameTs = history[0].Ts
			}
		}
		out = append(out, account.Sanitized())
	}
	return out
}

// Usernames returns the bare learner names for selection lists.
func (s *Service) Usernames() []string {
	users := s.loadUsers()
	names := make([]string, 0, len(users.Users))
	for _, account := range users.Users {
		names = append(names, account.Username)
	}
	return names
}

// CreateAccount adds a learner on behalf of an administrator and returns the
// full sanitized roster.
func (s *Service) CreateAccount(username, password string) ([]Account, error) {
	unlock := s.locker.Lock(storage.CollectionUsers)
	defer unlock()

	doc := s.loadUsers()
	if _, exists := accountIndex(doc.Users, username); exists {
		return nil, ErrDuplicateUsername
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	doc.Users = append(doc.Users, newAccount(username, hash, createdByAdmin))
	if err := s.saveUsers(doc); err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(doc.Users))
	for _, account := range doc.Users {
		out = append(out, account.Sanitized())
	}
	return out, nil
}

// AdminAccountUpdate carries the account fields an administrator may rewrite.
// A provided password is always stored hashed.
type AdminAccountUpdate struct {
	Password       *string `json:"password"`
	LevelIndex     *int    `json:"levelIndex"`
	BestLevelIndex *int    `json:"bestLevelIndex"`
	TotalScore     *int    `json:"totalScore"`
}

// UpdateAccount applies an administrative update to the account.
func (s *Service) UpdateAccount(username string, update AdminAccountUpdate) (Account, error) {
	unlock := s.locker.Lock(storage.CollectionUsers)
	defer unlock()

	doc := s.loadUsers()
	idx, exists := accountIndex(doc.Users, username)
	if !exists {
		return Account{}, ErrUnknownUser
	}
	account := &doc.Users[idx]
	if update.Password != nil {
		hash, err := hashPassword(*update.Password)
		if err != nil {
			return Account{}, err
		}
		account.Password = hash
	}
	if update.LevelIndex != nil {
		account.LevelIndex = *update.LevelIndex
	}
	if update.BestLevelIndex != nil {
		account.BestLevelIndex = *update.BestLevelIndex
	}
	if update.TotalScore != nil {
		account.TotalScore = *update.TotalScore
	}
	if err := s.saveUsers(doc); err != nil {
		return Account{}, err
	}
	return account.Sanitized(), nil
}

// DeleteAccount removes the account and its entire run history. Leaderboard
// rows for the user stay until displaced. Returns the remaining roster.
func (s *Service) DeleteAccount(username string) ([]Account, error) {
	unlock := s.locker.Lock(storage.CollectionUsers, storage.CollectionRuns)
	defer unlock()

	doc := s.loadUsers()
	idx, exists := accountIndex(doc.Users, username)
	if !exists {
		return nil, ErrUnknownUser
	}
	doc.Users = append(doc.Users[:idx], doc.Users[idx+1:]...)
	if err := s.saveUsers(doc); err != nil {
		return nil, err
	}

	runs := s.loadRuns()
	delete(runs.Runs, username)
	if err := s.saveRuns(runs); err != nil {
		return nil, err
	}

	s.logger.Info("account deleted", zap.String("username", username))
	out := make([]Account, 0, len(doc.Users))
	for _, account := range doc.Users {
		out = append(out, account.Sanitized())
	}
	return out, nil
}
