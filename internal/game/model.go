// Package game implements the record-store semantics of the math drill
// backend: learner accounts with credential migration, the bounded run
// history ledger, the survival leaderboard, settings, and backup/restore.
package game

import (
	"encoding/json"
	"errors"
	"regexp"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnknownUser indicates the username has no account.
	ErrUnknownUser = errors.New("game: unknown user")
	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("game: username already taken")
	// ErrInvalidUsername indicates the username fails length or charset rules.
	ErrInvalidUsername = errors.New("game: invalid username")
	// ErrWeakPassword indicates the password is below the length floor.
	ErrWeakPassword = errors.New("game: password too short")
	// ErrWrongPassword indicates the presented password did not match.
	ErrWrongPassword = errors.New("game: wrong password")
	// ErrInvalidSettings indicates a settings payload without a levels list.
	ErrInvalidSettings = errors.New("game: settings must carry a levels list")
	// ErrInvalidBackup indicates a restore payload that is not a JSON object.
	ErrInvalidBackup = errors.New("game: invalid backup payload")
)

const (
	minUsernameRunes = 2
	maxUsernameRunes = 20
	minPasswordRunes = 6
)

// ASCII word characters plus the CJK unified ideograph range the game
// supports for learner names.
var usernamePattern = regexp.MustCompile(`^[0-9A-Za-z_\x{4e00}-\x{9fa5}]+$`)

// ValidUsername reports whether the name is 2-20 word characters in the
// supported alphabets.
func ValidUsername(name string) bool {
	length := utf8.RuneCountInString(name)
	if length < minUsernameRunes || length > maxUsernameRunes {
		return false
	}
	return usernamePattern.MatchString(name)
}

// Mode tags a completed practice session.
type Mode string

const (
	ModeSurvival Mode = "survival"
	ModeTraining Mode = "training"
	ModeLevel    Mode = "level"
)

// NormalizeMode coerces unrecognized tags to survival.
func NormalizeMode(raw string) Mode {
	switch Mode(raw) {
	case ModeTraining:
		return ModeTraining
	case ModeLevel:
		return ModeLevel
	default:
		return ModeSurvival
	}
}

// Account is one learner record. The recent-run caches and wrongAnswers are
// client-authoritative and stored verbatim. Field names are part of the
// persisted and wire format.
type Account struct {
	Username                  string          `json:"username"`
	Password                  string          `json:"password,omitempty"`
	LevelIndex                int             `json:"levelIndex"`
	BestLevelIndex            int             `json:"bestLevelIndex"`
	TotalScore                int             `json:"totalScore"`
	BestSurvivalSec           float64         `json:"bestSurvivalSec"`
	BestScore                 int             `json:"bestScore"`
	RecentSurvivalRuns        json.RawMessage `json:"recentSurvivalRuns"`
	RecentLevelRuns           json.RawMessage `json:"recentLevelRuns"`
	RecentTrainingRuns        json.RawMessage `json:"recentTrainingRuns"`
	LevelChallengeLastLevel   int             `json:"levelChallengeLastLevel"`
	LevelTrainingCurrentLevel int             `json:"levelTrainingCurrentLevel"`
	WrongAnswers              json.RawMessage `json:"wrongAnswers"`
	HasClearedSurvival        *bool           `json:"hasClearedSurvival,omitempty"`
	LastGameTs                int64           `json:"lastGameTs,omitempty"`
	CreatedBy                 string          `json:"createdBy,omitempty"`
}

// Sanitized returns a copy safe to hand to clients, with the credential
// stripped.
func (a Account) Sanitized() Account {
	a.Password = ""
	return a
}

func newAccount(username, passwordHash, createdBy string) Account {
	return Account{
		Username:                  username,
		Password:                  passwordHash,
		RecentSurvivalRuns:        json.RawMessage("[]"),
		RecentLevelRuns:           json.RawMessage("[]"),
		RecentTrainingRuns:        json.RawMessage("[]"),
		LevelTrainingCurrentLevel: -1,
		WrongAnswers:              json.RawMessage("[]"),
		CreatedBy:                 createdBy,
	}
}

// RunEntry is one normalized practice-session outcome. Entries are never
// mutated after creation.
type RunEntry struct {
	SurvivalTimeSec float64         `json:"survivalTimeSec"`
	Score           int             `json:"score"`
	MaxLevel        int             `json:"maxLevel"`
	WrongCount      int             `json:"wrongCount"`
	Ts              int64           `json:"ts"`
	Mode            Mode            `json:"mode"`
	SurvivalCleared bool            `json:"survivalCleared,omitempty"`
	Attempts        json.RawMessage `json:"attempts,omitempty"`
}

// RunSubmission is a client-supplied session outcome before normalization.
// A nil Ts takes the ingestion clock; an explicit zero is kept.
type RunSubmission struct {
	SurvivalTimeSec float64         `json:"survivalTimeSec"`
	Score           int             `json:"score"`
	MaxLevel        int             `json:"maxLevel"`
	WrongCount      int             `json:"wrongCount"`
	Ts              *int64          `json:"ts"`
	Mode            string          `json:"mode"`
	SurvivalCleared bool            `json:"survivalCleared"`
	Attempts        json.RawMessage `json:"attempts"`
}

func normalizeRun(submission RunSubmission, ingestedAt int64) RunEntry {
	entry := RunEntry{
		SurvivalTimeSec: submission.SurvivalTimeSec,
		Score:           submission.Score,
		MaxLevel:        submission.MaxLevel,
		WrongCount:      submission.WrongCount,
		Ts:              ingestedAt,
		Mode:            NormalizeMode(submission.Mode),
	}
	if submission.Ts != nil {
		entry.Ts = *submission.Ts
	}
	if entry.Mode == ModeSurvival && submission.SurvivalCleared {
		entry.SurvivalCleared = true
	}
	if len(submission.Attempts) > 0 && gjson.ValidBytes(submission.Attempts) &&
		gjson.ParseBytes(submission.Attempts).IsArray() {
		entry.Attempts = submission.Attempts
	}
	return entry
}

// RankingEntry is one survival-clear event on the leaderboard, keyed by
// (username, ts).
type RankingEntry struct {
	Username        string  `json:"username"`
	SurvivalTimeSec float64 `json:"survivalTimeSec"`
	WrongCount      int     `json:"wrongCount"`
	Ts              int64   `json:"ts"`
}

// RankedEntry is a leaderboard row with its 1-based rank, recomputed from the
// current sort order on every read.
type RankedEntry struct {
	Rank int `json:"rank"`
	RankingEntry
}

// SettingsDocument carries the level configuration consumed by the client.
// The server treats its contents as opaque.
type SettingsDocument struct {
	Levels []json.RawMessage `json:"levels"`
}

type usersDocument struct {
	Users []Account `json:"users"`
}

type runsDocument struct {
	Runs map[string][]RunEntry `json:"runs"`
}

type rankingDocument struct {
	List []RankingEntry `json:"list"`
}

func emptyUsers() usersDocument { return usersDocument{Users: []Account{}} }

func emptyRuns() runsDocument { return runsDocument{Runs: map[string][]RunEntry{}} }

func emptyRanking() rankingDocument { return rankingDocument{List: []RankingEntry{}} }

func emptySettings() SettingsDocument {
	return SettingsDocument{Levels: []json.RawMessage{}}
}

func accountIndex(accounts []Account, username string) (int, bool) {
	for i := range accounts {
		if accounts[i].Username == username {
			return i, true
		}
	}
	return 0, false
}
