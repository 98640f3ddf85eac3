package game

import "sort"

// rankingMax bounds the leaderboard; entries beyond it are discarded, never
// archived.
const rankingMax = 50

// submitRanking folds one survival-clear event into the leaderboard: an
// existing entry with the same (username, ts) key is replaced, the set is
// re-sorted by ascending survival time with wrong count as the tie-break, and
// the result is capped. Callers hold the ranking collection lock.
func (s *Service) submitRanking(entry RankingEntry) error {
	doc := s.loadRanking()
	next := make([]RankingEntry, 0, len(doc.List)+1)
	for _, existing := range doc.List {
		if existing.Username == entry.Username && existing.Ts == entry.Ts {
			continue
		}
		next = append(next, existing)
	}
	next = append(next, entry)
	sort.SliceStable(next, func(i, j int) bool {
		if next[i].SurvivalTimeSec != next[j].SurvivalTimeSec {
			return next[i].SurvivalTimeSec < next[j].SurvivalTimeSec
		}
		return next[i].WrongCount < next[j].WrongCount
	})
	if len(next) > rankingMax {
		next = next[:rankingMax]
	}
	doc.List = next
	return s.saveRanking(doc)
}

// Ranking returns the leaderboard with 1-based ranks recomputed from the
// current sort order, so ranks self-heal after any mutation.
func (s *Service) Ranking() []RankedEntry {
	doc := s.loadRanking()
	out := make([]RankedEntry, 0, len(doc.List))
	for i, entry := range doc.List {
		out = append(out, RankedEntry{Rank: i + 1, RankingEntry: entry})
	}
	return out
}
