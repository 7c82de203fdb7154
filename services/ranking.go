package services

import "github.com/kabaddi-league/scorekeeper/models"

// assignCompetitionRanks sets Rank on entries already sorted descending by
// Points. Equal values share a rank and the next distinct value resumes at
// one past the number of entries strictly ahead, so 20, 20, 15 ranks as
// 1, 1, 3.
func assignCompetitionRanks(entries []models.LeaderboardEntry) {
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
