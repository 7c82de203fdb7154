package models

import "time"

type MatchStatus string

const (
	MatchStatusUpcoming  MatchStatus = "Upcoming"
	MatchStatusOngoing   MatchStatus = "Ongoing"
	MatchStatusCompleted MatchStatus = "Completed"
)

type MatchType string

const (
	MatchTypeRegular    MatchType = "Regular"
	MatchTypeEliminator MatchType = "Eliminator"
	MatchTypeQualifier1 MatchType = "Qualifier 1"
	MatchTypeQualifier2 MatchType = "Qualifier 2"
	MatchTypeFinal      MatchType = "Final"
)

// IsLeague reports whether a match of this type counts toward the points
// table. Playoff stages are excluded entirely.
func (t MatchType) IsLeague() bool {
	return t == "" || t == MatchTypeRegular
}

func (t MatchType) Valid() bool {
	switch t {
	case "", MatchTypeRegular, MatchTypeEliminator, MatchTypeQualifier1, MatchTypeQualifier2, MatchTypeFinal:
		return true
	}
	return false
}

type Match struct {
	ID          int         `json:"id" db:"id"`
	MatchNumber int         `json:"match_number" db:"match_number"`
	TeamAID     int         `json:"team_a_id" db:"team_a_id"`
	TeamBID     int         `json:"team_b_id" db:"team_b_id"`
	TeamAScore  int         `json:"team_a_score" db:"team_a_score"`
	TeamBScore  int         `json:"team_b_score" db:"team_b_score"`
	Date        time.Time   `json:"date" db:"date"`
	MatchType   MatchType   `json:"match_type" db:"match_type"`
	Status      MatchStatus `json:"status" db:"status"`
	HalfTime    bool        `json:"half_time" db:"half_time"`
	TeamAMat    int         `json:"team_a_mat" db:"team_a_mat"`
	TeamBMat    int         `json:"team_b_mat" db:"team_b_mat"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`

	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`

	PlayerStats []PlayerStat `json:"player_stats,omitempty" db:"-"`
}

// PlayerStat is one row of the per-(match, player) point history. The
// RaidPoints and DefensePoints slices are append-only and chronological:
// they are the only structure undo can pop from.
type PlayerStat struct {
	MatchID       int     `json:"match_id" db:"match_id"`
	PlayerID      int     `json:"player_id" db:"player_id"`
	TeamID        int     `json:"team_id" db:"team_id"`
	RaidPoints    []int64 `json:"raid_points" db:"raid_points"`
	DefensePoints []int64 `json:"defense_points" db:"defense_points"`

	Player *Player `json:"player,omitempty" db:"-"`
}

func (ps *PlayerStat) RaidTotal() int64 {
	return sumPoints(ps.RaidPoints)
}

func (ps *PlayerStat) DefenseTotal() int64 {
	return sumPoints(ps.DefensePoints)
}

func sumPoints(points []int64) int64 {
	var total int64
	for _, p := range points {
		total += p
	}
	return total
}
