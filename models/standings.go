package models

// StandingsRow is one line of the points table. Rows are ordered by
// points, then wins, then points difference, all descending.
type StandingsRow struct {
	TeamID           int     `json:"team_id"`
	TeamName         string  `json:"team_name"`
	Logo             *string `json:"logo,omitempty"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	Ties             int     `json:"ties"`
	MatchesPlayed    int     `json:"matches_played"`
	PointsDifference int     `json:"points_difference"`
	Points           int     `json:"points"`
	FinalWinner      bool    `json:"final_winner"`
	Qualifier        bool    `json:"qualifier"`
}

// TeamSummary is the single-team record exposed by GET /teams/{id}/stats.
type TeamSummary struct {
	TeamID             int          `json:"team_id"`
	TeamName           string       `json:"team_name"`
	TeamLogo           *string      `json:"team_logo,omitempty"`
	MatchesPlayed      int          `json:"matches_played"`
	Wins               int          `json:"wins"`
	Losses             int          `json:"losses"`
	Ties               int          `json:"ties"`
	HighestScore       int          `json:"highest_score"`
	HighestWinMargin   int          `json:"highest_win_margin"`
	HighestMarginMatch *MarginMatch `json:"highest_margin_match,omitempty"`
	TotalRaidPoints    int64        `json:"total_raid_points"`
	TotalTacklePoints  int64        `json:"total_tackle_points"`
}

type MarginMatch struct {
	TeamAName  string  `json:"team_a_name"`
	TeamBName  string  `json:"team_b_name"`
	TeamALogo  *string `json:"team_a_logo,omitempty"`
	TeamBLogo  *string `json:"team_b_logo,omitempty"`
	TeamAScore int     `json:"team_a_score"`
	TeamBScore int     `json:"team_b_score"`
}

// FinalResult describes the outcome of the tournament final. Exactly one
// of Name or Message is set: a decided final carries the winner, a tied or
// missing final carries a message instead.
type FinalResult struct {
	MatchID *int    `json:"match_id,omitempty"`
	Name    string  `json:"name,omitempty"`
	Logo    *string `json:"logo,omitempty"`
	Message string  `json:"message,omitempty"`
}
