package models

// LeaderboardEntry is one ranked line of a player leaderboard category.
// Rank follows standard competition ranking: equal values share a rank and
// the next distinct value resumes at (players strictly ahead) + 1.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   int     `json:"player_id"`
	Name       string  `json:"name"`
	Team       string  `json:"team"`
	TeamLogo   *string `json:"team_logo,omitempty"`
	ProfilePic *string `json:"profile_pic,omitempty"`
	Points     int64   `json:"points"`
}

// TeamLeaderboardEntry carries every team-level category at once; the
// requested category only controls sort order and which value callers read.
type TeamLeaderboardEntry struct {
	TeamID         int     `json:"team_id"`
	Name           string  `json:"name"`
	Logo           *string `json:"logo,omitempty"`
	MatchesPlayed  int     `json:"matches_played"`
	TotalPoints    int64   `json:"totalPoints"`
	TotalRaids     int64   `json:"totalRaids"`
	TotalDefense   int64   `json:"totalDefense"`
	Super10s       int     `json:"super10s"`
	High5s         int     `json:"high5s"`
	SuperRaids     int     `json:"superRaids"`
	AvgTotalPoints float64 `json:"avgTotalPoints"`
	AvgRaids       float64 `json:"avgRaids"`
	AvgDefense     float64 `json:"avgDefense"`
}
