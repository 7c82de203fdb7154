// Package livesync pushes denormalized match snapshots to spectator
// displays. Publishing is fire-and-forget: callers log failures and never
// propagate them to the mutating request.
package livesync

import "context"

type TeamSnapshot struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Logo  *string `json:"logo"`
	Score int     `json:"score"`
}

type MatchSnapshot struct {
	TeamA       TeamSnapshot `json:"teamA"`
	TeamB       TeamSnapshot `json:"teamB"`
	HalfTime    bool         `json:"halfTime"`
	Status      string       `json:"status"`
	MatchNumber int          `json:"matchNumber"`
	MatchType   string       `json:"matchType"`
	MatchID     int          `json:"matchId"`
}

// LastAction describes the scoring event that produced the snapshot, for
// "last action" overlays. Nil when the mutation was not a point event.
type LastAction struct {
	TeamName   string `json:"teamName"`
	PlayerName string `json:"playerName"`
	Points     int64  `json:"points"`
	Type       string `json:"type"`
	Timestamp  int64  `json:"timestamp"`
}

type Update struct {
	Stats      MatchSnapshot `json:"stats"`
	LastAction *LastAction   `json:"lastAction,omitempty"`
}

type Notifier interface {
	// PublishMatch pushes the current snapshot of a match to all
	// subscribed spectators.
	PublishMatch(ctx context.Context, update Update) error
	// ClearMatch purges the retained snapshot of a deleted or reset match.
	ClearMatch(ctx context.Context, matchID int) error
}
