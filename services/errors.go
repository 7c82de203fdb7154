package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not found
	ErrTeamNotFound     = errors.New("team not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrPlayerNotInMatch = errors.New("player not found in match")
	ErrGalleryNotFound  = errors.New("gallery image not found")

	// Validation and business rules
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrPlayerNameRequired = errors.New("player name is required")
	ErrSameTeams          = errors.New("a match requires two distinct teams")
	ErrInvalidMatchType   = errors.New("invalid match type")
	ErrInvalidPointKind   = errors.New("invalid point type, must be 'raid' or 'defense'")
	ErrTeamNotInMatch     = errors.New("team is not part of this match")
	ErrNoPointsToUndo     = errors.New("no points to remove for this player")
	ErrInvalidTeamSide    = errors.New("invalid team parameter, use 'A' or 'B'")

	// State machine
	ErrMatchCannotStart = errors.New("match cannot be started")
	ErrMatchCannotEnd   = errors.New("match cannot be ended")

	// Conflicts
	ErrTeamNameConflict = errors.New("team name is already in use")
	ErrTeamHasMatches   = errors.New("team cannot be deleted while matches reference it")

	// Auth
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
)

// InvalidCategoryError reports an unrecognized leaderboard category along
// with the accepted ones, so the handler can echo the allowed list back.
type InvalidCategoryError struct {
	Category string
	Allowed  []string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category %q, allowed: %s", e.Category, strings.Join(e.Allowed, ", "))
}
