package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/livesync"
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

type CreateMatchInput struct {
	TeamA     int              `json:"team_a"`
	TeamB     int              `json:"team_b"`
	MatchType models.MatchType `json:"match_type"`
	Date      *time.Time       `json:"date"`
}

type UpdateMatchInput struct {
	Date      *time.Time          `json:"date"`
	MatchType *models.MatchType   `json:"match_type"`
	Status    *models.MatchStatus `json:"status"`
	HalfTime  *bool               `json:"half_time"`
}

type UpdateTeamMatInput struct {
	TeamAMat *int `json:"team_a_mat"`
	TeamBMat *int `json:"team_b_mat"`
}

type AddPlayerPointsInput struct {
	MatchID  int              `json:"matchId"`
	PlayerID int              `json:"playerId"`
	Points   int64            `json:"points"`
	Type     models.PointKind `json:"type"`
}

type TeamPointsInput struct {
	MatchID int   `json:"matchId"`
	TeamID  int   `json:"teamId"`
	Points  int64 `json:"points"`
}

type UndoPlayerPointsInput struct {
	MatchID  int              `json:"matchId"`
	PlayerID int              `json:"playerId"`
	Type     models.PointKind `json:"type"`
}

// PlayerPointsResult is the response of a player point mutation: the
// updated scoreline plus the player's full point history.
type PlayerPointsResult struct {
	TeamAScore       int     `json:"team_a_score"`
	TeamBScore       int     `json:"team_b_score"`
	AllRaidPoints    []int64 `json:"all_raid_points"`
	AllDefensePoints []int64 `json:"all_defense_points"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, status *models.MatchStatus) ([]*models.Match, error)
	UpdateMatch(ctx context.Context, matchID int, input UpdateMatchInput) (*models.Match, error)
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	EndMatch(ctx context.Context, matchID int) (*models.Match, error)
	ForceCompleteMatch(ctx context.Context, matchID int) (*models.Match, error)
	SetHalfTime(ctx context.Context, matchID int) (*models.Match, error)
	UpdateTeamMat(ctx context.Context, matchID int, input UpdateTeamMatInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, matchID int) error

	AddPlayerPoints(ctx context.Context, input AddPlayerPointsInput) (*PlayerPointsResult, error)
	AddTeamPoints(ctx context.Context, input TeamPointsInput) (*models.Match, error)
	UndoPlayerPoints(ctx context.Context, input UndoPlayerPointsInput) (int64, error)
	UndoTeamPoints(ctx context.Context, input TeamPointsInput) (*models.Match, error)
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	notifier   livesync.Notifier
	cache      cache.Cache
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	notifier livesync.Notifier,
	cacheLayer cache.Cache,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		notifier:   notifier,
		cache:      cacheLayer,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.TeamA == input.TeamB {
		return nil, ErrSameTeams
	}
	if !input.MatchType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchType, input.MatchType)
	}
	if _, err := s.teamRepo.GetByID(ctx, input.TeamA); err != nil {
		return nil, s.mapTeamErr(err)
	}
	if _, err := s.teamRepo.GetByID(ctx, input.TeamB); err != nil {
		return nil, s.mapTeamErr(err)
	}

	// Snapshot both rosters as they stand right now; later roster changes
	// do not touch existing matches.
	stats, err := s.snapshotRosters(ctx, input.TeamA, input.TeamB)
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}

	match := &models.Match{
		TeamAID:   input.TeamA,
		TeamBID:   input.TeamB,
		MatchType: input.MatchType,
		Date:      date,
		Status:    models.MatchStatusUpcoming,
		TeamAMat:  7,
		TeamBMat:  7,
	}
	if err := s.matchRepo.Create(ctx, match, stats); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	s.invalidateAggregates(ctx, match.ID)
	return s.fetchAndPublish(ctx, match.ID, nil)
}

func (s *matchService) snapshotRosters(ctx context.Context, teamAID, teamBID int) ([]models.PlayerStat, error) {
	stats := make([]models.PlayerStat, 0, 14)
	for _, teamID := range []int{teamAID, teamBID} {
		id := teamID
		players, err := s.playerRepo.List(ctx, repositories.PlayerFilter{TeamID: &id, OrderByRoster: true})
		if err != nil {
			return nil, fmt.Errorf("snapshot roster for team %d: %w", teamID, err)
		}
		for _, p := range players {
			stats = append(stats, models.PlayerStat{PlayerID: p.ID, TeamID: teamID})
		}
	}
	return stats, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetFull(ctx, matchID)
	if err != nil {
		return nil, s.mapMatchErr(err)
	}
	populateMatchTeamURLs(match, s.uploader)
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, status *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	for _, m := range matches {
		populateMatchTeamURLs(m, s.uploader)
	}
	return matches, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, matchID int, input UpdateMatchInput) (*models.Match, error) {
	if input.MatchType != nil && !input.MatchType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchType, *input.MatchType)
	}

	upd := repositories.MatchUpdate{
		Date:      input.Date,
		MatchType: input.MatchType,
		Status:    input.Status,
		HalfTime:  input.HalfTime,
	}
	if err := s.matchRepo.UpdateFields(ctx, matchID, upd); err != nil {
		return nil, s.mapMatchErr(err)
	}

	s.invalidateAggregates(ctx, matchID)
	return s.fetchAndPublish(ctx, matchID, nil)
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.transition(ctx, matchID, models.MatchStatusUpcoming, models.MatchStatusOngoing, ErrMatchCannotStart)
}

func (s *matchService) EndMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.transition(ctx, matchID, models.MatchStatusOngoing, models.MatchStatusCompleted, ErrMatchCannotEnd)
}

// transition enforces the forward-only state machine: a match may only
// move Upcoming -> Ongoing -> Completed.
func (s *matchService) transition(ctx context.Context, matchID int, from, to models.MatchStatus, invalidErr error) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, s.mapMatchErr(err)
	}
	if match.Status != from {
		return nil, fmt.Errorf("%w: status is %s", invalidErr, match.Status)
	}
	if err := s.matchRepo.UpdateStatus(ctx, matchID, to); err != nil {
		return nil, s.mapMatchErr(err)
	}

	s.invalidateAggregates(ctx, matchID)
	return s.fetchAndPublish(ctx, matchID, nil)
}

// ForceCompleteMatch sets the status to Completed regardless of the
// current state. Administrative shortcut for irregular flows.
func (s *matchService) ForceCompleteMatch(ctx context.Context, matchID int) (*models.Match, error) {
	if err := s.matchRepo.UpdateStatus(ctx, matchID, models.MatchStatusCompleted); err != nil {
		return nil, s.mapMatchErr(err)
	}

	s.invalidateAggregates(ctx, matchID)
	return s.fetchAndPublish(ctx, matchID, nil)
}

func (s *matchService) SetHalfTime(ctx context.Context, matchID int) (*models.Match, error) {
	if err := s.matchRepo.SetHalfTime(ctx, matchID); err != nil {
		return nil, s.mapMatchErr(err)
	}

	// The cached full-stats view embeds the halfTime flag.
	s.invalidateAggregates(ctx, matchID)
	return s.fetchAndPublish(ctx, matchID, nil)
}

func (s *matchService) UpdateTeamMat(ctx context.Context, matchID int, input UpdateTeamMatInput) (*models.Match, error) {
	if err := s.matchRepo.UpdateMats(ctx, matchID, input.TeamAMat, input.TeamBMat); err != nil {
		return nil, s.mapMatchErr(err)
	}
	return s.fetchAndPublish(ctx, matchID, nil)
}

func (s *matchService) DeleteMatch(ctx context.Context, matchID int) error {
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		return s.mapMatchErr(err)
	}

	if err := s.notifier.ClearMatch(ctx, matchID); err != nil {
		s.logger.Error("failed to clear livesync snapshot",
			slog.Int("match_id", matchID), slog.Any("error", err))
	}
	s.invalidateAggregates(ctx, matchID)
	return nil
}

func (s *matchService) AddPlayerPoints(ctx context.Context, input AddPlayerPointsInput) (*PlayerPointsResult, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPointKind, input.Type)
	}

	stat, err := s.matchRepo.AddPlayerPoints(ctx, input.MatchID, input.PlayerID, input.Points, input.Type)
	if err != nil {
		return nil, s.mapStatErr(err)
	}

	s.invalidateAggregates(ctx, input.MatchID)

	action := &livesync.LastAction{
		Points:    input.Points,
		Type:      string(input.Type),
		Timestamp: time.Now().UnixMilli(),
	}
	if player, perr := s.playerRepo.GetByID(ctx, input.PlayerID); perr == nil {
		action.PlayerName = player.Name
		if player.Team != nil {
			action.TeamName = player.Team.Name
		}
	}

	match, err := s.fetchAndPublish(ctx, input.MatchID, action)
	if err != nil {
		return nil, err
	}

	return &PlayerPointsResult{
		TeamAScore:       match.TeamAScore,
		TeamBScore:       match.TeamBScore,
		AllRaidPoints:    stat.RaidPoints,
		AllDefensePoints: stat.DefensePoints,
	}, nil
}

func (s *matchService) AddTeamPoints(ctx context.Context, input TeamPointsInput) (*models.Match, error) {
	if err := s.matchRepo.AddTeamPoints(ctx, input.MatchID, input.TeamID, input.Points); err != nil {
		return nil, s.mapStatErr(err)
	}

	s.invalidateAggregates(ctx, input.MatchID)

	team, _ := s.teamRepo.GetByID(ctx, input.TeamID)
	action := &livesync.LastAction{
		Points:    input.Points,
		Type:      "team",
		Timestamp: time.Now().UnixMilli(),
	}
	if team != nil {
		action.TeamName = team.Name
	}
	return s.fetchAndPublish(ctx, input.MatchID, action)
}

func (s *matchService) UndoPlayerPoints(ctx context.Context, input UndoPlayerPointsInput) (int64, error) {
	if !input.Type.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPointKind, input.Type)
	}

	removed, _, err := s.matchRepo.PopPlayerPoints(ctx, input.MatchID, input.PlayerID, input.Type)
	if err != nil {
		return 0, s.mapStatErr(err)
	}

	s.invalidateAggregates(ctx, input.MatchID)
	if _, err := s.fetchAndPublish(ctx, input.MatchID, nil); err != nil {
		return 0, err
	}
	return removed, nil
}

// UndoTeamPoints subtracts a caller-supplied amount from the team score.
// Unlike the player undo it does not consult any history; the asymmetry is
// intentional and mirrors the score-sheet workflow.
func (s *matchService) UndoTeamPoints(ctx context.Context, input TeamPointsInput) (*models.Match, error) {
	if err := s.matchRepo.AddTeamPoints(ctx, input.MatchID, input.TeamID, -input.Points); err != nil {
		return nil, s.mapStatErr(err)
	}

	s.invalidateAggregates(ctx, input.MatchID)
	return s.fetchAndPublish(ctx, input.MatchID, nil)
}

// fetchAndPublish reloads the match with teams populated, pushes the
// livesync snapshot (best-effort) and returns the match.
func (s *matchService) fetchAndPublish(ctx context.Context, matchID int, action *livesync.LastAction) (*models.Match, error) {
	match, err := s.matchRepo.GetWithTeams(ctx, matchID)
	if err != nil {
		return nil, s.mapMatchErr(err)
	}
	populateMatchTeamURLs(match, s.uploader)

	update := livesync.Update{Stats: buildSnapshot(match), LastAction: action}
	if err := s.notifier.PublishMatch(ctx, update); err != nil {
		s.logger.Error("failed to publish livesync snapshot",
			slog.Int("match_id", matchID), slog.Any("error", err))
	}
	return match, nil
}

func buildSnapshot(match *models.Match) livesync.MatchSnapshot {
	snapshot := livesync.MatchSnapshot{
		HalfTime:    match.HalfTime,
		Status:      string(match.Status),
		MatchNumber: match.MatchNumber,
		MatchType:   string(match.MatchType),
		MatchID:     match.ID,
	}
	if match.TeamA != nil {
		snapshot.TeamA = livesync.TeamSnapshot{
			ID:    match.TeamA.ID,
			Name:  match.TeamA.Name,
			Logo:  match.TeamA.LogoURL,
			Score: match.TeamAScore,
		}
	}
	if match.TeamB != nil {
		snapshot.TeamB = livesync.TeamSnapshot{
			ID:    match.TeamB.ID,
			Name:  match.TeamB.Name,
			Logo:  match.TeamB.LogoURL,
			Score: match.TeamBScore,
		}
	}
	return snapshot
}

// invalidateAggregates clears every cached aggregate a match mutation can
// affect, before the request returns, bounding cache staleness to "at most
// until next write".
func (s *matchService) invalidateAggregates(ctx context.Context, matchID int) {
	keys := []string{
		cache.KeyPointsTable,
		cache.KeyTopPlayers,
		cache.KeyTopTeams,
		cache.KeyMatchStats(matchID),
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Error("failed to invalidate cache", slog.Any("error", err))
	}
}

func (s *matchService) mapMatchErr(err error) error {
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return ErrMatchNotFound
	}
	return err
}

func (s *matchService) mapTeamErr(err error) error {
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

func (s *matchService) mapStatErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlayerStatNotFound):
		return ErrPlayerNotInMatch
	case errors.Is(err, repositories.ErrPointHistoryEmpty):
		return ErrNoPointsToUndo
	case errors.Is(err, repositories.ErrMatchTeamInvalid):
		return ErrTeamNotInMatch
	}
	return err
}
