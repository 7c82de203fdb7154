package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

type CreateTeamInput struct {
	Name string `json:"name"`
}

type UpdateTeamInput struct {
	Name string `json:"name"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	ListTeams(ctx context.Context, nameFilter string) ([]*models.Team, error)
	UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID int) error
	UpdateTeamLogo(ctx context.Context, teamID int, file io.Reader, contentType string) (*models.Team, error)
	GetTeamSummary(ctx context.Context, teamID int) (*models.TeamSummary, error)
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	uploader   storage.FileUploader
	cache      cache.Cache
	logger     *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	cacheLayer cache.Cache,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		uploader:   uploader,
		cache:      cacheLayer,
		logger:     logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{Name: name}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	id := teamID
	players, err := s.playerRepo.List(ctx, repositories.PlayerFilter{TeamID: &id, OrderByRoster: true})
	if err != nil {
		return nil, fmt.Errorf("list team players: %w", err)
	}
	team.Players = make([]models.Player, 0, len(players))
	for _, p := range players {
		populatePlayerDetails(p, s.uploader)
		team.Players = append(team.Players, *p)
	}

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, nameFilter string) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	for _, t := range teams {
		populateTeamLogoURL(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	team.Name = name
	if err := s.teamRepo.Update(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("update team: %w", err)
	}

	// Team names are denormalized into cached standings, leaderboards
	// and per-match stat views.
	s.invalidateAggregates(ctx)
	s.invalidateMatchStats(ctx, teamID)

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

// DeleteTeam refuses to delete a team that any match references; delete
// the matches first. Player photos and the team logo are removed from
// object storage best-effort.
func (s *teamService) DeleteTeam(ctx context.Context, teamID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("get team: %w", err)
	}

	count, err := s.teamRepo.CountMatchesReferencing(ctx, teamID)
	if err != nil {
		return fmt.Errorf("count matches referencing team: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d matches reference this team", ErrTeamHasMatches, count)
	}

	id := teamID
	players, err := s.playerRepo.List(ctx, repositories.PlayerFilter{TeamID: &id})
	if err != nil {
		return fmt.Errorf("list team players: %w", err)
	}

	if err := s.teamRepo.Delete(ctx, nil, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("delete team: %w", err)
	}

	for _, p := range players {
		s.deleteStoredFile(ctx, p.PhotoKey)
	}
	s.deleteStoredFile(ctx, team.LogoKey)

	s.invalidateAggregates(ctx)
	return nil
}

func (s *teamService) UpdateTeamLogo(ctx context.Context, teamID int, file io.Reader, contentType string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	key := teamLogoKey(teamID, contentType)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("upload team logo: %w", err)
	}

	oldKey := team.LogoKey
	team.LogoKey = &key
	if err := s.teamRepo.Update(ctx, team); err != nil {
		s.deleteStoredFile(ctx, &key)
		return nil, fmt.Errorf("store team logo key: %w", err)
	}

	if oldKey != nil && *oldKey != key {
		s.deleteStoredFile(ctx, oldKey)
	}

	s.invalidateAggregates(ctx)
	s.invalidateMatchStats(ctx, teamID)

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

// GetTeamSummary aggregates the team's record over every completed match
// it played: win/loss/tie counts, highest score, the biggest winning
// margin with its fixture, and total raid and tackle points.
func (s *teamService) GetTeamSummary(ctx context.Context, teamID int) (*models.TeamSummary, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	populateTeamLogoURL(team, s.uploader)

	matches, err := s.matchRepo.ListCompletedFull(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completed matches: %w", err)
	}

	summary := &models.TeamSummary{
		TeamID:   team.ID,
		TeamName: team.Name,
		TeamLogo: team.LogoURL,
	}

	for _, m := range matches {
		var ours, theirs int
		switch teamID {
		case m.TeamAID:
			ours, theirs = m.TeamAScore, m.TeamBScore
		case m.TeamBID:
			ours, theirs = m.TeamBScore, m.TeamAScore
		default:
			continue
		}

		summary.MatchesPlayed++
		switch {
		case ours > theirs:
			summary.Wins++
		case ours < theirs:
			summary.Losses++
		default:
			summary.Ties++
		}

		if ours > summary.HighestScore {
			summary.HighestScore = ours
		}
		if margin := ours - theirs; margin > summary.HighestWinMargin {
			summary.HighestWinMargin = margin
			populateMatchTeamURLs(m, s.uploader)
			summary.HighestMarginMatch = marginMatchOf(m)
		}

		for i := range m.PlayerStats {
			stat := &m.PlayerStats[i]
			if stat.TeamID != teamID {
				continue
			}
			summary.TotalRaidPoints += stat.RaidTotal()
			summary.TotalTacklePoints += stat.DefenseTotal()
		}
	}

	return summary, nil
}

func marginMatchOf(m *models.Match) *models.MarginMatch {
	mm := &models.MarginMatch{
		TeamAScore: m.TeamAScore,
		TeamBScore: m.TeamBScore,
	}
	if m.TeamA != nil {
		mm.TeamAName = m.TeamA.Name
		mm.TeamALogo = m.TeamA.LogoURL
	}
	if m.TeamB != nil {
		mm.TeamBName = m.TeamB.Name
		mm.TeamBLogo = m.TeamB.LogoURL
	}
	return mm
}

func (s *teamService) deleteStoredFile(ctx context.Context, key *string) {
	if key == nil || *key == "" || s.uploader == nil {
		return
	}
	if err := s.uploader.Delete(ctx, *key); err != nil {
		s.logger.Error("failed to delete stored file",
			slog.String("key", *key), slog.Any("error", err))
	}
}

func (s *teamService) invalidateAggregates(ctx context.Context) {
	keys := []string{cache.KeyPointsTable, cache.KeyTopPlayers, cache.KeyTopTeams}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Error("failed to invalidate cache", slog.Any("error", err))
	}
}

// invalidateMatchStats clears the cached stat views of every match the
// team plays in. Those payloads embed the team's name and logo.
func (s *teamService) invalidateMatchStats(ctx context.Context, teamID int) {
	matches, err := s.matchRepo.List(ctx, nil)
	if err != nil {
		s.logger.Error("failed to list matches for cache invalidation", slog.Any("error", err))
		return
	}

	var keys []string
	for _, m := range matches {
		if m.TeamAID == teamID || m.TeamBID == teamID {
			keys = append(keys, cache.KeyMatchStats(m.ID))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Error("failed to invalidate cache", slog.Any("error", err))
	}
}

func teamLogoKey(teamID int, contentType string) string {
	return path.Join("teams", strconv.Itoa(teamID),
		fmt.Sprintf("logo-%d%s", time.Now().UnixNano(), extensionFor(contentType)))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
