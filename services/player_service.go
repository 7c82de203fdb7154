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

	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

type CreatePlayerInput struct {
	Name        string `json:"name"`
	TeamID      int    `json:"team_id"`
	RosterOrder *int   `json:"roster_order"`
}

type UpdatePlayerInput struct {
	Name        *string `json:"name"`
	TeamID      *int    `json:"team_id"`
	RosterOrder *int    `json:"roster_order"`
}

// MatchRoster holds both sides of a match's snapshotted roster, each in
// roster order.
type MatchRoster struct {
	TeamA []*models.Player `json:"team_a"`
	TeamB []*models.Player `json:"team_b"`
}

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	CreatePlayers(ctx context.Context, inputs []CreatePlayerInput) ([]*models.Player, error)
	GetPlayer(ctx context.Context, playerID int) (*models.Player, error)
	ListPlayers(ctx context.Context, teamID *int, nameFilter string) ([]*models.Player, error)
	UpdatePlayer(ctx context.Context, playerID int, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, playerID int) error
	UpdatePlayerPhoto(ctx context.Context, playerID int, file io.Reader, contentType string) (*models.Player, error)
	GetPlayersOfMatch(ctx context.Context, matchID int) (*MatchRoster, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	teamRepo   repositories.TeamRepository
	matchRepo  repositories.MatchRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	player, err := playerFromInput(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.teamRepo.GetByID(ctx, input.TeamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("create player: %w", err)
	}
	return player, nil
}

// CreatePlayers inserts a whole roster at once. The batch is atomic:
// either every player is created or none are.
func (s *playerService) CreatePlayers(ctx context.Context, inputs []CreatePlayerInput) ([]*models.Player, error) {
	players := make([]*models.Player, 0, len(inputs))
	for _, input := range inputs {
		player, err := playerFromInput(input)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	if len(players) == 0 {
		return players, nil
	}

	if err := s.playerRepo.CreateBatch(ctx, players); err != nil {
		if errors.Is(err, repositories.ErrPlayerTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("create players: %w", err)
	}
	return players, nil
}

func playerFromInput(input CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}
	return &models.Player{
		Name:        name,
		TeamID:      input.TeamID,
		RosterOrder: input.RosterOrder,
	}, nil
}

func (s *playerService) GetPlayer(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	populatePlayerDetails(player, s.uploader)
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, teamID *int, nameFilter string) ([]*models.Player, error) {
	filter := repositories.PlayerFilter{
		TeamID:        teamID,
		NameFilter:    nameFilter,
		OrderByRoster: teamID != nil,
	}
	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	for _, p := range players {
		populatePlayerDetails(p, s.uploader)
	}
	return players, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, playerID int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrPlayerNameRequired
		}
		player.Name = name
	}
	if input.TeamID != nil {
		player.TeamID = *input.TeamID
	}
	if input.RosterOrder != nil {
		player.RosterOrder = input.RosterOrder
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerTeamInvalid):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("update player: %w", err)
	}

	populatePlayerDetails(player, s.uploader)
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, playerID int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("get player: %w", err)
	}

	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("delete player: %w", err)
	}

	if player.PhotoKey != nil && *player.PhotoKey != "" && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *player.PhotoKey); err != nil {
			s.logger.Error("failed to delete player photo",
				slog.String("key", *player.PhotoKey), slog.Any("error", err))
		}
	}
	return nil
}

func (s *playerService) UpdatePlayerPhoto(ctx context.Context, playerID int, file io.Reader, contentType string) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	key := playerPhotoKey(playerID, contentType)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("upload player photo: %w", err)
	}

	oldKey := player.PhotoKey
	player.PhotoKey = &key
	if err := s.playerRepo.Update(ctx, player); err != nil {
		if derr := s.uploader.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to delete orphaned player photo",
				slog.String("key", key), slog.Any("error", derr))
		}
		return nil, fmt.Errorf("store player photo key: %w", err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Error("failed to delete previous player photo",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	populatePlayerDetails(player, s.uploader)
	return player, nil
}

// GetPlayersOfMatch returns the snapshotted roster of a match, split by
// side. Players added to a team after the match was created do not appear.
func (s *playerService) GetPlayersOfMatch(ctx context.Context, matchID int) (*MatchRoster, error) {
	match, err := s.matchRepo.GetFull(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}

	roster := &MatchRoster{
		TeamA: make([]*models.Player, 0),
		TeamB: make([]*models.Player, 0),
	}
	for i := range match.PlayerStats {
		stat := &match.PlayerStats[i]
		if stat.Player == nil {
			continue
		}
		populatePlayerDetails(stat.Player, s.uploader)
		switch stat.TeamID {
		case match.TeamAID:
			roster.TeamA = append(roster.TeamA, stat.Player)
		case match.TeamBID:
			roster.TeamB = append(roster.TeamB, stat.Player)
		}
	}
	return roster, nil
}

func playerPhotoKey(playerID int, contentType string) string {
	return path.Join("players", strconv.Itoa(playerID),
		fmt.Sprintf("photo-%d%s", time.Now().UnixNano(), extensionFor(contentType)))
}
