package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

const (
	pointsPerWin   = 2
	pointsPerTie   = 1
	qualifierSlots = 4
)

const (
	finalDrawMessage     = "The match ended in a draw"
	finalNotFoundMessage = "No final match found"
)

type StandingsService interface {
	GetPointsTable(ctx context.Context) ([]*models.StandingsRow, error)
	GetFinalResult(ctx context.Context) (*models.FinalResult, error)
}

type standingsService struct {
	teamRepo  repositories.TeamRepository
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
	cache     cache.Cache
	logger    *slog.Logger
}

func NewStandingsService(
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	cacheLayer cache.Cache,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
		uploader:  uploader,
		cache:     cacheLayer,
		logger:    logger,
	}
}

// GetPointsTable builds the league table from scratch on every cache miss.
// Only league matches count: playoff stages never move the table.
func (s *standingsService) GetPointsTable(ctx context.Context) ([]*models.StandingsRow, error) {
	if data, err := s.cache.Get(ctx, cache.KeyPointsTable); err == nil {
		var cached []*models.StandingsRow
		if jerr := json.Unmarshal(data, &cached); jerr == nil {
			return cached, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Error("cache read failed", slog.String("key", cache.KeyPointsTable), slog.Any("error", err))
	}

	teams, err := s.teamRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	rows := make(map[int]*models.StandingsRow, len(teams))
	for _, t := range teams {
		populateTeamLogoURL(t, s.uploader)
		rows[t.ID] = &models.StandingsRow{
			TeamID:   t.ID,
			TeamName: t.Name,
			Logo:     t.LogoURL,
		}
	}

	leagueMatches, err := s.matchRepo.ListLeague(ctx)
	if err != nil {
		return nil, fmt.Errorf("list league matches: %w", err)
	}

	totalLeague := len(leagueMatches)
	completedLeague := 0
	for _, m := range leagueMatches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		completedLeague++

		rowA, rowB := rows[m.TeamAID], rows[m.TeamBID]
		if rowA == nil || rowB == nil {
			continue
		}
		rowA.MatchesPlayed++
		rowB.MatchesPlayed++
		rowA.PointsDifference += m.TeamAScore - m.TeamBScore
		rowB.PointsDifference += m.TeamBScore - m.TeamAScore

		switch {
		case m.TeamAScore > m.TeamBScore:
			rowA.Wins++
			rowA.Points += pointsPerWin
			rowB.Losses++
		case m.TeamBScore > m.TeamAScore:
			rowB.Wins++
			rowB.Points += pointsPerWin
			rowA.Losses++
		default:
			rowA.Ties++
			rowB.Ties++
			rowA.Points += pointsPerTie
			rowB.Points += pointsPerTie
		}
	}

	if final, err := s.GetFinalResult(ctx); err == nil && final.Name != "" {
		for _, row := range rows {
			if row.TeamName == final.Name {
				row.FinalWinner = true
				break
			}
		}
	} else if err != nil {
		s.logger.Error("failed to resolve final winner", slog.Any("error", err))
	}

	table := make([]*models.StandingsRow, 0, len(rows))
	for _, row := range rows {
		table = append(table, row)
	}
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PointsDifference > b.PointsDifference
	})

	// The qualifier flag only appears once the league stage is over: a
	// partially played league has no qualified teams yet.
	if totalLeague > 0 && completedLeague == totalLeague {
		for i := 0; i < qualifierSlots && i < len(table); i++ {
			table[i].Qualifier = true
		}
	}

	if data, err := json.Marshal(table); err == nil {
		if cerr := s.cache.Set(ctx, cache.KeyPointsTable, data, cache.DefaultTTL); cerr != nil {
			s.logger.Error("cache write failed", slog.String("key", cache.KeyPointsTable), slog.Any("error", cerr))
		}
	}
	return table, nil
}

// GetFinalResult resolves the tournament outcome from the most recently
// created completed Final. A tied final yields a draw message, a missing
// one a not-found message; neither is an error.
func (s *standingsService) GetFinalResult(ctx context.Context) (*models.FinalResult, error) {
	match, err := s.matchRepo.GetLatestFinal(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return &models.FinalResult{Message: finalNotFoundMessage}, nil
		}
		return nil, fmt.Errorf("get latest final: %w", err)
	}

	if match.TeamAScore == match.TeamBScore {
		return &models.FinalResult{MatchID: &match.ID, Message: finalDrawMessage}, nil
	}

	winner := match.TeamA
	if match.TeamBScore > match.TeamAScore {
		winner = match.TeamB
	}
	result := &models.FinalResult{MatchID: &match.ID}
	if winner != nil {
		populateTeamLogoURL(winner, s.uploader)
		result.Name = winner.Name
		result.Logo = winner.LogoURL
	}
	return result, nil
}
