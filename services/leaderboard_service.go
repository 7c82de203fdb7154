package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

// Thresholds for the derived scoring feats. A super raid is a single raid
// worth at least 3 points; a team-level super raid demands at least 8. The
// asymmetry is deliberate and matches the established scoring rules.
const (
	playerSuperRaidThreshold = 3
	teamSuperRaidThreshold   = 8
	super10Threshold         = 10
	high5Threshold           = 5
)

const (
	playerBoardLimit      = 10
	playerShortBoardLimit = 5
	teamBoardLimit        = 5
)

// Player leaderboard categories.
const (
	CategoryTotalPoints        = "totalPoints"
	CategoryTotalRaidPoints    = "totalRaidPoints"
	CategoryTotalDefensePoints = "totalDefensePoints"
	CategorySuperRaids         = "superRaids"
	CategoryHigh5s             = "high5s"
	CategorySuper10s           = "super10s"
)

// Team leaderboard categories (the player set plus per-match averages).
const (
	TeamCategoryTotalPoints  = "totalPoints"
	TeamCategoryTotalRaids   = "totalRaids"
	TeamCategoryTotalDefense = "totalDefense"
	TeamCategorySuper10s     = "super10s"
	TeamCategoryHigh5s       = "high5s"
	TeamCategorySuperRaids   = "superRaids"
	TeamCategoryAvgTotal     = "avgTotalPoints"
	TeamCategoryAvgRaids     = "avgRaids"
	TeamCategoryAvgDefense   = "avgDefense"
)

var playerCategories = []string{
	CategoryTotalPoints,
	CategoryTotalRaidPoints,
	CategoryTotalDefensePoints,
	CategorySuperRaids,
	CategoryHigh5s,
	CategorySuper10s,
}

var teamCategories = []string{
	TeamCategoryTotalPoints,
	TeamCategoryTotalRaids,
	TeamCategoryTotalDefense,
	TeamCategorySuper10s,
	TeamCategoryHigh5s,
	TeamCategorySuperRaids,
	TeamCategoryAvgTotal,
	TeamCategoryAvgRaids,
	TeamCategoryAvgDefense,
}

// PlayerLeaderboards maps category name to its ranked board. A scoped
// request carries a single key; an unscoped one carries all six.
type PlayerLeaderboards map[string][]models.LeaderboardEntry

type LeaderboardService interface {
	GetTopPlayers(ctx context.Context, category string) (PlayerLeaderboards, error)
	GetTopTeams(ctx context.Context, category string) ([]*models.TeamLeaderboardEntry, error)
}

type leaderboardService struct {
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	uploader  storage.FileUploader
	cache     cache.Cache
	logger    *slog.Logger
}

func NewLeaderboardService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	cacheLayer cache.Cache,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		uploader:  uploader,
		cache:     cacheLayer,
		logger:    logger,
	}
}

// playerTotals is one player's accumulated feats over all completed
// matches.
type playerTotals struct {
	playerID   int
	name       string
	team       string
	teamLogo   *string
	profilePic *string

	totalRaid    int64
	totalDefense int64
	superRaids   int64
	high5s       int64
	super10s     int64
}

func (p *playerTotals) total() int64 { return p.totalRaid + p.totalDefense }

func (p *playerTotals) valueFor(category string) int64 {
	switch category {
	case CategoryTotalPoints:
		return p.total()
	case CategoryTotalRaidPoints:
		return p.totalRaid
	case CategoryTotalDefensePoints:
		return p.totalDefense
	case CategorySuperRaids:
		return p.superRaids
	case CategoryHigh5s:
		return p.high5s
	case CategorySuper10s:
		return p.super10s
	}
	return 0
}

func (s *leaderboardService) GetTopPlayers(ctx context.Context, category string) (PlayerLeaderboards, error) {
	if category != "" && !contains(playerCategories, category) {
		return nil, &InvalidCategoryError{Category: category, Allowed: playerCategories}
	}

	wantAll := category == ""
	if wantAll {
		if data, err := s.cache.Get(ctx, cache.KeyTopPlayers); err == nil {
			var cached PlayerLeaderboards
			if jerr := json.Unmarshal(data, &cached); jerr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Error("cache read failed", slog.String("key", cache.KeyTopPlayers), slog.Any("error", err))
		}
	}

	totals, err := s.aggregatePlayers(ctx)
	if err != nil {
		return nil, err
	}

	categories := playerCategories
	if !wantAll {
		categories = []string{category}
	}

	boards := make(PlayerLeaderboards, len(categories))
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, cat := range categories {
		cat := cat
		g.Go(func() error {
			board := buildPlayerBoard(totals, cat)
			mu.Lock()
			boards[cat] = board
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if wantAll {
		if data, err := json.Marshal(boards); err == nil {
			if cerr := s.cache.Set(ctx, cache.KeyTopPlayers, data, cache.DefaultTTL); cerr != nil {
				s.logger.Error("cache write failed", slog.String("key", cache.KeyTopPlayers), slog.Any("error", cerr))
			}
		}
	}
	return boards, nil
}

func (s *leaderboardService) aggregatePlayers(ctx context.Context) (map[int]*playerTotals, error) {
	matches, err := s.matchRepo.ListCompletedFull(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completed matches: %w", err)
	}

	totals := make(map[int]*playerTotals)
	for _, m := range matches {
		for i := range m.PlayerStats {
			stat := &m.PlayerStats[i]
			agg := totals[stat.PlayerID]
			if agg == nil {
				agg = &playerTotals{playerID: stat.PlayerID}
				if stat.Player != nil {
					agg.name = stat.Player.Name
					agg.profilePic = publicURLOrNil(stat.Player.PhotoKey, s.uploader)
					if stat.Player.Team != nil {
						agg.team = stat.Player.Team.Name
						agg.teamLogo = publicURLOrNil(stat.Player.Team.LogoKey, s.uploader)
					}
				}
				totals[stat.PlayerID] = agg
			}

			raid, defense := stat.RaidTotal(), stat.DefenseTotal()
			agg.totalRaid += raid
			agg.totalDefense += defense
			for _, r := range stat.RaidPoints {
				if r >= playerSuperRaidThreshold {
					agg.superRaids++
				}
			}
			if raid >= super10Threshold {
				agg.super10s++
			}
			if defense >= high5Threshold {
				agg.high5s++
			}
		}
	}
	return totals, nil
}

// buildPlayerBoard ranks one category: zero values drop out, the rest sort
// descending, the board truncates to its limit and receives competition
// ranks.
func buildPlayerBoard(totals map[int]*playerTotals, category string) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(totals))
	for _, agg := range totals {
		value := agg.valueFor(category)
		if value <= 0 {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			PlayerID:   agg.playerID,
			Name:       agg.name,
			Team:       agg.team,
			TeamLogo:   agg.teamLogo,
			ProfilePic: agg.profilePic,
			Points:     value,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	limit := playerBoardLimit
	if category == CategoryHigh5s || category == CategorySuper10s {
		limit = playerShortBoardLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	assignCompetitionRanks(entries)
	return entries
}

func (s *leaderboardService) GetTopTeams(ctx context.Context, category string) ([]*models.TeamLeaderboardEntry, error) {
	if category == "" {
		category = TeamCategoryTotalPoints
	}
	if !contains(teamCategories, category) {
		return nil, &InvalidCategoryError{Category: category, Allowed: teamCategories}
	}

	// The full aggregate is cached once; sorting and truncation per
	// category happen on the way out, so one key serves every board.
	var entries []*models.TeamLeaderboardEntry
	if data, err := s.cache.Get(ctx, cache.KeyTopTeams); err == nil {
		if jerr := json.Unmarshal(data, &entries); jerr != nil {
			entries = nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Error("cache read failed", slog.String("key", cache.KeyTopTeams), slog.Any("error", err))
	}

	if entries == nil {
		var err error
		entries, err = s.aggregateTeams(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(entries); err == nil {
			if cerr := s.cache.Set(ctx, cache.KeyTopTeams, data, cache.DefaultTTL); cerr != nil {
				s.logger.Error("cache write failed", slog.String("key", cache.KeyTopTeams), slog.Any("error", cerr))
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		vi, vj := teamValueFor(entries[i], category), teamValueFor(entries[j], category)
		if vi != vj {
			return vi > vj
		}
		return entries[i].TeamID < entries[j].TeamID
	})
	if len(entries) > teamBoardLimit {
		entries = entries[:teamBoardLimit]
	}
	return entries, nil
}

// aggregateTeams folds every completed match into team-level feats. Only a
// team's own players' contributions count, in matches that team played.
func (s *leaderboardService) aggregateTeams(ctx context.Context) ([]*models.TeamLeaderboardEntry, error) {
	teams, err := s.teamRepo.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	matches, err := s.matchRepo.ListCompletedFull(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completed matches: %w", err)
	}

	byTeam := make(map[int]*models.TeamLeaderboardEntry, len(teams))
	entries := make([]*models.TeamLeaderboardEntry, 0, len(teams))
	for _, t := range teams {
		entry := &models.TeamLeaderboardEntry{
			TeamID: t.ID,
			Name:   t.Name,
			Logo:   publicURLOrNil(t.LogoKey, s.uploader),
		}
		byTeam[t.ID] = entry
		entries = append(entries, entry)
	}

	for _, m := range matches {
		for _, teamID := range []int{m.TeamAID, m.TeamBID} {
			if entry := byTeam[teamID]; entry != nil {
				entry.MatchesPlayed++
			}
		}
		for i := range m.PlayerStats {
			stat := &m.PlayerStats[i]
			entry := byTeam[stat.TeamID]
			if entry == nil {
				continue
			}

			raid, defense := stat.RaidTotal(), stat.DefenseTotal()
			entry.TotalRaids += raid
			entry.TotalDefense += defense
			entry.TotalPoints += raid + defense
			for _, r := range stat.RaidPoints {
				if r >= teamSuperRaidThreshold {
					entry.SuperRaids++
				}
			}
			if raid >= super10Threshold {
				entry.Super10s++
			}
			if defense >= high5Threshold {
				entry.High5s++
			}
		}
	}

	for _, entry := range entries {
		if entry.MatchesPlayed == 0 {
			continue
		}
		played := float64(entry.MatchesPlayed)
		entry.AvgTotalPoints = float64(entry.TotalPoints) / played
		entry.AvgRaids = float64(entry.TotalRaids) / played
		entry.AvgDefense = float64(entry.TotalDefense) / played
	}
	return entries, nil
}

func teamValueFor(entry *models.TeamLeaderboardEntry, category string) float64 {
	switch category {
	case TeamCategoryTotalPoints:
		return float64(entry.TotalPoints)
	case TeamCategoryTotalRaids:
		return float64(entry.TotalRaids)
	case TeamCategoryTotalDefense:
		return float64(entry.TotalDefense)
	case TeamCategorySuper10s:
		return float64(entry.Super10s)
	case TeamCategoryHigh5s:
		return float64(entry.High5s)
	case TeamCategorySuperRaids:
		return float64(entry.SuperRaids)
	case TeamCategoryAvgTotal:
		return entry.AvgTotalPoints
	case TeamCategoryAvgRaids:
		return entry.AvgRaids
	case TeamCategoryAvgDefense:
		return entry.AvgDefense
	}
	return 0
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
