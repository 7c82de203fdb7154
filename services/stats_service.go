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

const topStatPlayers = 5

// MatchScores is the lightweight scoreboard view of a match.
type MatchScores struct {
	TeamA    ScoreSide `json:"teamA"`
	TeamB    ScoreSide `json:"teamB"`
	HalfTime bool      `json:"halfTime"`
	Status   string    `json:"status"`
}

type ScoreSide struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Logo     *string `json:"logo,omitempty"`
	MatCount int     `json:"matCount"`
}

// RaiderLine and DefenderLine are one player's total in the respective
// discipline.
type RaiderLine struct {
	PlayerID        int     `json:"id"`
	Name            string  `json:"name"`
	Team            string  `json:"team,omitempty"`
	ProfilePic      *string `json:"profile_pic,omitempty"`
	TotalRaidPoints int64   `json:"totalRaidPoints"`
}

type DefenderLine struct {
	PlayerID           int     `json:"id"`
	Name               string  `json:"name"`
	Team               string  `json:"team,omitempty"`
	ProfilePic         *string `json:"profile_pic,omitempty"`
	TotalDefensePoints int64   `json:"totalDefensePoints"`
}

// MatchStats combines both teams' totals with the match-wide top raiders
// and defenders.
type MatchStats struct {
	TeamA        StatsSide      `json:"teamA"`
	TeamB        StatsSide      `json:"teamB"`
	TopRaiders   []RaiderLine   `json:"topRaiders"`
	TopDefenders []DefenderLine `json:"topDefenders"`
}

type StatsSide struct {
	Name    string  `json:"name"`
	Logo    *string `json:"logo,omitempty"`
	Score   int     `json:"score"`
	Raid    int64   `json:"raid"`
	Defense int64   `json:"defense"`
}

// FullMatchStats is the heavyweight view: per-side totals and top lists
// plus the match context fields spectator clients key on.
type FullMatchStats struct {
	TeamA       FullStatsSide `json:"teamA"`
	TeamB       FullStatsSide `json:"teamB"`
	HalfTime    bool          `json:"halfTime"`
	Status      string        `json:"status"`
	MatchNumber int           `json:"matchNumber"`
	MatchType   string        `json:"matchType"`
	MatchID     int           `json:"matchId"`
}

type FullStatsSide struct {
	Name               string         `json:"name"`
	Logo               *string        `json:"logo,omitempty"`
	Score              int            `json:"score"`
	TotalRaidPoints    int64          `json:"totalRaidPoints"`
	TotalDefensePoints int64          `json:"totalDefensePoints"`
	TopRaiders         []RaiderLine   `json:"topRaiders"`
	TopDefenders       []DefenderLine `json:"topDefenders"`
}

// TeamMatchStats is the per-side list view of GET .../stats/live.
type TeamMatchStats struct {
	TopRaiders   []RaiderLine   `json:"topRaiders"`
	TopDefenders []DefenderLine `json:"topDefenders"`
}

// MatchTotalPoints carries team-level subtotals keyed by side.
type MatchTotalPoints struct {
	TeamA TotalPointsSide `json:"teamA"`
	TeamB TotalPointsSide `json:"teamB"`
}

type TotalPointsSide struct {
	Name               string `json:"name"`
	TotalRaidPoints    int64  `json:"totalRaidPoints"`
	TotalDefensePoints int64  `json:"totalDefensePoints"`
	Score              int    `json:"score"`
}

type StatsService interface {
	GetMatchScores(ctx context.Context, matchID int) (*MatchScores, error)
	GetMatchStats(ctx context.Context, matchID int) (*MatchStats, error)
	GetFullMatchStats(ctx context.Context, matchID int) (*FullMatchStats, error)
	GetMatchStatsByTeam(ctx context.Context, matchID int, side string) (*TeamMatchStats, error)
	GetMatchTotalPoints(ctx context.Context, matchID int) (*MatchTotalPoints, error)
}

type statsService struct {
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
	cache     cache.Cache
	logger    *slog.Logger
}

func NewStatsService(
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	cacheLayer cache.Cache,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		matchRepo: matchRepo,
		uploader:  uploader,
		cache:     cacheLayer,
		logger:    logger,
	}
}

func (s *statsService) GetMatchScores(ctx context.Context, matchID int) (*MatchScores, error) {
	match, err := s.getMatch(ctx, matchID, false)
	if err != nil {
		return nil, err
	}

	scores := &MatchScores{
		HalfTime: match.HalfTime,
		Status:   string(match.Status),
	}
	if match.TeamA != nil {
		scores.TeamA = ScoreSide{
			Name:     match.TeamA.Name,
			Score:    match.TeamAScore,
			Logo:     match.TeamA.LogoURL,
			MatCount: match.TeamAMat,
		}
	}
	if match.TeamB != nil {
		scores.TeamB = ScoreSide{
			Name:     match.TeamB.Name,
			Score:    match.TeamBScore,
			Logo:     match.TeamB.LogoURL,
			MatCount: match.TeamBMat,
		}
	}
	return scores, nil
}

func (s *statsService) GetMatchStats(ctx context.Context, matchID int) (*MatchStats, error) {
	match, err := s.getMatch(ctx, matchID, true)
	if err != nil {
		return nil, err
	}

	stats := &MatchStats{
		TopRaiders:   make([]RaiderLine, 0),
		TopDefenders: make([]DefenderLine, 0),
	}
	if match.TeamA != nil {
		stats.TeamA = StatsSide{Name: match.TeamA.Name, Logo: match.TeamA.LogoURL, Score: match.TeamAScore}
	}
	if match.TeamB != nil {
		stats.TeamB = StatsSide{Name: match.TeamB.Name, Logo: match.TeamB.LogoURL, Score: match.TeamBScore}
	}

	for i := range match.PlayerStats {
		stat := &match.PlayerStats[i]
		raid, defense := stat.RaidTotal(), stat.DefenseTotal()

		side := &stats.TeamA
		if stat.TeamID == match.TeamBID {
			side = &stats.TeamB
		}
		side.Raid += raid
		side.Defense += defense

		if stat.Player == nil {
			continue
		}
		teamName := ""
		if stat.Player.Team != nil {
			teamName = stat.Player.Team.Name
		}
		if raid > 0 {
			stats.TopRaiders = append(stats.TopRaiders, RaiderLine{
				PlayerID:        stat.PlayerID,
				Name:            stat.Player.Name,
				Team:            teamName,
				TotalRaidPoints: raid,
			})
		}
		if defense > 0 {
			stats.TopDefenders = append(stats.TopDefenders, DefenderLine{
				PlayerID:           stat.PlayerID,
				Name:               stat.Player.Name,
				Team:               teamName,
				TotalDefensePoints: defense,
			})
		}
	}

	sortRaiders(stats.TopRaiders)
	sortDefenders(stats.TopDefenders)
	stats.TopRaiders = capRaiders(stats.TopRaiders, topStatPlayers)
	stats.TopDefenders = capDefenders(stats.TopDefenders, topStatPlayers)
	return stats, nil
}

// GetFullMatchStats is cached under matchStats:<id>; point mutations
// invalidate the key synchronously so a hit is never staler than the last
// completed write.
func (s *statsService) GetFullMatchStats(ctx context.Context, matchID int) (*FullMatchStats, error) {
	key := cache.KeyMatchStats(matchID)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached FullMatchStats
		if jerr := json.Unmarshal(data, &cached); jerr == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Error("cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	match, err := s.getMatch(ctx, matchID, true)
	if err != nil {
		return nil, err
	}

	stats := &FullMatchStats{
		HalfTime:    match.HalfTime,
		Status:      string(match.Status),
		MatchNumber: match.MatchNumber,
		MatchType:   string(match.MatchType),
		MatchID:     match.ID,
	}
	if match.TeamA != nil {
		stats.TeamA = newFullStatsSide(match.TeamA, match.TeamAScore)
	}
	if match.TeamB != nil {
		stats.TeamB = newFullStatsSide(match.TeamB, match.TeamBScore)
	}

	for i := range match.PlayerStats {
		stat := &match.PlayerStats[i]
		raid, defense := stat.RaidTotal(), stat.DefenseTotal()

		side := &stats.TeamA
		if stat.TeamID == match.TeamBID {
			side = &stats.TeamB
		}
		side.TotalRaidPoints += raid
		side.TotalDefensePoints += defense

		if stat.Player == nil {
			continue
		}
		if raid > 0 {
			side.TopRaiders = append(side.TopRaiders, RaiderLine{
				PlayerID:        stat.PlayerID,
				Name:            stat.Player.Name,
				ProfilePic:      stat.Player.PhotoURL,
				TotalRaidPoints: raid,
			})
		}
		if defense > 0 {
			side.TopDefenders = append(side.TopDefenders, DefenderLine{
				PlayerID:           stat.PlayerID,
				Name:               stat.Player.Name,
				ProfilePic:         stat.Player.PhotoURL,
				TotalDefensePoints: defense,
			})
		}
	}

	for _, side := range []*FullStatsSide{&stats.TeamA, &stats.TeamB} {
		sortRaiders(side.TopRaiders)
		sortDefenders(side.TopDefenders)
		side.TopRaiders = capRaiders(side.TopRaiders, topStatPlayers)
		side.TopDefenders = capDefenders(side.TopDefenders, topStatPlayers)
	}

	if data, err := json.Marshal(stats); err == nil {
		if cerr := s.cache.Set(ctx, key, data, cache.DefaultTTL); cerr != nil {
			s.logger.Error("cache write failed", slog.String("key", key), slog.Any("error", cerr))
		}
	}
	return stats, nil
}

// GetMatchStatsByTeam returns one side's full lists. Each list filters
// its zero totals independently: a pure defender still appears among the
// defenders even with zero raid points.
func (s *statsService) GetMatchStatsByTeam(ctx context.Context, matchID int, side string) (*TeamMatchStats, error) {
	if side != "A" && side != "B" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTeamSide, side)
	}

	match, err := s.getMatch(ctx, matchID, true)
	if err != nil {
		return nil, err
	}

	teamID := match.TeamAID
	if side == "B" {
		teamID = match.TeamBID
	}

	stats := &TeamMatchStats{
		TopRaiders:   make([]RaiderLine, 0),
		TopDefenders: make([]DefenderLine, 0),
	}
	for i := range match.PlayerStats {
		stat := &match.PlayerStats[i]
		if stat.TeamID != teamID || stat.Player == nil {
			continue
		}
		if raid := stat.RaidTotal(); raid > 0 {
			stats.TopRaiders = append(stats.TopRaiders, RaiderLine{
				PlayerID:        stat.PlayerID,
				Name:            stat.Player.Name,
				TotalRaidPoints: raid,
			})
		}
		if defense := stat.DefenseTotal(); defense > 0 {
			stats.TopDefenders = append(stats.TopDefenders, DefenderLine{
				PlayerID:           stat.PlayerID,
				Name:               stat.Player.Name,
				TotalDefensePoints: defense,
			})
		}
	}

	sortRaiders(stats.TopRaiders)
	sortDefenders(stats.TopDefenders)
	return stats, nil
}

func (s *statsService) GetMatchTotalPoints(ctx context.Context, matchID int) (*MatchTotalPoints, error) {
	match, err := s.getMatch(ctx, matchID, true)
	if err != nil {
		return nil, err
	}

	totals := &MatchTotalPoints{}
	if match.TeamA != nil {
		totals.TeamA = TotalPointsSide{Name: match.TeamA.Name, Score: match.TeamAScore}
	}
	if match.TeamB != nil {
		totals.TeamB = TotalPointsSide{Name: match.TeamB.Name, Score: match.TeamBScore}
	}

	for i := range match.PlayerStats {
		stat := &match.PlayerStats[i]
		side := &totals.TeamA
		if stat.TeamID == match.TeamBID {
			side = &totals.TeamB
		}
		side.TotalRaidPoints += stat.RaidTotal()
		side.TotalDefensePoints += stat.DefenseTotal()
	}
	return totals, nil
}

func (s *statsService) getMatch(ctx context.Context, matchID int, full bool) (*models.Match, error) {
	var (
		match *models.Match
		err   error
	)
	if full {
		match, err = s.matchRepo.GetFull(ctx, matchID)
	} else {
		match, err = s.matchRepo.GetWithTeams(ctx, matchID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	populateMatchTeamURLs(match, s.uploader)
	return match, nil
}

func newFullStatsSide(team *models.Team, score int) FullStatsSide {
	return FullStatsSide{
		Name:         team.Name,
		Logo:         team.LogoURL,
		Score:        score,
		TopRaiders:   make([]RaiderLine, 0),
		TopDefenders: make([]DefenderLine, 0),
	}
}

func sortRaiders(lines []RaiderLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TotalRaidPoints > lines[j].TotalRaidPoints
	})
}

func sortDefenders(lines []DefenderLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TotalDefensePoints > lines[j].TotalDefensePoints
	})
}

func capRaiders(lines []RaiderLine, n int) []RaiderLine {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func capDefenders(lines []DefenderLine, n int) []DefenderLine {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
