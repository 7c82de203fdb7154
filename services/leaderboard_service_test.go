package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/models"
)

type leaderboardFixture struct {
	matchRepo *MockMatchRepository
	teamRepo  *MockTeamRepository
	service   LeaderboardService
}

func newLeaderboardFixture() *leaderboardFixture {
	f := &leaderboardFixture{
		matchRepo: new(MockMatchRepository),
		teamRepo:  new(MockTeamRepository),
	}
	f.service = NewLeaderboardService(f.matchRepo, f.teamRepo, &fakeUploader{}, cache.Noop{}, testLogger())
	return f
}

func statFor(playerID, teamID int, name string, raids, defenses []int64) models.PlayerStat {
	return models.PlayerStat{
		PlayerID:      playerID,
		TeamID:        teamID,
		RaidPoints:    raids,
		DefensePoints: defenses,
		Player: &models.Player{
			ID:   playerID,
			Name: name,
			Team: &models.Team{ID: teamID, Name: "Team " + name},
		},
	}
}

func completedMatch(aID, bID int, stats ...models.PlayerStat) *models.Match {
	return &models.Match{
		TeamAID:     aID,
		TeamBID:     bID,
		Status:      models.MatchStatusCompleted,
		PlayerStats: stats,
	}
}

func TestLeaderboardService_GetTopPlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown category lists the allowed set", func(t *testing.T) {
		f := newLeaderboardFixture()

		_, err := f.service.GetTopPlayers(ctx, "mostTackles")
		var invalid *InvalidCategoryError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "mostTackles", invalid.Category)
		assert.Contains(t, invalid.Allowed, "superRaids")
		assert.Len(t, invalid.Allowed, 6)
	})

	t.Run("empty category returns every board", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{2, 3}, []int64{1}),
			),
		}, nil)

		boards, err := f.service.GetTopPlayers(ctx, "")
		require.NoError(t, err)
		assert.Len(t, boards, 6)
		for _, cat := range []string{"totalPoints", "totalRaidPoints", "totalDefensePoints", "superRaids", "high5s", "super10s"} {
			_, ok := boards[cat]
			assert.True(t, ok, "missing board %q", cat)
		}
	})

	t.Run("zero totals never make a board", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{4}, nil),
				statFor(21, 2, "Vikram", nil, nil),
			),
		}, nil)

		boards, err := f.service.GetTopPlayers(ctx, CategoryTotalPoints)
		require.NoError(t, err)
		board := boards[CategoryTotalPoints]
		require.Len(t, board, 1)
		assert.Equal(t, "Arjun", board[0].Name)
	})

	t.Run("ties share a rank and the next value skips", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{20}, nil),
				statFor(12, 1, "Rohit", []int64{20}, nil),
				statFor(21, 2, "Vikram", []int64{15}, nil),
			),
		}, nil)

		boards, err := f.service.GetTopPlayers(ctx, CategoryTotalPoints)
		require.NoError(t, err)
		board := boards[CategoryTotalPoints]
		require.Len(t, board, 3)
		assert.Equal(t, 1, board[0].Rank)
		assert.Equal(t, 1, board[1].Rank)
		assert.Equal(t, 3, board[2].Rank)
		assert.Equal(t, int64(15), board[2].Points)
	})

	t.Run("a raid of three counts as a super raid", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{3, 2, 4}, nil),
				statFor(21, 2, "Vikram", []int64{2, 2, 2}, nil),
			),
		}, nil)

		boards, err := f.service.GetTopPlayers(ctx, CategorySuperRaids)
		require.NoError(t, err)
		board := boards[CategorySuperRaids]
		require.Len(t, board, 1)
		assert.Equal(t, "Arjun", board[0].Name)
		assert.Equal(t, int64(2), board[0].Points)
	})

	t.Run("super10s and high5s count qualifying matches", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{4, 4, 2}, []int64{2, 2, 1}),
			),
			completedMatch(1, 3,
				statFor(11, 1, "Arjun", []int64{4, 5}, []int64{2, 2}),
			),
		}, nil)

		boards, err := f.service.GetTopPlayers(ctx, "")
		require.NoError(t, err)

		super10s := boards[CategorySuper10s]
		require.Len(t, super10s, 1)
		assert.Equal(t, int64(1), super10s[0].Points)

		high5s := boards[CategoryHigh5s]
		require.Len(t, high5s, 1)
		assert.Equal(t, int64(1), high5s[0].Points)
	})

	t.Run("boards truncate to their limits", func(t *testing.T) {
		f := newLeaderboardFixture()
		stats := make([]models.PlayerStat, 0, 12)
		for i := 0; i < 12; i++ {
			stats = append(stats, statFor(100+i, 1, "Player", []int64{6, int64(i + 1)}, []int64{5}))
		}
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2, stats...),
		}, nil)

		boards, err := f.service.GetTopPlayers(ctx, "")
		require.NoError(t, err)
		assert.Len(t, boards[CategoryTotalPoints], 10)
		assert.Len(t, boards[CategoryHigh5s], 5)
		assert.Len(t, boards[CategorySuper10s], 5)
	})
}

func TestLeaderboardService_GetTopTeams(t *testing.T) {
	ctx := context.Background()

	leaderboardTeams := func() []*models.Team {
		return []*models.Team{
			{ID: 1, Name: "Thunder"},
			{ID: 2, Name: "Raiders"},
		}
	}

	t.Run("unknown category lists the allowed set", func(t *testing.T) {
		f := newLeaderboardFixture()

		_, err := f.service.GetTopTeams(ctx, "mostWins")
		var invalid *InvalidCategoryError
		require.ErrorAs(t, err, &invalid)
		assert.Len(t, invalid.Allowed, 9)
		assert.Contains(t, invalid.Allowed, "avgTotalPoints")
	})

	t.Run("empty category defaults to total points", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.teamRepo.On("List", ctx, "").Return(leaderboardTeams(), nil)
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{5}, []int64{2}),
				statFor(21, 2, "Vikram", []int64{9}, []int64{3}),
			),
		}, nil)

		entries, err := f.service.GetTopTeams(ctx, "")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Raiders", entries[0].Name)
		assert.Equal(t, int64(12), entries[0].TotalPoints)
		assert.Equal(t, int64(7), entries[1].TotalPoints)
	})

	t.Run("team super raids need eight points in one raid", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.teamRepo.On("List", ctx, "").Return(leaderboardTeams(), nil)
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{8, 3}, nil),
				statFor(21, 2, "Vikram", []int64{7, 7}, nil),
			),
		}, nil)

		entries, err := f.service.GetTopTeams(ctx, TeamCategorySuperRaids)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Thunder", entries[0].Name)
		assert.Equal(t, 1, entries[0].SuperRaids)
		assert.Equal(t, 0, entries[1].SuperRaids)
	})

	t.Run("averages divide by matches played", func(t *testing.T) {
		f := newLeaderboardFixture()
		f.teamRepo.On("List", ctx, "").Return(leaderboardTeams(), nil)
		f.matchRepo.On("ListCompletedFull", ctx).Return([]*models.Match{
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{10}, []int64{2}),
			),
			completedMatch(1, 2,
				statFor(11, 1, "Arjun", []int64{4}, []int64{4}),
			),
		}, nil)

		entries, err := f.service.GetTopTeams(ctx, TeamCategoryAvgTotal)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		thunder := entries[0]
		assert.Equal(t, "Thunder", thunder.Name)
		assert.Equal(t, 2, thunder.MatchesPlayed)
		assert.InDelta(t, 10.0, thunder.AvgTotalPoints, 1e-9)
		assert.InDelta(t, 7.0, thunder.AvgRaids, 1e-9)
		assert.InDelta(t, 3.0, thunder.AvgDefense, 1e-9)
	})

	t.Run("keeps the top five teams", func(t *testing.T) {
		f := newLeaderboardFixture()
		teams := make([]*models.Team, 0, 7)
		for i := 1; i <= 7; i++ {
			teams = append(teams, &models.Team{ID: i, Name: "Team"})
		}
		f.teamRepo.On("List", ctx, "").Return(teams, nil)

		matches := make([]*models.Match, 0, 7)
		for i := 1; i <= 7; i++ {
			matches = append(matches, completedMatch(i, (i%7)+1,
				statFor(100+i, i, "P", []int64{int64(i)}, nil),
			))
		}
		f.matchRepo.On("ListCompletedFull", ctx).Return(matches, nil)

		entries, err := f.service.GetTopTeams(ctx, "")
		require.NoError(t, err)
		assert.Len(t, entries, 5)
	})
}

func TestAssignCompetitionRanks(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{Points: 20},
		{Points: 20},
		{Points: 20},
		{Points: 15},
		{Points: 15},
		{Points: 10},
	}
	assignCompetitionRanks(entries)

	ranks := make([]int, len(entries))
	for i, e := range entries {
		ranks[i] = e.Rank
	}
	assert.Equal(t, []int{1, 1, 1, 4, 4, 6}, ranks)
}
