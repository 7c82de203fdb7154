package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
)

type statsFixture struct {
	matchRepo *MockMatchRepository
	service   StatsService
}

func newStatsFixture() *statsFixture {
	f := &statsFixture{matchRepo: new(MockMatchRepository)}
	f.service = NewStatsService(f.matchRepo, &fakeUploader{}, cache.Noop{}, testLogger())
	return f
}

func statsMatch() *models.Match {
	return &models.Match{
		ID:          5,
		MatchNumber: 2,
		TeamAID:     1,
		TeamBID:     2,
		TeamAScore:  31,
		TeamBScore:  27,
		TeamAMat:    6,
		TeamBMat:    5,
		HalfTime:    true,
		Status:      models.MatchStatusOngoing,
		MatchType:   models.MatchTypeRegular,
		TeamA:       &models.Team{ID: 1, Name: "Thunder"},
		TeamB:       &models.Team{ID: 2, Name: "Raiders"},
		PlayerStats: []models.PlayerStat{
			statFor(11, 1, "Arjun", []int64{4, 3}, nil),
			statFor(12, 1, "Rohit", nil, []int64{2, 2}),
			statFor(21, 2, "Vikram", []int64{2}, []int64{1}),
			statFor(22, 2, "Sandeep", nil, nil),
		},
	}
}

func TestStatsService_GetMatchScores(t *testing.T) {
	ctx := context.Background()

	t.Run("missing match", func(t *testing.T) {
		f := newStatsFixture()
		f.matchRepo.On("GetWithTeams", ctx, 99).Return(nil, repositories.ErrMatchNotFound)

		_, err := f.service.GetMatchScores(ctx, 99)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("carries both sides and mat counts", func(t *testing.T) {
		f := newStatsFixture()
		f.matchRepo.On("GetWithTeams", ctx, 5).Return(statsMatch(), nil)

		scores, err := f.service.GetMatchScores(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "Thunder", scores.TeamA.Name)
		assert.Equal(t, 31, scores.TeamA.Score)
		assert.Equal(t, 6, scores.TeamA.MatCount)
		assert.Equal(t, "Raiders", scores.TeamB.Name)
		assert.Equal(t, 5, scores.TeamB.MatCount)
		assert.True(t, scores.HalfTime)
		assert.Equal(t, "Ongoing", scores.Status)
	})
}

func TestStatsService_GetMatchStats(t *testing.T) {
	ctx := context.Background()

	t.Run("sums per side and lists non-zero contributors", func(t *testing.T) {
		f := newStatsFixture()
		f.matchRepo.On("GetFull", ctx, 5).Return(statsMatch(), nil)

		stats, err := f.service.GetMatchStats(ctx, 5)
		require.NoError(t, err)

		assert.Equal(t, int64(7), stats.TeamA.Raid)
		assert.Equal(t, int64(4), stats.TeamA.Defense)
		assert.Equal(t, int64(2), stats.TeamB.Raid)
		assert.Equal(t, int64(1), stats.TeamB.Defense)

		require.Len(t, stats.TopRaiders, 2)
		assert.Equal(t, "Arjun", stats.TopRaiders[0].Name)
		assert.Equal(t, int64(7), stats.TopRaiders[0].TotalRaidPoints)
		assert.Equal(t, "Vikram", stats.TopRaiders[1].Name)

		require.Len(t, stats.TopDefenders, 2)
		assert.Equal(t, "Rohit", stats.TopDefenders[0].Name)
		for _, line := range stats.TopRaiders {
			assert.NotEqual(t, "Sandeep", line.Name)
		}
	})

	t.Run("caps each list at five", func(t *testing.T) {
		f := newStatsFixture()
		match := statsMatch()
		match.PlayerStats = nil
		for i := 0; i < 8; i++ {
			match.PlayerStats = append(match.PlayerStats,
				statFor(100+i, 1, "P", []int64{int64(10 - i)}, []int64{1}))
		}
		f.matchRepo.On("GetFull", ctx, 5).Return(match, nil)

		stats, err := f.service.GetMatchStats(ctx, 5)
		require.NoError(t, err)
		require.Len(t, stats.TopRaiders, 5)
		assert.Equal(t, int64(10), stats.TopRaiders[0].TotalRaidPoints)
		assert.Equal(t, int64(6), stats.TopRaiders[4].TotalRaidPoints)
		assert.Len(t, stats.TopDefenders, 5)
	})
}

func TestStatsService_GetFullMatchStats(t *testing.T) {
	ctx := context.Background()

	f := newStatsFixture()
	f.matchRepo.On("GetFull", ctx, 5).Return(statsMatch(), nil)

	stats, err := f.service.GetFullMatchStats(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.MatchID)
	assert.Equal(t, 2, stats.MatchNumber)
	assert.Equal(t, "Regular", stats.MatchType)
	assert.Equal(t, "Ongoing", stats.Status)
	assert.True(t, stats.HalfTime)

	assert.Equal(t, "Thunder", stats.TeamA.Name)
	assert.Equal(t, int64(7), stats.TeamA.TotalRaidPoints)
	assert.Equal(t, int64(4), stats.TeamA.TotalDefensePoints)
	require.Len(t, stats.TeamA.TopRaiders, 1)
	assert.Equal(t, "Arjun", stats.TeamA.TopRaiders[0].Name)
	require.Len(t, stats.TeamA.TopDefenders, 1)
	assert.Equal(t, "Rohit", stats.TeamA.TopDefenders[0].Name)

	assert.Equal(t, int64(2), stats.TeamB.TotalRaidPoints)
	require.Len(t, stats.TeamB.TopRaiders, 1)
	assert.Equal(t, "Vikram", stats.TeamB.TopRaiders[0].Name)
}

func TestStatsService_GetMatchStatsByTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects anything but A or B", func(t *testing.T) {
		f := newStatsFixture()
		_, err := f.service.GetMatchStatsByTeam(ctx, 5, "C")
		assert.ErrorIs(t, err, ErrInvalidTeamSide)
	})

	t.Run("filters each list independently", func(t *testing.T) {
		f := newStatsFixture()
		f.matchRepo.On("GetFull", ctx, 5).Return(statsMatch(), nil)

		stats, err := f.service.GetMatchStatsByTeam(ctx, 5, "A")
		require.NoError(t, err)

		// Arjun raided but never defended; Rohit the reverse. Each
		// appears only on the list he scored in.
		require.Len(t, stats.TopRaiders, 1)
		assert.Equal(t, "Arjun", stats.TopRaiders[0].Name)
		require.Len(t, stats.TopDefenders, 1)
		assert.Equal(t, "Rohit", stats.TopDefenders[0].Name)
	})

	t.Run("side B sees only its own players", func(t *testing.T) {
		f := newStatsFixture()
		f.matchRepo.On("GetFull", ctx, 5).Return(statsMatch(), nil)

		stats, err := f.service.GetMatchStatsByTeam(ctx, 5, "B")
		require.NoError(t, err)
		require.Len(t, stats.TopRaiders, 1)
		assert.Equal(t, "Vikram", stats.TopRaiders[0].Name)
	})
}

func TestStatsService_GetMatchTotalPoints(t *testing.T) {
	ctx := context.Background()

	f := newStatsFixture()
	f.matchRepo.On("GetFull", ctx, 5).Return(statsMatch(), nil)

	totals, err := f.service.GetMatchTotalPoints(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, "Thunder", totals.TeamA.Name)
	assert.Equal(t, int64(7), totals.TeamA.TotalRaidPoints)
	assert.Equal(t, int64(4), totals.TeamA.TotalDefensePoints)
	assert.Equal(t, 31, totals.TeamA.Score)
	assert.Equal(t, int64(2), totals.TeamB.TotalRaidPoints)
	assert.Equal(t, int64(1), totals.TeamB.TotalDefensePoints)
}
