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

type standingsFixture struct {
	teamRepo  *MockTeamRepository
	matchRepo *MockMatchRepository
	service   StandingsService
}

func newStandingsFixture() *standingsFixture {
	f := &standingsFixture{
		teamRepo:  new(MockTeamRepository),
		matchRepo: new(MockMatchRepository),
	}
	f.service = NewStandingsService(f.teamRepo, f.matchRepo, &fakeUploader{}, cache.Noop{}, testLogger())
	return f
}

func leagueMatch(aID, bID, aScore, bScore int, status models.MatchStatus) *models.Match {
	return &models.Match{
		TeamAID:    aID,
		TeamBID:    bID,
		TeamAScore: aScore,
		TeamBScore: bScore,
		Status:     status,
		MatchType:  models.MatchTypeRegular,
	}
}

func standingsTeams() []*models.Team {
	return []*models.Team{
		{ID: 1, Name: "Thunder"},
		{ID: 2, Name: "Raiders"},
		{ID: 3, Name: "Panthers"},
	}
}

func rowByName(t *testing.T, table []*models.StandingsRow, name string) *models.StandingsRow {
	t.Helper()
	for _, row := range table {
		if row.TeamName == name {
			return row
		}
	}
	t.Fatalf("no standings row for %q", name)
	return nil
}

func TestStandingsService_GetPointsTable(t *testing.T) {
	ctx := context.Background()

	t.Run("awards two for a win, one each for a tie", func(t *testing.T) {
		f := newStandingsFixture()
		f.teamRepo.On("List", ctx, "").Return(standingsTeams(), nil)
		f.matchRepo.On("ListLeague", ctx).Return([]*models.Match{
			leagueMatch(1, 2, 30, 25, models.MatchStatusCompleted),
			leagueMatch(2, 3, 20, 20, models.MatchStatusCompleted),
			leagueMatch(1, 3, 10, 40, models.MatchStatusOngoing),
		}, nil)
		f.matchRepo.On("GetLatestFinal", ctx).Return(nil, repositories.ErrMatchNotFound)

		table, err := f.service.GetPointsTable(ctx)
		require.NoError(t, err)
		require.Len(t, table, 3)

		thunder := rowByName(t, table, "Thunder")
		assert.Equal(t, 2, thunder.Points)
		assert.Equal(t, 1, thunder.Wins)
		assert.Equal(t, 1, thunder.MatchesPlayed)
		assert.Equal(t, 5, thunder.PointsDifference)

		raiders := rowByName(t, table, "Raiders")
		assert.Equal(t, 1, raiders.Points)
		assert.Equal(t, 1, raiders.Losses)
		assert.Equal(t, 1, raiders.Ties)
		assert.Equal(t, -5, raiders.PointsDifference)

		panthers := rowByName(t, table, "Panthers")
		assert.Equal(t, 1, panthers.Points)
		assert.Equal(t, 0, panthers.PointsDifference)
	})

	t.Run("point differences sum to zero", func(t *testing.T) {
		f := newStandingsFixture()
		f.teamRepo.On("List", ctx, "").Return(standingsTeams(), nil)
		f.matchRepo.On("ListLeague", ctx).Return([]*models.Match{
			leagueMatch(1, 2, 33, 27, models.MatchStatusCompleted),
			leagueMatch(2, 3, 18, 41, models.MatchStatusCompleted),
			leagueMatch(3, 1, 29, 29, models.MatchStatusCompleted),
		}, nil)
		f.matchRepo.On("GetLatestFinal", ctx).Return(nil, repositories.ErrMatchNotFound)

		table, err := f.service.GetPointsTable(ctx)
		require.NoError(t, err)

		sum := 0
		for _, row := range table {
			sum += row.PointsDifference
		}
		assert.Zero(t, sum)
	})

	t.Run("orders by points then wins then difference", func(t *testing.T) {
		f := newStandingsFixture()
		f.teamRepo.On("List", ctx, "").Return(standingsTeams(), nil)
		// Thunder and Raiders end on equal points and wins; Thunder's
		// larger margin breaks the tie.
		f.matchRepo.On("ListLeague", ctx).Return([]*models.Match{
			leagueMatch(1, 3, 40, 10, models.MatchStatusCompleted),
			leagueMatch(2, 3, 25, 20, models.MatchStatusCompleted),
		}, nil)
		f.matchRepo.On("GetLatestFinal", ctx).Return(nil, repositories.ErrMatchNotFound)

		table, err := f.service.GetPointsTable(ctx)
		require.NoError(t, err)
		require.Len(t, table, 3)
		assert.Equal(t, "Thunder", table[0].TeamName)
		assert.Equal(t, "Raiders", table[1].TeamName)
		assert.Equal(t, "Panthers", table[2].TeamName)
	})

	t.Run("no qualifiers while league matches remain", func(t *testing.T) {
		f := newStandingsFixture()
		f.teamRepo.On("List", ctx, "").Return(standingsTeams(), nil)
		f.matchRepo.On("ListLeague", ctx).Return([]*models.Match{
			leagueMatch(1, 2, 30, 25, models.MatchStatusCompleted),
			leagueMatch(1, 3, 0, 0, models.MatchStatusUpcoming),
		}, nil)
		f.matchRepo.On("GetLatestFinal", ctx).Return(nil, repositories.ErrMatchNotFound)

		table, err := f.service.GetPointsTable(ctx)
		require.NoError(t, err)
		for _, row := range table {
			assert.False(t, row.Qualifier)
		}
	})

	t.Run("marks the top four once the league is done", func(t *testing.T) {
		f := newStandingsFixture()
		teams := []*models.Team{
			{ID: 1, Name: "Thunder"},
			{ID: 2, Name: "Raiders"},
			{ID: 3, Name: "Panthers"},
			{ID: 4, Name: "Hawks"},
			{ID: 5, Name: "Titans"},
		}
		f.teamRepo.On("List", ctx, "").Return(teams, nil)
		f.matchRepo.On("ListLeague", ctx).Return([]*models.Match{
			leagueMatch(1, 5, 35, 20, models.MatchStatusCompleted),
			leagueMatch(2, 5, 33, 21, models.MatchStatusCompleted),
			leagueMatch(3, 5, 31, 22, models.MatchStatusCompleted),
			leagueMatch(4, 5, 29, 23, models.MatchStatusCompleted),
		}, nil)
		f.matchRepo.On("GetLatestFinal", ctx).Return(nil, repositories.ErrMatchNotFound)

		table, err := f.service.GetPointsTable(ctx)
		require.NoError(t, err)
		require.Len(t, table, 5)
		for i, row := range table {
			assert.Equal(t, i < 4, row.Qualifier, "position %d", i)
		}
		assert.Equal(t, "Titans", table[4].TeamName)
	})

	t.Run("flags the final winner by name", func(t *testing.T) {
		f := newStandingsFixture()
		f.teamRepo.On("List", ctx, "").Return(standingsTeams(), nil)
		f.matchRepo.On("ListLeague", ctx).Return([]*models.Match{
			leagueMatch(1, 2, 30, 25, models.MatchStatusCompleted),
		}, nil)
		final := &models.Match{
			ID:         9,
			TeamAScore: 28,
			TeamBScore: 31,
			MatchType:  models.MatchTypeFinal,
			Status:     models.MatchStatusCompleted,
			TeamA:      &models.Team{ID: 1, Name: "Thunder"},
			TeamB:      &models.Team{ID: 2, Name: "Raiders"},
		}
		f.matchRepo.On("GetLatestFinal", ctx).Return(final, nil)

		table, err := f.service.GetPointsTable(ctx)
		require.NoError(t, err)
		assert.True(t, rowByName(t, table, "Raiders").FinalWinner)
		assert.False(t, rowByName(t, table, "Thunder").FinalWinner)
	})
}

func TestStandingsService_GetFinalResult(t *testing.T) {
	ctx := context.Background()

	t.Run("no final yet", func(t *testing.T) {
		f := newStandingsFixture()
		f.matchRepo.On("GetLatestFinal", ctx).Return(nil, repositories.ErrMatchNotFound)

		result, err := f.service.GetFinalResult(ctx)
		require.NoError(t, err)
		assert.Equal(t, "No final match found", result.Message)
		assert.Nil(t, result.MatchID)
		assert.Empty(t, result.Name)
	})

	t.Run("tied final is a draw, not a winner", func(t *testing.T) {
		f := newStandingsFixture()
		f.matchRepo.On("GetLatestFinal", ctx).Return(&models.Match{
			ID:         7,
			TeamAScore: 24,
			TeamBScore: 24,
			TeamA:      &models.Team{ID: 1, Name: "Thunder"},
			TeamB:      &models.Team{ID: 2, Name: "Raiders"},
		}, nil)

		result, err := f.service.GetFinalResult(ctx)
		require.NoError(t, err)
		require.NotNil(t, result.MatchID)
		assert.Equal(t, 7, *result.MatchID)
		assert.Equal(t, "The match ended in a draw", result.Message)
		assert.Empty(t, result.Name)
	})

	t.Run("higher score wins", func(t *testing.T) {
		f := newStandingsFixture()
		logoKey := "teams/2/logo.png"
		f.matchRepo.On("GetLatestFinal", ctx).Return(&models.Match{
			ID:         7,
			TeamAScore: 20,
			TeamBScore: 27,
			TeamA:      &models.Team{ID: 1, Name: "Thunder"},
			TeamB:      &models.Team{ID: 2, Name: "Raiders", LogoKey: &logoKey},
		}, nil)

		result, err := f.service.GetFinalResult(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Raiders", result.Name)
		require.NotNil(t, result.Logo)
		assert.Equal(t, "https://cdn.test/teams/2/logo.png", *result.Logo)
		assert.Empty(t, result.Message)
	})
}
