package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
)

type playerServiceFixture struct {
	playerRepo *MockPlayerRepository
	teamRepo   *MockTeamRepository
	matchRepo  *MockMatchRepository
	uploader   *fakeUploader
	service    PlayerService
}

func newPlayerServiceFixture() *playerServiceFixture {
	f := &playerServiceFixture{
		playerRepo: new(MockPlayerRepository),
		teamRepo:   new(MockTeamRepository),
		matchRepo:  new(MockMatchRepository),
		uploader:   &fakeUploader{},
	}
	f.service = NewPlayerService(f.playerRepo, f.teamRepo, f.matchRepo, f.uploader, testLogger())
	return f
}

func TestPlayerService_CreatePlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a name", func(t *testing.T) {
		f := newPlayerServiceFixture()
		_, err := f.service.CreatePlayer(ctx, CreatePlayerInput{Name: " ", TeamID: 1})
		assert.ErrorIs(t, err, ErrPlayerNameRequired)
	})

	t.Run("requires an existing team", func(t *testing.T) {
		f := newPlayerServiceFixture()
		f.teamRepo.On("GetByID", ctx, 9).Return(nil, repositories.ErrTeamNotFound)

		_, err := f.service.CreatePlayer(ctx, CreatePlayerInput{Name: "Arjun", TeamID: 9})
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})

	t.Run("creates with trimmed name", func(t *testing.T) {
		f := newPlayerServiceFixture()
		f.teamRepo.On("GetByID", ctx, 1).Return(&models.Team{ID: 1}, nil)
		f.playerRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Player) bool {
			return p.Name == "Arjun" && p.TeamID == 1
		})).Return(nil)

		player, err := f.service.CreatePlayer(ctx, CreatePlayerInput{Name: " Arjun ", TeamID: 1})
		require.NoError(t, err)
		assert.Equal(t, "Arjun", player.Name)
	})
}

func TestPlayerService_CreatePlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("one bad name fails the whole batch before any insert", func(t *testing.T) {
		f := newPlayerServiceFixture()

		_, err := f.service.CreatePlayers(ctx, []CreatePlayerInput{
			{Name: "Arjun", TeamID: 1},
			{Name: "", TeamID: 1},
		})
		assert.ErrorIs(t, err, ErrPlayerNameRequired)
		f.playerRepo.AssertNotCalled(t, "CreateBatch", ctx, mock.Anything)
	})

	t.Run("inserts the batch in one call", func(t *testing.T) {
		f := newPlayerServiceFixture()
		f.playerRepo.On("CreateBatch", ctx, mock.MatchedBy(func(players []*models.Player) bool {
			return len(players) == 2
		})).Return(nil)

		players, err := f.service.CreatePlayers(ctx, []CreatePlayerInput{
			{Name: "Arjun", TeamID: 1},
			{Name: "Rohit", TeamID: 1},
		})
		require.NoError(t, err)
		assert.Len(t, players, 2)
	})
}

func TestPlayerService_UpdatePlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only the provided fields", func(t *testing.T) {
		f := newPlayerServiceFixture()
		order := 4
		f.playerRepo.On("GetByID", ctx, 11).
			Return(&models.Player{ID: 11, Name: "Arjun", TeamID: 1, RosterOrder: &order}, nil)

		var updated *models.Player
		f.playerRepo.On("Update", ctx, mock.AnythingOfType("*models.Player")).
			Run(func(args mock.Arguments) { updated = args.Get(1).(*models.Player) }).Return(nil)

		newTeam := 2
		_, err := f.service.UpdatePlayer(ctx, 11, UpdatePlayerInput{TeamID: &newTeam})
		require.NoError(t, err)
		assert.Equal(t, "Arjun", updated.Name)
		assert.Equal(t, 2, updated.TeamID)
		require.NotNil(t, updated.RosterOrder)
		assert.Equal(t, 4, *updated.RosterOrder)
	})

	t.Run("rejects blanking the name", func(t *testing.T) {
		f := newPlayerServiceFixture()
		f.playerRepo.On("GetByID", ctx, 11).Return(&models.Player{ID: 11, Name: "Arjun"}, nil)

		blank := "  "
		_, err := f.service.UpdatePlayer(ctx, 11, UpdatePlayerInput{Name: &blank})
		assert.ErrorIs(t, err, ErrPlayerNameRequired)
	})
}

func TestPlayerService_DeletePlayer(t *testing.T) {
	ctx := context.Background()

	f := newPlayerServiceFixture()
	photoKey := "players/11/photo.jpg"
	f.playerRepo.On("GetByID", ctx, 11).Return(&models.Player{ID: 11, PhotoKey: &photoKey}, nil)
	f.playerRepo.On("Delete", ctx, 11).Return(nil)

	require.NoError(t, f.service.DeletePlayer(ctx, 11))
	assert.Equal(t, []string{photoKey}, f.uploader.deleted)
}

func TestPlayerService_GetPlayersOfMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("missing match", func(t *testing.T) {
		f := newPlayerServiceFixture()
		f.matchRepo.On("GetFull", ctx, 99).Return(nil, repositories.ErrMatchNotFound)

		_, err := f.service.GetPlayersOfMatch(ctx, 99)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("splits the snapshot by side", func(t *testing.T) {
		f := newPlayerServiceFixture()
		match := &models.Match{
			ID:      5,
			TeamAID: 1,
			TeamBID: 2,
			PlayerStats: []models.PlayerStat{
				{PlayerID: 11, TeamID: 1, Player: &models.Player{ID: 11, Name: "Arjun"}},
				{PlayerID: 12, TeamID: 1, Player: &models.Player{ID: 12, Name: "Rohit"}},
				{PlayerID: 21, TeamID: 2, Player: &models.Player{ID: 21, Name: "Vikram"}},
			},
		}
		f.matchRepo.On("GetFull", ctx, 5).Return(match, nil)

		roster, err := f.service.GetPlayersOfMatch(ctx, 5)
		require.NoError(t, err)
		require.Len(t, roster.TeamA, 2)
		require.Len(t, roster.TeamB, 1)
		assert.Equal(t, "Arjun", roster.TeamA[0].Name)
		assert.Equal(t, "Vikram", roster.TeamB[0].Name)
	})
}
