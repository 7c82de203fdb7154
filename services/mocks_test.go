package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kabaddi-league/scorekeeper/cache"
	"github.com/kabaddi-league/scorekeeper/livesync"
	"github.com/kabaddi-league/scorekeeper/models"
	"github.com/kabaddi-league/scorekeeper/repositories"
	"github.com/kabaddi-league/scorekeeper/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingCache behaves like an always-empty cache and keeps every key
// passed to Invalidate.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, cache.ErrCacheMiss
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (c *recordingCache) Invalidate(ctx context.Context, keys ...string) error {
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *models.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamRepository) List(ctx context.Context, nameFilter string) ([]*models.Team, error) {
	args := m.Called(ctx, nameFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Team), args.Error(1)
}

func (m *MockTeamRepository) Update(ctx context.Context, team *models.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return m.Called(ctx, exec, id).Error(0)
}

func (m *MockTeamRepository) CountMatchesReferencing(ctx context.Context, teamID int) (int, error) {
	args := m.Called(ctx, teamID)
	return args.Int(0), args.Error(1)
}

type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	return m.Called(ctx, player).Error(0)
}

func (m *MockPlayerRepository) CreateBatch(ctx context.Context, players []*models.Player) error {
	return m.Called(ctx, players).Error(0)
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) List(ctx context.Context, filter repositories.PlayerFilter) ([]*models.Player, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Player), args.Error(1)
}

func (m *MockPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	return m.Called(ctx, player).Error(0)
}

func (m *MockPlayerRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match, stats []models.PlayerStat) error {
	return m.Called(ctx, match, stats).Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetWithTeams(ctx context.Context, id int) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetFull(ctx context.Context, id int) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) List(ctx context.Context, status *models.MatchStatus) ([]*models.Match, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListLeague(ctx context.Context) ([]*models.Match, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListCompletedFull(ctx context.Context) ([]*models.Match, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetLatestFinal(ctx context.Context) (*models.Match, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) UpdateFields(ctx context.Context, id int, upd repositories.MatchUpdate) error {
	return m.Called(ctx, id, upd).Error(0)
}

func (m *MockMatchRepository) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockMatchRepository) SetHalfTime(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMatchRepository) UpdateMats(ctx context.Context, id int, teamAMat, teamBMat *int) error {
	return m.Called(ctx, id, teamAMat, teamBMat).Error(0)
}

func (m *MockMatchRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMatchRepository) AddPlayerPoints(ctx context.Context, matchID, playerID int, points int64, kind models.PointKind) (*models.PlayerStat, error) {
	args := m.Called(ctx, matchID, playerID, points, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStat), args.Error(1)
}

func (m *MockMatchRepository) PopPlayerPoints(ctx context.Context, matchID, playerID int, kind models.PointKind) (int64, *models.PlayerStat, error) {
	args := m.Called(ctx, matchID, playerID, kind)
	var stat *models.PlayerStat
	if args.Get(1) != nil {
		stat = args.Get(1).(*models.PlayerStat)
	}
	return args.Get(0).(int64), stat, args.Error(2)
}

func (m *MockMatchRepository) AddTeamPoints(ctx context.Context, matchID, teamID int, points int64) error {
	return m.Called(ctx, matchID, teamID, points).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// recordingNotifier captures the snapshots match mutations publish.
type recordingNotifier struct {
	updates []livesync.Update
	cleared []int
}

func (n *recordingNotifier) PublishMatch(ctx context.Context, update livesync.Update) error {
	n.updates = append(n.updates, update)
	return nil
}

func (n *recordingNotifier) ClearMatch(ctx context.Context, matchID int) error {
	n.cleared = append(n.cleared, matchID)
	return nil
}

// fakeUploader hands back deterministic URLs without talking to storage.
type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
