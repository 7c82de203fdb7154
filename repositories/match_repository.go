package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/kabaddi-league/scorekeeper/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchNumberConflict  = errors.New("match number conflict")
	ErrMatchTeamInvalid     = errors.New("team is not part of this match")
	ErrPlayerStatNotFound   = errors.New("player not found in match")
	ErrPointHistoryEmpty    = errors.New("no points recorded for this player")
	ErrMatchTeamsConstraint = errors.New("match team conflict or invalid")
)

// createMatchAttempts bounds the retry loop around the match number
// unique constraint under concurrent creates.
const createMatchAttempts = 3

type MatchUpdate struct {
	Date      *time.Time
	MatchType *models.MatchType
	Status    *models.MatchStatus
	HalfTime  *bool
}

type MatchRepository interface {
	// Create inserts the match together with one empty stat row per
	// roster player, assigning the next sequential match number.
	Create(ctx context.Context, match *models.Match, stats []models.PlayerStat) error

	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetWithTeams populates TeamA/TeamB from the teams table.
	GetWithTeams(ctx context.Context, id int) (*models.Match, error)
	// GetFull additionally populates PlayerStats with player and team details.
	GetFull(ctx context.Context, id int) (*models.Match, error)

	List(ctx context.Context, status *models.MatchStatus) ([]*models.Match, error)
	// ListLeague returns matches whose type counts toward the points
	// table, any status, with teams populated.
	ListLeague(ctx context.Context) ([]*models.Match, error)
	// ListCompletedFull returns all completed matches with full player
	// stats, the input of the leaderboard computations.
	ListCompletedFull(ctx context.Context) ([]*models.Match, error)
	// GetLatestFinal returns the most recently created completed match of
	// type Final, with teams populated.
	GetLatestFinal(ctx context.Context) (*models.Match, error)

	UpdateFields(ctx context.Context, id int, upd MatchUpdate) error
	UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error
	SetHalfTime(ctx context.Context, id int) error
	UpdateMats(ctx context.Context, id int, teamAMat, teamBMat *int) error
	Delete(ctx context.Context, id int) error

	// AddPlayerPoints appends one history entry and credits the player's
	// team score in a single transaction, serialized on the match row.
	AddPlayerPoints(ctx context.Context, matchID, playerID int, points int64, kind models.PointKind) (*models.PlayerStat, error)
	// PopPlayerPoints removes the most recent history entry of the given
	// kind and debits the team score, returning the removed value.
	PopPlayerPoints(ctx context.Context, matchID, playerID int, kind models.PointKind) (int64, *models.PlayerStat, error)
	// AddTeamPoints adjusts a team's score directly with no player
	// attribution. Negative points subtract.
	AddTeamPoints(ctx context.Context, matchID, teamID int, points int64) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match, stats []models.PlayerStat) error {
	var lastErr error
	for attempt := 0; attempt < createMatchAttempts; attempt++ {
		err := r.tryCreate(ctx, match, stats)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrMatchNumberConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (r *postgresMatchRepository) tryCreate(ctx context.Context, match *models.Match, stats []models.PlayerStat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create match: begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches
			(match_number, team_a_id, team_b_id, date, match_type, status,
			 team_a_score, team_b_score, half_time, team_a_mat, team_b_mat)
		VALUES ((SELECT COALESCE(MAX(match_number), 0) + 1 FROM matches),
		        $1, $2, $3, $4, $5, 0, 0, FALSE, $6, $7)
		RETURNING id, match_number, created_at`

	err = tx.QueryRowContext(ctx, query,
		match.TeamAID,
		match.TeamBID,
		match.Date,
		match.MatchType,
		match.Status,
		match.TeamAMat,
		match.TeamBMat,
	).Scan(&match.ID, &match.MatchNumber, &match.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrMatchNumberConflict
		}
		if isForeignKeyViolation(err) {
			return ErrMatchTeamsConstraint
		}
		return err
	}

	if len(stats) > 0 {
		var queryBuilder strings.Builder
		queryBuilder.WriteString(`INSERT INTO match_player_stats (match_id, player_id, team_id, raid_points, defense_points) VALUES `)
		args := make([]interface{}, 0, len(stats)*3)
		for i, stat := range stats {
			if i > 0 {
				queryBuilder.WriteString(", ")
			}
			base := len(args)
			queryBuilder.WriteString("($" + strconv.Itoa(base+1) + ", $" + strconv.Itoa(base+2) +
				", $" + strconv.Itoa(base+3) + ", '{}', '{}')")
			args = append(args, match.ID, stat.PlayerID, stat.TeamID)
		}
		if _, err := tx.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
			return fmt.Errorf("create match: insert player stats: %w", err)
		}
	}

	return tx.Commit()
}

const matchColumns = `
	m.id, m.match_number, m.team_a_id, m.team_b_id, m.team_a_score, m.team_b_score,
	m.date, m.match_type, m.status, m.half_time, m.team_a_mat, m.team_b_mat, m.created_at`

func scanMatch(row interface{ Scan(...interface{}) error }, match *models.Match) error {
	return row.Scan(
		&match.ID, &match.MatchNumber, &match.TeamAID, &match.TeamBID,
		&match.TeamAScore, &match.TeamBScore, &match.Date, &match.MatchType,
		&match.Status, &match.HalfTime, &match.TeamAMat, &match.TeamBMat, &match.CreatedAt,
	)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches m WHERE m.id = $1`

	match := &models.Match{}
	if err := scanMatch(r.db.QueryRowContext(ctx, query, id), match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

const matchWithTeamsQuery = `
	SELECT` + matchColumns + `,
	       ta.id, ta.name, ta.logo_key, ta.created_at,
	       tb.id, tb.name, tb.logo_key, tb.created_at
	FROM matches m
	JOIN teams ta ON ta.id = m.team_a_id
	JOIN teams tb ON tb.id = m.team_b_id`

func scanMatchWithTeams(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{TeamA: &models.Team{}, TeamB: &models.Team{}}
	err := row.Scan(
		&match.ID, &match.MatchNumber, &match.TeamAID, &match.TeamBID,
		&match.TeamAScore, &match.TeamBScore, &match.Date, &match.MatchType,
		&match.Status, &match.HalfTime, &match.TeamAMat, &match.TeamBMat, &match.CreatedAt,
		&match.TeamA.ID, &match.TeamA.Name, &match.TeamA.LogoKey, &match.TeamA.CreatedAt,
		&match.TeamB.ID, &match.TeamB.Name, &match.TeamB.LogoKey, &match.TeamB.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) GetWithTeams(ctx context.Context, id int) (*models.Match, error) {
	match, err := scanMatchWithTeams(r.db.QueryRowContext(ctx, matchWithTeamsQuery+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) GetFull(ctx context.Context, id int) (*models.Match, error) {
	match, err := r.GetWithTeams(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := r.listStats(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	match.PlayerStats = stats[id]
	if match.PlayerStats == nil {
		match.PlayerStats = []models.PlayerStat{}
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, status *models.MatchStatus) ([]*models.Match, error) {
	query := matchWithTeamsQuery
	args := []interface{}{}
	if status != nil {
		query += ` WHERE m.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY m.match_number ASC`

	return r.queryMatches(ctx, query, args...)
}

func (r *postgresMatchRepository) ListLeague(ctx context.Context) ([]*models.Match, error) {
	query := matchWithTeamsQuery + `
		WHERE m.match_type IS NULL OR m.match_type IN ('', 'Regular')
		ORDER BY m.match_number ASC`
	return r.queryMatches(ctx, query)
}

func (r *postgresMatchRepository) ListCompletedFull(ctx context.Context) ([]*models.Match, error) {
	query := matchWithTeamsQuery + ` WHERE m.status = $1 ORDER BY m.match_number ASC`
	matches, err := r.queryMatches(ctx, query, models.MatchStatusCompleted)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return matches, nil
	}

	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	statsByMatch, err := r.listStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		m.PlayerStats = statsByMatch[m.ID]
		if m.PlayerStats == nil {
			m.PlayerStats = []models.PlayerStat{}
		}
	}
	return matches, nil
}

func (r *postgresMatchRepository) GetLatestFinal(ctx context.Context) (*models.Match, error) {
	query := matchWithTeamsQuery + `
		WHERE m.match_type = $1 AND m.status = $2
		ORDER BY m.created_at DESC
		LIMIT 1`

	match, err := scanMatchWithTeams(r.db.QueryRowContext(ctx, query, models.MatchTypeFinal, models.MatchStatusCompleted))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, err := scanMatchWithTeams(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// listStats loads the stat rows for the given match ids, players and their
// teams included, keyed by match id.
func (r *postgresMatchRepository) listStats(ctx context.Context, matchIDs []int) (map[int][]models.PlayerStat, error) {
	query := `
		SELECT s.match_id, s.player_id, s.team_id, s.raid_points, s.defense_points,
		       p.id, p.name, p.team_id, p.photo_key, p.roster_order, p.created_at,
		       t.id, t.name, t.logo_key, t.created_at
		FROM match_player_stats s
		JOIN players p ON p.id = s.player_id
		JOIN teams t ON t.id = s.team_id
		WHERE s.match_id = ANY($1)
		ORDER BY s.match_id, s.player_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statsByMatch := make(map[int][]models.PlayerStat, len(matchIDs))
	for rows.Next() {
		stat := models.PlayerStat{Player: &models.Player{Team: &models.Team{}}}
		var raid, defense pq.Int64Array
		err := rows.Scan(
			&stat.MatchID, &stat.PlayerID, &stat.TeamID, &raid, &defense,
			&stat.Player.ID, &stat.Player.Name, &stat.Player.TeamID,
			&stat.Player.PhotoKey, &stat.Player.RosterOrder, &stat.Player.CreatedAt,
			&stat.Player.Team.ID, &stat.Player.Team.Name, &stat.Player.Team.LogoKey, &stat.Player.Team.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		stat.RaidPoints = []int64(raid)
		stat.DefensePoints = []int64(defense)
		statsByMatch[stat.MatchID] = append(statsByMatch[stat.MatchID], stat)
	}
	return statsByMatch, rows.Err()
}

func (r *postgresMatchRepository) UpdateFields(ctx context.Context, id int, upd MatchUpdate) error {
	sets := []string{}
	args := []interface{}{}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if upd.Date != nil {
		appendSet("date", *upd.Date)
	}
	if upd.MatchType != nil {
		appendSet("match_type", *upd.MatchType)
	}
	if upd.Status != nil {
		appendSet("status", *upd.Status)
	}
	if upd.HalfTime != nil {
		appendSet("half_time", *upd.HalfTime)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := `UPDATE matches SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetHalfTime(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET half_time = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateMats(ctx context.Context, id int, teamAMat, teamBMat *int) error {
	query := `
		UPDATE matches
		SET team_a_mat = COALESCE($1, team_a_mat),
		    team_b_mat = COALESCE($2, team_b_mat)
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, teamAMat, teamBMat, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// lockMatch takes the match row lock that serializes concurrent point
// mutations against the same match.
func lockMatch(ctx context.Context, tx *sql.Tx, matchID int) (teamAID, teamBID int, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT team_a_id, team_b_id FROM matches WHERE id = $1 FOR UPDATE`, matchID).
		Scan(&teamAID, &teamBID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrMatchNotFound
	}
	return teamAID, teamBID, err
}

func pointColumn(kind models.PointKind) string {
	if kind == models.PointKindDefense {
		return "defense_points"
	}
	return "raid_points"
}

func (r *postgresMatchRepository) AddPlayerPoints(ctx context.Context, matchID, playerID int, points int64, kind models.PointKind) (*models.PlayerStat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("add player points: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, _, err := lockMatch(ctx, tx, matchID); err != nil {
		return nil, err
	}

	column := pointColumn(kind)
	stat := &models.PlayerStat{MatchID: matchID, PlayerID: playerID}
	var raid, defense pq.Int64Array
	query := `
		UPDATE match_player_stats
		SET ` + column + ` = array_append(` + column + `, $1)
		WHERE match_id = $2 AND player_id = $3
		RETURNING team_id, raid_points, defense_points`
	err = tx.QueryRowContext(ctx, query, points, matchID, playerID).
		Scan(&stat.TeamID, &raid, &defense)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerStatNotFound
		}
		return nil, err
	}
	stat.RaidPoints = []int64(raid)
	stat.DefensePoints = []int64(defense)

	if err := adjustTeamScore(ctx, tx, matchID, stat.TeamID, points); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stat, nil
}

func (r *postgresMatchRepository) PopPlayerPoints(ctx context.Context, matchID, playerID int, kind models.PointKind) (int64, *models.PlayerStat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("undo player points: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, _, err := lockMatch(ctx, tx, matchID); err != nil {
		return 0, nil, err
	}

	stat := &models.PlayerStat{MatchID: matchID, PlayerID: playerID}
	var raid, defense pq.Int64Array
	err = tx.QueryRowContext(ctx, `
		SELECT team_id, raid_points, defense_points
		FROM match_player_stats
		WHERE match_id = $1 AND player_id = $2`, matchID, playerID).
		Scan(&stat.TeamID, &raid, &defense)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, ErrPlayerStatNotFound
		}
		return 0, nil, err
	}

	history := raid
	if kind == models.PointKindDefense {
		history = defense
	}
	if len(history) == 0 {
		return 0, nil, ErrPointHistoryEmpty
	}
	removed := history[len(history)-1]
	trimmed := history[:len(history)-1]

	column := pointColumn(kind)
	_, err = tx.ExecContext(ctx, `
		UPDATE match_player_stats
		SET `+column+` = $1
		WHERE match_id = $2 AND player_id = $3`, pq.Array([]int64(trimmed)), matchID, playerID)
	if err != nil {
		return 0, nil, err
	}

	if err := adjustTeamScore(ctx, tx, matchID, stat.TeamID, -removed); err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}

	if kind == models.PointKindDefense {
		stat.RaidPoints = []int64(raid)
		stat.DefensePoints = []int64(trimmed)
	} else {
		stat.RaidPoints = []int64(trimmed)
		stat.DefensePoints = []int64(defense)
	}
	return removed, stat, nil
}

func (r *postgresMatchRepository) AddTeamPoints(ctx context.Context, matchID, teamID int, points int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add team points: begin transaction: %w", err)
	}
	defer tx.Rollback()

	teamAID, teamBID, err := lockMatch(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if teamID != teamAID && teamID != teamBID {
		return ErrMatchTeamInvalid
	}

	if err := adjustTeamScore(ctx, tx, matchID, teamID, points); err != nil {
		return err
	}
	return tx.Commit()
}

// adjustTeamScore credits delta to whichever side of the match teamID plays
// on. Callers must already hold the match row lock.
func adjustTeamScore(ctx context.Context, tx *sql.Tx, matchID, teamID int, delta int64) error {
	query := `
		UPDATE matches
		SET team_a_score = team_a_score + CASE WHEN team_a_id = $1 THEN $2 ELSE 0 END,
		    team_b_score = team_b_score + CASE WHEN team_b_id = $1 THEN $2 ELSE 0 END
		WHERE id = $3`

	result, err := tx.ExecContext(ctx, query, teamID, delta, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
