package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kabaddi-league/scorekeeper/models"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerTeamInvalid = errors.New("player team conflict or invalid")
)

type PlayerFilter struct {
	TeamID     *int
	NameFilter string
	// OrderByRoster sorts by roster_order (nulls last) instead of name.
	OrderByRoster bool
	Descending    bool
}

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	CreateBatch(ctx context.Context, players []*models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (name, team_id, photo_key, roster_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.Name,
		player.TeamID,
		player.PhotoKey,
		player.RosterOrder,
	).Scan(&player.ID, &player.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPlayerTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) CreateBatch(ctx context.Context, players []*models.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CreateBatch failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`INSERT INTO players (name, team_id, photo_key, roster_order) VALUES `)
	args := make([]interface{}, 0, len(players)*4)
	for i, p := range players {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * 4
		queryBuilder.WriteString("($" + strconv.Itoa(base+1) + ", $" + strconv.Itoa(base+2) +
			", $" + strconv.Itoa(base+3) + ", $" + strconv.Itoa(base+4) + ")")
		args = append(args, p.Name, p.TeamID, p.PhotoKey, p.RosterOrder)
	}
	queryBuilder.WriteString(" RETURNING id, created_at")

	rows, err := tx.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPlayerTeamInvalid
		}
		return err
	}

	i := 0
	for rows.Next() {
		if err := rows.Scan(&players[i].ID, &players[i].CreatedAt); err != nil {
			rows.Close()
			return err
		}
		i++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT p.id, p.name, p.team_id, p.photo_key, p.roster_order, p.created_at,
		       t.id, t.name, t.logo_key, t.created_at
		FROM players p
		JOIN teams t ON t.id = p.team_id
		WHERE p.id = $1`

	player := &models.Player{Team: &models.Team{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID, &player.Name, &player.TeamID, &player.PhotoKey, &player.RosterOrder, &player.CreatedAt,
		&player.Team.ID, &player.Team.Name, &player.Team.LogoKey, &player.Team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter PlayerFilter) ([]*models.Player, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT p.id, p.name, p.team_id, p.photo_key, p.roster_order, p.created_at,
		       t.id, t.name, t.logo_key, t.created_at
		FROM players p
		JOIN teams t ON t.id = p.team_id`)

	args := []interface{}{}
	conditions := []string{}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		conditions = append(conditions, "p.team_id = $"+strconv.Itoa(len(args)))
	}
	if filter.NameFilter != "" {
		args = append(args, filter.NameFilter)
		conditions = append(conditions, "p.name ILIKE '%' || $"+strconv.Itoa(len(args))+" || '%'")
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	if filter.OrderByRoster {
		queryBuilder.WriteString(" ORDER BY p.roster_order " + direction + " NULLS LAST, p.name ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY p.name " + direction)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		player := &models.Player{Team: &models.Team{}}
		err := rows.Scan(
			&player.ID, &player.Name, &player.TeamID, &player.PhotoKey, &player.RosterOrder, &player.CreatedAt,
			&player.Team.ID, &player.Team.Name, &player.Team.LogoKey, &player.Team.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, team_id = $2, photo_key = $3, roster_order = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		player.Name, player.TeamID, player.PhotoKey, player.RosterOrder, player.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPlayerTeamInvalid
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
