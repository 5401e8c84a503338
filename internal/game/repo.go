package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("game: not found")

const gameColumns = `id, title, description, genre, developer, publisher, price, image_url,
	release_date, is_active, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, g *Game) error
	GetByID(ctx context.Context, id int64) (*Game, error)
	GetByTitle(ctx context.Context, title string) (*Game, error)
	List(ctx context.Context, q ListQuery, activeOnly bool) ([]Game, int, error)
	Update(ctx context.Context, g *Game) error
	Delete(ctx context.Context, id int64) error
}

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, g *Game) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO games (`+gameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Description, g.Genre, g.Developer, g.Publisher, g.Price, g.ImageURL,
		g.ReleaseDate, g.IsActive, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *sqlRepository) get(ctx context.Context, where string, arg interface{}) (*Game, error) {
	var g Game
	err := r.db.GetContext(ctx, &g, `SELECT `+gameColumns+` FROM games WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select game: %w", err)
	}
	return &g, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id int64) (*Game, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *sqlRepository) GetByTitle(ctx context.Context, title string) (*Game, error) {
	return r.get(ctx, "title = ?", title)
}

func (r *sqlRepository) List(ctx context.Context, q ListQuery, activeOnly bool) ([]Game, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if activeOnly {
		conds = append(conds, "is_active = ?")
		args = append(args, true)
	}
	if q.Genre != "" {
		conds = append(conds, "genre = ?")
		args = append(args, q.Genre)
	}
	if q.Search != "" {
		conds = append(conds, "(title LIKE ? OR description LIKE ?)")
		like := "%" + q.Search + "%"
		args = append(args, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM games`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	games := []Game{}
	pageArgs := append(append([]interface{}{}, args...), q.Limit, (q.Page-1)*q.Limit)
	err := r.db.SelectContext(ctx, &games,
		`SELECT `+gameColumns+` FROM games`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	return games, total, nil
}

func (r *sqlRepository) Update(ctx context.Context, g *Game) error {
	_, err := r.db.ExecContext(ctx, `UPDATE games SET title = ?, description = ?, genre = ?,
		developer = ?, publisher = ?, price = ?, image_url = ?, release_date = ?, is_active = ?,
		updated_at = ? WHERE id = ?`,
		g.Title, g.Description, g.Genre, g.Developer, g.Publisher, g.Price, g.ImageURL,
		g.ReleaseDate, g.IsActive, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("update game %d: %w", g.ID, err)
	}
	return nil
}

func (r *sqlRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game %d: %w", id, err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
