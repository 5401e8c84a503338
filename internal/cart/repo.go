package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"GameStore/pkg/db/mysql"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("cart: not found")

const itemColumns = `id, cart_id, game_id, game_title, quantity, unit_price, created_at, updated_at`

type Repository interface {
	// GetOrCreate returns the cart of userID, creating it with newID when missing.
	GetOrCreate(ctx context.Context, userID, newID int64, at time.Time) (*Cart, error)
	Items(ctx context.Context, cartID int64) ([]Item, error)
	GetItem(ctx context.Context, cartID, itemID int64) (*Item, error)
	GetItemByGame(ctx context.Context, cartID, gameID int64) (*Item, error)
	AddItem(ctx context.Context, it *Item) error
	UpdateItem(ctx context.Context, it *Item) error
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	Clear(ctx context.Context, cartID int64, at time.Time) error
}

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) getByUser(ctx context.Context, userID int64) (*Cart, error) {
	var c Cart
	err := r.db.GetContext(ctx, &c, `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart of user %d: %w", userID, err)
	}
	return &c, nil
}

func (r *sqlRepository) GetOrCreate(ctx context.Context, userID, newID int64, at time.Time) (*Cart, error) {
	c, err := r.getByUser(ctx, userID)
	if !errors.Is(err, ErrNotFound) {
		return c, err
	}

	c = &Cart{ID: newID, UserID: userID, CreatedAt: at, UpdatedAt: at}
	_, err = r.db.ExecContext(ctx, `INSERT INTO carts (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.CreatedAt, c.UpdatedAt)
	if mysql.IsDuplicateKey(err) {
		// a concurrent request created it first
		return r.getByUser(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert cart of user %d: %w", userID, err)
	}
	return c, nil
}

func (r *sqlRepository) Items(ctx context.Context, cartID int64) ([]Item, error) {
	items := []Item{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM cart_items WHERE cart_id = ? ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("select items of cart %d: %w", cartID, err)
	}
	return items, nil
}

func (r *sqlRepository) getItem(ctx context.Context, where string, args ...interface{}) (*Item, error) {
	var it Item
	err := r.db.GetContext(ctx, &it, `SELECT `+itemColumns+` FROM cart_items WHERE `+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select cart item: %w", err)
	}
	return &it, nil
}

func (r *sqlRepository) GetItem(ctx context.Context, cartID, itemID int64) (*Item, error) {
	return r.getItem(ctx, "cart_id = ? AND id = ?", cartID, itemID)
}

func (r *sqlRepository) GetItemByGame(ctx context.Context, cartID, gameID int64) (*Item, error) {
	return r.getItem(ctx, "cart_id = ? AND game_id = ?", cartID, gameID)
}

func (r *sqlRepository) AddItem(ctx context.Context, it *Item) error {
	return r.inTx(ctx, it.CartID, it.UpdatedAt, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO cart_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.CartID, it.GameID, it.GameTitle, it.Quantity, it.UnitPrice, it.CreatedAt, it.UpdatedAt)
		return err
	})
}

func (r *sqlRepository) UpdateItem(ctx context.Context, it *Item) error {
	return r.inTx(ctx, it.CartID, it.UpdatedAt, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE cart_items SET quantity = ?, unit_price = ?, game_title = ?, updated_at = ?
			WHERE cart_id = ? AND id = ?`,
			it.Quantity, it.UnitPrice, it.GameTitle, it.UpdatedAt, it.CartID, it.ID)
		return err
	})
}

func (r *sqlRepository) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	return r.inTx(ctx, cartID, time.Now(), func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND id = ?`, cartID, itemID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *sqlRepository) Clear(ctx context.Context, cartID int64, at time.Time) error {
	return r.inTx(ctx, cartID, at, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
		return err
	})
}

// inTx runs fn and bumps the cart's updated_at in the same transaction.
func (r *sqlRepository) inTx(ctx context.Context, cartID int64, at time.Time, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("cart %d: %w", cartID, err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE carts SET updated_at = ? WHERE id = ?`, at, cartID); err != nil {
		return fmt.Errorf("touch cart %d: %w", cartID, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit cart %d: %w", cartID, err)
	}
	return nil
}
