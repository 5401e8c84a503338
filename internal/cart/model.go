package cart

import (
	"time"

	"GameStore/pkg/apperr"
)

const MaxQuantity = 99

var (
	ErrItemNotFound       = apperr.NotFound("CART_ITEM_NOT_FOUND", "Cart item not found")
	ErrGameNotFound       = apperr.NotFound("GAME_NOT_FOUND", "Game not found")
	ErrGameUnavailable    = apperr.ServiceUnavailable("GAME_SERVICE_UNAVAILABLE", "Game service is unavailable")
	ErrGameNotPurchasable = apperr.BadRequest("GAME_NOT_AVAILABLE", "Game is not available for purchase")
	ErrQuantityExceeded   = apperr.BadRequest("QUANTITY_LIMIT_EXCEEDED", "Quantity per game cannot exceed 99")
)

type Cart struct {
	ID        int64     `db:"id" json:"id,string"`
	UserID    int64     `db:"user_id" json:"userId,string"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Item snapshots the title and unit price of the game when it was added.
type Item struct {
	ID        int64     `db:"id" json:"id,string"`
	CartID    int64     `db:"cart_id" json:"cartId,string"`
	GameID    int64     `db:"game_id" json:"gameId,string"`
	GameTitle string    `db:"game_title" json:"gameTitle"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UnitPrice float64   `db:"unit_price" json:"unitPrice"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (i Item) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// View is a cart with its items and totals as returned to clients.
type View struct {
	Cart
	Items      []Item  `json:"items"`
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

// GameInfo is the part of a game-service record the cart relies on.
type GameInfo struct {
	ID       int64   `json:"id,string"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"isActive"`
}

type AddItemRequest struct {
	GameID   int64 `json:"gameId,string" binding:"required"`
	Quantity int   `json:"quantity" binding:"omitempty,min=1,max=99"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=99"`
}
