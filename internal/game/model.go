package game

import (
	"time"

	"GameStore/pkg/apperr"
	"GameStore/pkg/response"
)

var (
	ErrGameNotFound = apperr.NotFound("GAME_NOT_FOUND", "Game not found")
	ErrTitleTaken   = apperr.Conflict("GAME_TITLE_ALREADY_EXISTS", "A game with this title already exists")
)

type Game struct {
	ID          int64      `db:"id" json:"id,string"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Genre       string     `db:"genre" json:"genre"`
	Developer   string     `db:"developer" json:"developer"`
	Publisher   string     `db:"publisher" json:"publisher"`
	Price       float64    `db:"price" json:"price"`
	ImageURL    string     `db:"image_url" json:"imageUrl"`
	ReleaseDate *time.Time `db:"release_date" json:"releaseDate,omitempty"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// ListQuery filters the catalog. Page and Limit are normalized by the service.
type ListQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Genre  string `form:"genre"`
	Search string `form:"search"`
}

type ListResult struct {
	Games      []Game              `json:"games"`
	Pagination response.Pagination `json:"pagination"`
}

type CreateRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Genre       string     `json:"genre" binding:"required,max=50"`
	Developer   string     `json:"developer" binding:"max=100"`
	Publisher   string     `json:"publisher" binding:"max=100"`
	Price       *float64   `json:"price" binding:"required,gte=0"`
	ImageURL    string     `json:"imageUrl" binding:"omitempty,url,max=500"`
	ReleaseDate *time.Time `json:"releaseDate"`
}

// UpdateRequest changes only the fields that are present.
type UpdateRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Genre       *string    `json:"genre" binding:"omitempty,min=1,max=50"`
	Developer   *string    `json:"developer" binding:"omitempty,max=100"`
	Publisher   *string    `json:"publisher" binding:"omitempty,max=100"`
	Price       *float64   `json:"price" binding:"omitempty,gte=0"`
	ImageURL    *string    `json:"imageUrl" binding:"omitempty,max=500"`
	ReleaseDate *time.Time `json:"releaseDate"`
	IsActive    *bool      `json:"isActive"`
}
