package cart

import (
	"context"
	"errors"
	"math"
	"time"

	"GameStore/pkg/db/mysql"
	"GameStore/pkg/idgen"
)

type Service struct {
	repo    Repository
	catalog GameCatalog
	ids     *idgen.Generator
	now     func() time.Time
}

func NewService(repo Repository, catalog GameCatalog, ids *idgen.Generator) *Service {
	return &Service{repo: repo, catalog: catalog, ids: ids, now: time.Now}
}

func (s *Service) cartOf(ctx context.Context, userID int64) (*Cart, error) {
	return s.repo.GetOrCreate(ctx, userID, s.ids.NextID(), s.now())
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID int64) (*View, error) {
	c, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// AddItem puts quantity copies of a game in the cart. Adding a game that is
// already present raises its quantity and refreshes the price snapshot.
func (s *Service) AddItem(ctx context.Context, userID int64, req AddItemRequest) (*View, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	game, err := s.catalog.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if !game.IsActive {
		return nil, ErrGameNotPurchasable
	}

	c, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	existing, err := s.repo.GetItemByGame(ctx, c.ID, game.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		if req.Quantity > MaxQuantity {
			return nil, ErrQuantityExceeded
		}
		it := &Item{
			ID:        s.ids.NextID(),
			CartID:    c.ID,
			GameID:    game.ID,
			GameTitle: game.Title,
			Quantity:  req.Quantity,
			UnitPrice: game.Price,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.repo.AddItem(ctx, it)
		if mysql.IsDuplicateKey(err) {
			// a concurrent add of the same game won; retry as an increment
			return s.AddItem(ctx, userID, req)
		}
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if existing.Quantity+req.Quantity > MaxQuantity {
			return nil, ErrQuantityExceeded
		}
		existing.Quantity += req.Quantity
		existing.UnitPrice = game.Price
		existing.GameTitle = game.Title
		existing.UpdatedAt = now
		if err := s.repo.UpdateItem(ctx, existing); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, c)
}

func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, req UpdateItemRequest) (*View, error) {
	if req.Quantity > MaxQuantity {
		return nil, ErrQuantityExceeded
	}
	c, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	it, err := s.repo.GetItem(ctx, c.ID, itemID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	it.Quantity = req.Quantity
	it.UpdatedAt = s.now()
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*View, error) {
	c, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.repo.DeleteItem(ctx, c.ID, itemID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) Clear(ctx context.Context, userID int64) (*View, error) {
	c, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Clear(ctx, c.ID, s.now()); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) view(ctx context.Context, c *Cart) (*View, error) {
	items, err := s.repo.Items(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	v := &View{Cart: *c, Items: items}
	for _, it := range items {
		v.TotalItems += it.Quantity
		v.TotalPrice += it.Subtotal()
	}
	v.TotalPrice = math.Round(v.TotalPrice*100) / 100
	return v, nil
}
