package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"GameStore/pkg/cache"
	"GameStore/pkg/db/mysql"
	"GameStore/pkg/idgen"
	"GameStore/pkg/response"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const (
	gameTTL = time.Hour
	listTTL = 5 * time.Minute

	listKeyPattern = "games:list:*"
)

func gameKey(id int64) string { return "game:" + strconv.FormatInt(id, 10) }

// listKey hashes the normalized query so any search text yields a glob-safe key.
func listKey(q ListQuery) string {
	raw := fmt.Sprintf("%d|%d|%s|%s", q.Page, q.Limit, q.Genre, q.Search)
	return fmt.Sprintf("games:list:%016x", xxhash.Sum64String(raw))
}

type Service struct {
	repo  Repository
	cache cache.Cache
	ids   *idgen.Generator
	now   func() time.Time
}

func NewService(repo Repository, c cache.Cache, ids *idgen.Generator) *Service {
	return &Service{repo: repo, cache: c, ids: ids, now: time.Now}
}

// List returns one page of active games, served from cache when possible.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q.Page, q.Limit = response.NormalizePage(q.Page, q.Limit)
	key := listKey(q)

	var cached ListResult
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	games, total, err := s.repo.List(ctx, q, true)
	if err != nil {
		return nil, err
	}
	res := &ListResult{Games: games, Pagination: response.NewPagination(q.Page, q.Limit, total)}
	s.writeCache(ctx, key, res, listTTL)
	return res, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Game, error) {
	key := gameKey(id)
	var cached Game
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	g, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, g, gameTTL)
	return g, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Game, error) {
	if err := s.ensureTitleFree(ctx, req.Title, 0); err != nil {
		return nil, err
	}
	now := s.now()
	g := &Game{
		ID:          s.ids.NextID(),
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Developer:   req.Developer,
		Publisher:   req.Publisher,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
		ReleaseDate: req.ReleaseDate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		if mysql.IsDuplicateKey(err) {
			return nil, ErrTitleTaken.Wrap(err)
		}
		return nil, err
	}
	s.invalidate(ctx)
	return g, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Game, error) {
	g, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != g.Title {
		if err := s.ensureTitleFree(ctx, *req.Title, id); err != nil {
			return nil, err
		}
		g.Title = *req.Title
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.Genre != nil {
		g.Genre = *req.Genre
	}
	if req.Developer != nil {
		g.Developer = *req.Developer
	}
	if req.Publisher != nil {
		g.Publisher = *req.Publisher
	}
	if req.Price != nil {
		g.Price = *req.Price
	}
	if req.ImageURL != nil {
		g.ImageURL = *req.ImageURL
	}
	if req.ReleaseDate != nil {
		g.ReleaseDate = req.ReleaseDate
	}
	if req.IsActive != nil {
		g.IsActive = *req.IsActive
	}
	g.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, g); err != nil {
		if mysql.IsDuplicateKey(err) {
			return nil, ErrTitleTaken.Wrap(err)
		}
		return nil, err
	}
	s.invalidate(ctx, gameKey(id))
	return g, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrGameNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, gameKey(id))
	return nil
}

func (s *Service) ensureTitleFree(ctx context.Context, title string, self int64) error {
	existing, err := s.repo.GetByTitle(ctx, title)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return ErrTitleTaken
	}
	return nil
}

// invalidate drops the given keys and every cached listing. Cache failures are logged;
// entries then age out through their TTL.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if len(keys) > 0 {
		if err := s.cache.Delete(ctx, keys...); err != nil {
			zap.L().Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		}
	}
	if _, err := s.cache.DeletePattern(ctx, listKeyPattern); err != nil {
		zap.L().Warn("cache pattern delete failed", zap.String("pattern", listKeyPattern), zap.Error(err))
	}
}

func (s *Service) readCache(ctx context.Context, key string, dst interface{}) bool {
	found, err := cache.GetJSON(ctx, s.cache, key, dst)
	if err != nil {
		zap.L().Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *Service) writeCache(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if err := cache.SetJSON(ctx, s.cache, key, v, ttl); err != nil {
		zap.L().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
