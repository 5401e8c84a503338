package user

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"GameStore/pkg/cache"
	"GameStore/pkg/db/mysql"
	"GameStore/pkg/idgen"
	"GameStore/pkg/response"
	"GameStore/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resetTokenTTL = time.Hour

func sessionKey(id int64) string { return "user:" + strconv.FormatInt(id, 10) }

func resetKey(token string) string { return "password_reset:" + token }

type Service struct {
	repo    Repository
	cache   cache.Cache
	jwt     *utils.JWT
	ids     *idgen.Generator
	release bool
	now     func() time.Time
}

// NewService wires the user service. In release mode reset tokens are never echoed back.
func NewService(repo Repository, c cache.Cache, j *utils.JWT, ids *idgen.Generator, release bool) *Service {
	return &Service{repo: repo, cache: c, jwt: j, ids: ids, release: release, now: time.Now}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := s.ensureUnique(ctx, req.Username, req.Email, 0); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		ID:           s.ids.NextID(),
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, duplicateError(err)
	}
	return s.startSession(ctx, u)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	u, err := s.repo.GetByLogin(ctx, req.Login)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		zap.L().Warn("failed to record last login", zap.Int64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}
	return s.startSession(ctx, u)
}

// Refresh exchanges the refresh token of the current session for a new pair and
// rotates the session, so each refresh token works once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken.Wrap(err)
	}

	var sess Session
	found, err := cache.GetJSON(ctx, s.cache, sessionKey(claims.UserID), &sess)
	if err != nil {
		return nil, err
	}
	if !found || sess.RefreshJTI != claims.ID {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return s.startSession(ctx, u)
}

func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.endSession(ctx, userID)
}

// ForgotPassword stores a one hour reset token for the account with email. Unknown
// addresses succeed silently. The token is returned only outside release mode.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := s.cache.Set(ctx, resetKey(token), strconv.FormatInt(u.ID, 10), resetTokenTTL); err != nil {
		return "", err
	}
	zap.L().Info("password reset requested", zap.Int64("user_id", u.ID))
	if s.release {
		return "", nil
	}
	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	raw, err := s.cache.Get(ctx, resetKey(req.Token))
	if errors.Is(err, cache.ErrMiss) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ErrInvalidResetToken.Wrap(err)
	}
	if _, err := s.repo.GetByID(ctx, id); errors.Is(err, ErrNotFound) {
		return ErrInvalidResetToken
	} else if err != nil {
		return err
	}

	if err := s.setPassword(ctx, id, req.NewPassword); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, resetKey(req.Token)); err != nil {
		zap.L().Warn("failed to drop reset token", zap.Error(err))
	}
	return s.endSession(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	u, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, u.PasswordHash) {
		return ErrInvalidCurrentPassword
	}
	return s.setPassword(ctx, userID, req.NewPassword)
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.get(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	page, limit := response.NormalizePage(q.Page, q.Limit)
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &ListResult{Users: users, Pagination: response.NewPagination(page, limit, total)}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*User, error) {
	return s.update(ctx, id, AdminUpdateRequest{UpdateProfileRequest: req})
}

func (s *Service) AdminUpdate(ctx context.Context, id int64, req AdminUpdateRequest) (*User, error) {
	return s.update(ctx, id, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	return s.endSession(ctx, id)
}

func (s *Service) update(ctx context.Context, id int64, req AdminUpdateRequest) (*User, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		if email != u.Email {
			if err := s.ensureUnique(ctx, "", email, id); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	deactivated := false
	if req.IsActive != nil {
		deactivated = u.IsActive && !*req.IsActive
		u.IsActive = *req.IsActive
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, duplicateError(err)
	}
	if deactivated {
		if err := s.endSession(ctx, id); err != nil {
			zap.L().Warn("failed to end session of disabled user", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	return u, nil
}

func (s *Service) get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *Service) setPassword(ctx context.Context, id int64, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash, s.now())
}

// ensureUnique checks username (when set) and email against accounts other than self.
func (s *Service) ensureUnique(ctx context.Context, username, email string, self int64) error {
	if username != "" {
		u, err := s.repo.GetByUsername(ctx, username)
		if err == nil && u.ID != self {
			return ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err == nil && u.ID != self {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) startSession(ctx context.Context, u *User) (*AuthResult, error) {
	pair, jti, err := s.jwt.GeneratePair(u.identity())
	if err != nil {
		return nil, err
	}
	sess := Session{UserID: u.ID, Username: u.Username, Role: u.Role, RefreshJTI: jti, LoginAt: s.now()}
	if err := cache.SetJSON(ctx, s.cache, sessionKey(u.ID), sess, s.jwt.RefreshExpire()); err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// endSession drops user:{id} and anything namespaced below it.
func (s *Service) endSession(ctx context.Context, id int64) error {
	key := sessionKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		return err
	}
	_, err := s.cache.DeletePattern(ctx, key+":*")
	return err
}

func duplicateError(err error) error {
	if !mysql.IsDuplicateKey(err) {
		return err
	}
	if strings.Contains(err.Error(), "email") {
		return ErrEmailTaken.Wrap(err)
	}
	return ErrUsernameTaken.Wrap(err)
}
