package utils

import (
	"errors"
	"fmt"
	"time"

	"GameStore/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenWrongType = errors.New("token has wrong type")
)

type JWTClaims struct {
	UserID   int64  `json:"userId,string"`
	UserName string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what login, register and refresh hand back to clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Identity is the subject a token is issued for.
type Identity struct {
	UserID   int64
	UserName string
	Email    string
	Role     string
}

type JWT struct {
	secret        []byte
	issuer        string
	accessExpire  time.Duration
	refreshExpire time.Duration
	now           func() time.Time
}

func NewJWT(cfg *config.JWTConfig) *JWT {
	j := &JWT{
		secret:        []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		accessExpire:  cfg.AccessExpire,
		refreshExpire: cfg.RefreshExpire,
		now:           time.Now,
	}
	if j.accessExpire <= 0 {
		j.accessExpire = 15 * time.Minute
	}
	if j.refreshExpire <= 0 {
		j.refreshExpire = 7 * 24 * time.Hour
	}
	return j
}

func (j *JWT) sign(id Identity, typ string, ttl time.Duration) (string, string, error) {
	now := j.now()
	jti := uuid.NewString()
	claims := JWTClaims{
		UserID:   id.UserID,
		UserName: id.UserName,
		Email:    id.Email,
		Role:     id.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    j.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, jti, nil
}

// GenerateAccessToken issues a short lived access token.
func (j *JWT) GenerateAccessToken(id Identity) (string, error) {
	token, _, err := j.sign(id, TokenTypeAccess, j.accessExpire)
	return token, err
}

// GenerateRefreshToken issues a long lived refresh token and returns its jti.
func (j *JWT) GenerateRefreshToken(id Identity) (string, string, error) {
	return j.sign(id, TokenTypeRefresh, j.refreshExpire)
}

// GeneratePair issues both tokens; the refresh jti identifies the session.
func (j *JWT) GeneratePair(id Identity) (*TokenPair, string, error) {
	access, err := j.GenerateAccessToken(id)
	if err != nil {
		return nil, "", err
	}
	refresh, jti, err := j.GenerateRefreshToken(id)
	if err != nil {
		return nil, "", err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(j.accessExpire / time.Second),
	}, jti, nil
}

// RefreshExpire is the lifetime of refresh tokens and of the sessions bound to them.
func (j *JWT) RefreshExpire() time.Duration {
	return j.refreshExpire
}

// ParseToken verifies signature and expiry and returns the claims of any token type.
func (j *JWT) ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseAccessToken is ParseToken restricted to access tokens.
func (j *JWT) ParseAccessToken(tokenString string) (*JWTClaims, error) {
	return j.parseTyped(tokenString, TokenTypeAccess)
}

// ParseRefreshToken is ParseToken restricted to refresh tokens.
func (j *JWT) ParseRefreshToken(tokenString string) (*JWTClaims, error) {
	return j.parseTyped(tokenString, TokenTypeRefresh)
}

func (j *JWT) parseTyped(tokenString, typ string) (*JWTClaims, error) {
	claims, err := j.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, ErrTokenWrongType
	}
	return claims, nil
}
