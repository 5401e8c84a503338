package gateway

import (
	"strings"

	"GameStore/pkg/apperr"
	"GameStore/pkg/utils"
)

// AuthGate is the gateway's own coarse token check. It only tells valid from invalid;
// the services behind it verify the token again with finer error codes.
type AuthGate struct {
	jwt *utils.JWT
}

func NewAuthGate(j *utils.JWT) *AuthGate {
	return &AuthGate{jwt: j}
}

// Check validates an Authorization header value: a missing or non-bearer header is
// Unauthorized, a token failing signature or expiry verification is Forbidden.
func (g *AuthGate) Check(header string) (*utils.JWTClaims, error) {
	const bearer = "Bearer "
	if !strings.HasPrefix(header, bearer) || strings.TrimSpace(header[len(bearer):]) == "" {
		return nil, apperr.Unauthorized("", "Access token required")
	}
	claims, err := g.jwt.ParseAccessToken(strings.TrimSpace(header[len(bearer):]))
	if err != nil {
		return nil, apperr.Forbidden("", "Invalid or expired token").Wrap(err)
	}
	return claims, nil
}
