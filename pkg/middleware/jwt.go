package middleware

import (
	"errors"
	"net/http"
	"strings"

	"GameStore/pkg/response"
	"GameStore/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID   = "userID"
	CtxUserName = "username"
	CtxEmail    = "email"
	CtxRole     = "role"
)

// JWTAuthMiddleware verifies the access token of every request in the group.
// Missing, expired and otherwise invalid tokens are reported with distinct codes.
func JWTAuthMiddleware(j *utils.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "NO_TOKEN", "Access token is required")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Authorization header format must be Bearer {token}")
			return
		}
		claims, err := j.ParseAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				response.AbortWithError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
				return
			}
			response.AbortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid access token")
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserName, claims.UserName)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role is one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[GetRole(c)]; !ok {
			response.AbortWithError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions")
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

func GetRole(c *gin.Context) string {
	return c.GetString(CtxRole)
}
