package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"GameStore/pkg/apperr"
	"GameStore/pkg/config"
	"GameStore/pkg/idgen"
	"GameStore/pkg/response"
	"GameStore/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = utils.NewJWT(&config.JWTConfig{Secret: "middleware-test-secret", AccessExpire: time.Minute})

func decode(t *testing.T, w *httptest.ResponseRecorder) response.StandardResponse {
	t.Helper()
	var body response.StandardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAuthRouter(roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{JWTAuthMiddleware(testJWT)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": GetUserID(c), "role": GetRole(c)})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	valid, err := testJWT.GenerateAccessToken(utils.Identity{UserID: 42, UserName: "bob", Role: "user"})
	require.NoError(t, err)
	refresh, _, err := testJWT.GenerateRefreshToken(utils.Identity{UserID: 42})
	require.NoError(t, err)
	otherSecret, err := utils.NewJWT(&config.JWTConfig{Secret: "other"}).GenerateAccessToken(utils.Identity{UserID: 42})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "NO_TOKEN"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"foreign signature", "Bearer " + otherSecret, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"refresh token used as access", "Bearer " + refresh, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				body := decode(t, w)
				assert.False(t, body.Success)
				require.NotNil(t, body.Error)
				assert.Equal(t, tt.code, body.Error.Code)
			}
		})
	}
}

func TestJWTAuthMiddlewareSetsContext(t *testing.T) {
	token, err := testJWT.GenerateAccessToken(utils.Identity{UserID: 42, UserName: "bob", Role: "user"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":42,"role":"user"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	userToken, err := testJWT.GenerateAccessToken(utils.Identity{UserID: 1, Role: "user"})
	require.NoError(t, err)
	adminToken, err := testJWT.GenerateAccessToken(utils.Identity{UserID: 2, Role: "admin"})
	require.NoError(t, err)

	r := newAuthRouter("admin")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", decode(t, w).Error.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		release bool
		err     error
		status  int
		code    string
		message string
	}{
		{"typed error", true, apperr.Conflict("EMAIL_ALREADY_EXISTS", "Email already registered"), http.StatusConflict, "EMAIL_ALREADY_EXISTS", "Email already registered"},
		{"plain error in release", true, errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error"},
		{"plain error in dev", false, errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "db exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(tt.release))
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(true))
	r.GET("/", func(c *gin.Context) {
		response.ReplySuccess(c, "ok")
		_ = c.Error(errors.New("logged only"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	ids, err := idgen.New(3)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestID(ids))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.Request.Header.Get(HeaderRequestID))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "upstream-id", w.Body.String())
}
