package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoilion/store-be/middleware"
	"github.com/khoilion/store-be/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, trustGateway bool) (*gin.Engine, *services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	auth := middleware.AuthMiddleware(middleware.AuthConfig{Tokens: tokens, TrustGateway: trustGateway})
	whoami := func(c *gin.Context) {
		id, err := middleware.GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "role": middleware.GetUserRole(c)})
	}
	r.GET("/me", auth, whoami)
	r.GET("/admin", auth, middleware.RequireRoles("admin"), whoami)
	return r, tokens
}

func do(r *gin.Engine, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_BearerToken(t *testing.T) {
	r, tokens := setupRouter(t, false)
	token, err := tokens.GenerateAccessToken("u-1", "user")
	require.NoError(t, err)

	w := do(r, "/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-1","role":"user"}`, w.Body.String())

	w = do(r, "/admin", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_Rejections(t *testing.T) {
	r, _ := setupRouter(t, false)

	w := do(r, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())

	w = do(r, "/me", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// gateway headers are ignored unless trusted
	w = do(r, "/me", func(req *http.Request) { req.Header.Set("X-User-ID", "u-2") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_GatewayHeadersAndCookies(t *testing.T) {
	r, _ := setupRouter(t, true)

	w := do(r, "/admin", func(req *http.Request) {
		req.Header.Set("X-User-ID", "u-9")
		req.Header.Set("X-User-Role", "admin")
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-9","role":"admin"}`, w.Body.String())

	w = do(r, "/me", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "user_id", Value: "u-3"})
		req.AddCookie(&http.Cookie{Name: "user_role", Value: "user"})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u-3","role":"user"}`, w.Body.String())

	w = do(r, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
