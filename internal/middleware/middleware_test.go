package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos_tracker_backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedEngine(roles ...string) *gin.Engine {
	engine := gin.New()
	engine.GET("/private", AuthMiddleware(), RoleAuthMiddleware(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session": c.GetString("sessionID"), "user": c.GetInt64("userID")})
	})
	return engine
}

func get(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	engine := protectedEngine("admin", "staff")

	assert.Equal(t, http.StatusUnauthorized, get(engine, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "/private", "not-a-token").Code)

	token, _, err := utils.GenerateAccessToken(5, "clerk", "Staff", "sess-abc")
	require.NoError(t, err)
	w := get(engine, "/private", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session":"sess-abc","user":5}`, w.Body.String())
}

func TestRoleAuthMiddlewareForbids(t *testing.T) {
	engine := protectedEngine("admin", "manager")

	token, _, err := utils.GenerateAccessToken(5, "clerk", "staff", "sess-abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(engine, "/private", token).Code)
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := NewClientRateLimiter(1, 2)
	engine := gin.New()
	engine.POST("/login", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":5000"
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}
