package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-floor/metrics"
	"github.com/yeremiapane/restaurant-floor/utils"
)

var testSecret = []byte("middleware-secret")

func init() {
	gin.SetMode(gin.TestMode)
	utils.SilenceLoggers()
}

func token(t *testing.T, userID uint, role string) string {
	tok, err := utils.GenerateToken(testSecret, time.Hour, userID, role)
	require.NoError(t, err)
	return tok
}

func whoAmI(c *gin.Context) {
	role, _ := c.Get(ContextRole)
	userID, _ := c.Get(ContextUserID)
	c.JSON(http.StatusOK, gin.H{"role": role, "user_id": userID})
}

func do(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.JSONResponse {
	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), whoAmI)

	w := do(r, "GET", "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, utils.KindUnauthorized, decode(t, w).Category)

	w = do(r, "GET", "/me", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "GET", "/me", token(t, 7, "staff"))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "scheme is required")

	w = do(r, "GET", "/me", "Bearer "+token(t, 7, "staff"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"staff","user_id":7}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/pay", AuthMiddleware(testSecret), RequireRoles("admin", "staff"), whoAmI)

	w := do(r, "GET", "/pay", "Bearer "+token(t, 1, "chef"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, utils.KindPermissionDenied, decode(t, w).Category)

	w = do(r, "GET", "/pay", "Bearer "+token(t, 1, "admin"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "GET", "/pay", "Bearer "+token(t, 2, "STAFF"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/pay", RequireRoles("admin"), whoAmI)

	w := do(r, "GET", "/pay", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/ws", WebSocketAuthMiddleware(testSecret), whoAmI)

	w := do(r, "GET", "/ws", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"guest","user_id":null}`, w.Body.String())

	w = do(r, "GET", "/ws?token="+token(t, 3, "chef"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"chef","user_id":3}`, w.Body.String())

	w = do(r, "GET", "/ws?token=forged", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)
	r := gin.New()
	r.POST("/scan", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, "POST", "/scan", "").Code)
	}
	w := do(r, "POST", "/scan", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.False(t, decode(t, w).Status)

	// other clients have their own bucket
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/uploads/qrs/:file", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "GET", "/ping", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = do(r, "GET", "/uploads/qrs/table.png", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "img-src 'self'")
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")
}

func TestLoggerMiddlewareRecordsMetrics(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/table/only/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/table/only/:id", "200")
	before := testutil.ToFloat64(counter)

	do(r, "GET", "/table/only/1", "")
	do(r, "GET", "/table/only/2", "")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
