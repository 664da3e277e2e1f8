package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/igprobe/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1"}))

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"invalid", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header", map[string]string{"X-API-Key": "k1"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer k1"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/ping", tt.headers)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	w := do(newEngine(Auth(nil)), http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", nil).Code)

	w := do(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, w.Body.String())
}

func TestRateLimit_PerAPIKey(t *testing.T) {
	r := newEngine(
		Auth([]string{"k1", "k2"}),
		RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}),
	)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", map[string]string{"X-API-Key": "k1"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/ping", map[string]string{"X-API-Key": "k1"}).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", map[string]string{"X-API-Key": "k2"}).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newEngine(RateLimit(config.RateLimitConfig{}))
	for range 10 {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ping", nil).Code)
	}
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS())

	w := do(r, http.MethodGet, "/ping", map[string]string{"Origin": "https://example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodOptions, "/ping", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
