package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cantina/internal/access"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, role, tokenType string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": "u-1", "username": "op", "role": role, "token_type": tokenType,
		"exp": time.Now().Add(ttl).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestLimiter_FixedWindow(t *testing.T) {
	l := NewLimiter(2, time.Minute, "devagar")
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := l.Allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1", now.Add(time.Second))
	assert.True(t, ok)
	ok, wait := l.Allow("10.0.0.1", now.Add(2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 58*time.Second, wait)

	ok, _ = l.Allow("10.0.0.2", now.Add(2*time.Second))
	assert.True(t, ok, "other clients have their own window")

	ok, _ = l.Allow("10.0.0.1", now.Add(61*time.Second))
	assert.True(t, ok, "a new window starts after the period")

	assert.Equal(t, 1, l.purge(now.Add(2*time.Minute)))
}

func TestLimiter_HandlerSetsRetryAfter(t *testing.T) {
	l := NewLimiter(1, time.Minute, "devagar")
	r := gin.New()
	r.GET("/", l.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "devagar")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestJWTAuth(t *testing.T) {
	r := gin.New()
	r.GET("/", JWTAuth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, string(GetScope(c).School()))
	})
	r.GET("/admin", JWTAuth(testSecret), RequireRole(access.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/", signToken(t, access.RoleWizard, "access", -time.Minute)).Code)
	assert.Equal(t, http.StatusUnauthorized, call("/", signToken(t, access.RoleWizard, "refresh", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, call("/", signToken(t, "cashier", "access", time.Hour)).Code)

	w := call("/", signToken(t, access.RoleWizKids, "access", time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WizKids", w.Body.String())

	assert.Equal(t, http.StatusForbidden, call("/admin", signToken(t, access.RoleWizard, "access", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, call("/admin", signToken(t, access.RoleAdmin, "access", time.Hour)).Code)
}

func TestRecovery_HidesPanic(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("db password is hunter2") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
}
