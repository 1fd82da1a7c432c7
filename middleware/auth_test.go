package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"faculty-appraisal-api/config"
	"faculty-appraisal-api/models"
	"faculty-appraisal-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: []byte("test-secret"), Issuer: "appraisal-idp"}

type stubResolver map[int]services.Principal

func (s stubResolver) ResolvePrincipal(_ context.Context, userID int) (services.Principal, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return services.Principal{}, &services.Error{Kind: services.ErrNotFound, Message: "user not found"}
}

type failingResolver struct{}

func (failingResolver) ResolvePrincipal(context.Context, int) (services.Principal, error) {
	return services.Principal{}, errors.New("connection refused")
}

func signToken(t *testing.T, userID int, issuer string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   "faculty",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(testJWT.Secret)
	require.NoError(t, err)
	return signed
}

func newRouter(resolver PrincipalResolver, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(resolver, testJWT)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": p.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	resolver := stubResolver{
		1: {UserID: 1, Role: models.RoleHOD, Department: "CS"},
	}
	valid := signToken(t, 1, "appraisal-idp", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Token " + valid, want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-token", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, 1, "appraisal-idp", time.Now().Add(-time.Hour)), want: http.StatusUnauthorized},
		{name: "wrong issuer", header: "Bearer " + signToken(t, 1, "someone-else", time.Now().Add(time.Hour)), want: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + signToken(t, 2, "appraisal-idp", time.Now().Add(time.Hour)), want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + valid, want: http.StatusOK},
	}

	router := newRouter(resolver)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	router := newRouter(failingResolver{})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1, "appraisal-idp", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddlewareStoresOnlyPrincipal(t *testing.T) {
	resolver := stubResolver{1: {UserID: 1, Role: models.RoleHOD, Department: "CS"}}
	var stored []string
	router := newRouter(resolver, func(c *gin.Context) {
		for _, key := range []string{principalKey, "userID", "role"} {
			if _, ok := c.Get(key); ok {
				stored = append(stored, key)
			}
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1, "appraisal-idp", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{principalKey}, stored)
	assert.JSONEq(t, `{"user_id":1,"role":"hod"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	resolver := stubResolver{
		1: {UserID: 1, Role: models.RoleFaculty, Department: "CS"},
		2: {UserID: 2, Role: models.RoleAdmin},
	}
	router := newRouter(resolver, RequireRole(models.RoleAdmin))

	for userID, want := range map[int]int{1: http.StatusForbidden, 2: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID, "appraisal-idp", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "user %d", userID)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestCORSPreflight(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://appraisal.example.org")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://appraisal.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://appraisal.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
