package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/shared/auth"
)

type identity struct {
	userID string
	name   string
	email  string
}

func setupAuthRouter(t *testing.T, got *identity) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Auth("dev"))
	router.GET("/whoami", func(c *gin.Context) {
		got.userID = UserIDFromContext(c)
		got.name = UserNameFromContext(c)
		got.email = UserEmailFromContext(c)
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthBearerTokenIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	token, err := auth.SignJWT(auth.Claims{Sub: "user-1", Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	var got identity
	router := setupAuthRouter(t, &got)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if got.userID != "user-1" {
		t.Fatalf("userID = %q", got.userID)
	}
	if got.name != "" {
		t.Fatalf("name = %q, want empty", got.name)
	}
	if got.email != "pat@example.com" {
		t.Fatalf("email = %q", got.email)
	}
}

func TestAuthGuestHeaderIdentity(t *testing.T) {
	var got identity
	router := setupAuthRouter(t, &got)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Guest-Id", "abc123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if got.userID != "guest:abc123" {
		t.Fatalf("userID = %q", got.userID)
	}
}

func TestAuthMissingIdentityRejected(t *testing.T) {
	var got identity
	router := setupAuthRouter(t, &got)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestAuthInvalidTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	var got identity
	router := setupAuthRouter(t, &got)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}
