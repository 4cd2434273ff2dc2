package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"campus-chatbot-backend/internal/auth"
	"campus-chatbot-backend/internal/config"
	"campus-chatbot-backend/middleware"
)

func testAuthConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiresIn:      "1h",
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
	}
}

func loginRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupAuthRoutes(router, cfg)

	protected := router.Group("/api")
	protected.Use(middleware.RequireAuth(cfg))
	protected.GET("/sources", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func postLogin(t *testing.T, router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesUsableToken(t *testing.T) {
	cfg := testAuthConfig(t)
	router := loginRouter(cfg)

	w := postLogin(t, router, "admin", "correct-horse")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if resp.Token == "" || resp.ExpiresIn != 3600 {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("protected route status = %d with valid token", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	cfg := testAuthConfig(t)
	router := loginRouter(cfg)

	for name, creds := range map[string][2]string{
		"wrong password": {"admin", "wrong"},
		"wrong username": {"root", "correct-horse"},
	} {
		w := postLogin(t, router, creds[0], creds[1])
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	cfg := testAuthConfig(t)
	router := loginRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d without token, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d with garbage token, want 401", w.Code)
	}
}
