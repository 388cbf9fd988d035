package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/auth"
	"github.com/KiranPolaki/BudgetTracker/internal/config"

	"github.com/gin-gonic/gin"
)

func newTestRouter(ts *auth.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", NewAuthMiddleware(ts).RequireAuth(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func testTokenService() *auth.TokenService {
	return auth.NewTokenService(config.Config{
		JWTSecret:           "test-secret",
		JWTAccessExpiresIn:  time.Hour,
		JWTRefreshExpiresIn: 24 * time.Hour,
	})
}

func TestRequireAuth(t *testing.T) {
	ts := testTokenService()
	router := newTestRouter(ts)

	pair, err := ts.GeneratePair(42)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc123", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token on access route", "Bearer " + pair.Refresh, http.StatusUnauthorized},
		{"valid access token", "Bearer " + pair.Access, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRequireAuthRejectsForeignSecret(t *testing.T) {
	other := auth.NewTokenService(config.Config{
		JWTSecret:          "a-different-secret",
		JWTAccessExpiresIn: time.Hour,
	})
	pair, err := other.GeneratePair(42)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	router := newTestRouter(testTokenService())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
