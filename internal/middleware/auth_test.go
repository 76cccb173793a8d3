package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"menuqr/internal/authz"
)

func newProtected(tokens *authz.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(AdminIDKey))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := authz.NewTokenManager("access", "files", time.Hour, time.Minute)
	r := newProtected(tokens)

	access, _, err := tokens.IssueAccessToken("65f0c1a2b3c4d5e6f7a8b9c0")
	if err != nil {
		t.Fatal(err)
	}
	fileToken, err := tokens.IssueFileToken("abc-1.png")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"file token", "Bearer " + fileToken, http.StatusUnauthorized},
		{"valid", "Bearer " + access, http.StatusOK},
		{"lowercase scheme", "bearer " + access, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
			if tc.want == http.StatusOK && w.Body.String() != "65f0c1a2b3c4d5e6f7a8b9c0" {
				t.Fatalf("admin id = %q", w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	tokens := authz.NewTokenManager("access", "", time.Minute, time.Minute)
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tokens.Now = func() time.Time { return issued }
	access, _, err := tokens.IssueAccessToken("65f0c1a2b3c4d5e6f7a8b9c0")
	if err != nil {
		t.Fatal(err)
	}
	tokens.Now = func() time.Time { return issued.Add(2 * time.Minute) }

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	newProtected(tokens).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
