package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(service.TokenConfig{
		Key:      "middleware-test-signing-key-0123456789abcdef",
		Issuer:   "issuer",
		Audience: "audience",
		TTL:      time.Hour,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func protectedRouter(tokens service.TokenService) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(tokens, zap.NewNop()))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "email": c.GetString(ContextEmail)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t)
	router := protectedRouter(tokens)
	valid, _, err := tokens.Issue("user-x", "x@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	tokens := newTokens(t)
	token, _, _ := tokens.Issue("user-42", "u42@example.com")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(tokens).ServeHTTP(w, req)

	want := `{"email":"u42@example.com","id":"user-42"}`
	if w.Code != http.StatusOK || w.Body.String() != want {
		t.Fatalf("got %d %s, want 200 %s", w.Code, w.Body.String(), want)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	if generated == "" || w.Body.String() != generated {
		t.Fatalf("expected generated request id, header=%q body=%q", generated, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("incoming request id not propagated: %q", got)
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	wantLevels := []string{"info", "warn", "error"}
	for i, e := range entries {
		if e.Level.String() != wantLevels[i] {
			t.Errorf("entry %d level = %s, want %s", i, e.Level, wantLevels[i])
		}
		if _, ok := e.ContextMap()["request_id"]; !ok {
			t.Errorf("entry %d missing request_id", i)
		}
	}
}
