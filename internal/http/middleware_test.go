package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/http/api/admin/handlers"
)

func runRequestWithMiddleware(t *testing.T, router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	responseRecorder := httptest.NewRecorder()
	router.ServeHTTP(responseRecorder, req)
	return responseRecorder
}

func newTestRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/*path", func(c *gin.Context) {
		requestID, _ := c.Get(handlers.ContextRequestID)
		c.JSON(http.StatusOK, gin.H{"request_id": requestID})
	})
	return router
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	router := newTestRouter(RequestIDMiddleware(), RequestLoggerMiddleware())

	responseRecorder := runRequestWithMiddleware(t, router, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if responseRecorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", responseRecorder.Code)
	}
	if got := responseRecorder.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}

func TestRequestIDMiddlewareReusesInboundID(t *testing.T) {
	router := newTestRouter(RequestIDMiddleware())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	responseRecorder := runRequestWithMiddleware(t, router, req)

	if got := responseRecorder.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected inbound request id, got %q", got)
	}
}

func TestLoginLimiterRejectsAfterBurst(t *testing.T) {
	limiter := NewLoginLimiter(1, 2)
	router := newTestRouter(limiter.Middleware())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		codes = append(codes, runRequestWithMiddleware(t, router, req).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected burst to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", codes[2])
	}

	other := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	other.RemoteAddr = "198.51.100.9:4000"
	if code := runRequestWithMiddleware(t, router, other).Code; code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", code)
	}
}

func TestLoginLimiterSweepDropsIdleClients(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewLoginLimiter(10, 5)
	limiter.now = func() time.Time { return current }

	limiter.Allow("a")
	current = current.Add(defaultLimiterMaxIdle / 2)
	limiter.Allow("b")
	current = current.Add(defaultLimiterMaxIdle/2 + time.Second)

	if removed := limiter.Sweep(); removed != 1 {
		t.Fatalf("expected one idle client removed, got %d", removed)
	}
	if _, ok := limiter.limiters["b"]; !ok {
		t.Fatalf("expected recent client to remain")
	}
}
