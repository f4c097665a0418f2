package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(origins []string) *gin.Engine {
		router := gin.New()
		router.Use(CORSMiddleware(origins))
		router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		return router
	}

	t.Run("allows listed origin", func(t *testing.T) {
		router := newRouter([]string{"https://erp.example.com"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://erp.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q, want the origin echoed", got)
		}
	})

	t.Run("ignores unlisted origin", func(t *testing.T) {
		router := newRouter([]string{"https://erp.example.com"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("supports wildcard prefixes", func(t *testing.T) {
		router := newRouter([]string{"https://*"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "https://anything.example.com")
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q, want the origin echoed", got)
		}
	})

	t.Run("handles preflight requests", func(t *testing.T) {
		router := newRouter([]string{"*"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("OPTIONS", "/ping", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitMiddleware(2))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want both 200 (burst)", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", statuses[2])
	}
}

func TestLimiterPoolEviction(t *testing.T) {
	pool := &limiterPool{
		perMinute: 60,
		clients:   make(map[string]*clientLimiter),
	}

	pool.allow("10.0.0.1")
	pool.allow("10.0.0.2")
	if pool.size() != 2 {
		t.Fatalf("pool size = %d, want 2", pool.size())
	}

	// Age one client past the idle cutoff; only it should be evicted.
	pool.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	pool.evictIdle(limiterIdleTimeout)

	if pool.size() != 1 {
		t.Fatalf("pool size after eviction = %d, want 1", pool.size())
	}
	if _, ok := pool.clients["10.0.0.2"]; !ok {
		t.Error("active client was evicted")
	}

	// An evicted client is simply re-admitted with a fresh bucket.
	if !pool.allow("10.0.0.1") {
		t.Error("re-admitted client was denied")
	}
}
