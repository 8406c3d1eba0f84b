package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip key, got %q", key)
	}
	c.Set(ctxKeyUserID, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user key, got %q", key)
	}
}

func TestRateLimiter_VisitorReuseAndEviction(t *testing.T) {
	rl := NewRateLimiter(2, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	a := rl.getVisitor("a")
	if rl.getVisitor("a") != a {
		t.Fatal("expected the same limiter for the same key")
	}

	now = now.Add(rl.ttl)
	rl.cleanupN = 4999
	b := rl.getVisitor("a")
	if b == a {
		t.Fatal("idle bucket should have been evicted and recreated")
	}
	if rl.cleanupN != 0 {
		t.Fatalf("cleanup counter not reset: %d", rl.cleanupN)
	}
}

func rateRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Identity(), rl.Handler())
	r.GET("/tweets", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/replay", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(0.5, 1, KeyByUserOrIP(), "/health")
	r := rateRouter(rl)

	get := func(path, user string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if user != "" {
			req.Header.Set(HeaderUserID, user)
		}
		r.ServeHTTP(w, req)
		return w
	}

	if w := get("/tweets", "u1"); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w := get("/tweets", "u1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: want 429, got %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "2" {
		t.Fatalf("Retry-After: want 2 at 0.5 rps, got %q", ra)
	}
	if !strings.Contains(w.Body.String(), "too_many_requests") || !strings.Contains(w.Body.String(), "request_id") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	if w := get("/tweets", "u2"); w.Code != http.StatusOK {
		t.Fatalf("other users have their own bucket: %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := get("/health", "u1"); w.Code != http.StatusOK {
			t.Fatalf("skipped path limited: %d", w.Code)
		}
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}, rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(replay bool) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if replay {
			req.Header.Set("X-Replay", "1")
		}
		r.ServeHTTP(w, req)
		return w.Code
	}
	if do(false) != http.StatusOK {
		t.Fatal("burst token should allow the first request")
	}
	if do(false) != http.StatusTooManyRequests {
		t.Fatal("rps 0 must never refill")
	}
	if do(true) != http.StatusOK {
		t.Fatal("replays bypass the limiter")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		delay time.Duration
		ok    bool
		want  int
	}{
		{0, true, 1},
		{300 * time.Millisecond, true, 1},
		{1500 * time.Millisecond, true, 2},
		{rate.InfDuration, true, 60},
		{time.Second, false, 60},
	}
	for _, tc := range cases {
		if got := retryAfterSeconds(tc.delay, tc.ok); got != tc.want {
			t.Fatalf("retryAfterSeconds(%v,%v) = %d, want %d", tc.delay, tc.ok, got, tc.want)
		}
	}
}
