package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := newTokenBucket(3, 1)
	for i := 0; i < 3; i++ {
		if !tb.allow() {
			t.Fatalf("request %d denied within burst", i)
		}
	}
	if tb.allow() {
		t.Error("request allowed beyond burst")
	}

	tb.mu.Lock()
	tb.lastRefill = tb.lastRefill.Add(-2 * time.Second)
	tb.mu.Unlock()
	ok, remaining, _ := tb.take()
	if !ok || remaining != 1 {
		t.Errorf("after refill ok = %v remaining = %d, want true 1", ok, remaining)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 2})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IP limited")
	}
	rl.Stop()
	rl.Stop()
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 1})
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resolve", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "60" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", w.Header())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d", w.Code)
	}
	if s, err := strconv.Atoi(w.Header().Get("Retry-After")); err != nil || s < 1 {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestServerRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Config{RateLimitRequests: 1})
	defer srv.limiter.Stop()
	h := srv.Handler()

	codes := make([]int, 0, 12)
	for i := 0; i < 12; i++ {
		w, _ := do(t, h, http.MethodGet, "/health", "")
		codes = append(codes, w.Code)
	}
	// default burst of 10
	if codes[9] != http.StatusOK || codes[10] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", "", "", "192.0.2.1"},
		{"forwarded leftmost", "10.0.0.1:1", "203.0.113.5, 10.0.0.2", "", "203.0.113.5"},
		{"invalid forwarded falls back", "10.0.0.1:1", "not-an-ip", "198.51.100.7", "198.51.100.7"},
		{"ipv6", "[2001:db8::1]:80", "", "", "2001:db8::1"},
		{"bare ip", "192.0.2.9", "", "", "192.0.2.9"},
		{"garbage", "garbage", "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
