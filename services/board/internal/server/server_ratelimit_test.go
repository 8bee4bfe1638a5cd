package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"msgboard/internal/ratelimit"
	"msgboard/internal/util"
)

func TestPostRateLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redis.Addr(), "", "test:board", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	defer limiter.Close()
	b := newTestBoard(t, Config{Limiter: limiter})

	if rec := b.do(t, http.MethodPost, "/", "message=first"); rec.Code != http.StatusOK {
		t.Fatalf("first post status = %d", rec.Code)
	}
	rec := b.do(t, http.MethodPost, "/", "message=second")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second post status = %d, want 429", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "SYSTEM_RATE_LIMITED" {
		t.Fatalf("code = %q", resp.Code)
	}
	if b.store.Len() != 1 {
		t.Fatalf("store has %d rows, want 1", b.store.Len())
	}

	if rec := b.do(t, http.MethodGet, "/", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads are not rate limited, got %d", rec.Code)
	}
}

func TestPostRateLimitKeysOnForwardedClient(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redis.Addr(), "", "test:board", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	defer limiter.Close()
	proxies, err := util.NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("trusted proxies: %v", err)
	}
	b := newTestBoard(t, Config{Limiter: limiter, TrustedProxies: proxies})

	post := func(peer, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("message=hi"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = peer
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		b.router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post("10.0.0.1:4000", "198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client via proxy: %d", code)
	}
	if code := post("10.0.0.1:4000", "198.51.100.2"); code != http.StatusOK {
		t.Fatalf("second client via same proxy: %d", code)
	}
	if code := post("10.0.0.2:4000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client via other proxy: %d, want 429", code)
	}
	// An untrusted peer is keyed on its own address whatever it claims.
	if code := post("203.0.113.5:4000", "198.51.100.3"); code != http.StatusOK {
		t.Fatalf("direct client: %d", code)
	}
	if code := post("203.0.113.5:4001", "198.51.100.4"); code != http.StatusTooManyRequests {
		t.Fatalf("direct client spoofing header: %d, want 429", code)
	}
	if b.store.Len() != 3 {
		t.Fatalf("store has %d rows, want 3", b.store.Len())
	}
}
