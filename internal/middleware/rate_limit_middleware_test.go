package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3)
	now := time.Now()
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request beyond burst allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other client should have its own bucket")
	}

	now = now.Add(21 * time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket did not refill")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(rl.idleTTL + time.Second)
	rl.Allow("active")

	rl.Cleanup()

	if _, ok := rl.visitors["idle"]; ok {
		t.Error("idle visitor not evicted")
	}
	if _, ok := rl.visitors["active"]; !ok {
		t.Error("active visitor evicted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("192.0.2.1:1234"); code != http.StatusOK {
		t.Errorf("first request status = %d", code)
	}
	if code := send("192.0.2.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", code)
	}
	if code := send("192.0.2.2:1234"); code != http.StatusOK {
		t.Errorf("other client status = %d", code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted string
		xff     string
		xri     string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.1:4321", want: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "forwarded for ignored without trusted proxies", xff: "203.0.113.5", remote: "192.0.2.1:80", want: "192.0.2.1"},
		{name: "real ip ignored without trusted proxies", xri: "203.0.113.9", remote: "192.0.2.1:80", want: "192.0.2.1"},
		{name: "untrusted peer", trusted: "10.0.0.0/8", xff: "203.0.113.5", remote: "192.0.2.1:80", want: "192.0.2.1"},
		{name: "trusted peer", trusted: "10.0.0.0/8", xff: "203.0.113.5", remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "spoofed left entries", trusted: "10.0.0.0/8", xff: "198.51.100.7, 203.0.113.5, 10.0.0.2", remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "single trusted address", trusted: "10.0.0.1", xff: "203.0.113.5", remote: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "garbage hop", trusted: "10.0.0.0/8", xff: "not-an-ip", remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "real ip behind trusted proxy", trusted: "10.0.0.0/8", xri: "203.0.113.9", remote: "10.0.0.1:80", want: "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(10)
			if err := rl.TrustProxies(tt.trusted); err != nil {
				t.Fatalf("TrustProxies() error = %v", err)
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			if got := rl.clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_TrustProxiesRejectsGarbage(t *testing.T) {
	rl := NewRateLimiter(10)
	for _, list := range []string{"10.0.0.0/33", "proxy.internal", "10.0.0.1, nope"} {
		if err := rl.TrustProxies(list); err == nil {
			t.Errorf("TrustProxies(%q) error = nil", list)
		}
	}
}

func TestRateLimitMiddleware_IgnoresRotatingForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	if limited != 19 {
		t.Errorf("limited %d of 20 requests from one peer, want 19", limited)
	}
}
