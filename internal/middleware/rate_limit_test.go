package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	principal := "principal-1"

	for i := 0; i < 5; i++ {
		if !rl.Allow(principal) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow(principal) {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentPrincipals(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	principal1 := "principal-1"
	principal2 := "principal-2"

	for i := 0; i < 3; i++ {
		if !rl.Allow(principal1) {
			t.Errorf("principal1 request %d should be allowed", i+1)
		}
	}

	if rl.Allow(principal1) {
		t.Error("principal1 should be rate limited")
	}

	for i := 0; i < 3; i++ {
		if !rl.Allow(principal2) {
			t.Errorf("principal2 request %d should be allowed", i+1)
		}
	}
}

func TestRateLimitMiddleware_SkipsReads(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handlerCalled := false
	handler := func(c echo.Context) error {
		handlerCalled = true
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handlerCalled = false

		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !handlerCalled {
			t.Error("handler should be called for GET requests regardless of rate limit")
		}
	}
}

func TestRateLimitMiddleware_RateLimitsMutations(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2) // small burst for testing
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.Header.Set(PrincipalHeader, "principal-x")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") == "" {
			t.Errorf("request %d: expected X-RateLimit-Limit header", i+1)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set(PrincipalHeader, "principal-x")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
