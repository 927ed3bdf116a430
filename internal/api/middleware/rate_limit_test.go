package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestRateLimit_HealthEndpointBypass(t *testing.T) {
	handler := RateLimit()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Error("Health endpoint should not carry rate limit headers")
	}
}

func TestRateLimit_GetTier(t *testing.T) {
	handler := RateLimit()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if limit := rec.Header().Get("X-RateLimit-Limit"); limit != strconv.Itoa(rateLimitGetPerMin) {
		t.Errorf("Expected X-RateLimit-Limit %d, got %s", rateLimitGetPerMin, limit)
	}
	if rec.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("Expected X-RateLimit-Remaining header")
	}
}

func TestRateLimit_GetExceedsLimit(t *testing.T) {
	handler := RateLimit()(okHandler())

	ip := "192.168.1.2"
	for i := 0; i < rateLimitGetBurst+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i >= rateLimitGetBurst {
			if rec.Code != http.StatusTooManyRequests {
				t.Errorf("Request %d: Expected status 429, got %d", i, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Too many requests") {
				t.Errorf("Request %d: Expected rate limit error message", i)
			}
			if rec.Header().Get("Retry-After") == "" {
				t.Error("Expected Retry-After header")
			}
		}
	}
}

func TestRateLimit_PostStandardTier(t *testing.T) {
	handler := RateLimit()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/audits", nil)
	req.RemoteAddr = "192.168.1.3:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if limit := rec.Header().Get("X-RateLimit-Limit"); limit != strconv.Itoa(rateLimitStandardPerMin) {
		t.Errorf("Expected X-RateLimit-Limit %d, got %s", rateLimitStandardPerMin, limit)
	}
}

func TestRateLimit_WebhookTier(t *testing.T) {
	handler := RateLimit()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/github/int-1", nil)
	req.RemoteAddr = "192.168.1.4:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if limit := rec.Header().Get("X-RateLimit-Limit"); limit != strconv.Itoa(rateLimitWebhookPerMin) {
		t.Errorf("Expected X-RateLimit-Limit %d, got %s", rateLimitWebhookPerMin, limit)
	}
}

func TestRateLimit_DifferentIPsIndependent(t *testing.T) {
	handler := RateLimit()(okHandler())

	ip1 := "192.168.1.5"
	for i := 0; i < rateLimitGetBurst+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
		req.RemoteAddr = ip1 + ":12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
	req.RemoteAddr = "192.168.1.6:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for different IP, got %d", rec.Code)
	}
}

func TestRateLimit_XForwardedForIP(t *testing.T) {
	handler := RateLimit()(okHandler())

	ip := "10.0.0.1"
	for i := 0; i < rateLimitGetBurst+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i >= rateLimitGetBurst && rec.Code != http.StatusTooManyRequests {
			t.Errorf("Request %d: Expected status 429, got %d", i, rec.Code)
		}
	}
}

func TestRateLimit_ResetHeader(t *testing.T) {
	handler := RateLimit()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
	req.RemoteAddr = "192.168.1.7:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	reset := rec.Header().Get("X-RateLimit-Reset")
	if reset == "" {
		t.Fatal("Expected X-RateLimit-Reset header")
	}
	resetTime, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		t.Fatalf("Failed to parse reset time: %v", err)
	}
	expectedReset := time.Now().Add(time.Minute).Unix()
	diff := resetTime - expectedReset
	if diff < -5 || diff > 5 {
		t.Errorf("Reset time should be ~1 minute from now, got diff %d seconds", diff)
	}
}
