package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

type stubLimiter struct {
	scopes  []string
	allowed bool
	count   int64
	err     error
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, error) {
	s.scopes = append(s.scopes, scope)
	return s.allowed, s.count, s.err
}

func scanTestRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/transitions/apply", nil)
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	ctx := WithOperator(req.Context(), uuid.NewString(), "rosa.lima", enums.OperatorRoleInitialTest)
	return req.WithContext(ctx)
}

func TestScanRateLimitQueriesIPAndOperatorWindows(t *testing.T) {
	store := &stubLimiter{allowed: true, count: 1}
	policy := NewScanRateLimitPolicy("scan", time.Minute, 100, 30)

	handled := false
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		handled = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, scanTestRequest())

	if !handled {
		t.Fatal("expected request to reach the handler")
	}
	if len(store.scopes) != 2 {
		t.Fatalf("expected 2 window checks, got %d (%v)", len(store.scopes), store.scopes)
	}
	if store.scopes[0] != "ip:scan:10.1.2.3" {
		t.Fatalf("unexpected ip scope %q", store.scopes[0])
	}
	if store.scopes[1] != "operator:scan:rosa.lima" {
		t.Fatalf("unexpected operator scope %q", store.scopes[1])
	}
}

func TestScanRateLimitBlocksWhenWindowExhausted(t *testing.T) {
	store := &stubLimiter{allowed: false, count: 101}
	policy := NewScanRateLimitPolicy("scan", time.Minute, 100, 30)

	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("request should have been throttled")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, scanTestRequest())

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestScanRateLimitDisabledPolicySkipsStore(t *testing.T) {
	store := &stubLimiter{allowed: true}
	policy := NewScanRateLimitPolicy("scan", 0, 100, 30)

	handled := false
	handler := ScanRateLimit(policy, store, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		handled = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, scanTestRequest())

	if !handled {
		t.Fatal("expected request to pass through untouched")
	}
	if len(store.scopes) != 0 {
		t.Fatalf("store should not have been consulted, saw %v", store.scopes)
	}
}
