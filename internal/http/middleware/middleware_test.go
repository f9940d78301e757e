package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"jobsite/internal/common"
	"jobsite/internal/domain/policy"
	"jobsite/internal/domain/user"
	"jobsite/internal/http/metrics"
	"jobsite/internal/observability"
)

type fakeResolver struct {
	actors map[string]policy.Actor
}

func (f fakeResolver) ResolveActor(ctx context.Context, token string) (policy.Actor, error) {
	actor, ok := f.actors[token]
	if !ok {
		return policy.Actor{}, common.NewError(common.CodeUnauthorized, "invalid token", nil)
	}
	return actor, nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Error.Code
}

func TestChainRunsFirstMiddlewareOutermost(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("a"), mark("b"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b,handler" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "req-1" || rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("expected incoming id, got %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "req-1" {
		t.Fatalf("expected generated id, got %q", seen)
	}
}

func TestRecoverAndMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Metrics(collector), Recover)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	snap := collector.Snapshot()
	if snap.Requests != 1 || snap.Errors != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestBodyLimitAndTimeout(t *testing.T) {
	var readErr error
	var hasDeadline bool
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		_, hasDeadline = r.Context().Deadline()
	}), BodyLimit(4), Timeout(time.Second))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	if readErr == nil {
		t.Fatal("expected body limit error")
	}
	if !hasDeadline {
		t.Fatal("expected request deadline")
	}
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	recruiter := policy.Actor{UserID: 1, UID: "u-1", Role: user.RoleRecruiter}
	auth := NewAuthMiddleware(fakeResolver{actors: map[string]policy.Actor{"good": recruiter}})
	var got policy.Actor
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		auth.Authenticate(ok).ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("expected %d for %q, got %d", tc.status, tc.header, rec.Code)
		}
	}
	if got.UserID != recruiter.UserID {
		t.Fatalf("expected actor in context, got %+v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithActor(context.Background(), recruiter))
	rec := httptest.NewRecorder()
	RequireRole(user.RoleCandidate)(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != string(common.CodeForbidden) {
		t.Fatalf("expected forbidden, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	RequireRole(user.RoleRecruiter)(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestRateLimiterRefillsOverWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !limiter.Allow("apply:job:user", 3, time.Minute) {
			t.Fatalf("expected attempt %d allowed", i+1)
		}
	}
	if limiter.Allow("apply:job:user", 3, time.Minute) {
		t.Fatal("expected fourth attempt rejected")
	}
	if !limiter.Allow("apply:job:other", 3, time.Minute) {
		t.Fatal("expected independent key allowed")
	}
	now = now.Add(20 * time.Second)
	if !limiter.Allow("apply:job:user", 3, time.Minute) {
		t.Fatal("expected a token after refill")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter()
	handler := RateLimit(limiter, ClientIP, 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ClientIP(req) != "203.0.113.7" {
		t.Fatalf("unexpected client ip %q", ClientIP(req))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests || errorCode(t, rec) != string(common.CodeRateLimited) {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestRedisLimiterFallsBackWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	limiter := NewRedisLimiter(client, NewRateLimiter(), nil)

	if !limiter.Allow("login:ip", 1, time.Minute) {
		t.Fatal("expected first attempt allowed by fallback")
	}
	if limiter.Allow("login:ip", 1, time.Minute) {
		t.Fatal("expected fallback limiter to reject second attempt")
	}
}
