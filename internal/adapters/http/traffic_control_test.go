package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler := rateLimitMiddleware(okHandler(), 1, 1)

	statuses := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/cases", nil)
		req.Header.Set(clientIDHeader, "burst-client")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		statuses = append(statuses, res.Code)
	}

	if statuses[0] != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", statuses[0])
	}
	saw429 := false
	for _, code := range statuses[1:] {
		if code == http.StatusTooManyRequests {
			saw429 = true
		}
	}
	if !saw429 {
		t.Fatalf("no request was throttled: %v", statuses)
	}
}

func TestRateLimitSetsRetryAfter(t *testing.T) {
	handler := rateLimitMiddleware(okHandler(), 1, 1)

	var res *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/cases", nil)
		req.Header.Set(clientIDHeader, "c")
		res = httptest.NewRecorder()
		handler.ServeHTTP(res, req)
	}
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", res.Code)
	}
	if res.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	handler := rateLimitMiddleware(okHandler(), 1, 1)

	first := httptest.NewRequest(http.MethodGet, "/v1/cases", nil)
	first.Header.Set(clientIDHeader, "client-a")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, first)
	if res.Code != http.StatusOK {
		t.Fatalf("client-a status = %d", res.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/v1/cases", nil)
	second.Header.Set(clientIDHeader, "client-b")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, second)
	if res.Code != http.StatusOK {
		t.Fatalf("client-b must have its own bucket, status = %d", res.Code)
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	})
	handler := backpressureMiddleware(slow, 1, 20*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/cases", nil))
	}()
	<-entered

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/cases", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", res.Code)
	}

	close(release)
	wg.Wait()
}

func TestBackpressureReleasesSlots(t *testing.T) {
	handler := backpressureMiddleware(okHandler(), 1, 20*time.Millisecond)

	for i := range 5 {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/cases", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, res.Code)
		}
	}
}

func TestTrafficControlDisabledWhenUnconfigured(t *testing.T) {
	handler := rateLimitMiddleware(backpressureMiddleware(okHandler(), 0, 0), 0, 0)

	for range 10 {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/cases", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 with limits disabled", res.Code)
		}
	}
}
