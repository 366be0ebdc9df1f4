package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		health HealthFunc
		code   int
		body   string
	}{
		{name: "no check", code: http.StatusOK, body: `{"status":"ok"}`},
		{name: "healthy", health: func(*http.Request) error { return nil }, code: http.StatusOK, body: `{"status":"ok"}`},
		{
			name:   "store down",
			health: func(*http.Request) error { return errors.New("store unreachable") },
			code:   http.StatusServiceUnavailable,
			body:   `{"status":"store unreachable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHandler(tt.health, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestWebhookRoute(t *testing.T) {
	called := 0
	webhook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	})
	h := NewHandler(nil, webhook)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, called)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 1, called)
}

func TestWebhookRouteAbsentInPollingMode(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCachedHealth(t *testing.T) {
	calls := 0
	fail := errors.New("store unreachable")
	check := func(*http.Request) error {
		calls++
		if calls == 1 {
			return fail
		}
		return nil
	}
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	health := cachedHealth(check, 10*time.Second, func() time.Time { return clock })
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	assert.ErrorIs(t, health(req), fail)
	clock = clock.Add(5 * time.Second)
	assert.ErrorIs(t, health(req), fail)
	assert.Equal(t, 1, calls)

	clock = clock.Add(6 * time.Second)
	assert.NoError(t, health(req))
	assert.Equal(t, 2, calls)
}

func TestHealthzReplaysCachedResult(t *testing.T) {
	calls := 0
	h := NewHandler(CachedHealth(func(*http.Request) error { calls++; return nil }, time.Minute), nil)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, calls)
}
