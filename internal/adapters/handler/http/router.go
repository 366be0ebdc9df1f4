package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthFunc reports whether the bot's dependencies are usable.
type HealthFunc func(r *http.Request) error

// CachedHealth runs check at most once per ttl and replays its last result in
// between, so frequent health polling does not hit the store on every request.
func CachedHealth(check HealthFunc, ttl time.Duration) HealthFunc {
	return cachedHealth(check, ttl, time.Now)
}

func cachedHealth(check HealthFunc, ttl time.Duration, now func() time.Time) HealthFunc {
	var (
		mu      sync.Mutex
		checked time.Time
		last    error
	)
	return func(r *http.Request) error {
		mu.Lock()
		defer mu.Unlock()
		if !checked.IsZero() && now().Sub(checked) < ttl {
			return last
		}
		last = check(r)
		checked = now()
		return last
	}
}

// NewHandler exposes the health check and, when webhook is non-nil, the chat
// platform's webhook endpoint.
func NewHandler(health HealthFunc, webhook http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if health != nil {
			if err := health(r); err != nil {
				status, code = err.Error(), http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	})

	if webhook != nil {
		r.Route("/telegram", func(r chi.Router) {
			r.Method(http.MethodPost, "/webhook", webhook)
		})
	}

	return r
}
