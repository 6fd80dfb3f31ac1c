package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the body served by the health endpoint.
type HealthStatus struct {
	Status       string            `json:"status"`
	LastChecked  time.Time         `json:"last_checked"`
	Uptime       string            `json:"uptime"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Check reports whether one backing service is reachable.
type Check func(ctx context.Context) error

type Health struct {
	mu            sync.Mutex
	version       string
	startTime     time.Time
	checks        map[string]Check
	cacheDuration time.Duration
	lastResponse  []byte
	lastCode      int
	lastChecked   time.Time
}

func NewHealth(version string) *Health {
	return &Health{
		version:       version,
		startTime:     time.Now(),
		checks:        map[string]Check{},
		cacheDuration: 5 * time.Second,
	}
}

// AddCheck registers a dependency probe, e.g. the database ping.
func (h *Health) AddCheck(name string, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
	h.lastResponse = nil
}

// Handler serves the cached status and reruns the checks once the cache expires.
// Any failing check turns the status into "degraded" with a 503.
func (h *Health) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()

		if h.lastResponse != nil && time.Since(h.lastChecked) < h.cacheDuration {
			c.Data(h.lastCode, "application/json", h.lastResponse)
			return
		}

		status := HealthStatus{
			Status:      "ok",
			LastChecked: time.Now(),
			Uptime:      time.Since(h.startTime).Round(time.Second).String(),
			Version:     h.version,
		}
		code := http.StatusOK

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 0 {
			status.Dependencies = make(map[string]string, len(names))
		}

		for _, name := range names {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := h.checks[name](ctx)
			cancel()
			if err != nil {
				status.Status = "degraded"
				status.Dependencies[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status.Dependencies[name] = "ok"
		}

		response, _ := json.Marshal(status)
		h.lastResponse = response
		h.lastCode = code
		h.lastChecked = status.LastChecked

		c.Data(code, "application/json", response)
	}
}
