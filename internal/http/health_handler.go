package http

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks    map[string]Pinger
	timeout   time.Duration
	log       *zap.Logger
	startTime time.Time
}

func NewHealthHandler(checks map[string]Pinger, timeout time.Duration, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		timeout:   timeout,
		log:       log,
		startTime: time.Now().UTC(),
	}
}

type HealthResponseDTO struct {
	Status     string            `json:"status"`
	Services   map[string]string `json:"services"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
}

// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = statusUp
			if err := h.checks[name](ctx); err != nil {
				h.log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				results[i] = statusDown
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponseDTO{
		Status:     statusUp,
		Services:   make(map[string]string, len(names)),
		Uptime:     time.Since(h.startTime).String(),
		Goroutines: runtime.NumGoroutine(),
	}
	for i, name := range names {
		resp.Services[name] = results[i]
		if results[i] == statusDown {
			resp.Status = statusDown
		}
	}

	status := http.StatusOK
	if resp.Status == statusDown {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
