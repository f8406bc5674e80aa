package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mystock/warehouse/internal/interfaces/http/dto"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// InventoryStats exposes the counters reported by the health endpoint
type InventoryStats interface {
	TransactionCount() int
	Version() uint64
}

// HealthHandler reports service liveness and dependency status
type HealthHandler struct {
	BaseHandler
	stats   InventoryStats
	checks  map[string]HealthCheck
	timeout time.Duration
	started time.Time
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Version      uint64            `json:"state_version"`
	Transactions int               `json:"transactions"`
	Checks       map[string]string `json:"checks,omitempty"`
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(stats InventoryStats) *HealthHandler {
	return &HealthHandler{
		stats:   stats,
		checks:  make(map[string]HealthCheck),
		timeout: 2 * time.Second,
		started: time.Now(),
	}
}

// WithCheck adds a named dependency probe
func (h *HealthHandler) WithCheck(name string, check HealthCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health answers 200 when every check passes and 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:       "ok",
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Version:      h.stats.Version(),
		Transactions: h.stats.TransactionCount(),
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
