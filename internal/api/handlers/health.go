package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stitts-dev/fpa-dashboard/internal/nfl"
	"github.com/stitts-dev/fpa-dashboard/internal/services"
	"github.com/stitts-dev/fpa-dashboard/internal/websocket"
	"github.com/stitts-dev/fpa-dashboard/pkg/database"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db       *database.DB
	cache    nfl.CacheProvider
	breakers *services.CircuitBreakerService
	hub      *websocket.Hub
}

// NewHealthHandler creates a health handler; db may be nil
func NewHealthHandler(db *database.DB, cache nfl.CacheProvider, breakers *services.CircuitBreakerService, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{
		db:       db,
		cache:    cache,
		breakers: breakers,
		hub:      hub,
	}
}

// GetHealth returns 200 whenever the server is running
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"service": "fpa-dashboard",
	})
}

// GetReady checks the database and redis when they are configured
func (h *HealthHandler) GetReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}
	if p, ok := h.cache.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	body := gin.H{
		"checks":           checks,
		"circuit_breakers": h.breakers.States(),
		"websocket_conns":  h.hub.GetConnectionCount(),
	}
	if ready {
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
		return
	}
	body["status"] = "not_ready"
	c.JSON(http.StatusServiceUnavailable, body)
}
