package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/gofiber/fiber/v2"
)

// CacheWarmer reloads the snapshot cache
type CacheWarmer interface {
	Run(ctx context.Context) error
}

type PerformanceHandler struct {
	Metrics  []*shared.ServiceMetrics
	Snapshot *services.CachedSnapshotSource
	Warmer   CacheWarmer
}

func NewPerformanceHandler(snapshots *services.CachedSnapshotSource, warmer CacheWarmer, metrics ...*shared.ServiceMetrics) *PerformanceHandler {
	return &PerformanceHandler{
		Metrics:  metrics,
		Snapshot: snapshots,
		Warmer:   warmer,
	}
}

// GetPerformanceMetrics returns request and beacon counters of every service
func (h *PerformanceHandler) GetPerformanceMetrics(c *fiber.Ctx) error {
	perService := make(map[string]shared.MetricsSnapshot, len(h.Metrics))
	for _, m := range h.Metrics {
		if m == nil {
			continue
		}
		snapshot := m.GetSnapshot()
		perService[snapshot.ServiceName] = snapshot
	}

	data := fiber.Map{"services": perService}
	if h.Snapshot != nil {
		data["cache_stats"] = h.Snapshot.Cache().Stats()
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// ClearCache clears all cached snapshots
func (h *PerformanceHandler) ClearCache(c *fiber.Ctx) error {
	if h.Snapshot == nil {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Cache service not available",
		})
	}

	h.Snapshot.Cache().Clear()
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
	})
}

// WarmupCache reloads every snapshot
func (h *PerformanceHandler) WarmupCache(c *fiber.Ctx) error {
	if h.Warmer == nil {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Cache service not available",
		})
	}

	start := time.Now()
	if err := h.Warmer.Run(c.UserContext()); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Cache warmed up successfully",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
