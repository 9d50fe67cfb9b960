package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/detectview/monitor"
	"github.com/moyoez/detectview/render"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// CacheClearer is the server call behind /clear-cache.
type CacheClearer interface {
	ClearCache(ctx context.Context) (*types.ClearCacheResponse, error)
}

type StatsController struct {
	monitor *monitor.Monitor
	clearer CacheClearer
}

func NewStatsController(m *monitor.Monitor, clearer CacheClearer) *StatsController {
	return &StatsController{monitor: m, clearer: clearer}
}

// HandleStats returns the latest server statistics. Before the first successful
// refresh it answers 503 so the panel can show its initializing state.
// GET /api/self/v1/stats
func (ctrl *StatsController) HandleStats(c *gin.Context) {
	snap, ok := ctrl.monitor.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Statistics not available yet"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap,
		"summary":  render.FormatStats(snap),
	})
}

// HandleClearCache proxies POST /clear-cache to the detection server.
// POST /api/self/v1/clear-cache
func (ctrl *StatsController) HandleClearCache(c *gin.Context) {
	resp, err := ctrl.clearer.ClearCache(c.Request.Context())
	if err != nil {
		tool.DefaultLogger.Errorf("[ClearCache] %v", err)
		c.JSON(http.StatusBadGateway, tool.FastReturnError("Failed to clear server cache"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
