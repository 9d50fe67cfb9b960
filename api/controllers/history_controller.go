package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/detectview/history"
	"github.com/moyoez/detectview/tool"
)

const maxHistoryLimit = 200

type HistoryController struct {
	store *history.Store
}

// NewHistoryController accepts a nil store; every route then answers 404.
func NewHistoryController(store *history.Store) *HistoryController {
	return &HistoryController{store: store}
}

// HandleList returns recent tasks, newest first.
// GET /api/self/v1/history?limit=
func (ctrl *HistoryController) HandleList(c *gin.Context) {
	if ctrl.store == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("History is disabled"))
		return
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid limit"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	entries, err := ctrl.store.Recent(c.Request.Context(), limit)
	if err != nil {
		tool.DefaultLogger.Errorf("[History] %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read history"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(entries))
}

// HandleGet returns one task with its detections.
// GET /api/self/v1/history/:taskId
func (ctrl *HistoryController) HandleGet(c *gin.Context) {
	if ctrl.store == nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("History is disabled"))
		return
	}
	entry, err := ctrl.store.Get(c.Request.Context(), c.Param("taskId"))
	if errors.Is(err, history.ErrNotFound) {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Task not found"))
		return
	}
	if err != nil {
		tool.DefaultLogger.Errorf("[History] %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read history"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(entry))
}
