package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/detectview/notify"
	"github.com/moyoez/detectview/tool"
)

type NotifyController struct {
	center *notify.Center
}

func NewNotifyController(center *notify.Center) *NotifyController {
	return &NotifyController{center: center}
}

// HandleNotifications lists notices that have not expired yet.
// GET /api/self/v1/notifications
func (ctrl *NotifyController) HandleNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.center.Active()))
}

// HandleDismiss removes a notice before it expires.
// DELETE /api/self/v1/notifications/:id
func (ctrl *NotifyController) HandleDismiss(c *gin.Context) {
	ctrl.center.Dismiss(c.Param("id"))
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
