package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

type SessionController struct {
	sess *session.Session
}

func NewSessionController(sess *session.Session) *SessionController {
	return &SessionController{sess: sess}
}

// HandleStatus returns the session snapshot.
// GET /api/self/v1/status
func (ctrl *SessionController) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.sess.Snapshot())
}

// HandleSelect stores the uploaded multipart field "file" as the pending selection.
// POST /api/self/v1/select
func (ctrl *SessionController) HandleSelect(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing file"))
		return
	}
	if fh.Size > types.MaxUploadSize {
		e := types.NewError(types.ErrValidation, "",
			fmt.Sprintf("File size must be %d MB or less", types.MaxUploadSize/(1024*1024)), nil)
		c.JSON(statusFor(e), tool.FastReturnErrorFrom(e))
		return
	}

	f, err := fh.Open()
	if err != nil {
		tool.DefaultLogger.Errorf("[Select] Failed to open uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read file"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, types.MaxUploadSize+1))
	if err != nil {
		tool.DefaultLogger.Errorf("[Select] Failed to read uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read file"))
		return
	}

	if err := ctrl.sess.SelectFile(fh.Filename, data); err != nil {
		c.JSON(statusFor(err), tool.FastReturnErrorFrom(err))
		return
	}
	c.JSON(http.StatusOK, ctrl.sess.Snapshot())
}

// HandleClearSelection drops the pending selection.
// DELETE /api/self/v1/select
func (ctrl *SessionController) HandleClearSelection(c *gin.Context) {
	ctrl.sess.ClearSelection()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandlePreview serves the selected image bytes.
// GET /api/self/v1/preview
func (ctrl *SessionController) HandlePreview(c *gin.Context) {
	_, mime, data, ok := ctrl.sess.SelectedFile()
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No file selected"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mime, data)
}

// HandleSubmit uploads the selection and starts polling.
// POST /api/self/v1/submit
func (ctrl *SessionController) HandleSubmit(c *gin.Context) {
	taskID, err := ctrl.sess.Submit(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), tool.FastReturnErrorFrom(err))
		return
	}
	tool.DefaultLogger.Infof("[Submit] Task accepted: %s", taskID)
	c.JSON(http.StatusOK, gin.H{"taskId": taskID})
}

// HandleCancel stops the in-flight task.
// POST /api/self/v1/cancel
func (ctrl *SessionController) HandleCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": ctrl.sess.Cancel()})
}

// HandleReset returns the session to idle.
// POST /api/self/v1/reset
func (ctrl *SessionController) HandleReset(c *gin.Context) {
	ctrl.sess.Reset()
	c.JSON(http.StatusOK, ctrl.sess.Snapshot())
}

// HandleEscape clears the selection if any, otherwise resets.
// POST /api/self/v1/escape
func (ctrl *SessionController) HandleEscape(c *gin.Context) {
	ctrl.sess.Escape()
	c.JSON(http.StatusOK, ctrl.sess.Snapshot())
}
