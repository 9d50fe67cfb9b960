package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

type ResultController struct {
	sess *session.Session
}

func NewResultController(sess *session.Session) *ResultController {
	return &ResultController{sess: sess}
}

// HandleResult returns the last result with rows filtered by ?q=.
// GET /api/self/v1/result
func (ctrl *ResultController) HandleResult(c *gin.Context) {
	view, ok := ctrl.sess.Filter(c.Query("q"))
	if !ok {
		e := types.NewError(types.ErrNoCompletedTask, "", "No detection results yet", nil)
		c.JSON(statusFor(e), tool.FastReturnErrorFrom(e))
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleDownload redirects to the server's download resource for the last task.
// GET /api/self/v1/download
func (ctrl *ResultController) HandleDownload(c *gin.Context) {
	url, err := ctrl.sess.DownloadURL()
	if err != nil {
		c.JSON(statusFor(err), tool.FastReturnErrorFrom(err))
		return
	}
	c.Redirect(http.StatusFound, url)
}

// HandleDownloadQR returns a PNG QR code of the download link, for grabbing the
// result on a phone. Accepts ?size=200 or ?size=200x200.
// GET /api/self/v1/download-qr
func (ctrl *ResultController) HandleDownloadQR(c *gin.Context) {
	url, err := ctrl.sess.DownloadURL()
	if err != nil {
		c.JSON(statusFor(err), tool.FastReturnErrorFrom(err))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
