package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/detectview/api/controllers"
	"github.com/moyoez/detectview/api/middlewares"
	"github.com/moyoez/detectview/api/notifyhub"
	"github.com/moyoez/detectview/history"
	"github.com/moyoez/detectview/monitor"
	"github.com/moyoez/detectview/notify"
	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// Deps are the components the viewer API serves. History may be nil.
type Deps struct {
	Session *session.Session
	Monitor *monitor.Monitor
	Notices *notify.Center
	Hub     *notifyhub.Hub
	Clearer controllers.CacheClearer
	History *history.Store
}

// Server is the local viewer API.
type Server struct {
	port   int
	deps   Deps
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

func NewServer(port int, deps Deps) *Server {
	return &Server{port: port, deps: deps}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middlewares.AllowAllCORS())
	engine.Use(gin.Recovery())

	sessionCtrl := controllers.NewSessionController(s.deps.Session)
	resultCtrl := controllers.NewResultController(s.deps.Session)
	statsCtrl := controllers.NewStatsController(s.deps.Monitor, s.deps.Clearer)
	notifyCtrl := controllers.NewNotifyController(s.deps.Notices)
	historyCtrl := controllers.NewHistoryController(s.deps.History)

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.GET("/status", sessionCtrl.HandleStatus)              // Session snapshot
		self.POST("/select", sessionCtrl.HandleSelect)             // Choose an image (multipart "file")
		self.DELETE("/select", sessionCtrl.HandleClearSelection)   // Drop the selection
		self.GET("/preview", sessionCtrl.HandlePreview)            // Raw selected image
		self.POST("/submit", sessionCtrl.HandleSubmit)             // Upload and start polling
		self.POST("/cancel", sessionCtrl.HandleCancel)             // Stop the in-flight task
		self.POST("/reset", sessionCtrl.HandleReset)               // Back to idle
		self.POST("/escape", sessionCtrl.HandleEscape)             // Clear selection, else reset
		self.GET("/result", resultCtrl.HandleResult)               // Last result, ?q= filters rows
		self.GET("/download", resultCtrl.HandleDownload)           // Redirect to the result image
		self.GET("/download-qr", resultCtrl.HandleDownloadQR)      // QR code of the download link
		self.GET("/stats", statsCtrl.HandleStats)                  // Latest server statistics
		self.POST("/clear-cache", statsCtrl.HandleClearCache)      // Clear the server cache
		self.GET("/notifications", notifyCtrl.HandleNotifications) // Active notices
		self.DELETE("/notifications/:id", notifyCtrl.HandleDismiss)
		self.GET("/history", historyCtrl.HandleList)
		self.GET("/history/:taskId", historyCtrl.HandleGet)
		if s.deps.Hub != nil {
			sess := s.deps.Session
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(s.deps.Hub, func() *types.Notification {
				return StateNotification(sess.Snapshot())
			}))
		}
	}

	return engine
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: handler,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting viewer API on http://%s", srv.Addr)
	return srv.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
