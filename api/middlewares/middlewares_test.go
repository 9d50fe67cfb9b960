package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AllowAllCORS())
	router.GET("/local", OnlyAllowLocal, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestOnlyAllowLocal(t *testing.T) {
	router := setupRouter()

	tests := []struct {
		name       string
		remoteAddr string
		wantStatus int
	}{
		{"ipv4 loopback", "127.0.0.1:40000", http.StatusOK},
		{"ipv6 loopback", "[::1]:40000", http.StatusOK},
		{"remote", "192.168.1.20:40000", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/local", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestAllowAllCORSPreflight(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest(http.MethodOptions, "/local", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}
