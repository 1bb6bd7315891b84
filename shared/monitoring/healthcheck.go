package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes adds GET /health and GET /status backed by m.
func RegisterRoutes(r gin.IRoutes, m *Monitor) {
	r.GET("/health", func(c *gin.Context) {
		status := m.Status()
		code := http.StatusOK
		state := "healthy"
		if !status.Healthy {
			code = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		c.JSON(code, gin.H{
			"status":    state,
			"summary":   status.Summary,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, m.Status())
	})
}

// HealthServer exposes the monitor on its own port for the watch mode.
type HealthServer struct {
	server *http.Server
	logger *zap.Logger
}

func NewHealthServer(monitor *Monitor, port int, logger *zap.Logger) *HealthServer {
	if port == 0 {
		port = 8080
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, monitor)

	return &HealthServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (h *HealthServer) Handler() http.Handler { return h.server.Handler }

// Start serves in the background until ctx is done.
func (h *HealthServer) Start(ctx context.Context) {
	h.logger.Info("health server starting", zap.String("addr", h.server.Addr))
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.server.Shutdown(shutdownCtx)
	}()
}
