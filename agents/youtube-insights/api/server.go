package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	youtubeinsights "insight-stack/agents/youtube-insights"
	"insight-stack/shared/config"
	"insight-stack/shared/errs"
	"insight-stack/shared/monitoring"
	"insight-stack/shared/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName    = "YouTube Insights"
	serviceVersion = "1.0.0"

	analyzePath = "/analyze-youtube-search"
)

// Pipeline is what the front door needs from the analysis pipeline.
type Pipeline interface {
	youtubeinsights.Runner
	Model() string
	Limits() config.LimitsConfig
}

// Server is the HTTP front door of the analysis pipeline.
type Server struct {
	cfg      config.ServerConfig
	pipeline Pipeline
	monitor  *monitoring.Monitor
	limiter  *ipLimiter
	engine   *gin.Engine
	logger   *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg config.ServerConfig, pipeline Pipeline, monitor *monitoring.Monitor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if monitor == nil {
		monitor = monitoring.NewMonitor(logger)
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		monitor:  monitor,
		limiter:  newIPLimiter(cfg.RateLimitPerMinute),
		logger:   logger,
	}

	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(cors(cfg.CORSOrigins))
	s.setupRoutes(r)
	s.engine = r

	return s
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/", s.info)
	monitoring.RegisterRoutes(r, s.monitor)

	r.POST(analyzePath, s.authMiddleware(), s.rateLimitMiddleware(), s.analyze)

	if s.cfg.APIKey != "" {
		s.logger.Info("analysis endpoint requires an API key")
	} else {
		s.logger.Warn("analysis endpoint is open (SERVICE_API_KEY not set)")
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on cfg.Port until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", srv.Addr), zap.String("environment", s.cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, zap.String("error", msg))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

func cors(origins []string) gin.HandlerFunc {
	wildcard := len(origins) == 0 || slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware accepts the key in X-API-Key or as a bearer token. An empty
// configured key disables the check.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey == "" {
			c.Next()
			return
		}

		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			abortWithError(c, errs.Auth("api_key", "API key required. Provide it in the X-API-Key header or Authorization: Bearer <key>"))
			return
		}
		if providedKey != s.cfg.APIKey {
			abortWithError(c, errs.Auth("api_key", "Invalid API key"))
			return
		}
		c.Next()
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if wait, ok := s.limiter.allow(ip); !ok {
			s.logger.Warn("rate limit exceeded", zap.String("client_ip", ip), zap.Duration("retry_after", wait))
			abortWithError(c, errs.RateLimited("api", wait,
				fmt.Sprintf("Rate limit exceeded: %d requests per minute", s.limiter.perMinute)))
			return
		}
		c.Next()
	}
}

// abortWithError renders a classified failure with its status code.
func abortWithError(c *gin.Context, err error) {
	status := errs.KindOf(err).Status()
	if e, ok := errs.As(err); ok && e.RetryAfter > 0 {
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(e.RetryAfter)))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, report.ErrorResponse(err))
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}
