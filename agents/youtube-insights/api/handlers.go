package api

import (
	"fmt"
	"net/http"
	"time"

	youtubeinsights "insight-stack/agents/youtube-insights"
	"insight-stack/shared/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) info(c *gin.Context) {
	limits := s.pipeline.Limits()
	c.JSON(http.StatusOK, gin.H{
		"service":     serviceName,
		"version":     serviceVersion,
		"description": "YouTube search comment analysis for sentiment, themes and purchase intent",
		"endpoints": map[string]string{
			"analyze": analyzePath + " (POST)",
			"health":  "/health",
			"status":  "/status",
		},
		"model": s.pipeline.Model(),
		"limits": gin.H{
			"max_videos_per_request":     limits.MaxVideosPerRequest,
			"default_videos_per_request": limits.DefaultVideosPerRequest,
			"max_comments_per_video":     limits.MaxCommentsPerVideo,
			"rate_limit_per_minute":      s.limiter.perMinute,
		},
		"auth": gin.H{
			"required": s.cfg.APIKey != "",
			"header":   "X-API-Key",
		},
	})
}

func (s *Server) analyze(c *gin.Context) {
	var req youtubeinsights.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("body", nil, fmt.Sprintf("Invalid request body: %v", err)))
		return
	}

	start := time.Now()
	resp, err := s.pipeline.Run(c.Request.Context(), req)
	duration := time.Since(start)
	if err != nil {
		s.recordFailure(err, duration)
		abortWithError(c, err)
		return
	}

	s.monitor.RecordSuccess(fmt.Sprintf("analyzed %d videos for %q, extracted %d insights",
		resp.Metadata.TotalVideosAnalyzed, req.Query, resp.Metadata.RelevantInsightsExtracted), duration)
	c.JSON(http.StatusOK, resp)
}

// recordFailure feeds pipeline failures to the monitor. Client mistakes do
// not affect service health; upstream credential failures do.
func (s *Server) recordFailure(err error, duration time.Duration) {
	kind := errs.KindOf(err)
	switch kind {
	case errs.KindValidation:
		return
	case errs.KindAuth:
		s.monitor.RecordCriticalFailure(err, duration)
	default:
		s.monitor.RecordPartialFailure(err, duration)
	}
	s.logger.Warn("analysis request failed", zap.String("kind", string(kind)), zap.Error(err))
}
