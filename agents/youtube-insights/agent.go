package youtubeinsights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/config"
	"insight-stack/shared/email"
	"insight-stack/shared/report"
	"insight-stack/shared/scheduler"
	"insight-stack/shared/storage"

	"go.uber.org/zap"
)

// Runner executes one search analysis.
type Runner interface {
	Run(ctx context.Context, req Request) (models.Response, error)
}

type digestSender interface {
	SendDigest(d *email.Digest) error
}

// WatchAgent implements the scheduler.Agent interface by running every
// configured watch query through the pipeline.
type WatchAgent struct {
	config  *config.Config
	runner  Runner
	tracker *storage.InsightTracker
	sender  digestSender
	logger  *zap.Logger
	now     func() time.Time
}

// WatchMetrics summarizes one watch run.
type WatchMetrics struct {
	Queries     int
	Failed      int
	Videos      int
	Insights    int
	NewInsights int
	CostUSD     float64
	Reports     []string
	DigestSent  bool
}

func (m WatchMetrics) GetSummary() string {
	return fmt.Sprintf("ran %d queries (%d failed), analyzed %d videos, extracted %d insights (%d new)",
		m.Queries, m.Failed, m.Videos, m.Insights, m.NewInsights)
}

func NewWatchAgent(cfg *config.Config, runner Runner, logger *zap.Logger) *WatchAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchAgent{config: cfg, runner: runner, logger: logger, now: time.Now}
}

func (w *WatchAgent) Name() string {
	return "YouTube Insights Watch"
}

func (w *WatchAgent) Initialize() error {
	if w.runner == nil {
		return errors.New("watch agent has no pipeline")
	}
	if len(w.config.Watch.Queries) == 0 {
		return errors.New("no watch queries configured")
	}
	for i, q := range w.config.Watch.Queries {
		if strings.TrimSpace(q.Query) == "" {
			return fmt.Errorf("watch query %d is empty", i+1)
		}
	}
	if dir := w.config.Watch.OutputDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if w.tracker == nil && w.config.Watch.DataDir != "" {
		tracker, err := storage.NewInsightTracker(w.config.Watch.DataDir, w.config.Watch.DedupWindow)
		if err != nil {
			return fmt.Errorf("failed to create insight tracker: %w", err)
		}
		w.tracker = tracker
	}
	if w.sender == nil && w.config.Email.Enabled() {
		sender, err := email.NewSender(&w.config.Email)
		if err != nil {
			return fmt.Errorf("failed to create digest sender: %w", err)
		}
		w.sender = sender
	}

	w.logger.Info("watch agent initialized",
		zap.Int("queries", len(w.config.Watch.Queries)),
		zap.Bool("dedup", w.tracker != nil),
		zap.Bool("digest", w.sender != nil))
	return nil
}

// RunOnce runs every query. A failing query is a partial failure; the run
// fails only when every query failed. Insights already reported by an
// earlier run are left out of the digest.
func (w *WatchAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	start := time.Now()
	var metrics WatchMetrics
	var lastErr error
	digest := &email.Digest{Date: w.now()}
	var fresh []models.AnalysisItem

	for i, q := range w.config.Watch.Queries {
		metrics.Queries++
		logger := w.logger.With(zap.String("query", q.Query), zap.Int("position", i+1))

		resp, err := w.runner.Run(ctx, requestFor(q))
		if err != nil {
			metrics.Failed++
			lastErr = err
			logger.Warn("watch query failed", zap.Error(err))
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("query %q: %w", q.Query, err), time.Since(start))
			}
			continue
		}

		metrics.Videos += resp.Metadata.TotalVideosAnalyzed
		metrics.Insights += resp.Metadata.RelevantInsightsExtracted
		metrics.CostUSD += resp.Metadata.AIAPIUsage.TotalCostUSD

		newItems := resp.CommentAnalyses
		if w.tracker != nil {
			newItems = w.tracker.Unseen(newItems)
		}
		metrics.NewInsights += len(newItems)
		fresh = append(fresh, newItems...)
		digest.Queries = append(digest.Queries, email.QueryDigest{
			Query:          q.Query,
			VideosAnalyzed: resp.Metadata.TotalVideosAnalyzed,
			NewInsights:    newItems,
			Summary:        report.Summarize(newItems),
		})

		path, err := w.writeReport(q.Query, resp)
		if err != nil {
			logger.Warn("failed to write report", zap.Error(err))
		} else if path != "" {
			metrics.Reports = append(metrics.Reports, path)
		}
		logger.Info("watch query complete",
			zap.Int("insights", resp.Metadata.RelevantInsightsExtracted),
			zap.String("report", path))
	}

	if metrics.Failed == metrics.Queries {
		return fmt.Errorf("all %d watch queries failed: %w", metrics.Failed, lastErr)
	}

	if err := w.deliver(digest, fresh, &metrics); err != nil {
		w.logger.Warn("digest delivery failed", zap.Error(err))
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(err, time.Since(start))
		}
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(start))
	}
	return nil
}

// deliver sends the digest and then records its insights as seen. Insights
// stay unseen when the mail could not be sent.
func (w *WatchAgent) deliver(digest *email.Digest, fresh []models.AnalysisItem, metrics *WatchMetrics) error {
	if w.sender != nil && digest.TotalNew() > 0 {
		if err := w.sender.SendDigest(digest); err != nil {
			return fmt.Errorf("failed to send digest: %w", err)
		}
		metrics.DigestSent = true
		w.logger.Info("digest sent", zap.Int("new_insights", digest.TotalNew()))
	}
	if w.tracker != nil && len(fresh) > 0 {
		if err := w.tracker.MarkSeen(fresh); err != nil {
			return fmt.Errorf("failed to record seen insights: %w", err)
		}
	}
	return nil
}

func requestFor(q config.WatchQuery) Request {
	return Request{
		Query:               q.Query,
		MaxVideos:           q.MaxVideos,
		MaxCommentsPerVideo: q.MaxCommentsPerVideo,
		Language:            q.Language,
		Region:              q.Region,
		AIAnalysisPrompt:    q.Prompt,
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func (w *WatchAgent) writeReport(query string, resp models.Response) (string, error) {
	dir := w.config.Watch.OutputDir
	if dir == "" {
		return "", nil
	}
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(query), "-"), "-")
	if slug == "" {
		slug = "query"
	}
	name := fmt.Sprintf("%s-%s.json", w.now().UTC().Format("20060102T150405Z"), slug)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
