package youtubeinsights

import (
	"context"
	"fmt"
	"math"
	"time"

	"insight-stack/agents/youtube-insights/youtube"
	"insight-stack/internal/models"
	"insight-stack/shared/errs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultParallelCollection = 3

	collectionModeSequential = "sequential"
	collectionModeParallel   = "parallel"
)

type CollectionError struct {
	VideoID    string    `json:"video_id"`
	VideoIndex int       `json:"video_index"`
	Error      string    `json:"error"`
	ErrorCode  errs.Kind `json:"error_code"`
}

type CollectionStats struct {
	TotalVideosProcessed    int               `json:"total_videos_processed"`
	TotalCommentsCollected  int               `json:"total_comments_collected"`
	VideosWithComments      int               `json:"videos_with_comments"`
	VideosWithoutComments   int               `json:"videos_without_comments"`
	APICallsMade            int               `json:"api_calls_made"`
	ProcessingTimeSeconds   float64           `json:"processing_time_seconds"`
	AverageCommentsPerVideo float64           `json:"average_comments_per_video"`
	Errors                  []CollectionError `json:"errors"`
	CollectionMode          string            `json:"collection_mode"`
	MaxConcurrent           int               `json:"max_concurrent,omitempty"`
}

// Collection holds the raw comments of each input video, in input order.
type Collection struct {
	Comments [][]models.RawComment
	Stats    CollectionStats
}

// Collector fetches the first N comments of each video.
type Collector struct {
	client *youtube.Client
	logger *zap.Logger
}

func NewCollector(client *youtube.Client, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{client: client, logger: logger}
}

type videoOutcome struct {
	comments []models.RawComment
	calls    int
	err      error
}

// Collect fetches comments one video at a time. A failure on one video
// leaves it without comments and is recorded in the stats; authentication
// and rate-limit failures abort the collection.
func (c *Collector) Collect(ctx context.Context, videos []models.Video, limit int, lang, region string) (Collection, error) {
	start := time.Now()
	c.logger.Info("collecting comments",
		zap.Int("videos", len(videos)),
		zap.Int("max_per_video", limit))

	outcomes := make([]videoOutcome, len(videos))
	for i, v := range videos {
		c.logger.Debug("collecting comments for video", zap.Int("index", i+1), zap.Int("total", len(videos)), zap.String("video_id", v.ID))
		outcomes[i] = c.fetch(ctx, v.ID, limit, lang, region)
		if isFatal(outcomes[i].err) {
			return Collection{}, outcomes[i].err
		}
		if err := ctx.Err(); err != nil {
			return Collection{}, err
		}
	}

	col := c.assemble(videos, outcomes, start)
	col.Stats.CollectionMode = collectionModeSequential
	c.logDone(col.Stats)
	return col, nil
}

// CollectParallel is Collect with up to maxConcurrent videos in flight. All
// upstream calls still go through the client's pacer.
func (c *Collector) CollectParallel(ctx context.Context, videos []models.Video, limit int, lang, region string, maxConcurrent int) (Collection, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultParallelCollection
	}
	start := time.Now()
	c.logger.Info("collecting comments in parallel",
		zap.Int("videos", len(videos)),
		zap.Int("max_per_video", limit),
		zap.Int("max_concurrent", maxConcurrent))

	outcomes := make([]videoOutcome, len(videos))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, v := range videos {
		g.Go(func() error {
			outcomes[i] = c.fetch(gCtx, v.ID, limit, lang, region)
			if isFatal(outcomes[i].err) {
				return outcomes[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Collection{}, err
	}
	if err := ctx.Err(); err != nil {
		return Collection{}, err
	}

	col := c.assemble(videos, outcomes, start)
	col.Stats.CollectionMode = collectionModeParallel
	col.Stats.MaxConcurrent = maxConcurrent
	c.logDone(col.Stats)
	return col, nil
}

func (c *Collector) fetch(ctx context.Context, videoID string, limit int, lang, region string) videoOutcome {
	if videoID == "" {
		return videoOutcome{err: errs.Validation("video_id", "", "video has no id")}
	}
	batch, err := c.client.CommentsBatch(ctx, videoID, lang, region, limit)
	if err != nil {
		// Partial pages are discarded so a failed video degrades to zero
		// comments.
		return videoOutcome{calls: batch.Calls, err: err}
	}
	return videoOutcome{comments: batch.Items, calls: batch.Calls}
}

func (c *Collector) assemble(videos []models.Video, outcomes []videoOutcome, start time.Time) Collection {
	col := Collection{
		Comments: make([][]models.RawComment, len(videos)),
		Stats: CollectionStats{
			TotalVideosProcessed: len(videos),
			Errors:               []CollectionError{},
		},
	}
	for i, o := range outcomes {
		col.Comments[i] = o.comments
		col.Stats.APICallsMade += o.calls
		col.Stats.TotalCommentsCollected += len(o.comments)
		if len(o.comments) > 0 {
			col.Stats.VideosWithComments++
		} else {
			col.Stats.VideosWithoutComments++
		}
		if o.err != nil {
			c.logger.Warn("comment collection failed for video",
				zap.String("video_id", videos[i].ID),
				zap.Error(o.err))
			col.Stats.Errors = append(col.Stats.Errors, CollectionError{
				VideoID:    videos[i].ID,
				VideoIndex: i + 1,
				Error:      o.err.Error(),
				ErrorCode:  errs.KindOf(o.err),
			})
		}
	}
	col.Stats.ProcessingTimeSeconds = roundTo(time.Since(start).Seconds(), 2)
	if len(videos) > 0 {
		col.Stats.AverageCommentsPerVideo = roundTo(float64(col.Stats.TotalCommentsCollected)/float64(len(videos)), 2)
	}
	return col
}

func (c *Collector) logDone(s CollectionStats) {
	c.logger.Info("comment collection complete",
		zap.String("mode", s.CollectionMode),
		zap.Int("comments", s.TotalCommentsCollected),
		zap.String("videos_with_comments", fmt.Sprintf("%d/%d", s.VideosWithComments, s.TotalVideosProcessed)),
		zap.Int("api_calls", s.APICallsMade),
		zap.Int("errors", len(s.Errors)),
		zap.Float64("seconds", s.ProcessingTimeSeconds))
}

// isFatal reports whether a per-video failure must stop the whole run.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	switch errs.KindOf(err) {
	case errs.KindAuth, errs.KindRateLimit:
		return true
	}
	return false
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
