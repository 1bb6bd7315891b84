package youtube

import (
	"context"
	"fmt"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/usage"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Source is a single-page view of the upstream search and comments API.
type Source interface {
	Search(ctx context.Context, query, lang, region, cursor string) (*models.SearchPage, error)
	Comments(ctx context.Context, videoID, lang, region, cursor string) (*models.CommentPage, error)
}

// Batch is the result of following pagination cursors until a target count
// was reached or the pages ran out.
type Batch[T any] struct {
	Items []T
	// Calls is the number of upstream pages requested for this batch.
	Calls int
	// Total is the upstream estimate reported with the first page.
	Total int64
}

// Client paces, counts and batches calls to a Source.
type Client struct {
	source  Source
	pacer   *Pacer
	timeout time.Duration
	tracker *usage.Tracker
	cache   *lru.Cache[string, Batch[models.RawComment]]
	logger  *zap.Logger
}

type ClientOption func(*Client)

func WithTracker(t *usage.Tracker) ClientOption {
	return func(c *Client) { c.tracker = t }
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds every single upstream call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithCommentCache keeps the last size comment batches in memory. Zero
// disables the cache.
func WithCommentCache(size int) ClientOption {
	return func(c *Client) {
		if size <= 0 {
			return
		}
		cache, err := lru.New[string, Batch[models.RawComment]](size)
		if err == nil {
			c.cache = cache
		}
	}
}

func NewClient(source Source, delay time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		source: source,
		pacer:  NewPacer(delay),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = usage.NewTracker()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func (c *Client) Tracker() *usage.Tracker { return c.tracker }

func (c *Client) RequestDelay() time.Duration { return c.pacer.Delay() }

func (c *Client) Timeout() time.Duration { return c.timeout }

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Search fetches one page of search results.
func (c *Client) Search(ctx context.Context, query, lang, region, cursor string) (*models.SearchPage, error) {
	var page *models.SearchPage
	err := c.pacer.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := c.callCtx(ctx)
		defer cancel()

		c.tracker.AddSearchCall()
		var err error
		page, err = c.source.Search(callCtx, query, lang, region, cursor)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("search page fetched",
		zap.String("query", query),
		zap.Int("items", len(page.Items)),
		zap.Bool("has_next", page.NextCursor != ""))
	return page, nil
}

// Comments fetches one page of top-level comments for a video.
func (c *Client) Comments(ctx context.Context, videoID, lang, region, cursor string) (*models.CommentPage, error) {
	var page *models.CommentPage
	err := c.pacer.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := c.callCtx(ctx)
		defer cancel()

		c.tracker.AddCommentCall()
		var err error
		page, err = c.source.Comments(callCtx, videoID, lang, region, cursor)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("comment page fetched",
		zap.String("video_id", videoID),
		zap.Int("items", len(page.Items)),
		zap.Bool("has_next", page.NextCursor != ""))
	return page, nil
}

// SearchBatch returns the first limit search items for query.
func (c *Client) SearchBatch(ctx context.Context, query, lang, region string, limit int) (Batch[models.RawSearchItem], error) {
	return paginate(ctx, limit, func(ctx context.Context, cursor string) ([]models.RawSearchItem, string, int64, error) {
		page, err := c.Search(ctx, query, lang, region, cursor)
		if err != nil {
			return nil, "", 0, err
		}
		return page.Items, page.NextCursor, int64(page.EstimatedTotal), nil
	})
}

// CommentsBatch returns the first limit comments of a video. On failure the
// comments gathered so far are returned together with the error.
func (c *Client) CommentsBatch(ctx context.Context, videoID, lang, region string, limit int) (Batch[models.RawComment], error) {
	key := fmt.Sprintf("%s|%s|%s|%d", videoID, lang, region, limit)
	if c.cache != nil {
		if b, ok := c.cache.Get(key); ok {
			c.logger.Debug("comment batch served from cache", zap.String("video_id", videoID))
			return Batch[models.RawComment]{Items: b.Items, Total: b.Total}, nil
		}
	}

	b, err := paginate(ctx, limit, func(ctx context.Context, cursor string) ([]models.RawComment, string, int64, error) {
		page, err := c.Comments(ctx, videoID, lang, region, cursor)
		if err != nil {
			return nil, "", 0, err
		}
		return page.Items, page.NextCursor, int64(page.TotalCount), nil
	})
	if err == nil && c.cache != nil {
		c.cache.Add(key, b)
	}
	return b, err
}

func paginate[T any](ctx context.Context, limit int, fetch func(ctx context.Context, cursor string) ([]T, string, int64, error)) (Batch[T], error) {
	var b Batch[T]
	cursor := ""
	for len(b.Items) < limit {
		items, next, total, err := fetch(ctx, cursor)
		b.Calls++
		if err != nil {
			return b, err
		}
		if b.Calls == 1 {
			b.Total = total
		}
		// An empty page ends the batch even when a cursor is present.
		if len(items) == 0 {
			break
		}
		if remaining := limit - len(b.Items); len(items) > remaining {
			items = items[:remaining]
		}
		b.Items = append(b.Items, items...)
		if next == "" {
			break
		}
		cursor = next
	}
	return b, nil
}
