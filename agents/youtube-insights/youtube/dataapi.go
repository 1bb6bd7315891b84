package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/config"
	"insight-stack/shared/errs"
	"insight-stack/shared/usage"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtubev3 "google.golang.org/api/youtube/v3"
)

const dataAPIService = "YouTube Data API v3"

// DataAPISource serves search and comment pages from the official YouTube
// Data API, reshaped into the upstream payload types. Publish times are
// rendered as relative strings so downstream date handling is identical for
// both sources.
//
// A search page costs two requests (search.list, then videos.list for the
// details); followUpDelay spaces them the same way the client paces calls.
type DataAPISource struct {
	service       *youtubev3.Service
	tracker       *usage.Tracker
	now           func() time.Time
	followUpDelay time.Duration
}

// NewDataAPISource authenticates with an API key when one is configured and
// falls back to the stored OAuth token otherwise.
func NewDataAPISource(ctx context.Context, cfg *config.YouTubeConfig, tracker *usage.Tracker, logger *zap.Logger) (*DataAPISource, error) {
	var opts []option.ClientOption
	if cfg.DataAPIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.DataAPIKey))
	} else {
		oauthConfig := OAuthConfig(cfg.ClientID, cfg.ClientSecret)
		ts, err := storedTokenSource(oauthConfig, cfg.TokenFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth token: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	}
	src, err := NewDataAPISourceWithOptions(ctx, tracker, opts...)
	if err != nil {
		return nil, err
	}
	src.followUpDelay = cfg.RequestDelay
	return src, nil
}

func NewDataAPISourceWithOptions(ctx context.Context, tracker *usage.Tracker, opts ...option.ClientOption) (*DataAPISource, error) {
	service, err := youtubev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	if tracker == nil {
		tracker = usage.NewTracker()
	}
	return &DataAPISource{service: service, tracker: tracker, now: time.Now}, nil
}

func (s *DataAPISource) Search(ctx context.Context, query, lang, region, cursor string) (*models.SearchPage, error) {
	call := s.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(50).
		RelevanceLanguage(lang).
		RegionCode(region).
		Context(ctx)
	if cursor != "" {
		call = call.PageToken(cursor)
	}

	pacer := NewPacer(s.followUpDelay)
	var resp *youtubev3.SearchListResponse
	err := pacer.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = call.Do()
		return err
	})
	if err != nil {
		return nil, classifyGoogleError("search.list", err)
	}

	var ids []string
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	details := map[string]*youtubev3.Video{}
	if len(ids) > 0 {
		var videos *youtubev3.VideoListResponse
		err := pacer.Do(ctx, func(ctx context.Context) error {
			s.tracker.AddOtherCall()
			var err error
			videos, err = s.service.Videos.List([]string{"contentDetails", "statistics"}).
				Id(strings.Join(ids, ",")).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return nil, classifyGoogleError("videos.list", err)
		}
		for _, v := range videos.Items {
			details[v.Id] = v
		}
	}

	page := &models.SearchPage{NextCursor: resp.NextPageToken}
	if resp.PageInfo != nil {
		page.EstimatedTotal = models.FlexInt(resp.PageInfo.TotalResults)
	}
	for _, item := range resp.Items {
		if item.Id == nil || item.Snippet == nil {
			continue
		}
		page.Items = append(page.Items, models.RawSearchItem{
			Type:  "video",
			Video: s.toRawVideo(item.Id.VideoId, item.Snippet, details[item.Id.VideoId]),
		})
	}
	return page, nil
}

func (s *DataAPISource) toRawVideo(id string, snippet *youtubev3.SearchResultSnippet, detail *youtubev3.Video) *models.RawVideo {
	v := &models.RawVideo{
		VideoID:            id,
		Title:              snippet.Title,
		DescriptionSnippet: snippet.Description,
		PublishedTimeText:  s.relative(snippet.PublishedAt),
		IsLiveNow:          snippet.LiveBroadcastContent == "live",
		Author: &models.RawAuthor{
			ChannelID:        snippet.ChannelId,
			Title:            snippet.ChannelTitle,
			CanonicalBaseURL: "/channel/" + snippet.ChannelId,
		},
		Thumbnails: thumbnails(snippet.Thumbnails),
	}

	if detail != nil {
		if detail.ContentDetails != nil {
			if secs := parseDurationSeconds(detail.ContentDetails.Duration); secs > 0 {
				v.LengthSeconds = &secs
			}
			if detail.ContentDetails.Caption == "true" {
				v.Badges = append(v.Badges, "CC")
			}
		}
		if detail.Statistics != nil {
			v.Stats.Views = int64(detail.Statistics.ViewCount)
		}
	}
	return v
}

func (s *DataAPISource) Comments(ctx context.Context, videoID, lang, region, cursor string) (*models.CommentPage, error) {
	call := s.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		MaxResults(100).
		Order("relevance").
		TextFormat("plainText").
		Context(ctx)
	if cursor != "" {
		call = call.PageToken(cursor)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, classifyGoogleError("commentThreads.list", err)
	}

	page := &models.CommentPage{NextCursor: resp.NextPageToken}
	if resp.PageInfo != nil {
		page.TotalCount = models.FlexInt(resp.PageInfo.TotalResults)
	}
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		top := thread.Snippet.TopLevelComment
		c := models.RawComment{
			CommentID:         top.Id,
			Content:           top.Snippet.TextOriginal,
			PublishedTimeText: s.relative(top.Snippet.PublishedAt),
			Author:            models.RawAuthor{Title: top.Snippet.AuthorDisplayName},
			Stats: models.RawCommentStats{
				Votes:   top.Snippet.LikeCount,
				Replies: thread.Snippet.TotalReplyCount,
			},
		}
		if c.Content == "" {
			c.Content = top.Snippet.TextDisplay
		}
		if top.Snippet.AuthorChannelId != nil {
			c.Author.ChannelID = top.Snippet.AuthorChannelId.Value
			c.Author.IsChannelOwner = c.Author.ChannelID != "" && c.Author.ChannelID == thread.Snippet.ChannelId
		}
		page.Items = append(page.Items, c)
	}
	return page, nil
}

// relative renders an RFC 3339 timestamp as "3 days ago".
func (s *DataAPISource) relative(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return ""
	}
	return humanize.RelTime(t, s.now(), "ago", "from now")
}

func thumbnails(d *youtubev3.ThumbnailDetails) []models.RawThumbnail {
	if d == nil {
		return nil
	}
	var out []models.RawThumbnail
	for _, t := range []*youtubev3.Thumbnail{d.Default, d.Medium, d.High, d.Standard, d.Maxres} {
		if t != nil && t.Url != "" {
			out = append(out, models.RawThumbnail{URL: t.Url, Width: int(t.Width), Height: int(t.Height)})
		}
	}
	return out
}

var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

func classifyGoogleError(endpoint string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return errs.Collection(endpoint, 0, "network error", err)
	}

	reason := ""
	if len(gerr.Errors) > 0 {
		reason = gerr.Errors[0].Reason
	}

	switch {
	case gerr.Code == http.StatusTooManyRequests || quotaReasons[reason]:
		return errs.RateLimited(dataAPIService, defaultRetryAfter, "YouTube Data API quota or rate limit exceeded")
	case gerr.Code == http.StatusUnauthorized:
		return errs.Auth("oauth", "YouTube Data API rejected the credentials")
	case gerr.Code == http.StatusForbidden && reason != "commentsDisabled":
		return errs.Auth("oauth", "YouTube Data API access forbidden - check key restrictions and scopes")
	default:
		return errs.Collection(endpoint, gerr.Code, gerr.Message, err)
	}
}

var isoDurationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds parses ISO 8601 durations such as "PT1H2M3S".
func parseDurationSeconds(duration string) int {
	m := isoDurationPattern.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[i+1]); err == nil {
			total += n * mult
		}
	}
	return total
}
