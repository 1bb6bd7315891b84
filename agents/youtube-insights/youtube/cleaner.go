package youtube

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"insight-stack/internal/models"

	"go.uber.org/zap"
)

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)check out my channel`),
	regexp.MustCompile(`(?i)subscribe to my channel`),
	regexp.MustCompile(`(?i)follow me on`),
	regexp.MustCompile(`(?i)click here`),
	regexp.MustCompile(`(?i)win free`),
	regexp.MustCompile(`(?i)make money online`),
	regexp.MustCompile(`(?i)work from home`),
	regexp.MustCompile(`(?i)bit\.ly/`),
	regexp.MustCompile(`(?i)tinyurl\.com/`),
}

// CleanStats counts what cleaning accepted and dropped.
type CleanStats struct {
	Input     int
	Accepted  int
	Malformed int
	Spam      int
}

// Cleaner normalizes raw upstream payloads.
type Cleaner struct {
	logger *zap.Logger
}

func NewCleaner(logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{logger: logger}
}

// CleanVideos keeps entries of type "video" that carry a video id.
func (c *Cleaner) CleanVideos(items []models.RawSearchItem) ([]models.Video, CleanStats) {
	stats := CleanStats{Input: len(items)}
	videos := make([]models.Video, 0, len(items))

	for _, item := range items {
		if item.Type != "video" || item.Video == nil || item.Video.VideoID == "" {
			stats.Malformed++
			continue
		}
		videos = append(videos, cleanVideo(item.Video))
	}

	stats.Accepted = len(videos)
	c.logger.Info("cleaned videos",
		zap.Int("input", stats.Input),
		zap.Int("accepted", stats.Accepted),
		zap.Int("skipped", stats.Malformed))
	return videos, stats
}

func cleanVideo(raw *models.RawVideo) models.Video {
	v := models.Video{
		ID:                raw.VideoID,
		Title:             orDefault(raw.Title, "Untitled Video"),
		Description:       raw.DescriptionSnippet,
		URL:               models.VideoURL(raw.VideoID),
		DurationFormatted: FormatDuration(raw.LengthSeconds),
		ViewCount:         raw.Stats.Views,
		PublishedTime:     raw.PublishedTimeText,
		IsLive:            raw.IsLiveNow,
		ThumbnailURL:      BestThumbnail(raw.Thumbnails),
		Badges:            raw.Badges,
		ChannelName:       "Unknown Channel",
	}
	if raw.LengthSeconds != nil && *raw.LengthSeconds > 0 {
		secs := *raw.LengthSeconds
		v.DurationSeconds = &secs
	}
	if v.Badges == nil {
		v.Badges = []string{}
	}
	for _, b := range v.Badges {
		if b == "CC" {
			v.HasCaptions = true
			break
		}
	}
	if raw.Author != nil {
		v.ChannelID = raw.Author.ChannelID
		v.ChannelName = orDefault(raw.Author.Title, "Unknown Channel")
		if raw.Author.CanonicalBaseURL != "" {
			v.ChannelURL = "https://www.youtube.com" + raw.Author.CanonicalBaseURL
		}
	}
	return v
}

// CleanComments keeps comments with an id and non-empty text that pass the
// spam heuristic.
func (c *Cleaner) CleanComments(items []models.RawComment) ([]models.Comment, CleanStats) {
	stats := CleanStats{Input: len(items)}
	comments := make([]models.Comment, 0, len(items))

	for _, raw := range items {
		text := strings.TrimSpace(raw.Content)
		if raw.CommentID == "" || text == "" {
			stats.Malformed++
			continue
		}
		if IsSpam(text) {
			stats.Spam++
			c.logger.Debug("dropped spam comment", zap.String("comment_id", raw.CommentID))
			continue
		}

		comments = append(comments, models.Comment{
			ID:              raw.CommentID,
			Text:            text,
			AuthorName:      orDefault(raw.Author.Title, "Anonymous"),
			AuthorChannelID: raw.Author.ChannelID,
			LikeCount:       raw.Stats.Votes,
			ReplyCount:      raw.Stats.Replies,
			EngagementScore: raw.Stats.Votes + raw.Stats.Replies,
			PublishedTime:   raw.PublishedTimeText,
			IsChannelOwner:  raw.Author.IsChannelOwner,
			HasCreatorHeart: raw.CreatorHeart,
			IsPinned:        raw.Pinned != nil && raw.Pinned.Status,
			TextLength:      len([]rune(text)),
		})
	}

	stats.Accepted = len(comments)
	c.logger.Debug("cleaned comments",
		zap.Int("input", stats.Input),
		zap.Int("accepted", stats.Accepted),
		zap.Int("spam", stats.Spam),
		zap.Int("skipped", stats.Malformed))
	return comments, stats
}

// IsSpam reports whether text looks promotional, is mostly shouting or is
// mostly symbols.
func IsSpam(text string) bool {
	for _, p := range spamPatterns {
		if p.MatchString(text) {
			return true
		}
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return false
	}

	var upper, symbols int
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}

	if n > 20 && float64(upper)/float64(n) > 0.7 {
		return true
	}
	if n > 10 && float64(symbols)/float64(n) > 0.5 {
		return true
	}
	return false
}

// FormatDuration renders seconds as H:MM:SS or M:SS. Missing or zero
// durations are "Unknown".
func FormatDuration(seconds *int) string {
	if seconds == nil || *seconds <= 0 {
		return "Unknown"
	}
	s := *seconds
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// BestThumbnail returns the url of the largest thumbnail by area. The first
// of equally large entries wins.
func BestThumbnail(thumbs []models.RawThumbnail) string {
	best := -1
	bestArea := -1
	for i, t := range thumbs {
		if area := t.Width * t.Height; area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return ""
	}
	return thumbs[best].URL
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
