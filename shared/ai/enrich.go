package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"insight-stack/internal/models"
)

const (
	defaultSentiment  = models.SentimentNeutral
	defaultTheme      = "general"
	defaultIntent     = models.IntentNone
	defaultConfidence = 0.5
	defaultSource     = models.SourceComment
	unknownAuthor     = "Unknown"
)

// rawQuote is one quote object as the model wrote it. Numbers may arrive as
// JSON numbers or numeric strings.
type rawQuote struct {
	Quote           string      `json:"quote"`
	Sentiment       string      `json:"sentiment"`
	Theme           string      `json:"theme"`
	PurchaseIntent  string      `json:"purchase_intent"`
	ConfidenceScore json.Number `json:"confidence_score"`
	SourceType      string      `json:"source_type"`
	CommentIndex    json.Number `json:"comment_index"`
}

// enrichResult carries an enriched item and whether its comment index
// pointed outside the supplied comments.
type enrichResult struct {
	Item          models.AnalysisItem
	IndexNotFound bool
}

// enrich turns a raw quote into an AnalysisItem carrying the video
// back-reference and, for comment quotes, the comment back-reference. A
// comment index outside the comment list keeps the item with an "Unknown"
// author and no comment fields.
func enrich(raw json.RawMessage, vc models.VideoWithComments, maxQuoteLength int) (enrichResult, error) {
	var q rawQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return enrichResult{}, fmt.Errorf("malformed quote object: %w", err)
	}

	quote := strings.TrimSpace(q.Quote)
	if quote == "" {
		return enrichResult{}, fmt.Errorf("quote text is empty")
	}

	v := vc.Video
	item := models.AnalysisItem{
		Quote:                truncateRunes(quote, maxQuoteLength),
		Sentiment:            normalized(q.Sentiment, defaultSentiment),
		Theme:                orDefault(strings.TrimSpace(q.Theme), defaultTheme),
		PurchaseIntent:       normalized(q.PurchaseIntent, defaultIntent),
		ConfidenceScore:      confidence(q.ConfidenceScore),
		SourceType:           normalized(q.SourceType, defaultSource),
		VideoID:              v.ID,
		VideoURL:             v.URL,
		VideoTitle:           v.Title,
		VideoAuthorChannel:   v.ChannelName,
		VideoViewCount:       v.ViewCount,
		VideoDurationSeconds: v.DurationSeconds,
		VideoPublishedTime:   v.PublishedTime,
		VideoIsLive:          v.IsLive,
	}
	if item.VideoURL == "" {
		item.VideoURL = models.VideoURL(v.ID)
	}

	switch item.SourceType {
	case models.SourceVideoTitle, models.SourceVideoDescription:
		item.QuoteAuthorName = v.ChannelName
		item.QuoteAuthorChannelID = optional(v.ChannelID)
		return enrichResult{Item: item}, nil

	case models.SourceComment:
		idx := commentIndex(q.CommentIndex) - 1
		if idx < 0 || idx >= len(vc.Comments) {
			var zero int64
			item.QuoteAuthorName = unknownAuthor
			item.CommentLikeCount = &zero
			item.CommentReplyCount = &zero
			return enrichResult{Item: item, IndexNotFound: true}, nil
		}
		c := vc.Comments[idx]
		likes, replies := c.LikeCount, c.ReplyCount
		commentURL := models.CommentURL(item.VideoURL, c.ID)
		item.QuoteAuthorName = c.AuthorName
		item.QuoteAuthorChannelID = optional(c.AuthorChannelID)
		item.CommentID = optional(c.ID)
		item.CommentURL = &commentURL
		item.CommentLikeCount = &likes
		item.CommentReplyCount = &replies
		item.CommentPublishedTime = optional(c.PublishedTime)
		return enrichResult{Item: item}, nil

	default:
		return enrichResult{}, fmt.Errorf("unknown source type %q", item.SourceType)
	}
}

func normalized(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}

func confidence(n json.Number) float64 {
	if n == "" {
		return defaultConfidence
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return defaultConfidence
	}
	return math.Max(0, math.Min(1, f))
}

// commentIndex returns the 1-based index the model referenced, defaulting
// to the first comment.
func commentIndex(n json.Number) int {
	if n == "" {
		return 1
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
