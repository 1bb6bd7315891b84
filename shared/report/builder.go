package report

import (
	"fmt"
	"math"
	"time"

	"insight-stack/internal/models"

	"go.uber.org/zap"
)

const (
	topThemeLimit      = 10
	themeExampleLimit  = 3
	themeExampleLength = 100
)

// Run carries everything about a pipeline run that the items themselves do
// not.
type Run struct {
	ID             string
	VideosAnalyzed int
	CommentsFound  int
	ProcessingTime time.Duration
	Model          string
	YouTubeUsage   models.YouTubeAPIUsage
	AIUsage        models.AIUsage
	// Details, when set, is attached as youtube_specific.additional_metrics
	// together with the derived YouTube statistics.
	Details *models.PipelineDetails
}

// Builder folds analysis items into the unified response.
type Builder struct {
	logger *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Build never mutates items.
func (b *Builder) Build(items []models.AnalysisItem, run Run) models.Response {
	sentiment := SentimentCounts(items)
	intent := IntentCounts(items)

	meta := models.Metadata{
		RunID:                      run.ID,
		TotalVideosAnalyzed:        run.VideosAnalyzed,
		TotalCommentsFound:         run.CommentsFound,
		RelevantInsightsExtracted:  len(items),
		ProcessingTimeSeconds:      round(run.ProcessingTime.Seconds(), 2),
		ModelUsed:                  run.Model,
		YouTubeAPIUsage:            run.YouTubeUsage,
		AIAPIUsage:                 run.AIUsage,
		SentimentDistribution:      sentiment,
		PurchaseIntentDistribution: intent,
		TopThemes:                  TopThemes(items, topThemeLimit),
	}
	if run.Details != nil {
		yt := YouTubeStats(items)
		yt.AdditionalMetrics = run.Details
		meta.YouTubeSpecific = &yt
	}

	out := make([]models.AnalysisItem, len(items))
	copy(out, items)

	b.logger.Info("response built",
		zap.String("run_id", run.ID),
		zap.Int("insights", len(items)),
		zap.Int("positive", sentiment.Positive),
		zap.Int("negative", sentiment.Negative),
		zap.Int("high_intent", intent.High))

	return models.Response{CommentAnalyses: out, Metadata: meta}
}

// Empty is the response for a run that found nothing to analyze. It is a
// successful outcome; reason says why.
func (b *Builder) Empty(run Run, reason string) models.Response {
	details := run.Details
	if details == nil {
		details = &models.PipelineDetails{}
	}
	details.Reason = reason
	run.Details = details
	run.VideosAnalyzed = 0
	run.CommentsFound = 0

	b.logger.Info("empty response", zap.String("run_id", run.ID), zap.String("reason", reason))
	return b.Build(nil, run)
}

// SentimentCounts counts recognized sentiment values. Anything else is left
// out of the distribution.
func SentimentCounts(items []models.AnalysisItem) models.SentimentDistribution {
	var d models.SentimentDistribution
	for _, it := range items {
		switch it.Sentiment {
		case models.SentimentPositive:
			d.Positive++
		case models.SentimentNegative:
			d.Negative++
		case models.SentimentNeutral:
			d.Neutral++
		}
	}
	return d
}

func IntentCounts(items []models.AnalysisItem) models.IntentDistribution {
	var d models.IntentDistribution
	for _, it := range items {
		switch it.PurchaseIntent {
		case models.IntentHigh:
			d.High++
		case models.IntentMedium:
			d.Medium++
		case models.IntentLow:
			d.Low++
		case models.IntentNone:
			d.None++
		}
	}
	return d
}

// TopThemes ranks themes by frequency. Equal counts keep the order in which
// the themes first appeared.
func TopThemes(items []models.AnalysisItem, limit int) []models.ThemeSummary {
	type acc struct {
		count      int
		confidence float64
		examples   []string
	}
	var order []string
	byTheme := map[string]*acc{}
	for _, it := range items {
		a, ok := byTheme[it.Theme]
		if !ok {
			a = &acc{}
			byTheme[it.Theme] = a
			order = append(order, it.Theme)
		}
		a.count++
		a.confidence += it.ConfidenceScore
		if len(a.examples) < themeExampleLimit {
			a.examples = append(a.examples, ellipsize(it.Quote, themeExampleLength))
		}
	}

	// Insertion sort is stable, so first-seen order survives ties.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && byTheme[order[j]].count > byTheme[order[j-1]].count; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	if len(order) > limit {
		order = order[:limit]
	}

	themes := make([]models.ThemeSummary, 0, len(order))
	for _, theme := range order {
		a := byTheme[theme]
		themes = append(themes, models.ThemeSummary{
			Theme:             theme,
			Count:             a.count,
			Percentage:        round(float64(a.count)/float64(len(items))*100, 2),
			AverageConfidence: round(a.confidence/float64(a.count), 3),
			Examples:          a.examples,
		})
	}
	return themes
}

// YouTubeStats derives the per-source and per-video statistics. Comment
// engagement only looks at comment-sourced items.
func YouTubeStats(items []models.AnalysisItem) models.YouTubeSpecific {
	var yt models.YouTubeSpecific
	if len(items) == 0 {
		return yt
	}

	videos := map[string]struct{}{}
	var (
		views         int64
		durationSum   int
		durationCount int
		comments      int
		likes         int64
		replies       int64
	)
	for _, it := range items {
		switch it.SourceType {
		case models.SourceVideoTitle:
			yt.SourceDistribution.VideoTitles++
		case models.SourceVideoDescription:
			yt.SourceDistribution.VideoDescriptions++
		case models.SourceComment:
			yt.SourceDistribution.Comments++
			comments++
			if it.CommentLikeCount != nil {
				likes += *it.CommentLikeCount
			}
			if it.CommentReplyCount != nil {
				replies += *it.CommentReplyCount
			}
		}
		if it.VideoID != "" {
			videos[it.VideoID] = struct{}{}
		}
		views += it.VideoViewCount
		if it.VideoIsLive {
			yt.InsightsFromLiveVideos++
		}
		if it.VideoDurationSeconds != nil && *it.VideoDurationSeconds > 0 {
			durationSum += *it.VideoDurationSeconds
			durationCount++
		}
	}

	yt.UniqueVideosWithInsights = len(videos)
	yt.AverageViewsPerVideo = int64(math.Round(float64(views) / float64(len(items))))
	if durationCount > 0 {
		avg := int(math.Round(float64(durationSum) / float64(durationCount)))
		yt.AverageVideoDurationSeconds = &avg
		yt.AverageVideoDurationFormatted = formatDuration(avg)
	}
	if comments > 0 {
		yt.CommentEngagement = &models.CommentEngagement{
			AverageLikes:        math.Round(float64(likes) / float64(comments)),
			AverageReplies:      math.Round(float64(replies) / float64(comments)),
			TotalCommentLikes:   likes,
			TotalCommentReplies: replies,
		}
	}
	return yt
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
