package models

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	IntentHigh   = "high"
	IntentMedium = "medium"
	IntentLow    = "low"
	IntentNone   = "none"

	SourceVideoTitle       = "video_title"
	SourceVideoDescription = "video_description"
	SourceComment          = "comment"
)

// AnalysisItem is a single quote extracted by the model together with the
// video, and for comment quotes the comment, it came from.
type AnalysisItem struct {
	Quote           string  `json:"quote"`
	Sentiment       string  `json:"sentiment"`
	Theme           string  `json:"theme"`
	PurchaseIntent  string  `json:"purchase_intent"`
	ConfidenceScore float64 `json:"confidence_score"`
	SourceType      string  `json:"source_type"`

	VideoID            string `json:"video_id"`
	VideoURL           string `json:"video_url"`
	VideoTitle         string `json:"video_title"`
	VideoAuthorChannel string `json:"video_author_channel"`

	QuoteAuthorName      string  `json:"quote_author_name"`
	QuoteAuthorChannelID *string `json:"quote_author_channel_id"`

	CommentID         *string `json:"comment_id"`
	CommentURL        *string `json:"comment_url"`
	CommentLikeCount  *int64  `json:"comment_like_count"`
	CommentReplyCount *int64  `json:"comment_reply_count"`

	VideoViewCount       int64   `json:"video_view_count"`
	VideoDurationSeconds *int    `json:"video_duration_seconds"`
	VideoPublishedTime   string  `json:"video_published_time"`
	VideoIsLive          bool    `json:"video_is_live"`
	CommentPublishedTime *string `json:"comment_published_time"`
}

type SentimentDistribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

func (d SentimentDistribution) Total() int {
	return d.Positive + d.Negative + d.Neutral
}

type IntentDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	None   int `json:"none"`
}

func (d IntentDistribution) Total() int {
	return d.High + d.Medium + d.Low + d.None
}

type ThemeSummary struct {
	Theme             string   `json:"theme"`
	Count             int      `json:"count"`
	Percentage        float64  `json:"percentage"`
	AverageConfidence float64  `json:"average_confidence"`
	Examples          []string `json:"examples"`
}

type SourceDistribution struct {
	VideoTitles       int `json:"video_titles"`
	VideoDescriptions int `json:"video_descriptions"`
	Comments          int `json:"comments"`
}

type CommentEngagement struct {
	AverageLikes        float64 `json:"average_likes"`
	AverageReplies      float64 `json:"average_replies"`
	TotalCommentLikes   int64   `json:"total_comment_likes"`
	TotalCommentReplies int64   `json:"total_comment_replies"`
}

type YouTubeAPIUsage struct {
	TotalAPICalls       int64   `json:"total_api_calls"`
	SearchCalls         int64   `json:"search_calls"`
	CommentCalls        int64   `json:"comment_calls"`
	RequestDelaySeconds float64 `json:"request_delay_seconds"`
	TimeoutSeconds      float64 `json:"timeout_seconds"`
}

type AIUsage struct {
	TotalTokens        int64   `json:"total_tokens"`
	PromptTokens       int64   `json:"prompt_tokens"`
	CompletionTokens   int64   `json:"completion_tokens"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	Model              string  `json:"model"`
	SuccessfulAnalyses int     `json:"successful_analyses"`
	FailedAnalyses     int     `json:"failed_analyses"`
}

type DateRange struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// DateFilterStats describes what the date-range filter kept and dropped.
type DateFilterStats struct {
	TotalCommentsBefore   int       `json:"total_comments_before"`
	TotalCommentsAfter    int       `json:"total_comments_after"`
	CommentsFilteredOut   int       `json:"comments_filtered_out"`
	CommentsUnparseable   int       `json:"comments_unparseable"`
	VideosWithComments    int       `json:"videos_with_comments"`
	VideosWithoutComments int       `json:"videos_without_comments"`
	VideosTotal           int       `json:"videos_total"`
	DateRange             DateRange `json:"date_range"`
}

type StageTimings struct {
	Search   float64 `json:"stage1_search_time"`
	Clean    float64 `json:"stage2_clean_time"`
	Comments float64 `json:"stage3_comments_time"`
	Analysis float64 `json:"stage4_analysis_time"`
	Build    float64 `json:"stage5_build_time"`
}

// PipelineDetails is the pipeline-specific part of the metadata.
type PipelineDetails struct {
	SearchQuery             string           `json:"search_query"`
	Reason                  string           `json:"reason,omitempty"`
	Language                string           `json:"language,omitempty"`
	Region                  string           `json:"region,omitempty"`
	VideosFound             int              `json:"videos_found"`
	VideosCleaned           int              `json:"videos_cleaned"`
	TotalCommentsCollected  int              `json:"total_comments_collected"`
	VideosWithComments      int              `json:"videos_with_comments"`
	VideosWithoutComments   int              `json:"videos_without_comments"`
	CommentCollectionErrors int              `json:"comment_collection_errors"`
	FailedVideoAnalyses     int              `json:"failed_video_analyses"`
	AnalysisErrors          []string         `json:"analysis_errors,omitempty"`
	DateFilter              *DateFilterStats `json:"date_filter,omitempty"`
	PipelineStages          *StageTimings    `json:"pipeline_stages,omitempty"`
}

type YouTubeSpecific struct {
	SourceDistribution            SourceDistribution `json:"source_distribution"`
	UniqueVideosWithInsights      int                `json:"unique_videos_with_insights"`
	AverageViewsPerVideo          int64              `json:"average_views_per_video"`
	InsightsFromLiveVideos        int                `json:"insights_from_live_videos"`
	AverageVideoDurationSeconds   *int               `json:"average_video_duration_seconds,omitempty"`
	AverageVideoDurationFormatted string             `json:"average_video_duration_formatted,omitempty"`
	CommentEngagement             *CommentEngagement `json:"comment_engagement,omitempty"`
	AdditionalMetrics             *PipelineDetails   `json:"additional_metrics,omitempty"`
}

type Metadata struct {
	RunID                      string                `json:"run_id,omitempty"`
	TotalVideosAnalyzed        int                   `json:"total_videos_analyzed"`
	TotalCommentsFound         int                   `json:"total_comments_found"`
	RelevantInsightsExtracted  int                   `json:"relevant_insights_extracted"`
	ProcessingTimeSeconds      float64               `json:"processing_time_seconds"`
	ModelUsed                  string                `json:"model_used"`
	YouTubeAPIUsage            YouTubeAPIUsage       `json:"youtube_api_usage"`
	AIAPIUsage                 AIUsage               `json:"ai_api_usage"`
	SentimentDistribution      SentimentDistribution `json:"sentiment_distribution"`
	PurchaseIntentDistribution IntentDistribution    `json:"purchase_intent_distribution"`
	TopThemes                  []ThemeSummary        `json:"top_themes"`
	YouTubeSpecific            *YouTubeSpecific      `json:"youtube_specific,omitempty"`
}

// Response is the unified result of one pipeline run.
type Response struct {
	CommentAnalyses []AnalysisItem `json:"comment_analyses"`
	Metadata        Metadata       `json:"metadata"`
}
