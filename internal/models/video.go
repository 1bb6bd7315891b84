package models

import "fmt"

// Video is a search result after cleaning.
type Video struct {
	ID                string   `json:"video_id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	URL               string   `json:"video_url"`
	DurationSeconds   *int     `json:"duration_seconds"`
	DurationFormatted string   `json:"duration_formatted"`
	ViewCount         int64    `json:"view_count"`
	PublishedTime     string   `json:"published_time"`
	IsLive            bool     `json:"is_live"`
	ChannelID         string   `json:"channel_id"`
	ChannelName       string   `json:"channel_name"`
	ChannelURL        string   `json:"channel_url"`
	ThumbnailURL      string   `json:"thumbnail_url"`
	Badges            []string `json:"badges"`
	HasCaptions       bool     `json:"has_captions"`
}

// Comment is a top-level comment after cleaning and spam filtering.
type Comment struct {
	ID              string `json:"comment_id"`
	Text            string `json:"text"`
	AuthorName      string `json:"author_name"`
	AuthorChannelID string `json:"author_channel_id"`
	LikeCount       int64  `json:"like_count"`
	ReplyCount      int64  `json:"reply_count"`
	EngagementScore int64  `json:"engagement_score"`
	PublishedTime   string `json:"published_time"`
	IsChannelOwner  bool   `json:"is_channel_owner"`
	HasCreatorHeart bool   `json:"has_creator_heart"`
	IsPinned        bool   `json:"is_pinned"`
	TextLength      int    `json:"text_length"`
}

// VideoWithComments pairs a cleaned video with the comments collected for it.
type VideoWithComments struct {
	Video    Video     `json:"video"`
	Comments []Comment `json:"comments"`
}

func VideoURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// CommentURL anchors a comment inside its video page.
func CommentURL(videoURL, commentID string) string {
	return fmt.Sprintf("%s&lc=%s", videoURL, commentID)
}
