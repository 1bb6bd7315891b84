package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// The types below mirror the payloads of the search and comments endpoints
// as they arrive from upstream, before any cleaning.

type RawThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type RawAuthor struct {
	ChannelID        string `json:"channelId"`
	Title            string `json:"title"`
	CanonicalBaseURL string `json:"canonicalBaseUrl"`
	IsChannelOwner   bool   `json:"isChannelOwner"`
}

type RawVideoStats struct {
	Views int64 `json:"views"`
}

type RawVideo struct {
	VideoID            string         `json:"videoId"`
	Title              string         `json:"title"`
	DescriptionSnippet string         `json:"descriptionSnippet"`
	LengthSeconds      *int           `json:"lengthSeconds"`
	PublishedTimeText  string         `json:"publishedTimeText"`
	IsLiveNow          bool           `json:"isLiveNow"`
	Author             *RawAuthor     `json:"author"`
	Stats              RawVideoStats  `json:"stats"`
	Thumbnails         []RawThumbnail `json:"thumbnails"`
	Badges             []string       `json:"badges"`
}

// RawSearchItem is one entry of a search page. Only entries of type "video"
// carrying a video object are usable.
type RawSearchItem struct {
	Type  string    `json:"type"`
	Video *RawVideo `json:"video"`
}

type RawCommentStats struct {
	Votes   int64 `json:"votes"`
	Replies int64 `json:"replies"`
}

type RawPinned struct {
	Status bool `json:"status"`
}

type RawComment struct {
	CommentID         string          `json:"commentId"`
	Content           string          `json:"content"`
	PublishedTimeText string          `json:"publishedTimeText"`
	Author            RawAuthor       `json:"author"`
	Stats             RawCommentStats `json:"stats"`
	CreatorHeart      bool            `json:"creatorHeart"`
	Pinned            *RawPinned      `json:"pinned"`
}

// SearchPage is a single page of search results.
type SearchPage struct {
	Items          []RawSearchItem `json:"contents"`
	NextCursor     string          `json:"cursorNext"`
	EstimatedTotal FlexInt         `json:"estimatedResults"`
}

// CommentPage is a single page of top-level comments.
type CommentPage struct {
	Items      []RawComment `json:"comments"`
	NextCursor string       `json:"cursorNext"`
	TotalCount FlexInt      `json:"totalCommentsCount"`
}

// FlexInt accepts counters that upstream encodes either as JSON numbers or as
// numeric strings. Anything else decodes to zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*f = 0
		return nil
	}
	if v, err := n.Int64(); err == nil {
		*f = FlexInt(v)
		return nil
	}
	if v, err := strconv.ParseFloat(n.String(), 64); err == nil {
		*f = FlexInt(v)
		return nil
	}
	*f = 0
	return nil
}
