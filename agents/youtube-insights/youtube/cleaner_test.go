package youtube

import (
	"strings"
	"testing"

	"insight-stack/internal/models"
)

func intPtr(n int) *int { return &n }

func thumb(url string, w, h int) models.RawThumbnail {
	return models.RawThumbnail{URL: url, Width: w, Height: h}
}

func TestIsSpam(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"promo phrase", "Great video! Check out my channel for more", true},
		{"promo phrase any case", "SUBSCRIBE TO MY CHANNEL pls", true},
		{"follow me", "follow me on insta", true},
		{"shortener", "deal here bit.ly/abc123", true},
		{"tinyurl", "see tinyurl.com/xyz", true},
		{"work from home", "I work from home and love this desk", true},
		{"shouting 25 chars", "ABSOLUTELYAMAZINGPRODUCTX", true},
		{"short shouting is fine", "BEST DESK EVER!!", false},
		{"exactly 20 uppercase", "ABCDEFGHIJKLMNOPQRST", false},
		{"symbol soup", "!!!???$$$%%%", true},
		{"short symbols", "!!!!!!!!!!", false},
		{"normal", "I bought this last month and my back pain is gone.", false},
		{"emoji heavy but long text", "Love it 😍 would buy again for sure", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSpam(tt.text); got != tt.want {
				t.Errorf("IsSpam(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   *int
		want string
	}{
		{nil, "Unknown"},
		{intPtr(0), "Unknown"},
		{intPtr(5), "0:05"},
		{intPtr(754), "12:34"},
		{intPtr(3599), "59:59"},
		{intPtr(3600), "1:00:00"},
		{intPtr(3723), "1:02:03"},
		{intPtr(36000), "10:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.in); got != tt.want {
				t.Errorf("FormatDuration() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBestThumbnail(t *testing.T) {
	tests := []struct {
		name   string
		thumbs []models.RawThumbnail
		want   string
	}{
		{"largest wins", []models.RawThumbnail{thumb("a", 10, 10), thumb("b", 100, 100), thumb("c", 50, 50)}, "b"},
		{"first of ties", []models.RawThumbnail{thumb("a", 20, 50), thumb("b", 50, 20), thumb("c", 10, 10)}, "a"},
		{"single", []models.RawThumbnail{thumb("only", 0, 0)}, "only"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestThumbnail(tt.thumbs); got != tt.want {
				t.Errorf("BestThumbnail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanVideos(t *testing.T) {
	items := []models.RawSearchItem{
		{Type: "video", Video: &models.RawVideo{
			VideoID:       "v1",
			Title:         "Desk review",
			LengthSeconds: intPtr(754),
			IsLiveNow:     true,
			Stats:         models.RawVideoStats{Views: 1000},
			Author:        &models.RawAuthor{ChannelID: "UC1", Title: "Desks", CanonicalBaseURL: "/@desks"},
			Thumbnails:    []models.RawThumbnail{thumb("s", 1, 1), thumb("l", 9, 9)},
			Badges:        []string{"New", "CC"},
		}},
		{Type: "video", Video: &models.RawVideo{VideoID: "v2"}},
		{Type: "channel"},
		{Type: "video"},
		{Type: "video", Video: &models.RawVideo{Title: "no id"}},
	}

	videos, stats := NewCleaner(nil).CleanVideos(items)
	if len(videos) != 2 || stats.Accepted != 2 || stats.Malformed != 3 || stats.Input != 5 {
		t.Fatalf("videos=%d stats=%+v", len(videos), stats)
	}

	v := videos[0]
	if v.URL != "https://www.youtube.com/watch?v=v1" {
		t.Errorf("URL = %s", v.URL)
	}
	if v.DurationFormatted != "12:34" || *v.DurationSeconds != 754 {
		t.Errorf("duration = %v %s", v.DurationSeconds, v.DurationFormatted)
	}
	if v.ChannelURL != "https://www.youtube.com/@desks" || v.ChannelName != "Desks" {
		t.Errorf("channel = %s %s", v.ChannelName, v.ChannelURL)
	}
	if v.ThumbnailURL != "l" || !v.HasCaptions || !v.IsLive {
		t.Errorf("video = %+v", v)
	}

	bare := videos[1]
	if bare.Title != "Untitled Video" || bare.ChannelName != "Unknown Channel" || bare.DurationFormatted != "Unknown" {
		t.Errorf("defaults = %+v", bare)
	}
	if bare.DurationSeconds != nil || bare.HasCaptions || bare.Badges == nil {
		t.Errorf("bare video = %+v", bare)
	}
}

func TestCleanComments(t *testing.T) {
	items := []models.RawComment{
		{CommentID: "c1", Content: "  Solid desk, very stable.  ", PublishedTimeText: "3 days ago",
			Author: models.RawAuthor{ChannelID: "UCa", Title: "@alice", IsChannelOwner: true},
			Stats:  models.RawCommentStats{Votes: 10, Replies: 2}, CreatorHeart: true, Pinned: &models.RawPinned{Status: true}},
		{CommentID: "c2", Content: "check out my channel!!"},
		{CommentID: "", Content: "no id"},
		{CommentID: "c4", Content: "   "},
		{CommentID: "c5", Content: "Meh"},
	}

	comments, stats := NewCleaner(nil).CleanComments(items)
	if len(comments) != 2 || stats.Spam != 1 || stats.Malformed != 2 {
		t.Fatalf("comments=%d stats=%+v", len(comments), stats)
	}

	c := comments[0]
	if c.Text != "Solid desk, very stable." || c.TextLength != len("Solid desk, very stable.") {
		t.Errorf("text = %q len=%d", c.Text, c.TextLength)
	}
	if c.EngagementScore != 12 || !c.IsChannelOwner || !c.HasCreatorHeart || !c.IsPinned {
		t.Errorf("comment = %+v", c)
	}
	if comments[1].AuthorName != "Anonymous" || comments[1].IsPinned {
		t.Errorf("defaults = %+v", comments[1])
	}
	for _, c := range comments {
		if strings.Contains(strings.ToLower(c.Text), "my channel") {
			t.Error("spam comment retained")
		}
	}
}
