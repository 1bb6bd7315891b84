package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"insight-stack/shared/errs"

	"google.golang.org/api/option"
)

func newDataAPITestSource(t *testing.T, handler http.HandlerFunc) *DataAPISource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src, err := NewDataAPISourceWithOptions(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewDataAPISourceWithOptions() error = %v", err)
	}
	src.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return src
}

func TestDataAPISourceSearch(t *testing.T) {
	src := newDataAPITestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			if r.URL.Query().Get("q") != "desk" || r.URL.Query().Get("pageToken") != "tok" {
				t.Errorf("search query = %v", r.URL.Query())
			}
			w.Write([]byte(`{
				"nextPageToken": "tok2",
				"pageInfo": {"totalResults": 900},
				"items": [{
					"id": {"videoId": "v1"},
					"snippet": {"title": "Desk", "description": "desc", "channelId": "UC1", "channelTitle": "Desks",
						"publishedAt": "2024-06-07T12:00:00Z", "liveBroadcastContent": "none",
						"thumbnails": {"default": {"url": "s.jpg", "width": 120, "height": 90},
							"high": {"url": "h.jpg", "width": 480, "height": 360}}}
				}]
			}`))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			w.Write([]byte(`{"items": [{"id": "v1", "contentDetails": {"duration": "PT1H2M3S", "caption": "true"},
				"statistics": {"viewCount": "4321"}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	page, err := src.Search(context.Background(), "desk", "en", "US", "tok")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.NextCursor != "tok2" || page.EstimatedTotal != 900 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}

	v := page.Items[0].Video
	if v.VideoID != "v1" || v.Stats.Views != 4321 {
		t.Errorf("video = %+v", v)
	}
	if v.LengthSeconds == nil || *v.LengthSeconds != 3723 {
		t.Errorf("LengthSeconds = %v", v.LengthSeconds)
	}
	if len(v.Badges) != 1 || v.Badges[0] != "CC" {
		t.Errorf("Badges = %v", v.Badges)
	}
	if v.PublishedTimeText != "3 days ago" {
		t.Errorf("PublishedTimeText = %q", v.PublishedTimeText)
	}
	if BestThumbnail(v.Thumbnails) != "h.jpg" {
		t.Errorf("thumbnails = %+v", v.Thumbnails)
	}
	if v.Author.CanonicalBaseURL != "/channel/UC1" {
		t.Errorf("author = %+v", v.Author)
	}
}

func TestDataAPISourceSpacesDetailLookup(t *testing.T) {
	const searchBody = `{"items": [{"id": {"videoId": "v1"}, "snippet": {"title": "Desk", "channelId": "UC1",
		"publishedAt": "2024-06-07T12:00:00Z"}}]}`

	tests := []struct {
		name       string
		delay      time.Duration
		timeout    time.Duration
		wantErr    bool
		wantVideos int
	}{
		{"spaced by the request delay", 80 * time.Millisecond, 5 * time.Second, false, 1},
		{"cancelled while waiting", time.Hour, 100 * time.Millisecond, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu          sync.Mutex
				searchAt    time.Time
				videosAt    time.Time
				videosCalls int
			)
			src := newDataAPITestSource(t, func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				defer mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				switch {
				case strings.HasSuffix(r.URL.Path, "/search"):
					searchAt = time.Now()
					w.Write([]byte(searchBody))
				case strings.HasSuffix(r.URL.Path, "/videos"):
					videosAt = time.Now()
					videosCalls++
					w.Write([]byte(`{"items": [{"id": "v1", "statistics": {"viewCount": "10"}}]}`))
				}
			})
			src.followUpDelay = tt.delay

			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()
			_, err := src.Search(ctx, "desk", "en", "US", "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Search() error = %v, wantErr %v", err, tt.wantErr)
			}

			mu.Lock()
			defer mu.Unlock()
			if videosCalls != tt.wantVideos {
				t.Fatalf("videos.list calls = %d, want %d", videosCalls, tt.wantVideos)
			}
			if tt.wantVideos > 0 {
				if gap := videosAt.Sub(searchAt); gap < tt.delay {
					t.Errorf("videos.list followed search.list after %v, want at least %v", gap, tt.delay)
				}
			}
		})
	}
}

func TestDataAPISourceComments(t *testing.T) {
	src := newDataAPITestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/commentThreads") || r.URL.Query().Get("videoId") != "v1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"items": [{
			"snippet": {"channelId": "UCowner", "totalReplyCount": 4, "topLevelComment": {
				"id": "c1",
				"snippet": {"textOriginal": "Great desk", "authorDisplayName": "@owner",
					"authorChannelId": {"value": "UCowner"}, "likeCount": 9, "publishedAt": "2024-06-10T10:00:00Z"}}}
		}]}`))
	})

	page, err := src.Comments(context.Background(), "v1", "en", "US", "")
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d", len(page.Items))
	}
	c := page.Items[0]
	if c.CommentID != "c1" || c.Content != "Great desk" || c.Stats.Votes != 9 || c.Stats.Replies != 4 {
		t.Errorf("comment = %+v", c)
	}
	if !c.Author.IsChannelOwner {
		t.Error("author should be recognized as channel owner")
	}
	if c.PublishedTimeText != "2 hours ago" {
		t.Errorf("PublishedTimeText = %q", c.PublishedTimeText)
	}
}

func TestDataAPISourceClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		reason   string
		wantKind errs.Kind
	}{
		{"quota", http.StatusForbidden, "quotaExceeded", errs.KindRateLimit},
		{"comments disabled", http.StatusForbidden, "commentsDisabled", errs.KindCollection},
		{"forbidden", http.StatusForbidden, "forbidden", errs.KindAuth},
		{"unauthorized", http.StatusUnauthorized, "authError", errs.KindAuth},
		{"not found", http.StatusNotFound, "videoNotFound", errs.KindCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newDataAPITestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"message": "nope", "errors": [{"reason": "` + tt.reason + `"}]}}`))
			})

			_, err := src.Comments(context.Background(), "v1", "en", "US", "")
			if got := errs.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %s, want %s (err %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT1M30S", 90},
		{"PT45S", 45},
		{"PT2H15M30S", 8130},
		{"PT3H", 10800},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseDurationSeconds(tt.in); got != tt.want {
				t.Errorf("parseDurationSeconds(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
