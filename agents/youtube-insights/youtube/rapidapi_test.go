package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insight-stack/shared/errs"
)

func TestRapidAPISourceSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != searchEndpoint {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-rapidapi-key") != "secret" || r.Header.Get("x-rapidapi-host") != "youtube138.p.rapidapi.com" {
			t.Errorf("missing rapidapi headers: %v", r.Header)
		}
		q := r.URL.Query()
		if q.Get("q") != "standing desk" || q.Get("hl") != "en" || q.Get("gl") != "US" {
			t.Errorf("query = %v", q)
		}
		if q.Get("cursor") != "abc" {
			t.Errorf("cursor = %q", q.Get("cursor"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"contents": [
				{"type": "video", "video": {"videoId": "v1", "title": "Desk review", "lengthSeconds": 754,
				 "stats": {"views": 1200}, "author": {"channelId": "UC1", "title": "Desks Inc", "canonicalBaseUrl": "/@desks"},
				 "thumbnails": [{"url": "a.jpg", "width": 10, "height": 10}], "badges": ["CC"]}},
				{"type": "channel", "channel": {}}
			],
			"cursorNext": "def",
			"estimatedResults": "12345"
		}`))
	}))
	defer srv.Close()

	src := NewRapidAPISource(srv.URL+"/", "secret", "youtube138.p.rapidapi.com", srv.Client())
	page, err := src.Search(context.Background(), "standing desk", "en", "US", "abc")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Video.VideoID != "v1" {
		t.Fatalf("items = %+v", page.Items)
	}
	if *page.Items[0].Video.LengthSeconds != 754 {
		t.Errorf("lengthSeconds = %d", *page.Items[0].Video.LengthSeconds)
	}
	if page.NextCursor != "def" {
		t.Errorf("NextCursor = %q", page.NextCursor)
	}
	if page.EstimatedTotal != 12345 {
		t.Errorf("EstimatedTotal = %d", page.EstimatedTotal)
	}
}

func TestRapidAPISourceComments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != commentsEndpoint || r.URL.Query().Get("id") != "v1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.URL.Query().Has("cursor") {
			t.Error("first page must not send a cursor")
		}
		w.Write([]byte(`{"comments": [{"commentId": "c1", "content": "Love it", "publishedTimeText": "2 days ago",
			"author": {"channelId": "UCa", "title": "@alice", "isChannelOwner": false},
			"stats": {"votes": 12, "replies": 3}, "creatorHeart": true, "pinned": {"status": true}}],
			"totalCommentsCount": 1}`))
	}))
	defer srv.Close()

	src := NewRapidAPISource(srv.URL, "k", "h", nil)
	page, err := src.Comments(context.Background(), "v1", "en", "US", "")
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	c := page.Items[0]
	if c.CommentID != "c1" || c.Stats.Votes != 12 || c.Stats.Replies != 3 || !c.CreatorHeart || !c.Pinned.Status {
		t.Errorf("comment = %+v", c)
	}
	if page.NextCursor != "" || page.TotalCount != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestRapidAPISourceClassifiesFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		body       string
		wantKind   errs.Kind
		wantRetry  time.Duration
	}{
		{"unauthorized", http.StatusUnauthorized, "", "", errs.KindAuth, 0},
		{"forbidden", http.StatusForbidden, "", "", errs.KindAuth, 0},
		{"rate limited", http.StatusTooManyRequests, "17", "", errs.KindRateLimit, 17 * time.Second},
		{"rate limited without hint", http.StatusTooManyRequests, "", "", errs.KindRateLimit, 60 * time.Second},
		{"not found", http.StatusNotFound, "", "", errs.KindCollection, 0},
		{"server error", http.StatusInternalServerError, "", "upstream exploded", errs.KindCollection, 0},
		{"bad payload", http.StatusOK, "", "not json", errs.KindCollection, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := NewRapidAPISource(srv.URL, "k", "h", srv.Client())
			_, err := src.Search(context.Background(), "q", "en", "US", "")

			e, ok := errs.As(err)
			if !ok {
				t.Fatalf("error %v is not classified", err)
			}
			if e.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", e.Kind, tt.wantKind)
			}
			if e.RetryAfter != tt.wantRetry {
				t.Errorf("RetryAfter = %v, want %v", e.RetryAfter, tt.wantRetry)
			}
			if tt.wantKind == errs.KindCollection && tt.status != http.StatusOK && e.Details["http_status"] != tt.status {
				t.Errorf("http_status = %v, want %d", e.Details["http_status"], tt.status)
			}
		})
	}
}

func TestRapidAPISourceNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	src := NewRapidAPISource(srv.URL, "k", "h", nil)
	_, err := src.Comments(context.Background(), "v1", "en", "US", "")
	if !errs.Is(err, errs.KindCollection) {
		t.Errorf("error = %v, want collection failure", err)
	}
}
