package youtubeinsights

import (
	"context"
	"testing"
	"time"

	"insight-stack/agents/youtube-insights/youtube"
	"insight-stack/internal/models"
	"insight-stack/shared/errs"
)

func collectorFixture() (*fakeSource, []models.Video) {
	src := &fakeSource{
		comments: map[string][]models.RawComment{
			"a": {rawComment("a1", "great desk", "1 day ago"), rawComment("a2", "too pricey", "2 days ago")},
			"c": {rawComment("c1", "solid", "3 days ago")},
		},
		commentErrs: map[string]error{
			"b": errs.Collection("/video/comments/", 500, "upstream exploded", nil),
		},
	}
	videos := []models.Video{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	return src, videos
}

func TestCollectModesAgree(t *testing.T) {
	tests := []struct {
		name     string
		collect  func(c *Collector, videos []models.Video) (Collection, error)
		wantMode string
	}{
		{"sequential", func(c *Collector, v []models.Video) (Collection, error) {
			return c.Collect(context.Background(), v, 50, "en", "US")
		}, "sequential"},
		{"parallel", func(c *Collector, v []models.Video) (Collection, error) {
			return c.CollectParallel(context.Background(), v, 50, "en", "US", 3)
		}, "parallel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, videos := collectorFixture()
			c := NewCollector(youtube.NewClient(src, 0), nil)

			col, err := tt.collect(c, videos)
			if err != nil {
				t.Fatalf("collect error = %v", err)
			}
			s := col.Stats
			if s.TotalVideosProcessed != 4 || s.TotalCommentsCollected != 3 || s.VideosWithComments != 2 || s.VideosWithoutComments != 2 {
				t.Errorf("stats = %+v", s)
			}
			if s.APICallsMade != 4 || s.AverageCommentsPerVideo != 0.75 {
				t.Errorf("calls/average = %d/%v", s.APICallsMade, s.AverageCommentsPerVideo)
			}
			if len(s.Errors) != 1 || s.Errors[0].VideoID != "b" || s.Errors[0].VideoIndex != 2 || s.Errors[0].ErrorCode != errs.KindCollection {
				t.Errorf("errors = %+v", s.Errors)
			}
			if s.CollectionMode != tt.wantMode {
				t.Errorf("mode = %s", s.CollectionMode)
			}
			if len(col.Comments) != 4 || len(col.Comments[0]) != 2 || col.Comments[1] != nil || len(col.Comments[2]) != 1 {
				t.Errorf("comments not aligned with videos: %v", col.Comments)
			}
		})
	}
}

func TestCollectFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.Kind
	}{
		{"auth", errs.Auth("rapidapi", "Invalid API key"), errs.KindAuth},
		{"rate limit", errs.RateLimited("rapidapi", time.Minute, "slow down"), errs.KindRateLimit},
	}
	for _, tt := range tests {
		for _, parallel := range []bool{false, true} {
			name := tt.name
			if parallel {
				name += "/parallel"
			}
			t.Run(name, func(t *testing.T) {
				src, videos := collectorFixture()
				src.commentErrs["b"] = tt.err
				c := NewCollector(youtube.NewClient(src, 0), nil)

				var err error
				if parallel {
					_, err = c.CollectParallel(context.Background(), videos, 50, "en", "US", 2)
				} else {
					_, err = c.Collect(context.Background(), videos, 50, "en", "US")
				}
				if errs.KindOf(err) != tt.kind {
					t.Errorf("err = %v, want kind %s", err, tt.kind)
				}
				if !parallel && src.commentCalls.Load() != 2 {
					t.Errorf("sequential collection kept going after a fatal error: %d calls", src.commentCalls.Load())
				}
			})
		}
	}
}
