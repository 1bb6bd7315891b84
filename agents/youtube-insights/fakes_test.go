package youtubeinsights

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"insight-stack/internal/models"
	"insight-stack/shared/ai"
)

// fakeSource serves canned search and comment pages.
type fakeSource struct {
	mu          sync.Mutex
	videos      []models.RawSearchItem
	comments    map[string][]models.RawComment
	commentErrs map[string]error
	searchErr   error

	searchCalls  atomic.Int32
	commentCalls atomic.Int32
}

func (f *fakeSource) Search(ctx context.Context, query, lang, region, cursor string) (*models.SearchPage, error) {
	f.searchCalls.Add(1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &models.SearchPage{Items: f.videos, EstimatedTotal: models.FlexInt(len(f.videos))}, nil
}

func (f *fakeSource) Comments(ctx context.Context, videoID, lang, region, cursor string) (*models.CommentPage, error) {
	f.commentCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.commentErrs[videoID]; err != nil {
		return nil, err
	}
	items := f.comments[videoID]
	return &models.CommentPage{Items: items, TotalCount: models.FlexInt(len(items))}, nil
}

func rawVideo(id string) models.RawSearchItem {
	secs := 300
	return models.RawSearchItem{
		Type: "video",
		Video: &models.RawVideo{
			VideoID:           id,
			Title:             "Video " + id,
			LengthSeconds:     &secs,
			PublishedTimeText: "1 month ago",
			Author:            &models.RawAuthor{ChannelID: "UC" + id, Title: "Channel " + id},
			Stats:             models.RawVideoStats{Views: 1000},
		},
	}
}

func rawComment(id, text, published string) models.RawComment {
	return models.RawComment{
		CommentID:         id,
		Content:           text,
		PublishedTimeText: published,
		Author:            models.RawAuthor{ChannelID: "UC-" + id, Title: "@" + id},
		Stats:             models.RawCommentStats{Votes: 3, Replies: 1},
	}
}

// stubCompleter answers with one comment quote per video and can fail
// chosen videos by title or give them a canned reply.
type stubCompleter struct {
	fail    map[string]bool
	replies map[string]string
	calls   atomic.Int32
}

func (s *stubCompleter) Model() string { return "stub-model" }

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (ai.Completion, error) {
	s.calls.Add(1)
	for title := range s.fail {
		if strings.Contains(prompt, "- Title: "+title+"\n") {
			return ai.Completion{PromptTokens: 10}, fmt.Errorf("model unavailable")
		}
	}
	for title, reply := range s.replies {
		if strings.Contains(prompt, "- Title: "+title+"\n") {
			return ai.Completion{Text: reply, PromptTokens: 1000, CompletionTokens: 100}, nil
		}
	}
	reply := `[{"quote":"worth it","sentiment":"positive","theme":"value","purchase_intent":"high","confidence_score":0.9,"source_type":"comment","comment_index":1},
	           {"quote":"title quote","sentiment":"neutral","theme":"value","purchase_intent":"none","confidence_score":0.5,"source_type":"video_title"}]`
	return ai.Completion{Text: reply, PromptTokens: 1000, CompletionTokens: 100}, nil
}
