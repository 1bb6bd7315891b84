// Package usage holds the process-wide usage counters shared by concurrent
// pipeline runs.
package usage

import (
	"math"
	"sync/atomic"
)

const nanosPerDollar = 1e9

// Tracker counts upstream calls and model usage. It is safe for concurrent
// use; one instance is owned by the process and injected into the upstream
// client and the analyzer.
type Tracker struct {
	searchCalls      atomic.Int64
	commentCalls     atomic.Int64
	otherCalls       atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
	costNanos        atomic.Int64
	analyses         atomic.Int64
	failedAnalyses   atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) AddSearchCall()  { t.searchCalls.Add(1) }
func (t *Tracker) AddCommentCall() { t.commentCalls.Add(1) }
func (t *Tracker) AddOtherCall()   { t.otherCalls.Add(1) }

// AddCompletion records one model call.
func (t *Tracker) AddCompletion(promptTokens, completionTokens int64, costUSD float64) {
	t.promptTokens.Add(promptTokens)
	t.completionTokens.Add(completionTokens)
	t.costNanos.Add(int64(math.Round(costUSD * nanosPerDollar)))
}

func (t *Tracker) AddAnalysis(ok bool) {
	if ok {
		t.analyses.Add(1)
		return
	}
	t.failedAnalyses.Add(1)
}

type Snapshot struct {
	SearchCalls        int64   `json:"search_calls"`
	CommentCalls       int64   `json:"comment_calls"`
	OtherCalls         int64   `json:"other_calls"`
	TotalAPICalls      int64   `json:"total_api_calls"`
	PromptTokens       int64   `json:"prompt_tokens"`
	CompletionTokens   int64   `json:"completion_tokens"`
	TotalTokens        int64   `json:"total_tokens"`
	TotalCostUSD       float64 `json:"total_cost_usd"`
	SuccessfulAnalyses int64   `json:"successful_analyses"`
	FailedAnalyses     int64   `json:"failed_analyses"`
}

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		SearchCalls:        t.searchCalls.Load(),
		CommentCalls:       t.commentCalls.Load(),
		OtherCalls:         t.otherCalls.Load(),
		PromptTokens:       t.promptTokens.Load(),
		CompletionTokens:   t.completionTokens.Load(),
		TotalCostUSD:       float64(t.costNanos.Load()) / nanosPerDollar,
		SuccessfulAnalyses: t.analyses.Load(),
		FailedAnalyses:     t.failedAnalyses.Load(),
	}
	s.TotalAPICalls = s.SearchCalls + s.CommentCalls + s.OtherCalls
	s.TotalTokens = s.PromptTokens + s.CompletionTokens
	return s
}

// Reset zeroes every counter.
func (t *Tracker) Reset() {
	t.searchCalls.Store(0)
	t.commentCalls.Store(0)
	t.otherCalls.Store(0)
	t.promptTokens.Store(0)
	t.completionTokens.Store(0)
	t.costNanos.Store(0)
	t.analyses.Store(0)
	t.failedAnalyses.Store(0)
}
