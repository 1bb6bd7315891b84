package youtubeinsights

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"insight-stack/agents/youtube-insights/youtube"
	"insight-stack/internal/models"
	"insight-stack/shared/ai"
	"insight-stack/shared/config"
	"insight-stack/shared/dates"
	"insight-stack/shared/errs"
	"insight-stack/shared/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLanguage            = "en"
	DefaultRegion              = "US"
	DefaultPrompt              = "Analyze sentiment, themes, and purchase intent"
	DefaultMaxCommentsPerVideo = 50
	MinCommentsPerVideo        = 10

	reasonNoVideos      = "No videos found for the search query"
	reasonNoCleanVideos = "No valid videos after data cleaning"
)

// Request is one search analysis. Zero values take their defaults.
type Request struct {
	Query               string `json:"query"`
	MaxVideos           int    `json:"max_videos"`
	MaxCommentsPerVideo int    `json:"max_comments_per_video"`
	Language            string `json:"language"`
	Region              string `json:"region"`
	AIAnalysisPrompt    string `json:"ai_analysis_prompt"`
	MaxQuoteLength      int    `json:"max_quote_length"`
	StartDate           string `json:"start_date,omitempty"`
	EndDate             string `json:"end_date,omitempty"`
	// ParallelCollection overrides limits.parallel_collection when set.
	ParallelCollection *bool `json:"parallel_collection,omitempty"`
}

func (r *Request) ApplyDefaults(limits config.LimitsConfig) {
	r.Query = strings.TrimSpace(r.Query)
	if r.MaxVideos == 0 {
		r.MaxVideos = limits.DefaultVideosPerRequest
	}
	if r.MaxCommentsPerVideo == 0 {
		r.MaxCommentsPerVideo = min(DefaultMaxCommentsPerVideo, limits.MaxCommentsPerVideo)
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Region == "" {
		r.Region = DefaultRegion
	}
	if strings.TrimSpace(r.AIAnalysisPrompt) == "" {
		r.AIAnalysisPrompt = DefaultPrompt
	}
	if r.MaxQuoteLength == 0 {
		r.MaxQuoteLength = ai.DefaultMaxQuoteLength
	}
}

// Validate checks r against the configured limits. Call ApplyDefaults first.
func (r Request) Validate(limits config.LimitsConfig) error {
	if r.Query == "" {
		return errs.Validation("query", r.Query, "Search query cannot be empty")
	}
	if n := utf8.RuneCountInString(r.Query); n > 200 {
		return errs.Validation("query", r.Query, "query must be at most 200 characters")
	}
	if r.MaxVideos < 1 || r.MaxVideos > limits.MaxVideosPerRequest {
		return errs.Validation("max_videos", r.MaxVideos, fmt.Sprintf("max_videos must be between 1 and %d", limits.MaxVideosPerRequest))
	}
	if r.MaxCommentsPerVideo < MinCommentsPerVideo || r.MaxCommentsPerVideo > limits.MaxCommentsPerVideo {
		return errs.Validation("max_comments_per_video", r.MaxCommentsPerVideo,
			fmt.Sprintf("max_comments_per_video must be between %d and %d", MinCommentsPerVideo, limits.MaxCommentsPerVideo))
	}
	if n := len(r.Language); n < 2 || n > 5 {
		return errs.Validation("language", r.Language, "language must be 2 to 5 characters")
	}
	if n := len(r.Region); n < 2 || n > 5 {
		return errs.Validation("region", r.Region, "region must be 2 to 5 characters")
	}
	if n := utf8.RuneCountInString(r.AIAnalysisPrompt); n < 10 || n > 500 {
		return errs.Validation("ai_analysis_prompt", r.AIAnalysisPrompt, "ai_analysis_prompt must be 10 to 500 characters")
	}
	if r.MaxQuoteLength < 50 || r.MaxQuoteLength > 500 {
		return errs.Validation("max_quote_length", r.MaxQuoteLength, "max_quote_length must be between 50 and 500")
	}
	if (r.StartDate == "") != (r.EndDate == "") {
		return errs.Validation("start_date", r.StartDate, "start_date and end_date must be provided together")
	}
	return nil
}

// Pipeline runs search, clean, comment collection, analysis and response
// building for one request at a time. A Pipeline is safe for concurrent use.
type Pipeline struct {
	client        *youtube.Client
	cleaner       *youtube.Cleaner
	collector     *Collector
	dateFilter    *DateFilter
	analyzer      *ai.Analyzer
	builder       *report.Builder
	dates         *dates.Parser
	limits        config.LimitsConfig
	maxConcurrent int
	logger        *zap.Logger
	now           func() time.Time
}

func NewPipeline(client *youtube.Client, analyzer *ai.Analyzer, limits config.LimitsConfig, maxConcurrent int, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		client:        client,
		cleaner:       youtube.NewCleaner(logger),
		collector:     NewCollector(client, logger),
		dateFilter:    NewDateFilter(logger),
		analyzer:      analyzer,
		builder:       report.NewBuilder(logger),
		dates:         dates.NewParser(logger),
		limits:        limits,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		now:           time.Now,
	}
}

func (p *Pipeline) Model() string { return p.analyzer.Model() }

func (p *Pipeline) Limits() config.LimitsConfig { return p.limits }

// dateWindow is the resolved request date range.
type dateWindow struct {
	start, end time.Time
}

// Run executes the pipeline. Validation failures return before any upstream
// call. Classified failures keep their kind; anything else is reported as an
// analysis failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (resp models.Response, err error) {
	req.ApplyDefaults(p.limits)
	if err := req.Validate(p.limits); err != nil {
		return models.Response{}, err
	}
	window, err := p.resolveWindow(req)
	if err != nil {
		return models.Response{}, err
	}

	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("query", req.Query))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = errs.Analysis(fmt.Sprintf("Analysis pipeline failed: %v", r), p.Model(), "", nil)
		}
		if err != nil {
			err = classify(err, p.Model())
			logger.Error("pipeline failed", zap.String("kind", string(errs.KindOf(err))), zap.Error(err))
		}
	}()

	logger.Info("starting search analysis",
		zap.Int("max_videos", req.MaxVideos),
		zap.Int("max_comments_per_video", req.MaxCommentsPerVideo),
		zap.String("language", req.Language),
		zap.String("region", req.Region))

	run := &pipelineRun{start: p.now(), details: &models.PipelineDetails{
		SearchQuery: req.Query,
		Language:    req.Language,
		Region:      req.Region,
	}}
	run.details.PipelineStages = &run.timings

	// Stage 1: search.
	stage := time.Now()
	found, err := p.client.SearchBatch(ctx, req.Query, req.Language, req.Region, req.MaxVideos)
	run.searchCalls = found.Calls
	if err != nil {
		if _, ok := errs.As(err); !ok {
			err = errs.Collection("/search/", 0, fmt.Sprintf("Failed to search videos: %v", err), err)
		}
		return models.Response{}, err
	}
	run.timings.Search = elapsed(stage)
	run.details.VideosFound = len(found.Items)
	logger.Info("stage 1 complete", zap.Int("videos", len(found.Items)), zap.Float64("seconds", run.timings.Search))
	if len(found.Items) == 0 {
		return p.empty(runID, run, reasonNoVideos), nil
	}

	// Stage 2: clean videos.
	stage = time.Now()
	videos, _ := p.cleaner.CleanVideos(found.Items)
	run.timings.Clean = elapsed(stage)
	run.details.VideosCleaned = len(videos)
	logger.Info("stage 2 complete", zap.Int("videos", len(videos)), zap.Float64("seconds", run.timings.Clean))
	if len(videos) == 0 {
		return p.empty(runID, run, reasonNoCleanVideos), nil
	}

	// Stage 3: collect, clean and optionally date-filter comments.
	stage = time.Now()
	var col Collection
	if p.parallel(req) {
		col, err = p.collector.CollectParallel(ctx, videos, req.MaxCommentsPerVideo, req.Language, req.Region, DefaultParallelCollection)
	} else {
		col, err = p.collector.Collect(ctx, videos, req.MaxCommentsPerVideo, req.Language, req.Region)
	}
	if err != nil {
		return models.Response{}, err
	}
	run.commentCalls = col.Stats.APICallsMade

	paired := make([]models.VideoWithComments, len(videos))
	for i, v := range videos {
		comments, _ := p.cleaner.CleanComments(col.Comments[i])
		paired[i] = models.VideoWithComments{Video: v, Comments: comments}
	}
	if window != nil {
		filtered, stats := p.dateFilter.Filter(paired, window.start, window.end, p.now().In(window.start.Location()))
		paired = filtered
		run.details.DateFilter = &stats
	}

	var commentsFound int
	for _, vc := range paired {
		commentsFound += len(vc.Comments)
	}
	run.details.TotalCommentsCollected = col.Stats.TotalCommentsCollected
	run.details.VideosWithComments = col.Stats.VideosWithComments
	run.details.VideosWithoutComments = col.Stats.VideosWithoutComments
	run.details.CommentCollectionErrors = len(col.Stats.Errors)
	run.timings.Comments = elapsed(stage)
	logger.Info("stage 3 complete",
		zap.Int("comments", commentsFound),
		zap.Int("collection_errors", len(col.Stats.Errors)),
		zap.Float64("seconds", run.timings.Comments))

	// Stage 4: analysis.
	stage = time.Now()
	batch := p.analyzer.AnalyzeBatch(ctx, paired, ai.Options{
		Instructions:   req.AIAnalysisPrompt,
		MaxQuoteLength: req.MaxQuoteLength,
		MaxConcurrent:  p.maxConcurrent,
	})
	run.timings.Analysis = elapsed(stage)
	run.details.FailedVideoAnalyses = batch.Failed
	run.details.AnalysisErrors = batch.Errors
	logger.Info("stage 4 complete",
		zap.Int("insights", len(batch.Items)),
		zap.Int("failed_videos", batch.Failed),
		zap.Float64("seconds", run.timings.Analysis))

	// Stage 5: build the response.
	stage = time.Now()
	resp = p.builder.Build(batch.Items, report.Run{
		ID:             runID,
		VideosAnalyzed: len(videos),
		CommentsFound:  commentsFound,
		ProcessingTime: p.now().Sub(run.start),
		Model:          batch.Model,
		YouTubeUsage:   p.youtubeUsage(run),
		AIUsage: models.AIUsage{
			TotalTokens:        batch.TotalTokens(),
			PromptTokens:       batch.PromptTokens,
			CompletionTokens:   batch.CompletionTokens,
			TotalCostUSD:       roundTo(batch.CostUSD, 6),
			Model:              batch.Model,
			SuccessfulAnalyses: batch.Successful,
			FailedAnalyses:     batch.Failed,
		},
		Details: run.details,
	})
	run.timings.Build = elapsed(stage)

	logger.Info("analysis pipeline complete",
		zap.Int("insights", len(batch.Items)),
		zap.Int("videos", len(videos)),
		zap.Duration("total", p.now().Sub(run.start)))
	return resp, nil
}

// pipelineRun is the state of one Run; it never outlives the call.
type pipelineRun struct {
	start        time.Time
	searchCalls  int
	commentCalls int
	timings      models.StageTimings
	details      *models.PipelineDetails
}

func (p *Pipeline) resolveWindow(req Request) (*dateWindow, error) {
	if req.StartDate == "" {
		return nil, nil
	}
	tz := p.dates.RegionTimezone(req.Region)
	start, end, err := dates.ValidateRange(req.StartDate, req.EndDate, tz)
	if err != nil {
		return nil, errs.Validation("date_range", req.StartDate+".."+req.EndDate, err.Error())
	}
	return &dateWindow{start: start, end: end}, nil
}

func (p *Pipeline) parallel(req Request) bool {
	if req.ParallelCollection != nil {
		return *req.ParallelCollection
	}
	return p.limits.ParallelCollection
}

func (p *Pipeline) youtubeUsage(run *pipelineRun) models.YouTubeAPIUsage {
	return models.YouTubeAPIUsage{
		TotalAPICalls:       int64(run.searchCalls + run.commentCalls),
		SearchCalls:         int64(run.searchCalls),
		CommentCalls:        int64(run.commentCalls),
		RequestDelaySeconds: p.client.RequestDelay().Seconds(),
		TimeoutSeconds:      p.client.Timeout().Seconds(),
	}
}

func (p *Pipeline) empty(runID string, run *pipelineRun, reason string) models.Response {
	model := p.Model()
	return p.builder.Empty(report.Run{
		ID:             runID,
		ProcessingTime: p.now().Sub(run.start),
		Model:          model,
		YouTubeUsage:   p.youtubeUsage(run),
		AIUsage:        models.AIUsage{Model: model},
		Details:        run.details,
	}, reason)
}

// classify keeps classified failures and reports anything else as an
// analysis failure.
func classify(err error, model string) error {
	if _, ok := errs.As(err); ok {
		return err
	}
	return errs.Analysis(fmt.Sprintf("Analysis pipeline failed: %v", err), model, "", err)
}

func elapsed(since time.Time) float64 {
	return roundTo(time.Since(since).Seconds(), 2)
}
