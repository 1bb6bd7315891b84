package ai

import (
	"context"
	"fmt"
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/errs"
	"insight-stack/shared/usage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxConcurrent  = 5
	DefaultMaxQuoteLength = 200
)

// Options tune one analysis batch.
type Options struct {
	Instructions   string
	MaxQuoteLength int
	MaxConcurrent  int
}

// VideoResult is the outcome for one video. Err is set when the model call
// failed or its response could not be parsed.
type VideoResult struct {
	VideoID          string
	Items            []models.AnalysisItem
	Shape            Shape
	PromptTokens     int64
	CompletionTokens int64
	CostUSD          float64
	Err              error
}

// BatchResult aggregates a batch of video analyses.
type BatchResult struct {
	Items              []models.AnalysisItem
	Videos             []VideoResult
	Successful         int
	Failed             int
	Errors             []string
	PromptTokens       int64
	CompletionTokens   int64
	CostUSD            float64
	Model              string
	ProcessingDuration time.Duration
}

func (b BatchResult) TotalTokens() int64 {
	return b.PromptTokens + b.CompletionTokens
}

// Analyzer extracts quotes from videos and their comments with a language
// model.
type Analyzer struct {
	completer Completer
	rates     usage.RateTable
	tracker   *usage.Tracker
	logger    *zap.Logger
}

func NewAnalyzer(completer Completer, rates usage.RateTable, tracker *usage.Tracker, logger *zap.Logger) *Analyzer {
	if tracker == nil {
		tracker = usage.NewTracker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		completer: completer,
		rates:     rates,
		tracker:   tracker,
		logger:    logger,
	}
}

func (a *Analyzer) Model() string { return a.completer.Model() }

func (a *Analyzer) Tracker() *usage.Tracker { return a.tracker }

// AnalyzeVideo runs one model call for vc. Quotes that cannot be enriched
// are skipped. A response matching no known shape yields zero items and
// still counts as a successful analysis; only a failed model call sets Err.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, vc models.VideoWithComments, opts Options) VideoResult {
	opts = opts.withDefaults()
	res := VideoResult{VideoID: vc.Video.ID}
	logger := a.logger.With(zap.String("video_id", vc.Video.ID))

	prompt := BuildPrompt(vc, opts.Instructions, opts.MaxQuoteLength)
	completion, err := a.completer.Complete(ctx, prompt)

	res.PromptTokens = completion.PromptTokens
	res.CompletionTokens = completion.CompletionTokens
	res.CostUSD = a.rates.Cost(a.Model(), completion.PromptTokens, completion.CompletionTokens)
	a.tracker.AddCompletion(completion.PromptTokens, completion.CompletionTokens, res.CostUSD)

	if err != nil {
		res.Err = errs.Analysis(fmt.Sprintf("model call failed for video %s", vc.Video.ID), a.Model(), vc.Video.ID, err)
		a.tracker.AddAnalysis(false)
		logger.Warn("video analysis failed", zap.Error(err))
		return res
	}

	parsed := ParseResponse(completion.Text)
	res.Shape = parsed.Shape
	if parsed.Shape == ParseFailed {
		a.tracker.AddAnalysis(true)
		logger.Warn("model response did not parse, no quotes extracted", zap.Error(parsed.Err))
		return res
	}

	for i, raw := range parsed.Items {
		er, err := enrich(raw, vc, opts.MaxQuoteLength)
		if err != nil {
			logger.Debug("skipping quote", zap.Int("position", i), zap.Error(err))
			continue
		}
		if er.IndexNotFound {
			logger.Warn("comment index out of range, using unknown author", zap.Int("position", i), zap.Int("comments", len(vc.Comments)))
		}
		res.Items = append(res.Items, er.Item)
	}

	a.tracker.AddAnalysis(true)
	logger.Debug("video analyzed",
		zap.String("shape", parsed.Shape.String()),
		zap.Int("quotes", len(res.Items)),
		zap.Int64("prompt_tokens", res.PromptTokens),
		zap.Int64("completion_tokens", res.CompletionTokens))
	return res
}

// AnalyzeBatch analyzes every video with at most opts.MaxConcurrent model
// calls in flight. A failing video never stops the others; its error is
// recorded in the result. Items keep the input video order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, videos []models.VideoWithComments, opts Options) BatchResult {
	opts = opts.withDefaults()
	start := time.Now()
	results := make([]VideoResult, len(videos))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrent)
	for i, vc := range videos {
		g.Go(func() error {
			results[i] = a.AnalyzeVideo(gCtx, vc, opts)
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{
		Videos: results,
		Model:  a.Model(),
	}
	for _, r := range results {
		batch.PromptTokens += r.PromptTokens
		batch.CompletionTokens += r.CompletionTokens
		batch.CostUSD += r.CostUSD
		if r.Err != nil {
			batch.Failed++
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", r.VideoID, r.Err))
			continue
		}
		batch.Successful++
		batch.Items = append(batch.Items, r.Items...)
	}
	batch.ProcessingDuration = time.Since(start)

	a.logger.Info("analysis batch complete",
		zap.Int("videos", len(videos)),
		zap.Int("successful", batch.Successful),
		zap.Int("failed", batch.Failed),
		zap.Int("insights", len(batch.Items)),
		zap.Int64("total_tokens", batch.TotalTokens()),
		zap.Float64("cost_usd", batch.CostUSD),
		zap.Duration("duration", batch.ProcessingDuration))
	return batch
}

func (o Options) withDefaults() Options {
	if o.MaxQuoteLength <= 0 {
		o.MaxQuoteLength = DefaultMaxQuoteLength
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	return o
}
