package report

import (
	"slices"
	"sort"

	"insight-stack/internal/models"
	"insight-stack/shared/errs"
)

const (
	keyFindingLimit  = 5
	keyFindingLength = 150
)

type KeyFinding struct {
	Quote          string  `json:"quote"`
	Theme          string  `json:"theme"`
	Sentiment      string  `json:"sentiment"`
	PurchaseIntent string  `json:"purchase_intent"`
	Confidence     float64 `json:"confidence"`
}

// Summary is a high-level digest of a set of insights.
type Summary struct {
	TotalInsights         int          `json:"total_insights"`
	OverallSentiment      string       `json:"overall_sentiment"`
	OverallPurchaseIntent string       `json:"overall_purchase_intent"`
	AverageConfidence     float64      `json:"average_confidence"`
	KeyFindings           []KeyFinding `json:"key_findings"`
}

// Summarize picks the sentiment and purchase intent carrying the most
// confidence and lists the five most confident quotes.
func Summarize(items []models.AnalysisItem) Summary {
	if len(items) == 0 {
		return Summary{
			OverallSentiment:      models.SentimentNeutral,
			OverallPurchaseIntent: models.IntentNone,
			KeyFindings:           []KeyFinding{},
		}
	}

	sentiments := []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral}
	intents := []string{models.IntentHigh, models.IntentMedium, models.IntentLow, models.IntentNone}
	sentimentWeight := map[string]float64{}
	intentWeight := map[string]float64{}
	var total float64
	for _, it := range items {
		sentimentWeight[it.Sentiment] += it.ConfidenceScore
		intentWeight[it.PurchaseIntent] += it.ConfidenceScore
		total += it.ConfidenceScore
	}

	ranked := slices.Clone(items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ConfidenceScore > ranked[j].ConfidenceScore
	})
	if len(ranked) > keyFindingLimit {
		ranked = ranked[:keyFindingLimit]
	}
	findings := make([]KeyFinding, 0, len(ranked))
	for _, it := range ranked {
		findings = append(findings, KeyFinding{
			Quote:          ellipsize(it.Quote, keyFindingLength),
			Theme:          it.Theme,
			Sentiment:      it.Sentiment,
			PurchaseIntent: it.PurchaseIntent,
			Confidence:     it.ConfidenceScore,
		})
	}

	return Summary{
		TotalInsights:         len(items),
		OverallSentiment:      heaviest(sentiments, sentimentWeight),
		OverallPurchaseIntent: heaviest(intents, intentWeight),
		AverageConfidence:     round(total/float64(len(items)), 3),
		KeyFindings:           findings,
	}
}

// heaviest returns the first key with the largest weight.
func heaviest(keys []string, weight map[string]float64) string {
	best := keys[0]
	for _, k := range keys[1:] {
		if weight[k] > weight[best] {
			best = k
		}
	}
	return best
}

// Criteria selects items. Empty lists and a nil MinConfidence match
// everything.
type Criteria struct {
	MinConfidence   *float64
	Sentiments      []string
	PurchaseIntents []string
	Themes          []string
	SourceTypes     []string
}

// Filter returns a new slice with the items matching c.
func Filter(items []models.AnalysisItem, c Criteria) []models.AnalysisItem {
	out := make([]models.AnalysisItem, 0, len(items))
	for _, it := range items {
		if c.MinConfidence != nil && it.ConfidenceScore < *c.MinConfidence {
			continue
		}
		if !allowed(c.Sentiments, it.Sentiment) ||
			!allowed(c.PurchaseIntents, it.PurchaseIntent) ||
			!allowed(c.Themes, it.Theme) ||
			!allowed(c.SourceTypes, it.SourceType) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func allowed(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

// GroupByVideo skips items without a video id.
func GroupByVideo(items []models.AnalysisItem) map[string][]models.AnalysisItem {
	grouped := map[string][]models.AnalysisItem{}
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		grouped[it.VideoID] = append(grouped[it.VideoID], it)
	}
	return grouped
}

func GroupByTheme(items []models.AnalysisItem) map[string][]models.AnalysisItem {
	grouped := map[string][]models.AnalysisItem{}
	for _, it := range items {
		theme := it.Theme
		if theme == "" {
			theme = "general"
		}
		grouped[theme] = append(grouped[theme], it)
	}
	return grouped
}

// ErrorResponse renders any error as a client-facing body. Unclassified
// errors are reported as internal failures.
func ErrorResponse(err error) errs.Body {
	if e, ok := errs.As(err); ok {
		return e.Body()
	}
	return errs.Internal(err).Body()
}
