package youtubeinsights

import (
	"time"

	"insight-stack/internal/models"
	"insight-stack/shared/dates"

	"go.uber.org/zap"
)

// DateFilter keeps the comments whose relative publish time falls inside a
// window.
type DateFilter struct {
	parser *dates.Parser
	logger *zap.Logger
}

func NewDateFilter(logger *zap.Logger) *DateFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DateFilter{parser: dates.NewParser(logger), logger: logger}
}

// Filter returns new video/comment pairs holding only the comments published
// within [start, end], both ends inclusive, with publish times resolved
// against ref. Comments whose time cannot be parsed are dropped and counted
// apart from those outside the window.
func (f *DateFilter) Filter(videos []models.VideoWithComments, start, end, ref time.Time) ([]models.VideoWithComments, models.DateFilterStats) {
	stats := models.DateFilterStats{
		VideosTotal: len(videos),
		DateRange: models.DateRange{
			Start:    start.Format("2006-01-02"),
			End:      end.Format("2006-01-02"),
			Timezone: start.Location().String(),
		},
	}

	out := make([]models.VideoWithComments, 0, len(videos))
	for _, vc := range videos {
		stats.TotalCommentsBefore += len(vc.Comments)

		kept := make([]models.Comment, 0, len(vc.Comments))
		for _, c := range vc.Comments {
			at, ok := f.parser.Parse(c.PublishedTime, ref)
			switch {
			case !ok:
				stats.CommentsUnparseable++
			case at.Before(start) || at.After(end):
				stats.CommentsFilteredOut++
				f.logger.Debug("comment outside date range",
					zap.String("comment_id", c.ID),
					zap.String("published_time", c.PublishedTime),
					zap.Time("resolved", at))
			default:
				kept = append(kept, c)
			}
		}

		stats.TotalCommentsAfter += len(kept)
		if len(kept) > 0 {
			stats.VideosWithComments++
		} else {
			stats.VideosWithoutComments++
		}
		out = append(out, models.VideoWithComments{Video: vc.Video, Comments: kept})
	}

	f.logger.Info("date filter complete",
		zap.String("start", stats.DateRange.Start),
		zap.String("end", stats.DateRange.End),
		zap.Int("before", stats.TotalCommentsBefore),
		zap.Int("after", stats.TotalCommentsAfter),
		zap.Int("filtered_out", stats.CommentsFilteredOut),
		zap.Int("unparseable", stats.CommentsUnparseable))
	if stats.CommentsUnparseable > 0 {
		f.logger.Warn("comments with unparseable dates were excluded", zap.Int("count", stats.CommentsUnparseable))
	}
	return out, stats
}
