package ai

import (
	"fmt"
	"strings"

	"insight-stack/internal/models"

	"github.com/dustin/go-humanize"
)

const (
	maxPromptComments = 100
	descriptionLimit  = 300
)

// BuildPrompt renders the analysis prompt for one video. Comments keep the
// order they were collected in; only the first 100 are listed.
func BuildPrompt(vc models.VideoWithComments, instructions string, maxQuoteLength int) string {
	v := vc.Video

	var b strings.Builder
	b.WriteString("You are analyzing YouTube video content and comments for sentiment, themes, and purchase intent.\n\n")

	b.WriteString("VIDEO INFORMATION:\n")
	fmt.Fprintf(&b, "- Title: %s\n", v.Title)
	fmt.Fprintf(&b, "- Channel: %s\n", v.ChannelName)
	fmt.Fprintf(&b, "- Views: %s\n", humanize.Comma(v.ViewCount))
	fmt.Fprintf(&b, "- Duration: %s\n", v.DurationFormatted)
	fmt.Fprintf(&b, "- Published: %s\n", orUnknown(v.PublishedTime))
	fmt.Fprintf(&b, "- Is Live: %t\n", v.IsLive)
	fmt.Fprintf(&b, "- Description: %s\n\n", truncateRunes(orDefault(v.Description, "No description"), descriptionLimit))

	fmt.Fprintf(&b, "TOP COMMENTS (%d total):\n", len(vc.Comments))
	if len(vc.Comments) == 0 {
		b.WriteString("No comments available\n")
	}
	for i, c := range vc.Comments {
		if i == maxPromptComments {
			break
		}
		var markers string
		if c.IsChannelOwner {
			markers += " [Channel Owner]"
		}
		if c.HasCreatorHeart {
			markers += " ❤️"
		}
		if c.IsPinned {
			markers += " 📌"
		}
		fmt.Fprintf(&b, "%d. %s%s (%d likes, %d replies): %s\n", i+1, c.AuthorName, markers, c.LikeCount, c.ReplyCount, c.Text)
	}

	fmt.Fprintf(&b, "\nANALYSIS TASK:\n%s\n\n", instructions)

	fmt.Fprintf(&b, `INSTRUCTIONS:
1. Analyze the video title, description, and comments
2. Extract relevant quotes that demonstrate sentiment, themes, or purchase intent
3. For each quote, provide:
   - The exact quote (max %[1]d characters)
   - Sentiment: positive, negative, or neutral
   - Theme: main topic or category (e.g., "product quality", "price concerns", "features", "comparison")
   - Purchase intent: high, medium, low, or none
   - Confidence score: 0.0 to 1.0
   - Source type: "video_title", "video_description", or "comment"
   - Comment index (if from comment): the number from the comment list above
4. Focus on quotes that provide meaningful insights about the video topic
5. Prioritize comments with high engagement (likes, replies) when selecting quotes
6. Consider YouTube-specific context: view count, channel owner responses (marked [Channel Owner]),
   creator hearts (❤️), pinned comments (📌), and whether the video is live

Return your analysis as JSON: an array of quote objects with this exact structure
(an object wrapping the array under "analyses" is also accepted):
[
  {
    "quote": "exact quote text (max %[1]d chars)",
    "sentiment": "positive|negative|neutral",
    "theme": "theme name",
    "purchase_intent": "high|medium|low|none",
    "confidence_score": 0.85,
    "source_type": "video_title|video_description|comment",
    "comment_index": 1
  }
]

Return ONLY the JSON, no additional text.
`, maxQuoteLength)

	return b.String()
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
