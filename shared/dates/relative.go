// Package dates converts the relative publish times shown by YouTube
// ("3 weeks ago") into absolute instants and validates calendar date ranges.
package dates

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type unit int

const (
	unitSecond unit = iota
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

type relativePattern struct {
	re   *regexp.Regexp
	unit unit
	// one is set for the "a day ago" phrasings that carry no number.
	one bool
}

// Tried in order, first match wins. Matching is a search, so surrounding
// text such as "Streamed 2 days ago" is accepted.
var relativePatterns = []relativePattern{
	{re: regexp.MustCompile(`(\d+)\s*seconds?\s*ago`), unit: unitSecond},
	{re: regexp.MustCompile(`(\d+)\s*minutes?\s*ago`), unit: unitMinute},
	{re: regexp.MustCompile(`a\s*minute\s*ago`), unit: unitMinute, one: true},
	{re: regexp.MustCompile(`(\d+)\s*hours?\s*ago`), unit: unitHour},
	{re: regexp.MustCompile(`an?\s*hour\s*ago`), unit: unitHour, one: true},
	{re: regexp.MustCompile(`(\d+)\s*days?\s*ago`), unit: unitDay},
	{re: regexp.MustCompile(`a\s*day\s*ago`), unit: unitDay, one: true},
	{re: regexp.MustCompile(`(\d+)\s*weeks?\s*ago`), unit: unitWeek},
	{re: regexp.MustCompile(`a\s*week\s*ago`), unit: unitWeek, one: true},
	{re: regexp.MustCompile(`(\d+)\s*months?\s*ago`), unit: unitMonth},
	{re: regexp.MustCompile(`a\s*month\s*ago`), unit: unitMonth, one: true},
	{re: regexp.MustCompile(`(\d+)\s*years?\s*ago`), unit: unitYear},
	{re: regexp.MustCompile(`a\s*year\s*ago`), unit: unitYear, one: true},
}

// ParseRelative resolves s against ref. It reports false when s is empty or
// does not follow the relative-time grammar. The result is in ref's location.
func ParseRelative(s string, ref time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return time.Time{}, false
	}
	if text == "just now" || text == "now" {
		return ref, true
	}

	for _, p := range relativePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n := 1
		if !p.one {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return time.Time{}, false
			}
			n = v
		}
		return subtract(ref, n, p.unit)
	}
	return time.Time{}, false
}

// maxYearsAgo bounds calendar arithmetic so that unit multiplications and
// the resulting year stay far inside the range time.Time can represent.
const maxYearsAgo = 100_000

func subtract(ref time.Time, n int, u unit) (time.Time, bool) {
	switch u {
	case unitSecond:
		return subDuration(ref, n, time.Second)
	case unitMinute:
		return subDuration(ref, n, time.Minute)
	case unitHour:
		return subDuration(ref, n, time.Hour)
	case unitDay:
		if n > maxYearsAgo*366 {
			return time.Time{}, false
		}
		return ref.AddDate(0, 0, -n), true
	case unitWeek:
		if n > maxYearsAgo*53 {
			return time.Time{}, false
		}
		return ref.AddDate(0, 0, -7*n), true
	case unitMonth:
		if n > maxYearsAgo*12 {
			return time.Time{}, false
		}
		return SubMonths(ref, n), true
	case unitYear:
		if n > maxYearsAgo {
			return time.Time{}, false
		}
		return SubMonths(ref, 12*n), true
	}
	return time.Time{}, false
}

func subDuration(ref time.Time, n int, d time.Duration) (time.Time, bool) {
	if int64(n) > math.MaxInt64/int64(d) {
		return time.Time{}, false
	}
	return ref.Add(-time.Duration(n) * d), true
}

// SubMonths moves t back by n calendar months. The day of month is kept when
// it exists in the target month and clamped to the month's last day
// otherwise, so March 31 minus one month is February 28 (or 29).
func SubMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 - n
	year += floorDiv(total, 12)
	m := time.Month(total-floorDiv(total, 12)*12 + 1)

	if last := daysIn(year, m, t.Location()); day > last {
		day = last
	}
	return time.Date(year, m, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func daysIn(year int, m time.Month, loc *time.Location) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// Parser wraps ParseRelative and logs every string it cannot resolve.
type Parser struct {
	logger *zap.Logger
}

func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

func (p *Parser) Parse(s string, ref time.Time) (time.Time, bool) {
	t, ok := ParseRelative(s, ref)
	if !ok {
		if strings.TrimSpace(s) == "" {
			p.logger.Debug("empty relative date")
		} else {
			p.logger.Warn("could not parse relative date", zap.String("value", s))
		}
	}
	return t, ok
}
