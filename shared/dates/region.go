package dates

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
)

// regionTimezones maps two-letter region codes to a representative IANA zone.
var regionTimezones = map[string]string{
	"US": "America/New_York",
	"CA": "America/Toronto",
	"MX": "America/Mexico_City",
	"BR": "America/Sao_Paulo",
	"AR": "America/Argentina/Buenos_Aires",
	"GB": "Europe/London",
	"UK": "Europe/London",
	"IE": "Europe/Dublin",
	"FR": "Europe/Paris",
	"DE": "Europe/Berlin",
	"ES": "Europe/Madrid",
	"IT": "Europe/Rome",
	"NL": "Europe/Amsterdam",
	"SE": "Europe/Stockholm",
	"PL": "Europe/Warsaw",
	"RU": "Europe/Moscow",
	"TR": "Europe/Istanbul",
	"IN": "Asia/Kolkata",
	"JP": "Asia/Tokyo",
	"KR": "Asia/Seoul",
	"CN": "Asia/Shanghai",
	"SG": "Asia/Singapore",
	"ID": "Asia/Jakarta",
	"AE": "Asia/Dubai",
	"AU": "Australia/Sydney",
	"NZ": "Pacific/Auckland",
	"ZA": "Africa/Johannesburg",
	"NG": "Africa/Lagos",
	"EG": "Africa/Cairo",
}

// TimezoneForRegion returns the zone name for region and whether the region
// is known. Unknown regions map to UTC.
func TimezoneForRegion(region string) (string, bool) {
	tz, ok := regionTimezones[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return "UTC", false
	}
	return tz, true
}

// RegionTimezone is TimezoneForRegion with a warning for unknown regions.
func (p *Parser) RegionTimezone(region string) string {
	tz, ok := TimezoneForRegion(region)
	if !ok {
		p.logger.Warn("unknown region, falling back to UTC", zap.String("region", region))
	}
	return tz
}

const isoDateLayout = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD date at midnight in the named zone.
func ParseISODate(s, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	t, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q, expected YYYY-MM-DD (e.g. 2024-11-19): %w", s, err)
	}
	return t, nil
}

// ValidateRange parses both dates and extends end to 23:59:59 so the whole
// end day is included. start after end is an error.
func ValidateRange(start, end, tz string) (time.Time, time.Time, error) {
	startAt, err := ParseISODate(start, tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endAt, err := ParseISODate(end, tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endAt = time.Date(endAt.Year(), endAt.Month(), endAt.Day(), 23, 59, 59, 0, endAt.Location())

	if startAt.After(endAt) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date range: start_date (%s) cannot be after end_date (%s)", start, end)
	}
	return startAt, endAt, nil
}
