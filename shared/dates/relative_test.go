package dates

import (
	"testing"
	"time"
)

var ref = time.Date(2024, time.March, 31, 15, 4, 5, 0, time.UTC)

func TestParseRelative(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"just now", ref},
		{"NOW", ref},
		{"5 seconds ago", ref.Add(-5 * time.Second)},
		{"1 second ago", ref.Add(-time.Second)},
		{"10 minutes ago", ref.Add(-10 * time.Minute)},
		{"a minute ago", ref.Add(-time.Minute)},
		{"3 hours ago", ref.Add(-3 * time.Hour)},
		{"an hour ago", ref.Add(-time.Hour)},
		{"a hour ago", ref.Add(-time.Hour)},
		{"3 days ago", ref.AddDate(0, 0, -3)},
		{"a day ago", ref.AddDate(0, 0, -1)},
		{"2 weeks ago", ref.AddDate(0, 0, -14)},
		{"a week ago", ref.AddDate(0, 0, -7)},
		{"1 month ago", time.Date(2024, time.February, 29, 15, 4, 5, 0, time.UTC)},
		{"a month ago", time.Date(2024, time.February, 29, 15, 4, 5, 0, time.UTC)},
		{"13 months ago", time.Date(2023, time.February, 28, 15, 4, 5, 0, time.UTC)},
		{"2 years ago", time.Date(2022, time.March, 31, 15, 4, 5, 0, time.UTC)},
		{"a year ago", time.Date(2023, time.March, 31, 15, 4, 5, 0, time.UTC)},
		{"  4 Days Ago  ", ref.AddDate(0, 0, -4)},
		{"Streamed 2 days ago", ref.AddDate(0, 0, -2)},
		{"1 year ago (edited)", time.Date(2023, time.March, 31, 15, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRelative(tt.input, ref)
			if !ok {
				t.Fatalf("ParseRelative(%q) failed", tt.input)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseRelative(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRelativeRejects(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"sometime in the past",
		"yesterday",
		"2024-01-01",
		"in 3 days",
		"99999999999999999999 days ago",
		"768614336404564651 years ago",
		"9223372036854775807 years ago",
		"1537228672809129302 months ago",
		"1317624576693539401 weeks ago",
		"100000000000000 days ago",
		"100001 years ago",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if got, ok := ParseRelative(input, ref); ok {
				t.Errorf("ParseRelative(%q) = %v, want failure", input, got)
			}
		})
	}
}

func TestParseRelativeLargeSpans(t *testing.T) {
	tests := []struct {
		input    string
		wantYear int
	}{
		{"100000 years ago", 2024 - 100000},
		{"1200000 months ago", 2024 - 100000},
		{"36500 days ago", 1924},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRelative(tt.input, ref)
			if !ok {
				t.Fatalf("ParseRelative(%q) failed", tt.input)
			}
			if got.Year() != tt.wantYear || !got.Before(ref) {
				t.Errorf("ParseRelative(%q) = %v, want year %d", tt.input, got, tt.wantYear)
			}
		})
	}
}

func TestParseRelativeKeepsLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	local := ref.In(tokyo)
	got, ok := ParseRelative("2 hours ago", local)
	if !ok {
		t.Fatal("parse failed")
	}
	if got.Location() != tokyo {
		t.Errorf("location = %v, want %v", got.Location(), tokyo)
	}
}

func TestSubMonths(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		n    int
		want time.Time
	}{
		{"keeps day", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)},
		{"clamps to leap february", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"clamps to thirty days", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		{"crosses year", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 2, time.Date(2023, 11, 10, 0, 0, 0, 0, time.UTC)},
		{"leap day minus a year", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 12, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"many years", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 120, time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubMonths(tt.from, tt.n); !got.Equal(tt.want) {
				t.Errorf("SubMonths(%v, %d) = %v, want %v", tt.from, tt.n, got, tt.want)
			}
		})
	}
}

func TestParserLogsFailures(t *testing.T) {
	p := NewParser(nil)
	if _, ok := p.Parse("not a date", ref); ok {
		t.Error("Parse accepted garbage")
	}
	if _, ok := p.Parse("2 days ago", ref); !ok {
		t.Error("Parse rejected valid input")
	}
}
