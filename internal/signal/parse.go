package signal

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Accepted issue timestamp layouts, tried in order before the lenient fallback
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
	"2006/01/02",
}

// Offset-bearing layouts tried by the lenient parse on slash or dot separated dates
var offsetLayouts = []string{
	"2006-1-2T15:4:5Z07:00",
	"2006-1-2T15:4:5Z0700",
	"2006-1-2 15:4:5Z07:00",
	"2006-1-2 15:4:5Z0700",
	"2006-1-2 15:4Z07:00",
	"2006-1-2 15:4:5 Z07:00",
}

var emptyTokens = map[string]bool{
	"":     true,
	"-":    true,
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"无":    true,
}

// ParsePrice parses a positive price. The second return value is false when the
// value is absent or not parseable.
func ParsePrice(value string) (float64, bool) {
	cleaned := strings.TrimSpace(value)
	if emptyTokens[strings.ToLower(cleaned)] {
		return 0, false
	}
	cleaned = strings.NewReplacer(",", "", "$", "", "，", "", " ", "").Replace(cleaned)
	d, err := decimal.NewFromString(cleaned)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// ParseTime parses an issue timestamp in loc. The second return value is false
// when no accepted layout or lenient form matches.
func ParseTime(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	cleaned := strings.TrimSpace(value)
	if emptyTokens[strings.ToLower(cleaned)] {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t.UTC(), true
		}
	}
	return parseLenient(cleaned, loc)
}

// parseLenient handles epoch values and CJK or slash-heavy date strings
func parseLenient(value string, loc *time.Location) (time.Time, bool) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		switch {
		case len(value) == 13:
			return time.UnixMilli(n).UTC(), true
		case len(value) == 10:
			return time.Unix(n, 0).UTC(), true
		}
		return time.Time{}, false
	}

	// zone-aware forms keep their T separator and offset
	dashed := strings.Join(strings.Fields(strings.NewReplacer("/", "-", ".", "-").Replace(value)), " ")
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, dashed); err == nil {
			return t.UTC(), true
		}
	}

	normalized := strings.NewReplacer(
		"年", "-", "月", "-", "日", " ",
		"时", ":", "分", "",
		"/", "-", ".", "-", "T", " ", "Z", "",
	).Replace(value)
	normalized = strings.Join(strings.Fields(normalized), " ")
	normalized = strings.TrimSuffix(normalized, ":")

	for _, layout := range []string{"2006-1-2 15:4:5", "2006-1-2 15:4", "2006-1-2", "1-2-2006 15:4", "1-2-2006"} {
		if t, err := time.ParseInLocation(layout, normalized, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
