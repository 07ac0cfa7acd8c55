// Package valueparse converts raw spreadsheet cell text into numbers and timestamps.
package valueparse

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// ParseNumber parses a cell as a float. It accepts thousands separators,
// a leading currency symbol, a trailing percent sign and accounting-style
// negatives such as "(1,200.50)".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	for _, sym := range []string{"$", "€", "£", "¥"} {
		s = strings.TrimPrefix(s, sym)
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	// ParseFloat accepts "NaN" and "Inf", which are not data.
	if v != v || v > 1e308 || v < -1e308 {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// TimeLayouts are the layouts ParseTime tries, in order.
var TimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan-2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

// ParseTime parses a cell as a timestamp using TimeLayouts. Bare numbers,
// including four-digit years, are not treated as times.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Time{}, false
	}
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseYear parses a four-digit year between 1800 and 2200 as January 1st of that year.
func ParseYear(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1800 || y > 2200 {
		return time.Time{}, false
	}
	return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
}

var timeHints = []string{"date", "time", "year", "month", "day", "week", "period", "timestamp"}

// LooksTemporal reports whether a column header suggests a time axis.
func LooksTemporal(header string) bool {
	h := strings.ToLower(header)
	for _, hint := range timeHints {
		if strings.Contains(h, hint) {
			return true
		}
	}
	return false
}

var delimiters = []byte{',', ';', '\t', '|'}

// SniffDelimiter picks the field separator that splits the first lines of
// data most consistently. It defaults to a comma.
func SniffDelimiter(data []byte) rune {
	lines := bytes.Split(data, []byte("\n"))
	if len(lines) > 10 {
		lines = lines[:10]
	}
	best, bestScore := byte(','), 0
	for _, d := range delimiters {
		first := -1
		consistent := true
		for _, line := range lines {
			line = bytes.TrimRight(line, "\r")
			if len(line) == 0 {
				continue
			}
			n := bytes.Count(line, []byte{d})
			if first == -1 {
				first = n
			} else if n != first {
				consistent = false
			}
		}
		score := first
		if !consistent {
			score = first / 2
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return rune(best)
}
