package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/spreadsheet"
)

// dateLayouts are tried in order; month-first wins for ambiguous numeric dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"1-2-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"02.01.2006",
}

var truthyTokens = map[string]struct{}{
	"t": {}, "true": {}, "1": {}, "yes": {}, "y": {},
}

// textOf renders a cell as trimmed text; absent cells report false.
func textOf(v domain.Value) (string, bool) {
	if v.IsAbsent() {
		return "", false
	}
	switch v.Kind() {
	case domain.KindString:
		return strings.TrimSpace(v.Str()), true
	case domain.KindNumber:
		return formatNumber(v.Num()), true
	case domain.KindTime:
		return v.Time().Format("2006-01-02"), true
	}
	return "", false
}

func optionalText(v domain.Value) *string {
	s, ok := textOf(v)
	if !ok {
		return nil
	}
	return &s
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// idOf renders an identifier, dropping a zero fraction left by numeric cells ("5504763.0").
func idOf(v domain.Value) (string, bool) {
	s, ok := textOf(v)
	if !ok {
		return "", false
	}
	return trimZeroFraction(s), true
}

func trimZeroFraction(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return s
	}
	for _, r := range s[:dot] {
		if r < '0' || r > '9' {
			return s
		}
	}
	for _, r := range s[dot+1:] {
		if r != '0' {
			return s
		}
	}
	return s[:dot]
}

// dateOf parses a cell as a calendar date. Unparseable input yields nil.
func dateOf(v domain.Value) *time.Time {
	if v.IsAbsent() {
		return nil
	}
	var t time.Time
	var ok bool
	switch v.Kind() {
	case domain.KindTime:
		t, ok = v.Time(), true
	case domain.KindNumber:
		t, ok = spreadsheet.SerialDate(v.Num())
	case domain.KindString:
		t, ok = parseDateField(v.Str())
	}
	if !ok {
		return nil
	}
	d := dateOnlyUTC(t)
	return &d
}

func parseDateField(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return spreadsheet.SerialDate(f)
	}
	return time.Time{}, false
}

func dateOnlyUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truthy(v domain.Value) bool {
	s, ok := textOf(v)
	if !ok {
		return false
	}
	_, yes := truthyTokens[strings.ToLower(s)]
	return yes
}
