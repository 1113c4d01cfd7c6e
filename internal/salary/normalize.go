package salary

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// toHalfWidth folds full-width digits, letters and punctuation (０-９, ，, ：, ．)
// onto their ASCII forms.
func toHalfWidth(s string) string {
	return width.Narrow.String(s)
}

// ParseAmount turns a matched money string into integer yen.
// "1,234,567" -> 1234567, "１，２３４" -> 1234. A string without digits yields 0.
func ParseAmount(raw string) int64 {
	s := strings.NewReplacer("，", "", ",", "").Replace(raw)
	s = toHalfWidth(s)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseTimeValue converts "HH:MM" into fractional hours. Missing minutes count
// as zero; empty or non-numeric input yields 0.
func ParseTimeValue(raw string) float64 {
	s := strings.TrimSpace(toHalfWidth(raw))
	if s == "" {
		return 0
	}
	hh, mm, _ := strings.Cut(s, ":")
	hours, err := strconv.ParseInt(strings.TrimSpace(hh), 10, 64)
	if err != nil || hours < 0 {
		return 0
	}
	total := decimal.NewFromInt(hours)
	if mm = strings.TrimSpace(mm); mm != "" {
		minutes, err := strconv.ParseInt(mm, 10, 64)
		if err == nil && minutes >= 0 {
			total = total.Add(decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)))
		}
	}
	return total.Round(4).InexactFloat64()
}

// ParseDays parses a decimal day count such as "12.5" or "１２．５"; garbage yields 0.
func ParseDays(raw string) float64 {
	s := strings.TrimSpace(toHalfWidth(raw))
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}

// FormatDate renders a calendar date as YYYY-MM-DD. A zero day means the
// source only printed year and month; the first of the month is used.
// Out-of-range parts return "".
func FormatDate(year, month, day int) string {
	if day == 0 {
		day = 1
	}
	if year < 1900 || month < 1 || month > 12 || day < 1 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return ""
	}
	return t.Format(time.DateOnly)
}

func atoiWide(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(toHalfWidth(s)))
	if err != nil {
		return 0
	}
	return n
}
