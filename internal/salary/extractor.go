package salary

import (
	"slices"
	"strings"
)

// Extract applies the rule table to flattened slip text. Fields that do not
// match are left nil; Extract never fails.
//
// Each rule is tried on a compacted copy of the text first (spaces that PDF
// backends insert between CJK glyphs removed), then on the text as given.
// Identity rules only look at the text as given, since they depend on spacing.
func Extract(text string) ExtractedSalaryData {
	var d ExtractedSalaryData
	passes := []string{compactText(text), text}

	matched := 0
	for _, r := range Rules {
		if d.Has(r.Field) {
			continue
		}
		candidates := passes
		if r.Kind == KindText || r.Kind == KindCode {
			candidates = passes[1:]
		}
		if applyRule(&d, r, candidates) {
			matched++
		}
	}

	if start, end, ok := extractPeriod(passes, val(d.PaymentDate)); ok {
		d.PeriodStart, d.PeriodEnd = &start, &end
		matched++
	}

	if matched == 0 {
		fallbackAmounts(&d, text)
	}
	return d
}

func applyRule(d *ExtractedSalaryData, r PatternRule, texts []string) bool {
	for _, t := range texts {
		for _, loc := range r.Pattern.FindAllStringSubmatchIndex(t, -1) {
			if r.NotAfter != "" && strings.HasSuffix(t[:loc[0]], r.NotAfter) {
				continue
			}
			if r.NotBefore != "" && strings.HasPrefix(strings.TrimLeft(t[loc[1]:], " \t　"), r.NotBefore) {
				continue
			}
			if assign(d, r, groups(t, loc)) {
				return true
			}
		}
	}
	return false
}

func groups(t string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = t[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

func assign(d *ExtractedSalaryData, r PatternRule, g []string) bool {
	if len(g) < 2 {
		return false
	}
	switch r.Kind {
	case KindAmount:
		*d.amount(r.Field) = ptr(ParseAmount(g[1]))
	case KindHours:
		*d.decimal(r.Field) = ptr(ParseTimeValue(g[1]))
	case KindDays:
		*d.decimal(r.Field) = ptr(ParseDays(g[1]))
	case KindText:
		s := strings.TrimSpace(g[1])
		if r.Field == FieldEmployeeName {
			s = strings.TrimSpace(strings.TrimRight(s, "様殿"))
		}
		if s == "" {
			return false
		}
		*d.text(r.Field) = &s
	case KindCode:
		s := strings.TrimSpace(toHalfWidth(g[1]))
		if s == "" {
			return false
		}
		*d.text(r.Field) = &s
	case KindDate:
		if len(g) < 4 {
			return false
		}
		s := FormatDate(atoiWide(g[1]), atoiWide(g[2]), atoiWide(g[3]))
		if s == "" {
			return false
		}
		*d.text(r.Field) = &s
	default:
		return false
	}
	return true
}

// extractPeriod resolves "M月D日〜M月D日" against the payment date: a period
// ending in a later month than the payment belongs to the previous year, and
// a start month after the end month wraps back one more year.
func extractPeriod(texts []string, paymentDate string) (string, string, bool) {
	for _, t := range texts {
		m := periodPattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		sy, sm, sd := atoiWide(m[1]), atoiWide(m[2]), atoiWide(m[3])
		ey, em, ed := atoiWide(m[4]), atoiWide(m[5]), atoiWide(m[6])

		switch {
		case ey != 0:
		case sy != 0:
			ey = sy
			if em < sm {
				ey++
			}
		default:
			payYear, payMonth, ok := yearMonth(paymentDate)
			if !ok {
				return "", "", false
			}
			ey = payYear
			if em > payMonth {
				ey--
			}
		}
		if sy == 0 {
			sy = ey
			if sm > em {
				sy--
			}
		}

		start, end := FormatDate(sy, sm, sd), FormatDate(ey, em, ed)
		if start == "" || end == "" || end < start {
			continue
		}
		return start, end, true
	}
	return "", "", false
}

func yearMonth(isoDate string) (int, int, bool) {
	if len(isoDate) < 7 {
		return 0, 0, false
	}
	y, m := atoiWide(isoDate[:4]), atoiWide(isoDate[5:7])
	return y, m, y > 0 && m > 0
}

// fallbackAmounts takes every "<n>円" in the text; the largest becomes the
// total payment and the second largest the net payment.
func fallbackAmounts(d *ExtractedSalaryData, text string) {
	var amounts []int64
	for _, m := range anyAmount.FindAllStringSubmatch(text, -1) {
		if n := ParseAmount(m[1]); n > 0 {
			amounts = append(amounts, n)
		}
	}
	slices.SortFunc(amounts, func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	if len(amounts) > 0 {
		d.TotalPayment = ptr(amounts[0])
	}
	if len(amounts) > 1 {
		d.NetPayment = ptr(amounts[1])
	}
}

func compactText(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(rs); i++ {
		if !isHSpace(rs[i]) {
			b.WriteRune(rs[i])
			continue
		}
		j := i
		for j < len(rs) && isHSpace(rs[j]) {
			j++
		}
		prevWide := i > 0 && isWide(rs[i-1])
		nextWide := j < len(rs) && isWide(rs[j])
		if !prevWide && !nextWide {
			b.WriteByte(' ')
		}
		i = j - 1
	}
	return b.String()
}

func isHSpace(r rune) bool { return r == ' ' || r == '\t' || r == '　' }

// isWide covers CJK punctuation, kana, ideographs and full-width forms.
func isWide(r rune) bool { return r >= 0x2E80 }
