package dividend

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VALUE NORMALIZER - Raw date and currency tokens to canonical types
// =============================================================================

// tokenCleaner maps locale noise to ASCII: non-breaking spaces to plain
// spaces, unicode dash variants to hyphens.
var tokenCleaner = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u202f", " ", // narrow no-break space
	"\u2009", " ", // thin space
	"\u2010", "-", // hyphen
	"\u2011", "-", // non-breaking hyphen
	"\u2012", "-", // figure dash
	"\u2013", "-", // en dash
	"\u2014", "-", // em dash
	"\u2212", "-", // minus sign
)

func cleanToken(raw string) string {
	return strings.TrimSpace(tokenCleaner.Replace(raw))
}

// exDateLayouts are tried in order before falling back to the lenient
// day-first scan. Covers the formats observed across the scraped sources.
var exDateLayouts = []string{
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"2 January 2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02-01-06",
	"2006-01-02",
}

// ParseExDate parses a raw ex-date token. It never panics; ok is false on
// total failure.
func ParseExDate(raw string) (time.Time, bool) {
	s := cleanToken(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range exDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return scanDayFirst(s)
}

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// scanDayFirst is the general-purpose fallback: split on common separators
// and read the fields day-first, per the source locale. Month names are
// matched on their first three letters.
func scanDayFirst(s string) (time.Time, bool) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == '.' || r == ','
	})
	if len(fields) < 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	var month time.Month
	mf := strings.ToLower(fields[1])
	if len(mf) >= 3 {
		month = monthsByName[mf[:3]]
	}
	if month == 0 {
		m, err := strconv.Atoi(mf)
		if err != nil || m < 1 || m > 12 {
			return time.Time{}, false
		}
		month = time.Month(m)
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, false
	}
	if year < 100 { // two-digit year
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if year < 1900 || year > 2200 {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31 Feb -> 2/3 Mar); reject those.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// centsSuffixes mark amounts quoted in cents rather than the base unit.
// Checked longest-first so "cents" is not consumed as a bare "c".
var centsSuffixes = []string{"cents", "cpu", "¢", "c"}

var oneHundred = decimal.NewFromInt(100)

// ParseAmount parses a raw currency token into a base-unit decimal.
// Currency symbols, thousands separators and whitespace are stripped; a
// cents-marker suffix divides the value by 100. Ambiguous tokens (empty,
// placeholder dash, "n/a") parse to not-ok, never to zero; callers decide
// whether absence means "skip row" or "treat as zero".
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.ToLower(cleanToken(raw))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	switch s {
	case "", "-", "--", "n/a", "na":
		return decimal.Decimal{}, false
	}

	cents := false
	for _, suf := range centsSuffixes {
		if strings.HasSuffix(s, suf) {
			cents = true
			s = strings.TrimSuffix(s, suf)
			break
		}
	}

	s = strings.TrimFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-'
	})
	if s == "" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	if cents {
		d = d.Div(oneHundred)
	}
	return d, true
}

// ParsePercent parses a franking-percent token into [0, 100]. Values outside
// the range and unparseable tokens are not-ok; the row extractor then
// defaults the field to zero.
func ParsePercent(raw string) (decimal.Decimal, bool) {
	s := strings.ToLower(cleanToken(raw))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.GreaterThan(oneHundred) {
		return decimal.Decimal{}, false
	}
	return d, true
}
