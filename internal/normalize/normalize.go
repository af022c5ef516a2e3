// Package normalize coerces heterogeneous spreadsheet values into canonical
// typed values. Every function is total: malformed cells produce deterministic
// fallbacks, never errors, so one bad cell cannot abort a multi-thousand-row
// import.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/pilotage-rh/analytics-backend-go/internal/pkg/clock"
)

// excelEpochOffset is the number of days between the Excel serial-date epoch
// (1899-12-30, as serialized by most writers) and 1970-01-01.
const excelEpochOffset = 25569

var trueWords = map[string]bool{
	"oui": true, "yes": true, "true": true, "1": true,
	"o": true, "y": true, "vrai": true,
}

// Date coerces v into a calendar date. Accepted shapes: Excel serial numbers,
// time.Time, ISO YYYY-MM-DD strings and DD/MM/YYYY strings. Anything else
// yields nil.
func Date(v any) *time.Time {
	switch d := v.(type) {
	case nil:
		return nil
	case time.Time:
		t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return &t
	case float64:
		return serialDate(d)
	case float32:
		return serialDate(float64(d))
	case int:
		return serialDate(float64(d))
	case int64:
		return serialDate(float64(d))
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return nil
		}
		for _, layout := range []string{"2006-01-02", "02/01/2006"} {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return &t
			}
		}
		// Spreadsheet readers sometimes hand back serials as strings.
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(serial)
		}
		return nil
	default:
		return nil
	}
}

// ISODate is Date rendered as a YYYY-MM-DD string, nil on failure.
func ISODate(v any) *string {
	t := Date(v)
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func serialDate(serial float64) *time.Time {
	if serial <= 0 {
		return nil
	}
	t := time.UnixMilli(int64((serial - excelEpochOffset) * 86400 * 1000)).UTC()
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

// Period coerces v like Date but collapses to the first day of the month.
// On total failure it falls back to the clock's current month: reporting
// periods never block an import, they degrade to "now".
func Period(v any, clk clock.Clock) time.Time {
	t := Date(v)
	if t == nil {
		now := clk.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Number coerces v into a float64, falling back to def when it cannot be
// parsed. String input tolerates thousands separators, comma decimals and
// stray non-numeric characters (currency symbols, units).
func Number(v any, def float64) float64 {
	switch n := v.(type) {
	case nil:
		return def
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		return numberFromString(n, def)
	default:
		return def
	}
}

func numberFromString(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '.', r == ',':
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return def
	}

	// With both separators present the rightmost one is the decimal mark and
	// the other is a thousands separator.
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

// Bool matches the affirmative spellings seen in source files; everything
// else, including nil, is false.
func Bool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b == 1
	case int:
		return b == 1
	case string:
		return trueWords[strings.ToLower(strings.TrimSpace(b))]
	default:
		return false
	}
}

// String trims v and truncates it to maxLen runes. Non-string scalars are
// rendered with strconv so numeric codes survive as text.
func String(v any, maxLen int) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return ""
	}
	s = strings.TrimSpace(s)
	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = string(r[:maxLen])
		}
	}
	return s
}

var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c",
)

// Fold lowercases s and strips the French accents, for tolerant label
// matching (contract types, absence categories, column headers).
func Fold(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}
