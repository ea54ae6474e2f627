package export

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format used in exported cells and forms.
const DateLayout = "2006-01-02"

// Money formats an amount with thousands separators and two decimals, e.g. 1,250,000.00.
func Money(v float64) string {
	raw := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign, raw = "-", raw[1:]
	}
	whole, frac := raw[:len(raw)-3], raw[len(raw)-2:]
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// Date formats t with DateLayout; the zero time renders empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Opt dereferences an optional string.
func Opt(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
