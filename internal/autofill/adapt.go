package autofill

import (
	"fmt"
	"strconv"
	"strings"
)

var monthNameToNumber = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "sept": "09", "oct": "10",
	"nov": "11", "dec": "12",
}

// DOMConstraints are the detection-time DOM attributes the Resolver
// consults to adapt a resolved value before it is assigned, per spec.md
// §4.G's DOM-aware adaptation rules.
type DOMConstraints struct {
	Placeholder string
	MaxLength   int
	Pattern     string
	InputType   string
}

// AdaptValue applies §4.G's DOM-aware adaptation rules in order, returning
// the adapted value and, when a truncation occurred, a non-empty warning
// the caller should log (truncation is never silent).
func AdaptValue(value string, c DOMConstraints) (adapted string, warning string) {
	placeholder := strings.ToUpper(strings.TrimSpace(c.Placeholder))

	if num, ok := monthNameToNumber[strings.ToLower(value)]; ok {
		switch {
		case placeholder == "MM" || placeholder == "M":
			return num, ""
		case c.MaxLength > 0 && c.MaxLength <= 2:
			return num, ""
		case c.InputType == "number" || c.InputType == "tel":
			return num, ""
		case strings.HasPrefix(c.Pattern, "[0-9]"):
			return num, ""
		}
	}

	if placeholder == "YYYY" {
		return digitsOnly(value), ""
	}
	if placeholder == "YY" && len(digitsOnly(value)) == 4 {
		d := digitsOnly(value)
		return d[len(d)-2:], ""
	}

	if c.MaxLength > 0 && len(value) > c.MaxLength {
		truncated := value[:c.MaxLength]
		return truncated, fmt.Sprintf("value truncated from %d to %d characters to satisfy maxlength", len(value), c.MaxLength)
	}

	return value, ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		// not numeric input at all (e.g. a month name slipped through
		// with no matching placeholder rule); leave as-is rather than
		// fabricate digits.
		return s
	}
	return b.String()
}

// ParseYear reports whether s is a bare year between 1900 and 2100, and
// returns it.
func ParseYear(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1900 || n > 2100 {
		return 0, false
	}
	return n, true
}
