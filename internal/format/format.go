// Package format renders backend values for terminal output.
package format

import (
	"regexp"
	"strings"
	"time"
)

// DefaultDatePattern is used when no pattern is given
const DefaultDatePattern = "yyyy-MM-dd HH:mm:ss"

var (
	hasZone     = regexp.MustCompile(`([zZ]|[+-]\d{2}:?\d{2})$`)
	naiveLayout = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}`)
	tokens      = regexp.MustCompile(`yyyy|MM|dd|HH|mm|ss`)
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Date formats a backend timestamp with a yyyy/MM/dd/HH/mm/ss pattern in local time.
// Timestamps without a zone are read as local time. Empty values render as "-" and
// values that do not parse are returned unchanged.
func Date(value, pattern string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return "-"
	}
	if pattern == "" {
		pattern = DefaultDatePattern
	}

	t, ok := parse(s)
	if !ok {
		return value
	}
	t = t.Local()

	return tokens.ReplaceAllStringFunc(pattern, func(tok string) string {
		switch tok {
		case "yyyy":
			return t.Format("2006")
		case "MM":
			return t.Format("01")
		case "dd":
			return t.Format("02")
		case "HH":
			return t.Format("15")
		case "mm":
			return t.Format("04")
		default:
			return t.Format("05")
		}
	})
}

// DatePtr is Date for optional values
func DatePtr(value *string, pattern string) string {
	if value == nil {
		return "-"
	}
	return Date(*value, pattern)
}

func parse(s string) (time.Time, bool) {
	if naiveLayout.MatchString(s) && !hasZone.MatchString(s) {
		s = strings.Replace(s, " ", "T", 1)
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
