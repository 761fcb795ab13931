package format

import (
	"time"
	"unicode/utf8"
)

// Timestamp renders t as HH:MM:SS.mmm, the prefix every primary log record
// starts with.
func Timestamp(t time.Time) string {
	return t.Format("15:04:05.000")
}

// Truncate caps s at max bytes with a "..." suffix. The cut backs up to a
// rune boundary so the result stays valid UTF-8; for ASCII input it is
// exactly max bytes long.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return "..."[:max]
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
