// Package parse provides tolerant coercion of untrusted provider strings.
// Failures are reported via the ok flag, never by panic or error; logging is
// left to callers that know the record context.
package parse

import (
	"strconv"
	"strings"
	"time"
)

// Layouts accepted by Date, in trial order.
const (
	layoutBR  = "02/01/2006"
	layoutISO = "2006-01-02"
)

// Date parses dd/mm/yyyy, then yyyy-mm-dd. Empty or malformed input yields
// ok == false.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(layoutBR, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(layoutISO, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Int parses a base-10 integer. Empty or malformed input yields ok == false.
func Int(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
