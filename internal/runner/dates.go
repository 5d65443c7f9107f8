// File: internal/runner/dates.go
package runner

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeDateRe matches the reserved relative-date tokens: a base keyword
// optionally followed by a +N/-N day offset, case-insensitively.
var relativeDateRe = regexp.MustCompile(`(?i)^\s*(today|tomorrow|yesterday)\s*(?:([+-])\s*(\d+))?\s*$`)

// reparseLayouts are tried, in order, when a value is not a keyword but might
// still be a concrete date worth normalizing to the configured layout.
var reparseLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
	time.RFC3339,
}

// Dates resolves relative-date values against a clock and a target layout.
type Dates struct {
	layout string
	now    func() time.Time
}

// NewDates builds a resolver for the given output layout. A nil clock uses
// the wall clock.
func NewDates(layout string, now func() time.Time) *Dates {
	if now == nil {
		now = time.Now
	}
	return &Dates{layout: layout, now: now}
}

// Resolve maps a value to a calendar date string:
//   - a relative keyword (TODAY, TOMORROW, YESTERDAY), optionally offset by
//     +N/-N days, becomes the corresponding date in the configured layout;
//   - a value parseable as a concrete date is reformatted to the layout;
//   - anything else is returned unchanged.
func (d *Dates) Resolve(value string) string {
	if m := relativeDateRe.FindStringSubmatch(value); m != nil {
		days := 0
		switch strings.ToLower(m[1]) {
		case "tomorrow":
			days = 1
		case "yesterday":
			days = -1
		}
		if m[3] != "" {
			n, _ := strconv.Atoi(m[3])
			if m[2] == "-" {
				n = -n
			}
			days += n
		}
		return d.now().AddDate(0, 0, days).Format(d.layout)
	}

	trimmed := strings.TrimSpace(value)
	for _, layout := range append([]string{d.layout}, reparseLayouts...) {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(d.layout)
		}
	}
	return value
}
