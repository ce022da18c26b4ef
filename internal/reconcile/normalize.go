package reconcile

import (
	"strings"
	"time"
)

// Layouts tried for naive local timestamps, most specific first.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// parseTime reads an extracted timestamp. dateOnly reports that only a day
// was given, in which case t is local midnight. Values without an offset are
// read in loc.
func parseTime(s string, loc *time.Location) (t time.Time, dateOnly bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, true
		}
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

// endOfDay returns 23:59:59 of t's day in loc.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 23, 59, 59, 0, loc)
}

// scheduleRange normalises a schedule's start and end. A date-only end is
// the end of that day. A missing, unparseable, or earlier-than-start end
// falls back to the end of the start day.
func scheduleRange(startRaw, endRaw string, loc *time.Location) (start, end time.Time, ok bool) {
	start, _, ok = parseTime(startRaw, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, dateOnly, endOK := parseTime(endRaw, loc)
	if endOK && dateOnly {
		end = endOfDay(end, loc)
	}
	if !endOK || end.Before(start) {
		end = endOfDay(start, loc)
	}
	return start, end, true
}

// targetDate parses a goal's target date. Unparseable input yields nil.
func targetDate(raw string, loc *time.Location) *time.Time {
	t, _, ok := parseTime(raw, loc)
	if !ok {
		return nil
	}
	return &t
}
