// Package timeframe resolves relative and absolute temporal expressions
// ("내일", "next week", "7월", "2025년 3월 2일") into concrete ranges.
//
// Resolution is a pure function of the expression and an injected "now".
// Every range is computed in now's location and is closed at both ends:
// it starts at 00:00:00.000 of its first day and ends at 23:59:59.999 of
// its last day.
package timeframe

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags which expression a Timeframe was resolved from.
type Kind int

const (
	None Kind = iota
	Today
	Yesterday
	Tomorrow
	ThisWeek
	LastWeek
	NextWeek
	ThisMonth
	LastMonth
	NextMonth
	ThisYear
	LastYear
	NextYear
	Date  // explicit month/day, optional year
	Month // explicit month, optional year
	Year  // explicit year
)

// Kinds lists every kind, None included, in declaration order.
func Kinds() []Kind {
	return []Kind{
		None, Today, Yesterday, Tomorrow,
		ThisWeek, LastWeek, NextWeek,
		ThisMonth, LastMonth, NextMonth,
		ThisYear, LastYear, NextYear,
		Date, Month, Year,
	}
}

var kindNames = map[Kind]string{
	None:      "none",
	Today:     "today",
	Yesterday: "yesterday",
	Tomorrow:  "tomorrow",
	ThisWeek:  "thisWeek",
	LastWeek:  "lastWeek",
	NextWeek:  "nextWeek",
	ThisMonth: "thisMonth",
	LastMonth: "lastMonth",
	NextMonth: "nextMonth",
	ThisYear:  "thisYear",
	LastYear:  "lastYear",
	NextYear:  "nextYear",
	Date:      "date",
	Month:     "month",
	Year:      "year",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind looks a kind up by its String name, ignoring case.
func ParseKind(name string) (Kind, bool) {
	name = strings.TrimSpace(name)
	for _, k := range Kinds() {
		if strings.EqualFold(k.String(), name) {
			return k, true
		}
	}
	return None, false
}

// MarshalText renders the kind by name so intents serialize readably.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Timeframe is a resolved temporal expression. The zero value is Kind None
// and stands for "no timeframe".
type Timeframe struct {
	Kind  Kind      `json:"kind"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`

	// Partial fields, set for Date, Month and Year kinds.
	Year         int        `json:"year,omitempty"`
	Month        time.Month `json:"month,omitempty"`
	Day          int        `json:"day,omitempty"`
	ExplicitYear bool       `json:"explicit_year,omitempty"`
}

// IsZero reports whether no expression was recognized.
func (t Timeframe) IsZero() bool {
	return t.Kind == None
}

// contains reports whether ts falls inside the closed range.
func (t Timeframe) contains(ts time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !ts.Before(t.Start) && !ts.After(t.End)
}

// endOfDayOffset is added to midnight to reach the inclusive end instant.
const endOfDayOffset = 24*time.Hour - time.Millisecond

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(endOfDayOffset)
}

// dayRange covers n whole days starting at the day of from.
func dayRange(kind Kind, from time.Time, n int) Timeframe {
	start := startOfDay(from)
	end := endOfDay(start.AddDate(0, 0, n-1))
	return Timeframe{Kind: kind, Start: start, End: end}
}

// weekStart returns Monday 00:00 of the week containing now.
func weekStart(now time.Time) time.Time {
	dow := int(now.Weekday())
	back := dow - 1
	if dow == 0 {
		back = 6
	}
	return startOfDay(now).AddDate(0, 0, -back)
}

func monthRange(kind Kind, year int, month time.Month, loc *time.Location) Timeframe {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return Timeframe{Kind: kind, Start: start, End: end}
}

func yearRange(kind Kind, year int, loc *time.Location) Timeframe {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0).Add(-time.Millisecond)
	return Timeframe{Kind: kind, Start: start, End: end}
}

// relative builds the range for a vocabulary anchor kind.
func relative(kind Kind, now time.Time) Timeframe {
	loc := now.Location()
	switch kind {
	case Today:
		return dayRange(kind, now, 1)
	case Yesterday:
		return dayRange(kind, now.AddDate(0, 0, -1), 1)
	case Tomorrow:
		return dayRange(kind, now.AddDate(0, 0, 1), 1)
	case ThisWeek:
		return dayRange(kind, weekStart(now), 7)
	case LastWeek:
		return dayRange(kind, weekStart(now).AddDate(0, 0, -7), 7)
	case NextWeek:
		return dayRange(kind, weekStart(now).AddDate(0, 0, 7), 7)
	case ThisMonth:
		return monthRange(kind, now.Year(), now.Month(), loc)
	case LastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0)
		return monthRange(kind, first.Year(), first.Month(), loc)
	case NextMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
		return monthRange(kind, first.Year(), first.Month(), loc)
	case ThisYear:
		return yearRange(kind, now.Year(), loc)
	case LastYear:
		return yearRange(kind, now.Year()-1, loc)
	case NextYear:
		return yearRange(kind, now.Year()+1, loc)
	default:
		return Timeframe{}
	}
}

// Relative resolves a relative kind against now without any text parsing.
// Date, Month, Year and None yield the zero Timeframe.
func Relative(kind Kind, now time.Time) Timeframe {
	return relative(kind, now)
}

// ForDate builds a single-day Date timeframe.
func ForDate(year int, month time.Month, day int, explicitYear bool, loc *time.Location) (Timeframe, bool) {
	if !validDate(year, month, day) {
		return Timeframe{}, false
	}
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	tf := dayRange(Date, start, 1)
	tf.Year, tf.Month, tf.Day, tf.ExplicitYear = year, month, day, explicitYear
	return tf, true
}

// ForMonth builds a calendar-month Month timeframe.
func ForMonth(year int, month time.Month, explicitYear bool, loc *time.Location) (Timeframe, bool) {
	if month < time.January || month > time.December || !validYear(year) {
		return Timeframe{}, false
	}
	tf := monthRange(Month, year, month, loc)
	tf.Year, tf.Month, tf.ExplicitYear = year, month, explicitYear
	return tf, true
}

// ForYear builds a calendar-year Year timeframe.
func ForYear(year int, loc *time.Location) (Timeframe, bool) {
	if !validYear(year) {
		return Timeframe{}, false
	}
	tf := yearRange(Year, year, loc)
	tf.Year, tf.ExplicitYear = year, true
	return tf, true
}

func validYear(year int) bool {
	return year >= 1900 && year <= 2999
}

func validDate(year int, month time.Month, day int) bool {
	if !validYear(year) || month < time.January || month > time.December || day < 1 {
		return false
	}
	// time.Date normalizes overflow, so a round trip detects 2월 30일.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Month() == month && t.Day() == day
}
