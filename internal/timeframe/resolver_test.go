package timeframe

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}()

// 2026-10-14 is a Wednesday.
var wednesday = time.Date(2026, time.October, 14, 15, 30, 0, 0, seoul)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, seoul)
}

func eod(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), seoul)
}

func TestResolve_RelativeAnchors(t *testing.T) {
	r := NewResolver(DefaultVocabulary())

	cases := []struct {
		expr  string
		kind  Kind
		start time.Time
		end   time.Time
	}{
		{"오늘 일정", Today, day(2026, 10, 14), eod(2026, 10, 14)},
		{"어제 뭐 했지", Yesterday, day(2026, 10, 13), eod(2026, 10, 13)},
		{"내일 일정 알려줘", Tomorrow, day(2026, 10, 15), eod(2026, 10, 15)},
		{"이번 주 일정", ThisWeek, day(2026, 10, 12), eod(2026, 10, 18)},
		{"이번주", ThisWeek, day(2026, 10, 12), eod(2026, 10, 18)},
		{"저번주 회의", LastWeek, day(2026, 10, 5), eod(2026, 10, 11)},
		{"다음 주", NextWeek, day(2026, 10, 19), eod(2026, 10, 25)},
		{"이번 달", ThisMonth, day(2026, 10, 1), eod(2026, 10, 31)},
		{"저번달 일정", LastMonth, day(2026, 9, 1), eod(2026, 9, 30)},
		{"다음달", NextMonth, day(2026, 11, 1), eod(2026, 11, 30)},
		{"올해 목표", ThisYear, day(2026, 1, 1), eod(2026, 12, 31)},
		{"작년", LastYear, day(2025, 1, 1), eod(2025, 12, 31)},
		{"내년 계획", NextYear, day(2027, 1, 1), eod(2027, 12, 31)},
		{"what do I have tomorrow", Tomorrow, day(2026, 10, 15), eod(2026, 10, 15)},
		{"meetings NEXT WEEK", NextWeek, day(2026, 10, 19), eod(2026, 10, 25)},
		{"yesterday", Yesterday, day(2026, 10, 13), eod(2026, 10, 13)},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got := r.Resolve(tc.expr, wednesday)
			assert.Equal(t, tc.kind, got.Kind)
			assert.True(t, tc.start.Equal(got.Start), "start: want %v got %v", tc.start, got.Start)
			assert.True(t, tc.end.Equal(got.End), "end: want %v got %v", tc.end, got.End)
		})
	}
}

func TestResolve_WeekStartsMondayOnSunday(t *testing.T) {
	r := NewResolver(DefaultVocabulary())
	sunday := time.Date(2026, time.October, 18, 9, 0, 0, 0, seoul)

	got := r.Resolve("이번 주", sunday)
	require.Equal(t, ThisWeek, got.Kind)
	assert.True(t, day(2026, 10, 12).Equal(got.Start))
	assert.True(t, eod(2026, 10, 18).Equal(got.End))
	assert.Equal(t, time.Monday, got.Start.Weekday())
	assert.Equal(t, time.Sunday, got.End.Weekday())

	monday := time.Date(2026, time.October, 19, 0, 0, 0, 0, seoul)
	got = r.Resolve("this week", monday)
	assert.True(t, day(2026, 10, 19).Equal(got.Start))
}

func TestResolve_MonthAndYearBoundaries(t *testing.T) {
	r := NewResolver(DefaultVocabulary())

	january := time.Date(2027, time.January, 5, 12, 0, 0, 0, seoul)
	got := r.Resolve("지난달", january)
	assert.True(t, day(2026, 12, 1).Equal(got.Start))
	assert.True(t, eod(2026, 12, 31).Equal(got.End))

	december := time.Date(2026, time.December, 31, 23, 0, 0, 0, seoul)
	got = r.Resolve("다음 달", december)
	assert.True(t, day(2027, 1, 1).Equal(got.Start))
	assert.True(t, eod(2027, 1, 31).Equal(got.End))

	// Month arithmetic must not overflow from the 31st.
	march31 := time.Date(2026, time.March, 31, 8, 0, 0, 0, seoul)
	got = r.Resolve("저번 달", march31)
	assert.True(t, day(2026, 2, 1).Equal(got.Start))
	assert.True(t, eod(2026, 2, 28).Equal(got.End))
}

func TestResolve_ExplicitDates(t *testing.T) {
	r := NewResolver(DefaultVocabulary())

	got := r.Resolve("7월 26일 일정", wednesday)
	require.Equal(t, Date, got.Kind)
	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, time.July, got.Month)
	assert.Equal(t, 26, got.Day)
	assert.False(t, got.ExplicitYear)
	assert.True(t, day(2026, 7, 26).Equal(got.Start))
	assert.True(t, eod(2026, 7, 26).Equal(got.End))

	got = r.Resolve("2025년 3월 2일에 뭐 있었지", wednesday)
	require.Equal(t, Date, got.Kind)
	assert.True(t, got.ExplicitYear)
	assert.True(t, day(2025, 3, 2).Equal(got.Start))
}

func TestResolve_MonthOnlyAssumesCurrentYear(t *testing.T) {
	r := NewResolver(DefaultVocabulary())

	got := r.Resolve("7월 일정 보여줘", wednesday)
	require.Equal(t, Month, got.Kind)
	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, time.July, got.Month)
	assert.False(t, got.ExplicitYear)
	assert.True(t, day(2026, 7, 1).Equal(got.Start))
	assert.True(t, eod(2026, 7, 31).Equal(got.End))

	got = r.Resolve("2024년 2월", wednesday)
	require.Equal(t, Month, got.Kind)
	assert.True(t, got.ExplicitYear)
	assert.True(t, eod(2024, 2, 29).Equal(got.End))
}

func TestResolve_YearOnly(t *testing.T) {
	r := NewResolver(DefaultVocabulary())

	got := r.Resolve("2025년 일정", wednesday)
	require.Equal(t, Year, got.Kind)
	assert.Equal(t, 2025, got.Year)
	assert.True(t, day(2025, 1, 1).Equal(got.Start))
	assert.True(t, eod(2025, 12, 31).Equal(got.End))
}

func TestResolve_AbsoluteBeatsRelative(t *testing.T) {
	r := NewResolver(DefaultVocabulary())
	got := r.Resolve("내일 말고 7월 26일", wednesday)
	assert.Equal(t, Date, got.Kind)
}

func TestResolve_InvalidCalendarFallsThrough(t *testing.T) {
	r := NewResolver(DefaultVocabulary())

	// 2월 30일 is not a date; the month rule still applies.
	got := r.Resolve("2월 30일", wednesday)
	assert.Equal(t, Month, got.Kind)
	assert.Equal(t, time.February, got.Month)

	// 13월 is not a month; the relative anchor wins.
	got = r.Resolve("13월 내일", wednesday)
	assert.Equal(t, Tomorrow, got.Kind)
}

func TestResolve_NoMatch(t *testing.T) {
	r := NewResolver(DefaultVocabulary())
	for _, expr := range []string{"", "   ", "연락처 보여줘", "3개월 후", "hello"} {
		got := r.Resolve(expr, wednesday)
		assert.True(t, got.IsZero(), "expr %q resolved to %v", expr, got.Kind)
	}
}

func TestResolve_DeterministicAndOrdered(t *testing.T) {
	r := NewResolver(DefaultVocabulary())
	exprs := []string{
		"오늘", "어제", "내일", "이번 주", "지난주", "다음 주", "이번 달", "지난 달",
		"다음 달", "올해", "작년", "내년", "7월", "7월 26일", "2025년",
	}
	for _, expr := range exprs {
		first := r.Resolve(expr, wednesday)
		second := r.Resolve(expr, wednesday)
		require.False(t, first.IsZero(), expr)
		assert.Equal(t, first, second, expr)
		assert.True(t, first.End.After(first.Start), expr)
		assert.True(t, first.contains(first.Start), expr)
		assert.True(t, first.contains(first.End), expr)
	}
}

func TestResolve_InjectedVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Anchors = []Anchor{{Kind: Tomorrow, Phrases: []string{"manana"}}}
	vocab.MonthExpr = regexp.MustCompile(`month (\d{1,2})`)
	r := NewResolver(vocab)

	assert.Equal(t, Tomorrow, r.Resolve("manana", wednesday).Kind)
	assert.True(t, r.Resolve("내일", wednesday).IsZero())
	assert.Equal(t, Month, r.Resolve("month 3", wednesday).Kind)

	// The default vocabulary is unaffected.
	assert.Equal(t, Tomorrow, NewResolver(DefaultVocabulary()).Resolve("내일", wednesday).Kind)
}

func TestRelative_IgnoresPartialKinds(t *testing.T) {
	for _, k := range []Kind{None, Date, Month, Year} {
		assert.True(t, Relative(k, wednesday).IsZero(), k.String())
	}
}

func TestKindString(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		name := k.String()
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}

	got, ok := ParseKind(" NextWeek ")
	assert.True(t, ok)
	assert.Equal(t, NextWeek, got)

	_, ok = ParseKind("fortnight")
	assert.False(t, ok)
}
