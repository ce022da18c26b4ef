package timeframe

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Anchor maps a relative kind to the phrases that name it.
type Anchor struct {
	Kind    Kind
	Phrases []string
}

// Vocabulary is the pattern set a Resolver recognizes. Anchors are tried in
// order, so longer phrases that contain shorter ones must come first.
type Vocabulary struct {
	// DateExpr must capture month then day ("7월 26일").
	DateExpr *regexp.Regexp
	// MonthExpr must capture the month number ("7월").
	MonthExpr *regexp.Regexp
	// YearExpr must capture a four-digit year ("2025년").
	YearExpr *regexp.Regexp
	Anchors  []Anchor
}

// DefaultVocabulary returns the Korean + English pattern set. Each call
// returns a fresh value, so callers may modify it freely.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		DateExpr:  regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`),
		MonthExpr: regexp.MustCompile(`(\d{1,2})\s*월`),
		YearExpr:  regexp.MustCompile(`(\d{4})\s*년`),
		Anchors: []Anchor{
			{Kind: Yesterday, Phrases: []string{"어제", "yesterday"}},
			{Kind: Today, Phrases: []string{"오늘", "금일", "today", "tonight"}},
			{Kind: Tomorrow, Phrases: []string{"내일", "tomorrow"}},
			{Kind: ThisWeek, Phrases: []string{"이번 주", "이번주", "금주", "this week"}},
			{Kind: LastWeek, Phrases: []string{"지난 주", "지난주", "저번 주", "저번주", "last week"}},
			{Kind: NextWeek, Phrases: []string{"다음 주", "다음주", "next week"}},
			{Kind: ThisMonth, Phrases: []string{"이번 달", "이번달", "this month"}},
			{Kind: LastMonth, Phrases: []string{"지난 달", "지난달", "저번 달", "저번달", "last month"}},
			{Kind: NextMonth, Phrases: []string{"다음 달", "다음달", "next month"}},
			{Kind: ThisYear, Phrases: []string{"올해", "금년", "this year"}},
			{Kind: LastYear, Phrases: []string{"작년", "지난해", "last year"}},
			{Kind: NextYear, Phrases: []string{"내년", "next year"}},
		},
	}
}

// Resolver turns expressions into timeframes using an injected vocabulary.
type Resolver struct {
	vocab Vocabulary
}

// NewResolver creates a resolver over vocab.
func NewResolver(vocab Vocabulary) *Resolver {
	return &Resolver{vocab: vocab}
}

// Resolve recognizes, in priority order, an explicit month/day date, an
// explicit year/month or month, an explicit year, then relative anchors.
// Invalid calendar values fall through to the next rule. The zero
// Timeframe (Kind None) is returned when nothing matches.
func (r *Resolver) Resolve(expression string, now time.Time) Timeframe {
	text := strings.ToLower(strings.TrimSpace(expression))
	if text == "" {
		return Timeframe{}
	}
	loc := now.Location()

	year, explicitYear := r.explicitYear(text)
	if !explicitYear {
		year = now.Year()
	}

	if m := r.submatch(r.vocab.DateExpr, text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if tf, ok := ForDate(year, time.Month(month), day, explicitYear, loc); ok {
			return tf
		}
	}

	if m := r.submatch(r.vocab.MonthExpr, text); m != nil {
		month, _ := strconv.Atoi(m[1])
		if tf, ok := ForMonth(year, time.Month(month), explicitYear, loc); ok {
			return tf
		}
	}

	if explicitYear {
		if tf, ok := ForYear(year, loc); ok {
			return tf
		}
	}

	for _, anchor := range r.vocab.Anchors {
		for _, phrase := range anchor.Phrases {
			if phrase != "" && strings.Contains(text, strings.ToLower(phrase)) {
				return relative(anchor.Kind, now)
			}
		}
	}

	return Timeframe{}
}

func (r *Resolver) explicitYear(text string) (int, bool) {
	m := r.submatch(r.vocab.YearExpr, text)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil || !validYear(year) {
		return 0, false
	}
	return year, true
}

func (r *Resolver) submatch(re *regexp.Regexp, text string) []string {
	if re == nil {
		return nil
	}
	return re.FindStringSubmatch(text)
}
