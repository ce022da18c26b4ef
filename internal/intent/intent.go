// Package intent decides whether a chat message asks for stored data and,
// if so, which category and timeframe it targets.
//
// Classification is a hard gate: the timeframe resolver only runs after a
// category pattern matched, so statements that merely mention a date are
// never turned into date-scoped queries.
package intent

import (
	"regexp"
	"time"

	"github.com/sth00619/chat-manage/internal/timeframe"
)

// Category is the record family a query targets.
type Category string

const (
	Schedules Category = "schedules"
	Contacts  Category = "contacts"
	Goals     Category = "goals"
	// None on a query means "summarize everything".
	None Category = "none"
)

// Intent is the classifier output. It is not persisted.
type Intent struct {
	IsQuery   bool                `json:"is_query"`
	Category  Category            `json:"category"`
	Timeframe timeframe.Timeframe `json:"timeframe"`
}

// Pattern binds a category to the expression that detects it.
type Pattern struct {
	Category Category
	Expr     *regexp.Regexp
}

// query verbs shared by the Korean patterns.
const koAsk = `(알려|보여|뭐|뭔|있|확인|조회|목록|리스트|어때|언제|찾아)`

// DefaultPatterns returns the Korean + English pattern set in priority order:
// schedules, contacts, goals, then a catch-all summary request that yields
// category None. Each call returns fresh values.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Category: Schedules,
			Expr: regexp.MustCompile(`(?i)` +
				`((일정|스케줄|약속).*` + koAsk + `)` +
				`|((어제|오늘|내일|이번\s*주|지난\s*주|저번\s*주|다음\s*주|이번\s*달|지난\s*달|저번\s*달|다음\s*달|\d{1,2}\s*월).*(회의|미팅|약속).*(있|뭐))` +
				`|(\b(what|show|list|any|tell)\b.*\b(schedules?|meetings?|appointments?|events?|plans?|calendar)\b)` +
				`|(\b(schedules?|calendar|agenda)\b.*\b(today|tomorrow|yesterday|week|month|year)\b)`),
		},
		{
			Category: Contacts,
			Expr: regexp.MustCompile(`(?i)` +
				`((연락처|전화번호|이메일|주소록).*` + koAsk + `)` +
				`|(\b(what|show|list|find|tell)\b.*\b(contacts?|phone numbers?|emails?)\b)`),
		},
		{
			Category: Goals,
			Expr: regexp.MustCompile(`(?i)` +
				`((목표|계획).*` + koAsk + `)` +
				`|(\b(what|show|list|tell)\b.*\bgoals?\b)`),
		},
		{
			Category: None,
			Expr: regexp.MustCompile(`(?i)` +
				`((저장된|저장한|내|나의)\s*(정보|데이터).*(알려|보여|뭐|요약|정리|확인))` +
				`|(요약해)` +
				`|(\bsummary\b|\bsummari[sz]e\b|what do you know about me)`),
		},
	}
}

// Classifier applies an ordered pattern set; the first match wins.
type Classifier struct {
	patterns []Pattern
	resolver *timeframe.Resolver
	clock    func() time.Time
}

// NewClassifier creates a classifier. A nil clock falls back to time.Now.
func NewClassifier(patterns []Pattern, resolver *timeframe.Resolver, clock func() time.Time) *Classifier {
	if clock == nil {
		clock = time.Now
	}
	if resolver == nil {
		resolver = timeframe.NewResolver(timeframe.DefaultVocabulary())
	}
	return &Classifier{patterns: patterns, resolver: resolver, clock: clock}
}

// Classify classifies message against the classifier's clock.
func (c *Classifier) Classify(message string) Intent {
	return c.ClassifyAt(message, c.clock())
}

// ClassifyAt classifies message with an explicit "now", which also fixes the
// location timeframes are computed in.
func (c *Classifier) ClassifyAt(message string, now time.Time) Intent {
	for _, p := range c.patterns {
		if p.Expr == nil || !p.Expr.MatchString(message) {
			continue
		}
		return Intent{
			IsQuery:   true,
			Category:  p.Category,
			Timeframe: c.resolver.Resolve(message, now),
		}
	}
	return Intent{Category: None}
}
