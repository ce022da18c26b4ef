package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/sth00619/chat-manage/internal/store"
	"github.com/sth00619/chat-manage/internal/timeframe"
)

// summaryScheduleLimit caps the schedules listed in a digest.
const summaryScheduleLimit = 5

// Formatter renders query results as Korean chat replies. It never mutates
// the records it is given.
type Formatter struct {
	loc *time.Location
}

// NewFormatter creates a Formatter that shows times in loc.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// EmptySchedules returns the "nothing found" sentence for tf.
func (f *Formatter) EmptySchedules(tf timeframe.Timeframe) string {
	const tail = " 등록된 일정이 없습니다."
	switch tf.Kind {
	case timeframe.None:
		return "등록된 일정이 없습니다."
	case timeframe.Today:
		return "오늘은" + tail
	case timeframe.Yesterday:
		return "어제는" + tail
	case timeframe.Tomorrow:
		return "내일은" + tail
	case timeframe.ThisWeek:
		return "이번 주에는" + tail
	case timeframe.LastWeek:
		return "지난 주에는" + tail
	case timeframe.NextWeek:
		return "다음 주에는" + tail
	case timeframe.ThisMonth:
		return "이번 달에는" + tail
	case timeframe.LastMonth:
		return "지난 달에는" + tail
	case timeframe.NextMonth:
		return "다음 달에는" + tail
	case timeframe.ThisYear:
		return "올해는" + tail
	case timeframe.LastYear:
		return "작년에는" + tail
	case timeframe.NextYear:
		return "내년에는" + tail
	case timeframe.Date:
		return fmt.Sprintf("%d월 %d일에는%s", int(tf.Month), tf.Day, tail)
	case timeframe.Month:
		return fmt.Sprintf("%d월에는%s", int(tf.Month), tail)
	case timeframe.Year:
		return fmt.Sprintf("%d년에는%s", tf.Year, tail)
	default:
		return "등록된 일정이 없습니다."
	}
}

// ScheduleHeader returns the title line for n schedules found in tf.
func (f *Formatter) ScheduleHeader(tf timeframe.Timeframe, n int) string {
	start, end := tf.Start.In(f.loc), tf.End.In(f.loc)
	switch tf.Kind {
	case timeframe.None:
		return fmt.Sprintf("일정 목록 (%d개):", n)
	case timeframe.Today:
		return fmt.Sprintf("오늘 (%s) 일정:", monthDay(start))
	case timeframe.Yesterday:
		return fmt.Sprintf("어제 (%s) 일정:", monthDay(start))
	case timeframe.Tomorrow:
		return fmt.Sprintf("내일 (%s) 일정:", monthDay(start))
	case timeframe.ThisWeek:
		return fmt.Sprintf("이번 주 일정 (%s - %s):", monthDay(start), monthDay(end))
	case timeframe.LastWeek:
		return fmt.Sprintf("지난 주 일정 (%s - %s):", monthDay(start), monthDay(end))
	case timeframe.NextWeek:
		return fmt.Sprintf("다음 주 일정 (%s - %s):", monthDay(start), monthDay(end))
	case timeframe.ThisMonth:
		return fmt.Sprintf("이번 달 (%d월) 일정 (%d개):", int(start.Month()), n)
	case timeframe.LastMonth:
		return fmt.Sprintf("지난 달 (%d월) 일정 (%d개):", int(start.Month()), n)
	case timeframe.NextMonth:
		return fmt.Sprintf("다음 달 (%d월) 일정 (%d개):", int(start.Month()), n)
	case timeframe.ThisYear, timeframe.LastYear, timeframe.NextYear:
		return fmt.Sprintf("%d년 일정 (%d개):", start.Year(), n)
	case timeframe.Date:
		if tf.ExplicitYear {
			return fmt.Sprintf("%d년 %d월 %d일 일정 (%d개):", tf.Year, int(tf.Month), tf.Day, n)
		}
		return fmt.Sprintf("%d월 %d일 일정 (%d개):", int(tf.Month), tf.Day, n)
	case timeframe.Month:
		if tf.ExplicitYear {
			return fmt.Sprintf("%d년 %d월 일정 (%d개):", tf.Year, int(tf.Month), n)
		}
		return fmt.Sprintf("%d월 일정 (%d개):", int(tf.Month), n)
	case timeframe.Year:
		return fmt.Sprintf("%d년 일정 (%d개):", tf.Year, n)
	default:
		return fmt.Sprintf("일정 목록 (%d개):", n)
	}
}

// Schedules renders a numbered schedule listing for tf.
func (f *Formatter) Schedules(schedules []store.Schedule, tf timeframe.Timeframe) string {
	if len(schedules) == 0 {
		return f.EmptySchedules(tf)
	}

	var sb strings.Builder
	sb.WriteString(f.ScheduleHeader(tf, len(schedules)))
	sb.WriteString("\n\n")
	for i, s := range schedules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s.Title)
		sb.WriteString("   📅 " + f.scheduleTime(s.StartTime))
		if s.Location != "" {
			sb.WriteString(" | 📍 " + s.Location)
		}
		if s.Description != "" {
			sb.WriteString("\n   📝 " + s.Description)
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// Contacts renders the contact list.
func (f *Formatter) Contacts(contacts []store.Contact) string {
	if len(contacts) == 0 {
		return "저장된 연락처가 없습니다."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "연락처 목록 (%d개):\n\n", len(contacts))
	for i, c := range contacts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Name)
		if c.Phone != "" {
			sb.WriteString("   📞 " + c.Phone + "\n")
		}
		if c.Email != "" {
			sb.WriteString("   ✉️ " + c.Email + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

var goalStatusEmoji = map[store.GoalStatus]string{
	store.GoalPending:    "⏳",
	store.GoalInProgress: "🔄",
	store.GoalCompleted:  "✅",
}

// Goals renders the goal list.
func (f *Formatter) Goals(goals []store.Goal) string {
	if len(goals) == 0 {
		return "등록된 목표가 없습니다."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "목표 목록 (%d개):\n\n", len(goals))
	for i, g := range goals {
		emoji, ok := goalStatusEmoji[g.Status]
		if !ok {
			emoji = goalStatusEmoji[store.GoalPending]
		}
		fmt.Fprintf(&sb, "%d. %s %s\n", i+1, emoji, g.Title)
		if g.TargetDate != nil {
			sb.WriteString("   🎯 목표일: " + shortDate(g.TargetDate.In(f.loc)) + "\n")
		}
		if g.Description != "" {
			sb.WriteString("   📝 " + g.Description + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// Summary renders the overall digest.
func (f *Formatter) Summary(d *Digest) string {
	var sb strings.Builder
	sb.WriteString("현재 저장된 정보:\n")
	if n := len(d.Schedules); n > 0 {
		fmt.Fprintf(&sb, "\n📅 일정 %d개\n", n)
		for i, s := range d.Schedules {
			if i == summaryScheduleLimit {
				break
			}
			date := "날짜 미정"
			if s.StartTime != nil {
				date = shortDate(s.StartTime.In(f.loc))
			}
			fmt.Fprintf(&sb, "- %s (%s)\n", s.Title, date)
		}
		if n > summaryScheduleLimit {
			fmt.Fprintf(&sb, "...외 %d개\n", n-summaryScheduleLimit)
		}
	}
	fmt.Fprintf(&sb, "\n👥 연락처: %d개", d.ContactsCount)
	fmt.Fprintf(&sb, "\n🎯 진행 중인 목표: %d개", d.GoalsCount)
	return sb.String()
}

// scheduleTime shows month, day and a 12-hour clock, or only the day when
// the local time is midnight.
func (f *Formatter) scheduleTime(t *time.Time) string {
	if t == nil {
		return "날짜 미정"
	}
	l := t.In(f.loc)
	if l.Hour() == 0 && l.Minute() == 0 && l.Second() == 0 {
		return monthDay(l)
	}
	meridiem := "오전"
	if l.Hour() >= 12 {
		meridiem = "오후"
	}
	return fmt.Sprintf("%s %s %s", monthDay(l), meridiem, l.Format("03:04"))
}

func monthDay(t time.Time) string {
	return fmt.Sprintf("%d월 %d일", int(t.Month()), t.Day())
}

// shortDate renders the numeric Korean date form "2026. 7. 26.".
func shortDate(t time.Time) string {
	return fmt.Sprintf("%d. %d. %d.", t.Year(), int(t.Month()), t.Day())
}
