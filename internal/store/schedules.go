package store

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

var scheduleCols = []string{"id", "owner_id", "title", "description", "start_time", "end_time", "location", "created_at", "updated_at"}

// ScheduleFilter narrows ListSchedules. Zero From/To leave that side open.
type ScheduleFilter struct {
	From time.Time
	To   time.Time
	// UndatedTitleContains, when set together with a range, also matches
	// rows without a start time whose title contains the text.
	UndatedTitleContains string
}

func (f ScheduleFilter) ranged() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// InsertSchedule stores s and fills in its ID and timestamps.
func (c conn) InsertSchedule(ctx context.Context, s *Schedule) error {
	now := utc(time.Now())
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("schedules")
	ib.Cols("owner_id", "title", "description", "start_time", "end_time", "location", "created_at", "updated_at")
	ib.Values(s.OwnerID, s.Title, s.Description, utcPtr(s.StartTime), utcPtr(s.EndTime), s.Location, now, now)

	id, err := c.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("inserting schedule: %w", err)
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
	return nil
}

// FindOverlappingSchedule returns the owner's earliest dated schedule whose
// [start, end] range intersects [start, end]. A stored row without an end
// is treated as the instant at its start.
func (c conn) FindOverlappingSchedule(ctx context.Context, owner string, start, end time.Time) (*Schedule, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(scheduleCols...).From("schedules")
	sb.Where(
		sb.Equal("owner_id", owner),
		sb.IsNotNull("start_time"),
		sb.LessEqualThan("start_time", utc(end)),
		sb.GreaterEqualThan("COALESCE(end_time, start_time)", utc(start)),
	)
	sb.OrderBy("start_time ASC", "id ASC").Limit(1)

	var s Schedule
	if err := c.getOne(ctx, &s, sb); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("finding overlapping schedule: %w", err)
	}
	return &s, nil
}

// ListSchedules returns the owner's schedules matching f, ordered by start
// time with undated rows last, newest first within a start time.
func (c conn) ListSchedules(ctx context.Context, owner string, f ScheduleFilter) ([]Schedule, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(scheduleCols...).From("schedules")

	conds := []string{sb.Equal("owner_id", owner)}
	if f.ranged() {
		var inRange []string
		if !f.From.IsZero() {
			inRange = append(inRange, sb.GreaterEqualThan("start_time", utc(f.From)))
		}
		if !f.To.IsZero() {
			inRange = append(inRange, sb.LessEqualThan("start_time", utc(f.To)))
		}
		if f.UndatedTitleContains != "" {
			conds = append(conds, sb.Or(
				sb.And(inRange...),
				sb.And(sb.IsNull("start_time"), sb.Like("title", "%"+f.UndatedTitleContains+"%")),
			))
		} else {
			conds = append(conds, inRange...)
		}
	}
	sb.Where(conds...)
	sb.OrderBy("start_time IS NULL", "start_time ASC", "created_at DESC", "id DESC")

	schedules := []Schedule{}
	if err := c.selectAll(ctx, &schedules, sb); err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	return schedules, nil
}

// CountSchedules returns how many schedules the owner has.
func (c conn) CountSchedules(ctx context.Context, owner string) (int, error) {
	return c.count(ctx, "schedules", byOwner(owner))
}
