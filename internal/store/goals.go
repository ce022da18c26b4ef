package store

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

var goalCols = []string{"id", "owner_id", "title", "description", "target_date", "status", "created_at", "updated_at"}

// InsertGoal stores g and fills in its ID and timestamps. An empty status is
// stored as pending.
func (c conn) InsertGoal(ctx context.Context, g *Goal) error {
	if g.Status == "" {
		g.Status = GoalPending
	}
	now := utc(time.Now())
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("goals")
	ib.Cols("owner_id", "title", "description", "target_date", "status", "created_at", "updated_at")
	ib.Values(g.OwnerID, g.Title, g.Description, utcPtr(g.TargetDate), string(g.Status), now, now)

	id, err := c.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	g.ID, g.CreatedAt, g.UpdatedAt = id, now, now
	return nil
}

// ListGoals returns the owner's goals by target date, undated last, newest
// first within a date.
func (c conn) ListGoals(ctx context.Context, owner string) ([]Goal, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(goalCols...).From("goals")
	sb.Where(sb.Equal("owner_id", owner))
	sb.OrderBy("target_date IS NULL", "target_date ASC", "created_at DESC", "id DESC")

	goals := []Goal{}
	if err := c.selectAll(ctx, &goals, sb); err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	return goals, nil
}

// CountGoals returns how many goals the owner has, restricted to statuses
// when any are given.
func (c conn) CountGoals(ctx context.Context, owner string, statuses ...GoalStatus) (int, error) {
	return c.count(ctx, "goals", func(sb *sqlbuilder.SelectBuilder) []string {
		conds := []string{sb.Equal("owner_id", owner)}
		if len(statuses) > 0 {
			vals := make([]any, len(statuses))
			for i, s := range statuses {
				vals[i] = string(s)
			}
			conds = append(conds, sb.In("status", vals...))
		}
		return conds
	})
}
