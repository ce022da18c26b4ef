package store

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

// Action types recorded in usage_stats.
const (
	ActionChatMessage = "chat_message"
)

// RecordUsage appends one usage row for owner.
func (c conn) RecordUsage(ctx context.Context, owner, actionType string) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("usage_stats")
	ib.Cols("owner_id", "action_type", "created_at")
	ib.Values(owner, actionType, utc(time.Now()))

	if _, err := c.insert(ctx, ib); err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

// CountUsage returns how many rows of actionType the owner has logged.
func (c conn) CountUsage(ctx context.Context, owner, actionType string) (int, error) {
	return c.count(ctx, "usage_stats", func(sb *sqlbuilder.SelectBuilder) []string {
		return []string{sb.Equal("owner_id", owner), sb.Equal("action_type", actionType)}
	})
}

// Summary counts every record type for owner.
func (c conn) Summary(ctx context.Context, owner string) (*DataSummary, error) {
	var sum DataSummary
	counters := []struct {
		dest *int
		fn   func(context.Context, string) (int, error)
	}{
		{&sum.Contacts, c.CountContacts},
		{&sum.Credentials, c.CountCredentials},
		{&sum.Schedules, c.CountSchedules},
		{&sum.NumericalInfo, c.CountNumericalInfo},
		{&sum.Goals, func(ctx context.Context, owner string) (int, error) { return c.CountGoals(ctx, owner) }},
	}
	for _, ctr := range counters {
		n, err := ctr.fn(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("summarizing: %w", err)
		}
		*ctr.dest = n
		sum.Total += n
	}

	n, err := c.CountUsage(ctx, owner, ActionChatMessage)
	if err != nil {
		return nil, fmt.Errorf("summarizing: %w", err)
	}
	sum.ChatMessages = n
	return &sum, nil
}
