package store

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

var numericalCols = []string{"id", "owner_id", "category", "label", "value", "unit", "created_at", "updated_at"}

// InsertNumericalInfo stores n and fills in its ID and timestamps. An empty
// category is stored as general.
func (c conn) InsertNumericalInfo(ctx context.Context, n *NumericalInfo) error {
	if n.Category == "" {
		n.Category = "general"
	}
	now := utc(time.Now())
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("numerical_info")
	ib.Cols("owner_id", "category", "label", "value", "unit", "created_at", "updated_at")
	ib.Values(n.OwnerID, n.Category, n.Label, n.Value, n.Unit, now, now)

	id, err := c.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("inserting numerical info: %w", err)
	}
	n.ID, n.CreatedAt, n.UpdatedAt = id, now, now
	return nil
}

// ListNumericalInfo returns the owner's numerical records, newest first,
// restricted to category when it is non-empty.
func (c conn) ListNumericalInfo(ctx context.Context, owner, category string) ([]NumericalInfo, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(numericalCols...).From("numerical_info")
	conds := []string{sb.Equal("owner_id", owner)}
	if category != "" {
		conds = append(conds, sb.Equal("category", category))
	}
	sb.Where(conds...)
	sb.OrderBy("created_at DESC", "id DESC")

	infos := []NumericalInfo{}
	if err := c.selectAll(ctx, &infos, sb); err != nil {
		return nil, fmt.Errorf("listing numerical info: %w", err)
	}
	return infos, nil
}

// CountNumericalInfo returns how many numerical records the owner has.
func (c conn) CountNumericalInfo(ctx context.Context, owner string) (int, error) {
	return c.count(ctx, "numerical_info", byOwner(owner))
}
