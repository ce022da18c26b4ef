package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

func (c conn) exec(ctx context.Context, b sqlbuilder.Builder) (sql.Result, error) {
	query, args := b.Build()
	return c.ext.ExecContext(ctx, query, args...)
}

// insert runs an insert and returns the new row id.
func (c conn) insert(ctx context.Context, ib *sqlbuilder.InsertBuilder) (int64, error) {
	res, err := c.exec(ctx, ib)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// getOne scans a single row into dest, mapping no rows to ErrNotFound.
func (c conn) getOne(ctx context.Context, dest any, b sqlbuilder.Builder) error {
	query, args := b.Build()
	if err := sqlx.GetContext(ctx, c.ext, dest, query, args...); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (c conn) selectAll(ctx context.Context, dest any, b sqlbuilder.Builder) error {
	query, args := b.Build()
	return sqlx.SelectContext(ctx, c.ext, dest, query, args...)
}

func (c conn) count(ctx context.Context, table string, where func(sb *sqlbuilder.SelectBuilder) []string) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From(table)
	sb.Where(where(sb)...)

	var n int
	query, args := sb.Build()
	if err := sqlx.GetContext(ctx, c.ext, &n, query, args...); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func byOwner(owner string) func(sb *sqlbuilder.SelectBuilder) []string {
	return func(sb *sqlbuilder.SelectBuilder) []string {
		return []string{sb.Equal("owner_id", owner)}
	}
}
