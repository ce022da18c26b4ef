package store

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

var credentialCols = []string{"id", "owner_id", "website", "username", "password", "notes", "created_at", "updated_at"}

// FindCredential returns the owner's credential for an exact website and
// username pair, or ErrNotFound.
func (c conn) FindCredential(ctx context.Context, owner, website, username string) (*Credential, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(credentialCols...).From("credentials")
	sb.Where(
		sb.Equal("owner_id", owner),
		sb.Equal("website", website),
		sb.Equal("username", username),
	)
	sb.OrderBy("id ASC").Limit(1)

	var cr Credential
	if err := c.getOne(ctx, &cr, sb); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("finding credential: %w", err)
	}
	return &cr, nil
}

// InsertCredential stores cr and fills in its ID and timestamps.
func (c conn) InsertCredential(ctx context.Context, cr *Credential) error {
	now := utc(time.Now())
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("credentials")
	ib.Cols("owner_id", "website", "username", "password", "notes", "created_at", "updated_at")
	ib.Values(cr.OwnerID, cr.Website, cr.Username, cr.Password, cr.Notes, now, now)

	id, err := c.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}
	cr.ID, cr.CreatedAt, cr.UpdatedAt = id, now, now
	return nil
}

// UpdateCredential overwrites the password and notes of cr. The natural key
// columns are immutable.
func (c conn) UpdateCredential(ctx context.Context, cr *Credential) error {
	now := utc(time.Now())
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("credentials")
	ub.Set(
		ub.Assign("password", cr.Password),
		ub.Assign("notes", cr.Notes),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", cr.ID), ub.Equal("owner_id", cr.OwnerID))

	res, err := c.exec(ctx, ub)
	if err != nil {
		return fmt.Errorf("updating credential %d: %w", cr.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating credential %d: %w", cr.ID, ErrNotFound)
	}
	cr.UpdatedAt = now
	return nil
}

// CountCredentials returns how many credentials the owner has.
func (c conn) CountCredentials(ctx context.Context, owner string) (int, error) {
	return c.count(ctx, "credentials", byOwner(owner))
}
