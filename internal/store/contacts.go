package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

var contactCols = []string{"id", "owner_id", "name", "phone", "email", "address", "notes", "created_at", "updated_at"}

// FindContactByKey returns the owner's earliest contact whose email equals
// email, falling back to one whose phone equals phone. Empty values never
// match; with both empty the result is ErrNotFound.
func (c conn) FindContactByKey(ctx context.Context, owner, email, phone string) (*Contact, error) {
	lookups := []struct{ col, val string }{{"email", email}, {"phone", phone}}
	for _, p := range lookups {
		if p.val == "" {
			continue
		}
		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select(contactCols...).From("contacts")
		sb.Where(sb.Equal("owner_id", owner), sb.Equal(p.col, p.val))
		sb.OrderBy("id ASC").Limit(1)

		var ct Contact
		err := c.getOne(ctx, &ct, sb)
		if err == nil {
			return &ct, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("finding contact by %s: %w", p.col, err)
		}
	}
	return nil, ErrNotFound
}

// InsertContact stores ct and fills in its ID and timestamps.
func (c conn) InsertContact(ctx context.Context, ct *Contact) error {
	now := utc(time.Now())
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("contacts")
	ib.Cols("owner_id", "name", "phone", "email", "address", "notes", "created_at", "updated_at")
	ib.Values(ct.OwnerID, ct.Name, ct.Phone, ct.Email, ct.Address, ct.Notes, now, now)

	id, err := c.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("inserting contact: %w", err)
	}
	ct.ID, ct.CreatedAt, ct.UpdatedAt = id, now, now
	return nil
}

// UpdateContact overwrites every mutable column of ct.
func (c conn) UpdateContact(ctx context.Context, ct *Contact) error {
	now := utc(time.Now())
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("contacts")
	ub.Set(
		ub.Assign("name", ct.Name),
		ub.Assign("phone", ct.Phone),
		ub.Assign("email", ct.Email),
		ub.Assign("address", ct.Address),
		ub.Assign("notes", ct.Notes),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", ct.ID), ub.Equal("owner_id", ct.OwnerID))

	res, err := c.exec(ctx, ub)
	if err != nil {
		return fmt.Errorf("updating contact %d: %w", ct.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating contact %d: %w", ct.ID, ErrNotFound)
	}
	ct.UpdatedAt = now
	return nil
}

// ListContacts returns the owner's contacts by name.
func (c conn) ListContacts(ctx context.Context, owner string) ([]Contact, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(contactCols...).From("contacts")
	sb.Where(sb.Equal("owner_id", owner))
	sb.OrderBy("name ASC", "id ASC")

	contacts := []Contact{}
	if err := c.selectAll(ctx, &contacts, sb); err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

// CountContacts returns how many contacts the owner has.
func (c conn) CountContacts(ctx context.Context, owner string) (int, error) {
	return c.count(ctx, "contacts", byOwner(owner))
}
