// Package reconcile persists an extracted candidate batch for one owner.
//
// A batch is reconciled inside a single store transaction. Candidates that
// fail validation are dropped. Contacts and credentials are merged into
// existing rows on their natural keys; goals, schedules and numerical facts
// are always inserted. A schedule overlapping an existing one is still
// inserted and reported as a Conflict.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/sth00619/chat-manage/internal/extract"
	"github.com/sth00619/chat-manage/internal/logging"
	"github.com/sth00619/chat-manage/internal/store"
)

// Conflict reports that a newly saved schedule overlaps an existing one.
type Conflict struct {
	Schedule store.Schedule `json:"schedule"`
	Existing store.Schedule `json:"existing"`
}

// Result holds the rows persisted for a batch, after merging.
type Result struct {
	Contacts      []store.Contact       `json:"contacts"`
	Credentials   []store.Credential    `json:"credentials"`
	Goals         []store.Goal          `json:"goals"`
	Schedules     []store.Schedule      `json:"schedules"`
	NumericalInfo []store.NumericalInfo `json:"numerical_info"`
	Conflicts     []Conflict            `json:"conflicts,omitempty"`
}

// Saved counts persisted rows across every type.
func (r *Result) Saved() int {
	if r == nil {
		return 0
	}
	return len(r.Contacts) + len(r.Credentials) + len(r.Goals) + len(r.Schedules) + len(r.NumericalInfo)
}

// Config configures a Reconciler.
type Config struct {
	// Location reads timestamps that carry no offset. Default UTC.
	Location *time.Location
	// Buckets categorise numerical facts. Default DefaultBuckets().
	Buckets   []Bucket
	Logger    ectologger.Logger
	Validator *validator.Validate
}

// Reconciler validates candidates and writes them to a store.
type Reconciler struct {
	store    *store.Store
	loc      *time.Location
	buckets  []Bucket
	logger   ectologger.Logger
	validate *validator.Validate
}

// New creates a Reconciler writing to s.
func New(s *store.Store, cfg Config) *Reconciler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Buckets == nil {
		cfg.Buckets = DefaultBuckets()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Reconciler{
		store:    s,
		loc:      cfg.Location,
		buckets:  cfg.Buckets,
		logger:   cfg.Logger,
		validate: cfg.Validator,
	}
}

// Reconcile persists batch for owner. Either every accepted candidate is
// written or, on any storage error, none are.
func (r *Reconciler) Reconcile(ctx context.Context, owner string, batch *extract.Batch) (*Result, error) {
	if owner == "" {
		return nil, fmt.Errorf("reconciling batch: empty owner")
	}
	res := &Result{
		Contacts:      []store.Contact{},
		Credentials:   []store.Credential{},
		Goals:         []store.Goal{},
		Schedules:     []store.Schedule{},
		NumericalInfo: []store.NumericalInfo{},
	}
	if batch.Len() == 0 {
		return res, nil
	}

	err := r.store.Transaction(ctx, func(tx *store.Tx) error {
		for _, c := range batch.Contacts {
			if !r.accept(ctx, "contact", c) {
				continue
			}
			ct, err := r.mergeContact(ctx, tx, owner, c)
			if err != nil {
				return err
			}
			res.Contacts = append(res.Contacts, *ct)
		}
		for _, c := range batch.Credentials {
			if !r.accept(ctx, "credential", c) {
				continue
			}
			cr, err := r.mergeCredential(ctx, tx, owner, c)
			if err != nil {
				return err
			}
			res.Credentials = append(res.Credentials, *cr)
		}
		for _, c := range batch.Goals {
			if !r.accept(ctx, "goal", c) {
				continue
			}
			g := r.goalFromCandidate(owner, c)
			if err := tx.InsertGoal(ctx, g); err != nil {
				return err
			}
			res.Goals = append(res.Goals, *g)
		}
		for _, c := range batch.Schedules {
			if !r.accept(ctx, "schedule", c) {
				continue
			}
			start, end, ok := scheduleRange(c.StartTime.String(), c.EndTime.String(), r.loc)
			if !ok {
				r.drop(ctx, "schedule", fmt.Errorf("unparseable start_time %q", c.StartTime))
				continue
			}
			s := &store.Schedule{
				OwnerID:     owner,
				Title:       c.Title.String(),
				Description: c.Description.String(),
				StartTime:   &start,
				EndTime:     &end,
				Location:    c.Location.String(),
			}
			existing, err := tx.FindOverlappingSchedule(ctx, owner, start, end)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			if err := tx.InsertSchedule(ctx, s); err != nil {
				return err
			}
			res.Schedules = append(res.Schedules, *s)
			if existing != nil {
				r.logger.WithContext(ctx).WithFields(map[string]any{
					"owner_id":    owner,
					"schedule":    s.Title,
					"existing_id": existing.ID,
					"existing":    existing.Title,
				}).Warn("schedule conflict detected")
				res.Conflicts = append(res.Conflicts, Conflict{Schedule: *s, Existing: *existing})
			}
		}
		for _, c := range batch.NumericalInfo {
			if !r.accept(ctx, "numerical_info", c) {
				continue
			}
			category := strings.ToLower(c.Category.String())
			if category == "" {
				category = Categorize(r.buckets, c.Label.String())
			}
			n := &store.NumericalInfo{
				OwnerID:  owner,
				Category: category,
				Label:    c.Label.String(),
				Value:    c.Value.String(),
				Unit:     c.Unit.String(),
			}
			if err := tx.InsertNumericalInfo(ctx, n); err != nil {
				return err
			}
			res.NumericalInfo = append(res.NumericalInfo, *n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconciling batch: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":       owner,
		"contacts":       len(res.Contacts),
		"credentials":    len(res.Credentials),
		"goals":          len(res.Goals),
		"schedules":      len(res.Schedules),
		"numerical_info": len(res.NumericalInfo),
		"conflicts":      len(res.Conflicts),
		"dropped":        batch.Len() - res.Saved(),
	}).Info("batch reconciled")
	return res, nil
}

// accept runs the struct validation gate on a candidate.
func (r *Reconciler) accept(ctx context.Context, kind string, candidate any) bool {
	if err := r.validate.Struct(candidate); err != nil {
		r.drop(ctx, kind, err)
		return false
	}
	return true
}

func (r *Reconciler) drop(ctx context.Context, kind string, reason error) {
	r.logger.WithContext(ctx).WithError(reason).WithField("candidate_type", kind).Debug("dropping candidate")
}

// mergeContact updates the contact sharing c's email or phone, or inserts a
// new one. Empty incoming fields keep the stored value.
func (r *Reconciler) mergeContact(ctx context.Context, tx *store.Tx, owner string, c extract.ContactCandidate) (*store.Contact, error) {
	existing, err := tx.FindContactByKey(ctx, owner, c.Email.String(), c.Phone.String())
	switch {
	case errors.Is(err, store.ErrNotFound):
		ct := &store.Contact{
			OwnerID: owner,
			Name:    c.Name.String(),
			Phone:   c.Phone.String(),
			Email:   c.Email.String(),
			Address: c.Address.String(),
			Notes:   c.Notes.String(),
		}
		if err := tx.InsertContact(ctx, ct); err != nil {
			return nil, err
		}
		return ct, nil
	case err != nil:
		return nil, err
	}

	overwrite(&existing.Name, c.Name)
	overwrite(&existing.Phone, c.Phone)
	overwrite(&existing.Email, c.Email)
	overwrite(&existing.Address, c.Address)
	overwrite(&existing.Notes, c.Notes)
	if err := tx.UpdateContact(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// mergeCredential updates the credential for the same website and username,
// or inserts a new one.
func (r *Reconciler) mergeCredential(ctx context.Context, tx *store.Tx, owner string, c extract.CredentialCandidate) (*store.Credential, error) {
	existing, err := tx.FindCredential(ctx, owner, c.Website.String(), c.Username.String())
	switch {
	case errors.Is(err, store.ErrNotFound):
		cr := &store.Credential{
			OwnerID:  owner,
			Website:  c.Website.String(),
			Username: c.Username.String(),
			Password: c.Password.String(),
			Notes:    c.Notes.String(),
		}
		if err := tx.InsertCredential(ctx, cr); err != nil {
			return nil, err
		}
		return cr, nil
	case err != nil:
		return nil, err
	}

	overwrite(&existing.Password, c.Password)
	overwrite(&existing.Notes, c.Notes)
	if err := tx.UpdateCredential(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *Reconciler) goalFromCandidate(owner string, c extract.GoalCandidate) *store.Goal {
	status := store.GoalStatus(strings.ToLower(c.Status.String()))
	if !status.Valid() {
		status = store.GoalPending
	}
	return &store.Goal{
		OwnerID:     owner,
		Title:       c.Title.String(),
		Description: c.Description.String(),
		TargetDate:  targetDate(c.TargetDate.String(), r.loc),
		Status:      status,
	}
}

// overwrite replaces *dst with v unless v is empty.
func overwrite(dst *string, v extract.Field) {
	if !v.Empty() {
		*dst = v.String()
	}
}
