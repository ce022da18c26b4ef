// Package query answers retrieval intents from the store and renders the
// result as a chat reply.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/sth00619/chat-manage/internal/intent"
	"github.com/sth00619/chat-manage/internal/logging"
	"github.com/sth00619/chat-manage/internal/store"
	"github.com/sth00619/chat-manage/internal/timeframe"
)

// Reader is the read side of the store used by the executor.
type Reader interface {
	ListSchedules(ctx context.Context, owner string, f store.ScheduleFilter) ([]store.Schedule, error)
	ListContacts(ctx context.Context, owner string) ([]store.Contact, error)
	ListGoals(ctx context.Context, owner string) ([]store.Goal, error)
	CountContacts(ctx context.Context, owner string) (int, error)
	CountGoals(ctx context.Context, owner string, statuses ...store.GoalStatus) (int, error)
}

// Result is an answered query. Data holds the rows behind Message.
type Result struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// Digest is the data behind a summary reply.
type Digest struct {
	Schedules     []store.Schedule `json:"schedules"`
	ContactsCount int              `json:"contacts_count"`
	GoalsCount    int              `json:"goals_count"`
}

// Config configures an Executor.
type Config struct {
	// Location renders times. Default UTC.
	Location *time.Location
	Logger   ectologger.Logger
}

// Executor runs intents against a Reader.
type Executor struct {
	reader Reader
	format *Formatter
	logger ectologger.Logger
}

// NewExecutor creates an executor reading from r.
func NewExecutor(r Reader, cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Executor{
		reader: r,
		format: NewFormatter(cfg.Location),
		logger: cfg.Logger,
	}
}

// Execute answers in for owner.
func (e *Executor) Execute(ctx context.Context, owner string, in intent.Intent) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch in.Category {
	case intent.Schedules:
		res, err = e.schedules(ctx, owner, in.Timeframe)
	case intent.Contacts:
		res, err = e.contacts(ctx, owner)
	case intent.Goals:
		res, err = e.goals(ctx, owner)
	default:
		res, err = e.summary(ctx, owner, in.Timeframe)
	}
	if err != nil {
		return nil, fmt.Errorf("executing %s query: %w", in.Category, err)
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":  owner,
		"category":  string(in.Category),
		"timeframe": in.Timeframe.Kind.String(),
	}).Debug("query executed")
	return res, nil
}

func (e *Executor) schedules(ctx context.Context, owner string, tf timeframe.Timeframe) (*Result, error) {
	rows, err := e.reader.ListSchedules(ctx, owner, scheduleFilter(tf))
	if err != nil {
		return nil, err
	}
	return &Result{Data: rows, Message: e.format.Schedules(rows, tf)}, nil
}

func (e *Executor) contacts(ctx context.Context, owner string) (*Result, error) {
	rows, err := e.reader.ListContacts(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &Result{Data: rows, Message: e.format.Contacts(rows)}, nil
}

func (e *Executor) goals(ctx context.Context, owner string) (*Result, error) {
	rows, err := e.reader.ListGoals(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &Result{Data: rows, Message: e.format.Goals(rows)}, nil
}

func (e *Executor) summary(ctx context.Context, owner string, tf timeframe.Timeframe) (*Result, error) {
	schedules, err := e.reader.ListSchedules(ctx, owner, scheduleFilter(tf))
	if err != nil {
		return nil, err
	}
	contacts, err := e.reader.CountContacts(ctx, owner)
	if err != nil {
		return nil, err
	}
	goals, err := e.reader.CountGoals(ctx, owner, store.GoalPending)
	if err != nil {
		return nil, err
	}
	d := &Digest{Schedules: schedules, ContactsCount: contacts, GoalsCount: goals}
	return &Result{Data: d, Message: e.format.Summary(d)}, nil
}

// scheduleFilter maps a timeframe to a store filter. Month queries also
// match undated schedules whose title names the month.
func scheduleFilter(tf timeframe.Timeframe) store.ScheduleFilter {
	if tf.IsZero() {
		return store.ScheduleFilter{}
	}
	f := store.ScheduleFilter{From: tf.Start, To: tf.End}
	if tf.Kind == timeframe.Month {
		f.UndatedTitleContains = fmt.Sprintf("%d월", int(tf.Month))
	}
	return f
}
