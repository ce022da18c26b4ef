// Package chat is the conversation entry point. A message is classified and
// then either answered from the store or sent through LLM extraction and
// reconciled into the store.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sth00619/chat-manage/internal/extract"
	"github.com/sth00619/chat-manage/internal/intent"
	"github.com/sth00619/chat-manage/internal/llm"
	"github.com/sth00619/chat-manage/internal/logging"
	"github.com/sth00619/chat-manage/internal/query"
	"github.com/sth00619/chat-manage/internal/reconcile"
	"github.com/sth00619/chat-manage/internal/store"
	"github.com/sth00619/chat-manage/internal/timeframe"
)

// ResponseType tells which path produced a Response.
type ResponseType string

const (
	TypeQuery      ResponseType = "query"
	TypeExtraction ResponseType = "extraction"
)

// Replies shown to the user.
const (
	msgUnderstood    = "메시지를 이해했습니다. 어떻게 도와드릴까요?"
	msgProcessed     = "정보를 처리했습니다."
	msgSavedPrefix   = "다음 정보를 저장했습니다: "
	msgQueryFailed   = "죄송합니다. 정보를 조회하는 중 오류가 발생했습니다."
	msgExtractFailed = "죄송합니다. 메시지를 처리하는 중 오류가 발생했습니다."
	msgRateLimited   = "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요."
	msgBadAPIKey     = "LLM API 키가 올바르지 않습니다."
)

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("empty message")

// Response is the reply envelope for one message.
type Response struct {
	Message   string       `json:"message"`
	Data      any          `json:"data,omitempty"`
	Type      ResponseType `json:"type"`
	RequestID string       `json:"request_id"`
}

// Extractor turns a message into candidate records.
type Extractor interface {
	Extract(ctx context.Context, message string) (*extract.Batch, error)
}

// Config configures a Service.
type Config struct {
	// Location is the user's time zone for timeframes and naive timestamps.
	// Default UTC.
	Location *time.Location
	// Clock supplies "now". Default time.Now.
	Clock  func() time.Time
	Logger ectologger.Logger
	// Extractor overrides the LLM extractor built from the provider.
	Extractor Extractor
}

// Service routes messages through the query or extraction path.
type Service struct {
	store      *store.Store
	resolver   *timeframe.Resolver
	clock      func() time.Time
	classifier *intent.Classifier
	executor   *query.Executor
	extractor  Extractor
	reconciler *reconcile.Reconciler
	logger     ectologger.Logger
}

// NewService wires the pipeline over s, extracting with provider.
func NewService(s *store.Store, provider llm.Provider, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	loc, clock := cfg.Location, cfg.Clock
	localNow := func() time.Time { return clock().In(loc) }

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = extract.NewExtractor(provider, extract.Config{
			Location: loc,
			Clock:    localNow,
			Logger:   cfg.Logger,
		})
	}

	resolver := timeframe.NewResolver(timeframe.DefaultVocabulary())
	return &Service{
		store:      s,
		resolver:   resolver,
		clock:      localNow,
		classifier: intent.NewClassifier(intent.DefaultPatterns(), resolver, localNow),
		executor:   query.NewExecutor(s, query.Config{Location: loc, Logger: cfg.Logger}),
		extractor:  extractor,
		reconciler: reconcile.New(s, reconcile.Config{Location: loc, Logger: cfg.Logger}),
		logger:     cfg.Logger,
	}
}

// HandleMessage answers one chat message from owner. On failure it returns
// both a displayable Response and the error.
func (s *Service) HandleMessage(ctx context.Context, owner, text string) (*Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if owner == "" {
		return nil, fmt.Errorf("handling message: empty owner")
	}

	requestID := uuid.NewString()
	logger := s.logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":   owner,
		"request_id": requestID,
	})

	in := s.classifier.Classify(text)
	var (
		resp *Response
		err  error
	)
	if in.IsQuery {
		resp, err = s.handleQuery(ctx, owner, in)
	} else {
		resp, err = s.handleExtraction(ctx, owner, text)
	}
	resp.RequestID = requestID
	if err != nil {
		logger.WithError(err).WithField("type", string(resp.Type)).Error("message failed")
		return resp, err
	}

	if uerr := s.store.RecordUsage(ctx, owner, store.ActionChatMessage); uerr != nil {
		logger.WithError(uerr).Warn("recording usage")
	}
	logger.WithFields(map[string]any{
		"type":      string(resp.Type),
		"category":  string(in.Category),
		"timeframe": in.Timeframe.Kind.String(),
	}).Info("message handled")
	return resp, nil
}

// Summary counts the owner's stored records.
func (s *Service) Summary(ctx context.Context, owner string) (*store.DataSummary, error) {
	sum, err := s.store.Summary(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("summarizing data: %w", err)
	}
	return sum, nil
}

// Query runs a retrieval directly, skipping classification. when is an
// optional timeframe: a relative kind name such as "nextWeek", or an
// expression such as "다음 주" or "7월".
func (s *Service) Query(ctx context.Context, owner string, category intent.Category, when string) (*Response, error) {
	if owner == "" {
		return nil, fmt.Errorf("querying: empty owner")
	}
	switch category {
	case intent.Schedules, intent.Contacts, intent.Goals, intent.None:
	default:
		return nil, fmt.Errorf("querying: unknown category %q", category)
	}
	in := intent.Intent{IsQuery: true, Category: category}
	if strings.TrimSpace(when) != "" {
		in.Timeframe = s.resolveWhen(when)
	}
	resp, err := s.handleQuery(ctx, owner, in)
	resp.RequestID = uuid.NewString()
	return resp, err
}

// NumericalInfo lists the owner's numerical facts, newest first. An empty
// category lists every category.
func (s *Service) NumericalInfo(ctx context.Context, owner, category string) ([]store.NumericalInfo, error) {
	if owner == "" {
		return nil, fmt.Errorf("listing numerical info: empty owner")
	}
	infos, err := s.store.ListNumericalInfo(ctx, owner, strings.ToLower(strings.TrimSpace(category)))
	if err != nil {
		return nil, err
	}
	return infos, nil
}

func (s *Service) resolveWhen(when string) timeframe.Timeframe {
	now := s.clock()
	if k, ok := timeframe.ParseKind(when); ok {
		if tf := timeframe.Relative(k, now); !tf.IsZero() {
			return tf
		}
	}
	return s.resolver.Resolve(when, now)
}

func (s *Service) handleQuery(ctx context.Context, owner string, in intent.Intent) (*Response, error) {
	res, err := s.executor.Execute(ctx, owner, in)
	if err != nil {
		return &Response{Message: msgQueryFailed, Type: TypeQuery}, fmt.Errorf("query: %w", err)
	}
	return &Response{Message: res.Message, Data: res.Data, Type: TypeQuery}, nil
}

func (s *Service) handleExtraction(ctx context.Context, owner, text string) (*Response, error) {
	batch, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return &Response{Message: failureMessage(err), Type: TypeExtraction}, fmt.Errorf("extraction: %w", err)
	}
	if batch == nil {
		batch = &extract.Batch{}
	}
	res, err := s.reconciler.Reconcile(ctx, owner, batch)
	if err != nil {
		return &Response{Message: msgExtractFailed, Type: TypeExtraction}, fmt.Errorf("extraction: %w", err)
	}
	return &Response{Message: extractionReply(batch, res), Data: res, Type: TypeExtraction}, nil
}

// failureMessage picks the user-facing text for an extraction error.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, llm.ErrUnauthorized):
		return msgBadAPIKey
	default:
		return msgExtractFailed
	}
}

// extractionReply describes what was saved, falling back to the model's own
// reply. Conflicts add one warning line each.
func extractionReply(batch *extract.Batch, res *reconcile.Result) string {
	var msg string
	switch {
	case res.Saved() > 0:
		msg = msgSavedPrefix + savedCounts(res)
	case !batch.Reply.Empty():
		msg = batch.Reply.String()
	case batch.Len() > 0:
		msg = msgProcessed
	default:
		msg = msgUnderstood
	}

	for _, c := range res.Conflicts {
		msg += fmt.Sprintf("\n⚠️ '%s' 일정이 기존 일정 '%s'과(와) 시간이 겹칩니다.", c.Schedule.Title, c.Existing.Title)
	}
	return msg
}

func savedCounts(res *reconcile.Result) string {
	counts := []struct {
		n    int
		noun string
	}{
		{len(res.Contacts), "연락처"},
		{len(res.Credentials), "계정 정보"},
		{len(res.Goals), "목표"},
		{len(res.Schedules), "일정"},
		{len(res.NumericalInfo), "수치 정보"},
	}
	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d개의 %s", c.n, c.noun))
		}
	}
	return strings.Join(parts, ", ")
}
