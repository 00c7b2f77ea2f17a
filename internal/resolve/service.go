// Package resolve turns free-text operator input into concrete contacts and
// threads, and routes inbound messages to the correct open thread.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/threadlinehq/threadline/internal/contacts"
	"github.com/threadlinehq/threadline/internal/match"
	"github.com/threadlinehq/threadline/internal/threads"
)

// ErrNoMatch is returned when the matcher produced nothing above the
// confidence floor.
var ErrNoMatch = errors.New("no match above confidence floor")

// ConflictError reports a matched name that no longer resolved to a contact.
// This happens only when the store changed between ranking and lookup.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("could not resolve contact for %s", e.Name)
}

// ContactDirectory is the contact store surface the resolver needs.
type ContactDirectory interface {
	List(ctx context.Context) ([]contacts.Contact, error)
	GetByFullName(ctx context.Context, name string) (contacts.Contact, error)
	BulkLoad(ctx context.Context) (contacts.LoadResult, error)
}

// Ledger is the thread ledger surface the resolver needs.
type Ledger interface {
	Create(ctx context.Context, contactID int64, appointmentType string) (threads.Thread, error)
	FindOpenByPhone(ctx context.Context, phone string) (threads.Thread, error)
	Append(ctx context.Context, threadID *int64, direction, text string) (threads.Message, error)
}

// Ranker ranks candidate names against a query.
type Ranker interface {
	Rank(query string, candidates []string, limit, minScore int) []match.Result
}

// RankerFunc adapts a ranking function to the Ranker interface.
type RankerFunc func(query string, candidates []string, limit, minScore int) []match.Result

// Rank calls f.
func (f RankerFunc) Rank(query string, candidates []string, limit, minScore int) []match.Result {
	return f(query, candidates, limit, minScore)
}

// Sender delivers outbound messages through the SMS gateway.
type Sender interface {
	Send(ctx context.Context, toPhone, message string) (string, error)
}

// Resolution is the outcome of a successful resolve-and-create.
type Resolution struct {
	ThreadID    int64  `json:"thread_id"`
	DisplayName string `json:"contact_name"`
	Phone       string `json:"contact_phone"`
}

// Service orchestrates matcher, contact store, and thread ledger. It owns no
// persistent state.
type Service struct {
	directory ContactDirectory
	ledger    Ledger
	ranker    Ranker
	sender    Sender
	logger    *slog.Logger
}

// NewService creates a resolution service. A nil ranker falls back to the
// default fuzzy matcher; a nil sender disables outbound confirmations.
func NewService(log *slog.Logger, directory ContactDirectory, ledger Ledger, ranker Ranker, sender Sender) *Service {
	if log == nil {
		log = slog.Default()
	}
	if ranker == nil {
		ranker = RankerFunc(match.Rank)
	}
	return &Service{
		directory: directory,
		ledger:    ledger,
		ranker:    ranker,
		sender:    sender,
		logger:    log.With(slog.String("service", "resolve")),
	}
}

// ResolveAndCreateThread ranks freeText against the contact display names,
// resolves the top match back to a contact, and opens a new thread of the
// given appointment type for it.
//
// Returns ErrNoMatch when nothing clears the confidence floor and a
// ConflictError when the matched name no longer resolves (concurrent store
// change). On success a confirmation SMS is sent best-effort and recorded as
// an outbound message; gateway failures are logged, never retried, and do not
// fail the operation.
func (s *Service) ResolveAndCreateThread(ctx context.Context, freeText, appointmentType string) (Resolution, error) {
	all, err := s.directory.List(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("list contacts: %w", err)
	}

	// Rank against a snapshot of names, not the live store.
	names := make([]string, len(all))
	for i, contact := range all {
		names[i] = contact.DisplayName()
	}

	ranks := s.ranker.Rank(freeText, names, match.DefaultLimit, match.DefaultMinScore)
	if len(ranks) == 0 {
		return Resolution{}, fmt.Errorf("%q: %w", freeText, ErrNoMatch)
	}
	top := ranks[0]

	contact, err := s.directory.GetByFullName(ctx, top.Target)
	if err != nil {
		if errors.Is(err, contacts.ErrContactNotFound) {
			return Resolution{}, &ConflictError{Name: top.Target}
		}
		return Resolution{}, fmt.Errorf("resolve %q: %w", top.Target, err)
	}

	thread, err := s.ledger.Create(ctx, contact.ID, appointmentType)
	if err != nil {
		return Resolution{}, fmt.Errorf("create thread for %q: %w", contact.DisplayName(), err)
	}

	s.logger.Info("resolved thread",
		slog.String("query", freeText),
		slog.String("matched", top.Target),
		slog.Int("score", top.Score),
		slog.Int64("thread_id", thread.ID),
	)

	s.sendConfirmation(ctx, thread, contact, appointmentType)

	return Resolution{
		ThreadID:    thread.ID,
		DisplayName: contact.DisplayName(),
		Phone:       contact.Phone,
	}, nil
}

// RouteIncoming appends an inbound message to the sender's most recent open
// thread. The message is persisted even when no open thread exists; it is
// recorded without a thread association rather than dropped.
func (s *Service) RouteIncoming(ctx context.Context, senderPhone, text string) (threads.Message, error) {
	var threadID *int64
	thread, err := s.ledger.FindOpenByPhone(ctx, senderPhone)
	switch {
	case err == nil:
		threadID = &thread.ID
	case errors.Is(err, threads.ErrNoOpenThread):
		s.logger.Info("no open thread for sender, recording unrouted message",
			slog.String("phone", senderPhone))
	default:
		return threads.Message{}, fmt.Errorf("find open thread for %s: %w", senderPhone, err)
	}

	message, err := s.ledger.Append(ctx, threadID, threads.DirectionIn, text)
	if err != nil {
		return threads.Message{}, fmt.Errorf("record inbound message: %w", err)
	}
	return message, nil
}

func (s *Service) sendConfirmation(ctx context.Context, thread threads.Thread, contact contacts.Contact, appointmentType string) {
	if s.sender == nil {
		return
	}
	text := fmt.Sprintf("New %s thread started.", appointmentType)
	status, err := s.sender.Send(ctx, contact.Phone, text)
	if err != nil {
		s.logger.Warn("confirmation send failed",
			slog.Int64("thread_id", thread.ID),
			slog.Any("error", err),
		)
		return
	}
	if _, err := s.ledger.Append(ctx, &thread.ID, threads.DirectionOut, text); err != nil {
		s.logger.Warn("record outbound message failed",
			slog.Int64("thread_id", thread.ID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Info("confirmation sent",
		slog.Int64("thread_id", thread.ID),
		slog.String("status", status),
	)
}
