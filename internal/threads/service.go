// Package threads provides the thread ledger: thread lifecycle and message rows.
package threads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadlinehq/threadline/internal/contacts"
	dbpkg "github.com/threadlinehq/threadline/internal/db"
)

var (
	// ErrThreadNotFound is returned when a thread id does not resolve.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrNoOpenThread is returned when a contact has no open thread.
	ErrNoOpenThread = errors.New("no open thread")
)

// Service exclusively owns thread and message rows and all transitions on them.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a thread ledger backed by the given pool.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "threads")),
	}
}

// Create inserts a new open thread for the given contact. A contact id that
// does not resolve maps to contacts.ErrContactNotFound. Duplicate open threads
// for one contact are permitted.
func (s *Service) Create(ctx context.Context, contactID int64, appointmentType string) (Thread, error) {
	var (
		thread    Thread
		createdAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO threads (contact_id, appointment_type)
		 VALUES ($1, $2)
		 RETURNING id, contact_id, appointment_type, status, created_at`,
		contactID, appointmentType,
	).Scan(&thread.ID, &thread.ContactID, &thread.AppointmentType, &thread.Status, &createdAt)
	if err != nil {
		if dbpkg.IsForeignKeyViolation(err) {
			return Thread{}, contacts.ErrContactNotFound
		}
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	thread.CreatedAt = dbpkg.TimeFromPg(createdAt)

	s.logger.Info("thread created",
		slog.Int64("thread_id", thread.ID),
		slog.Int64("contact_id", thread.ContactID),
		slog.String("appointment_type", thread.AppointmentType),
	)
	return thread, nil
}

// ListOpen returns all open threads joined with their owning contact, in
// creation order.
func (s *Service) ListOpen(ctx context.Context) ([]OpenThread, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, c.first_name || ' ' || c.last_name, c.phone, t.appointment_type
		 FROM threads t
		 JOIN contacts c ON c.id = t.contact_id
		 WHERE t.status = $1
		 ORDER BY t.id`,
		StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("list open threads: %w", err)
	}
	defer rows.Close()

	var items []OpenThread
	for rows.Next() {
		var item OpenThread
		if err := rows.Scan(&item.ID, &item.ContactName, &item.ContactPhone, &item.AppointmentType); err != nil {
			return nil, fmt.Errorf("scan open thread: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindOpenByPhone returns the most-recently-created open thread for the
// contact with the given phone, or ErrNoOpenThread. The most-recent choice is
// deliberate: several open threads per contact are possible, and picking the
// newest keeps routing deterministic.
func (s *Service) FindOpenByPhone(ctx context.Context, phone string) (Thread, error) {
	var (
		thread    Thread
		createdAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`SELECT t.id, t.contact_id, t.appointment_type, t.status, t.created_at
		 FROM threads t
		 JOIN contacts c ON c.id = t.contact_id
		 WHERE c.phone = $1 AND t.status = $2
		 ORDER BY t.id DESC
		 LIMIT 1`,
		phone, StatusOpen,
	).Scan(&thread.ID, &thread.ContactID, &thread.AppointmentType, &thread.Status, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Thread{}, ErrNoOpenThread
		}
		return Thread{}, fmt.Errorf("find open thread: %w", err)
	}
	thread.CreatedAt = dbpkg.TimeFromPg(createdAt)
	return thread, nil
}

// Append inserts a message row. A nil threadID records the message without a
// thread association. The timestamp is assigned here, not by the caller.
func (s *Service) Append(ctx context.Context, threadID *int64, direction, text string) (Message, error) {
	var (
		message   Message
		pgThread  pgtype.Int8
		createdAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (thread_id, direction, text)
		 VALUES ($1, $2, $3)
		 RETURNING id, thread_id, direction, text, created_at`,
		dbpkg.NullableID(threadID), direction, text,
	).Scan(&message.ID, &pgThread, &message.Direction, &message.Text, &createdAt)
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	message.ThreadID = dbpkg.IDFromPg(pgThread)
	message.CreatedAt = dbpkg.TimeFromPg(createdAt)
	return message, nil
}

// Close sets a thread's status to closed, or returns ErrThreadNotFound.
// Closed threads are never reopened.
func (s *Service) Close(ctx context.Context, threadID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE threads SET status = $1 WHERE id = $2`,
		StatusClosed, threadID)
	if err != nil {
		return fmt.Errorf("close thread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrThreadNotFound
	}
	s.logger.Info("thread closed", slog.Int64("thread_id", threadID))
	return nil
}
