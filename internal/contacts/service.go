// Package contacts provides the canonical contact store and its idempotent bulk load.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	dbpkg "github.com/threadlinehq/threadline/internal/db"
)

// ErrContactNotFound is returned when no contact matches a lookup.
var ErrContactNotFound = errors.New("contact not found")

// Service owns contact rows. Contacts are created by bulk load, never mutated
// or deleted.
type Service struct {
	pool    *pgxpool.Pool
	csvPath string
	logger  *slog.Logger
}

// NewService creates a contact store backed by the given pool, loading bulk
// imports from csvPath.
func NewService(log *slog.Logger, pool *pgxpool.Pool, csvPath string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:    pool,
		csvPath: csvPath,
		logger:  log.With(slog.String("service", "contacts")),
	}
}

// BulkLoad imports contacts from the configured CSV source.
//
// The call is idempotent: when the store already holds at least one contact it
// is a no-op reporting AlreadyPopulated. A missing source file is a soft
// failure reporting SourceMissing, not an error. Records whose phone collides
// with an earlier row in the same call are skipped. All inserts run in one
// transaction.
func (s *Service) BulkLoad(ctx context.Context) (LoadResult, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM contacts`).Scan(&count); err != nil {
		return LoadResult{}, fmt.Errorf("count contacts: %w", err)
	}
	if count > 0 {
		s.logger.Info("contact store already populated", slog.Int("contacts", count))
		return LoadResult{AlreadyPopulated: true}, nil
	}

	file, err := os.Open(s.csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("contact source missing, nothing loaded", slog.String("path", s.csvPath))
			return LoadResult{SourceMissing: true}, nil
		}
		return LoadResult{}, fmt.Errorf("open contact source: %w", err)
	}
	defer file.Close()

	records, err := ReadSource(file)
	if err != nil {
		return LoadResult{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("begin bulk load: %w", err)
	}
	defer tx.Rollback(ctx)

	result := LoadResult{}
	for _, record := range records {
		tag, err := tx.Exec(ctx,
			`INSERT INTO contacts (first_name, last_name, phone)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (phone) DO NOTHING`,
			record.FirstName, record.LastName, record.Phone,
		)
		if err != nil {
			return LoadResult{}, fmt.Errorf("insert contact %s: %w", record.Phone, err)
		}
		if tag.RowsAffected() == 0 {
			result.Skipped++
			continue
		}
		result.Loaded++
	}

	if err := tx.Commit(ctx); err != nil {
		return LoadResult{}, fmt.Errorf("commit bulk load: %w", err)
	}

	s.logger.Info("contacts imported",
		slog.Int("loaded", result.Loaded),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// List returns all contacts in insertion order.
func (s *Service) List(ctx context.Context) ([]Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, first_name, last_name, phone, created_at FROM contacts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var items []Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, contact)
	}
	return items, rows.Err()
}

// GetByPhone returns the contact with the given phone, or ErrContactNotFound.
func (s *Service) GetByPhone(ctx context.Context, phone string) (Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, phone, created_at FROM contacts WHERE phone = $1`,
		phone)
	return scanContactRow(row)
}

// GetByFullName returns the first contact (by id) whose display name equals
// name case-insensitively, or ErrContactNotFound.
func (s *Service) GetByFullName(ctx context.Context, name string) (Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, phone, created_at FROM contacts
		 WHERE lower(first_name || ' ' || last_name) = lower($1)
		 ORDER BY id
		 LIMIT 1`,
		name)
	return scanContactRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (Contact, error) {
	var (
		contact   Contact
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&contact.ID, &contact.FirstName, &contact.LastName, &contact.Phone, &createdAt); err != nil {
		return Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	contact.CreatedAt = dbpkg.TimeFromPg(createdAt)
	return contact, nil
}

func scanContactRow(row pgx.Row) (Contact, error) {
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, err
	}
	return contact, nil
}
