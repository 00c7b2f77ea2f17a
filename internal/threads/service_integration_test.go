package threads_test

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/threadlinehq/threadline/db"
	"github.com/threadlinehq/threadline/internal/contacts"
	"github.com/threadlinehq/threadline/internal/db"
	"github.com/threadlinehq/threadline/internal/threads"
)

func setupLedgerIntegrationTest(t *testing.T) (*threads.Service, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}

	source, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		t.Fatalf("migration source: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := db.RunMigrate(logger, dsn, source, "up", nil); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE messages, threads, contacts RESTART IDENTITY CASCADE"); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}

	t.Cleanup(pool.Close)
	return threads.NewService(nil, pool), pool
}

func createContact(t *testing.T, pool *pgxpool.Pool, first, last, phone string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO contacts (first_name, last_name, phone) VALUES ($1, $2, $3) RETURNING id`,
		first, last, phone).Scan(&id)
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return id
}

func TestCreateAndListOpen(t *testing.T) {
	svc, pool := setupLedgerIntegrationTest(t)
	ctx := context.Background()

	maryID := createContact(t, pool, "Mary", "Adams", "+15551234")

	thread, err := svc.Create(ctx, maryID, "Appointment")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if thread.Status != threads.StatusOpen {
		t.Fatalf("status = %q, want open", thread.Status)
	}

	open, err := svc.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open count = %d, want 1", len(open))
	}
	if open[0].ID != thread.ID || open[0].ContactName != "Mary Adams" || open[0].AppointmentType != "Appointment" {
		t.Fatalf("open thread = %+v", open[0])
	}
}

func TestCreateForUnknownContact(t *testing.T) {
	svc, _ := setupLedgerIntegrationTest(t)

	if _, err := svc.Create(context.Background(), 999999, "Appointment"); !errors.Is(err, contacts.ErrContactNotFound) {
		t.Fatalf("error = %v, want ErrContactNotFound", err)
	}
}

func TestDuplicateOpenThreadsArePermitted(t *testing.T) {
	svc, pool := setupLedgerIntegrationTest(t)
	ctx := context.Background()

	maryID := createContact(t, pool, "Mary", "Adams", "+15551234")

	first, err := svc.Create(ctx, maryID, "Appointment")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, maryID, "Appointment")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	open, err := svc.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open count = %d, want 2", len(open))
	}

	// Routing picks the most-recently-created of the duplicates.
	found, err := svc.FindOpenByPhone(ctx, "+15551234")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if found.ID != second.ID {
		t.Fatalf("found thread %d, want most recent %d (not %d)", found.ID, second.ID, first.ID)
	}
}

func TestAppendWithoutThreadAssociation(t *testing.T) {
	svc, _ := setupLedgerIntegrationTest(t)
	ctx := context.Background()

	message, err := svc.Append(ctx, nil, threads.DirectionIn, "hello?")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if message.ThreadID != nil {
		t.Fatalf("thread id = %v, want nil", message.ThreadID)
	}
	if message.CreatedAt.IsZero() {
		t.Fatal("timestamp should be assigned by the ledger")
	}

	open, err := svc.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("open count = %d, want 0", len(open))
	}
}

func TestAppendTimestampsAreMonotonic(t *testing.T) {
	svc, pool := setupLedgerIntegrationTest(t)
	ctx := context.Background()

	maryID := createContact(t, pool, "Mary", "Adams", "+15551234")
	thread, err := svc.Create(ctx, maryID, "Appointment")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	first, err := svc.Append(ctx, &thread.ID, threads.DirectionOut, "first")
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	second, err := svc.Append(ctx, &thread.ID, threads.DirectionIn, "second")
	if err != nil {
		t.Fatalf("append second: %v", err)
	}
	if second.CreatedAt.Before(first.CreatedAt) {
		t.Fatalf("timestamps went backwards: %v then %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestCloseThread(t *testing.T) {
	svc, pool := setupLedgerIntegrationTest(t)
	ctx := context.Background()

	maryID := createContact(t, pool, "Mary", "Adams", "+15551234")
	thread, err := svc.Create(ctx, maryID, "Appointment")
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	if err := svc.Close(ctx, thread.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.FindOpenByPhone(ctx, "+15551234"); !errors.Is(err, threads.ErrNoOpenThread) {
		t.Fatalf("find open after close = %v, want ErrNoOpenThread", err)
	}

	if err := svc.Close(ctx, 999999); !errors.Is(err, threads.ErrThreadNotFound) {
		t.Fatalf("close unknown = %v, want ErrThreadNotFound", err)
	}
}
